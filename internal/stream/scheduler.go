package stream

import (
	"sort"
	"sync"

	"github.com/born-ml/lazy/internal/tensor"
)

// Scheduler owns the streams of every device. Streams are created on first
// use, perDevice of them for each device.
type Scheduler struct {
	perDevice int
	depth     int

	mu      sync.Mutex
	streams map[tensor.Device][]*Stream
	closed  bool
}

// NewScheduler returns a scheduler with perDevice streams per device, each
// holding at most depth queued tasks.
func NewScheduler(perDevice, depth int) *Scheduler {
	if perDevice < 1 {
		perDevice = 1
	}
	return &Scheduler{
		perDevice: perDevice,
		depth:     depth,
		streams:   make(map[tensor.Device][]*Stream),
	}
}

// PerDevice returns the number of streams per device.
func (s *Scheduler) PerDevice() int { return s.perDevice }

// Stream returns the stream for key on device. The same key always maps to
// the same stream.
func (s *Scheduler) Stream(device tensor.Device, key uint64) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.streams[device]
	if !ok {
		list = make([]*Stream, s.perDevice)
		for i := range list {
			list[i] = New(device, i, s.depth)
			if s.closed {
				list[i].Close()
			}
		}
		s.streams[device] = list
	}
	return list[key%uint64(len(list))]
}

// Streams lists the created streams ordered by device then index.
func (s *Scheduler) Streams() []*Stream {
	s.mu.Lock()
	var out []*Stream
	for _, list := range s.streams {
		out = append(out, list...)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.device.Type != b.device.Type {
			return a.device.Type < b.device.Type
		}
		if a.device.Index != b.device.Index {
			return a.device.Index < b.device.Index
		}
		return a.index < b.index
	})
	return out
}

// Close drains and stops every stream. Later tasks fail with ErrClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for _, st := range s.Streams() {
		st.Close()
	}
}
