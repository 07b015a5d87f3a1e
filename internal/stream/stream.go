package stream

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/lazy/internal/tensor"
)

// Task is one unit of work executed on a stream.
type Task func() error

type item struct {
	waits []*Event
	task  Task
	done  *Event
}

// Stream is an in-order command queue bound to one device. Tasks run one at
// a time on a dedicated goroutine in enqueue order.
type Stream struct {
	device tensor.Device
	index  int

	mu     sync.Mutex
	queue  chan item
	closed bool
	wg     sync.WaitGroup
}

// New starts a stream for device. depth bounds the number of queued tasks;
// Enqueue blocks while the queue is full.
func New(device tensor.Device, index, depth int) *Stream {
	if depth < 1 {
		depth = 1
	}
	s := &Stream{
		device: device,
		index:  index,
		queue:  make(chan item, depth),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// Device returns the device the stream is bound to.
func (s *Stream) Device() tensor.Device { return s.device }

// Index returns the stream's position among the device's streams.
func (s *Stream) Index() int { return s.index }

func (s *Stream) String() string {
	return fmt.Sprintf("%s/%d", s.device, s.index)
}

// LogValue implements slog.LogValuer.
func (s *Stream) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Enqueue appends task to the stream. The task starts after every earlier
// task of this stream and after each event in waits is recorded. If any of
// those events failed the task is skipped and its event records ErrSkipped.
func (s *Stream) Enqueue(task Task, waits ...*Event) *Event {
	done := NewEvent()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		done.Record(errors.Wrapf(ErrClosed, "stream %s", s))
		return done
	}
	s.queue <- item{waits: waits, task: task, done: done}
	return done
}

// Close drains queued tasks and stops the stream goroutine.
func (s *Stream) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Stream) loop() {
	defer s.wg.Done()
	for it := range s.queue {
		it.done.Record(s.run(it))
	}
}

func (s *Stream) run(it item) error {
	for _, w := range it.waits {
		<-w.Done()
		if w.Err() != nil {
			return ErrSkipped
		}
	}
	return safeRun(it.task)
}

// safeRun keeps the stream goroutine alive when a task panics.
func safeRun(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in stream task: %v\n%s", r, debug.Stack())
		}
	}()
	return task()
}
