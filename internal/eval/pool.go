package eval

import (
	"sync"

	"github.com/born-ml/lazy/internal/tensor"
)

// maxPerKey bounds idle buffers kept per (byte size, device).
const maxPerKey = 8

type poolKey struct {
	bytes  int
	device tensor.Device
}

// PoolStats summarizes buffer reuse.
type PoolStats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Donated     int64 `json:"donated"`
	BytesReused int64 `json:"bytes_reused"`
	Idle        int   `json:"idle"`
}

// Pool recycles storages whose reference count reached zero. A buffer is
// only ever handed out again after its last owner released it.
type Pool struct {
	mu    sync.Mutex
	idle  map[poolKey][]*tensor.Storage
	stats PoolStats
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{idle: make(map[poolKey][]*tensor.Storage)}
}

// Get returns zeroed storage for spec, reusing an idle buffer of the same
// byte size on the same device when there is one. The storage returns to
// the pool when its count drops to zero.
func (p *Pool) Get(spec tensor.Spec) (*tensor.Storage, error) {
	key := poolKey{spec.ByteSize(), spec.Device}

	p.mu.Lock()
	var s *tensor.Storage
	if list := p.idle[key]; len(list) > 0 {
		s = list[len(list)-1]
		p.idle[key] = list[:len(list)-1]
		p.stats.Hits++
		p.stats.BytesReused += int64(key.bytes)
		p.stats.Idle--
	} else {
		p.stats.Misses++
	}
	p.mu.Unlock()

	if s != nil {
		if err := s.Reset(spec); err != nil {
			return nil, err
		}
	} else {
		var err error
		if s, err = tensor.NewStorage(spec); err != nil {
			return nil, err
		}
	}
	s.SetRecycler(p.put)
	return s, nil
}

func (p *Pool) put(s *tensor.Storage) {
	if s.RefCount() != 0 {
		return
	}
	spec := s.Spec()
	key := poolKey{spec.ByteSize(), spec.Device}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Donated++
	if key.bytes == 0 || len(p.idle[key]) >= maxPerKey {
		return
	}
	p.idle[key] = append(p.idle[key], s)
	p.stats.Idle++
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Clear drops every idle buffer.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.idle)
	p.stats.Idle = 0
}
