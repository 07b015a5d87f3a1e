//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPerKey bounds the number of idle buffers kept per (size, usage).
const maxPerKey = 16

type poolKey struct {
	size  uint64
	usage wgpu.BufferUsage
}

// BufferPool recycles GPU buffers of identical size and usage between
// kernel launches.
type BufferPool struct {
	device *wgpu.Device

	mu    sync.Mutex
	idle  map[poolKey][]*wgpu.Buffer
	stats PoolStats
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device, idle: make(map[poolKey][]*wgpu.Buffer)}
}

// Acquire returns an idle buffer of exactly size and usage or creates one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey{size, usage}
	if list := p.idle[key]; len(list) > 0 {
		buf := list[len(list)-1]
		p.idle[key] = list[:len(list)-1]
		p.stats.Hits++
		p.stats.Pooled--
		return buf
	}
	p.stats.Misses++
	p.stats.Allocated++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: usage, Size: size})
}

// Release returns a buffer to the pool, dropping it when the key is full.
func (p *BufferPool) Release(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	key := poolKey{size, usage}
	if len(p.idle[key]) >= maxPerKey {
		buf.Release()
		return
	}
	p.idle[key] = append(p.idle[key], buf)
	p.stats.Pooled++
}

// Clear releases all idle buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, list := range p.idle {
		for _, buf := range list {
			buf.Release()
		}
		delete(p.idle, key)
	}
	p.stats.Pooled = 0
}

// Stats returns statistics about buffer pool usage.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
