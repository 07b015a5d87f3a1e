//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

// Backend owns one WebGPU device and registers GPU kernels.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	// submit serializes command submission on the queue.
	submit sync.Mutex

	info AdapterInfo
	pool *BufferPool
	host map[graph.Kind]graph.Kernel
}

// New opens the default high-performance adapter. host supplies kernels for
// kinds and dtypes without a shader.
func New(host map[graph.Kind]graph.Kernel) (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrUnavailable, adapterErr)
	}

	info := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrUnavailable, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no queue", ErrUnavailable)
	}

	return &Backend{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		info:      AdapterInfo{Name: info.Name, Vendor: info.VendorName},
		pool:      NewBufferPool(device),
		host:      host,
	}, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return Name
}

// Info describes the opened adapter.
func (b *Backend) Info() AdapterInfo {
	return b.info
}

// PoolStats reports buffer pool usage.
func (b *Backend) PoolStats() PoolStats {
	return b.pool.Stats()
}

// Register installs host fallbacks for every kind, then the shader kernels,
// all on the GPU device type.
func (b *Backend) Register(r *graph.Registry) {
	for kind, k := range b.host {
		r.Register(kind, tensor.GPU, hostName, k)
	}
	for kind := range binaryExprs {
		r.Register(kind, tensor.GPU, Name, b.binaryKernel)
	}
	for kind := range unaryExprs {
		r.Register(kind, tensor.GPU, Name, b.unaryKernel)
	}
	r.Register(ops.KindMatMul, tensor.GPU, Name, b.matmulKernel)
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pool != nil {
		b.pool.Clear()
		b.pool = nil
	}
	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// ListAdapters returns the default adapter. WebGPU has no way to enumerate
// every adapter.
func ListAdapters() (adapters []AdapterInfo, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			adapters = nil
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, adapterErr)
	}
	defer adapter.Release()

	info := adapter.GetInfo()
	return []AdapterInfo{{Name: info.Name, Vendor: info.VendorName}}, nil
}
