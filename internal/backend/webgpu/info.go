// Package webgpu implements the GPU backend using go-webgpu
// (github.com/go-webgpu/webgpu), a zero-CGO WebGPU binding. Float32
// element-wise and matmul kernels run as WGSL compute shaders; every other
// kind and dtype falls back to host kernels on host-visible storage.
//
// The native binding is only built on windows. Elsewhere New reports
// ErrUnavailable and the engine keeps GPU arrays unsupported.
package webgpu

import "errors"

// Name is the backend name reported in registrations and errors.
const Name = "webgpu"

// hostName labels kernels that run on the host for GPU arrays.
const hostName = "webgpu/host"

// ErrUnavailable is returned when no WebGPU adapter can be opened.
var ErrUnavailable = errors.New("webgpu: not available")

// AdapterInfo describes one GPU adapter.
type AdapterInfo struct {
	Name   string
	Vendor string
}

// PoolStats reports GPU buffer pool usage.
type PoolStats struct {
	Allocated uint64
	Released  uint64
	Hits      uint64
	Misses    uint64
	Pooled    int
}
