//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

const resultUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// pipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) pipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if p, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return p
	}
	b.mu.RUnlock()

	// Auto layout (nil layout)
	p := b.device.CreateComputePipelineSimple(nil, b.compileShader(name, code), "main")

	b.mu.Lock()
	b.pipelines[name] = p
	b.mu.Unlock()
	return p
}

// createBuffer creates a GPU buffer and uploads data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mapped), size), data)
	buffer.Unmap()
	return buffer
}

// readBuffer reads data back through a staging buffer, since storage
// buffers cannot be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, dst []byte) error {
	size := uint64(len(dst))
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(dst, unsafe.Slice((*byte)(mapped), size))
	staging.Unmap()
	return nil
}

// launch runs one compute pass. Inputs bind to 0..n-1, the result to n and
// the 16-byte uniform params to n+1. The result is read back into out.
func (b *Backend) launch(name, code string, inputs []*tensor.Storage, out *tensor.Storage, params []byte, groups [3]uint32) error {
	b.submit.Lock()
	defer b.submit.Unlock()

	p := b.pipeline(name, code)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	for i, in := range inputs {
		buf := b.createBuffer(in.Bytes(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer buf.Release()
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(in.Bytes()))))
	}

	size := uint64(len(out.Bytes()))
	result := b.pool.Acquire(size, resultUsage)
	defer b.pool.Release(result, size, resultUsage)

	uniform := b.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer uniform.Release()

	//nolint:gosec // G115: binding index is small
	n := uint32(len(inputs))
	entries = append(entries,
		wgpu.BufferBindingEntry(n, result, 0, size),
		wgpu.BufferBindingEntry(n+1, uniform, 0, uint64(len(params))),
	)
	bindGroup := b.device.CreateBindGroupSimple(p.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	return b.readBuffer(result, out.Bytes())
}

// sizeParams encodes {size: u32, scalar: f32} padded to 16 bytes.
func sizeParams(n int, scalar float64) []byte {
	params := make([]byte, 16)
	//nolint:gosec // G115: Safe conversion, element counts fit in u32
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(float32(scalar)))
	return params
}

func linearGroups(n int) [3]uint32 {
	//nolint:gosec // G115: Safe conversion, workgroup count is non-negative
	return [3]uint32{uint32((n + workgroupSize - 1) / workgroupSize), 1, 1}
}

// hostFallback runs the host kernel for kind when no shader applies.
func (b *Backend) hostFallback(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	k, ok := b.host[kc.Primitive.Kind()]
	if !ok {
		return nil, fmt.Errorf("webgpu: no shader or host kernel for %s %s", kc.Primitive.Kind(), kc.Output.DType)
	}
	return k(kc, in)
}

func (b *Backend) binaryKernel(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	expr, ok := binaryExprs[kc.Primitive.Kind()]
	if !ok || kc.Output.DType != tensor.Float32 {
		return b.hostFallback(kc, in)
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	n := kc.Output.NumElements()
	if n == 0 {
		return out, nil
	}
	name := "binary_" + string(kc.Primitive.Kind())
	if err := b.launch(name, binaryShader(expr), in, out, sizeParams(n, 0), linearGroups(n)); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) unaryKernel(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	expr, ok := unaryExprs[kc.Primitive.Kind()]
	if !ok || kc.Output.DType != tensor.Float32 {
		return b.hostFallback(kc, in)
	}
	var scalar float64
	switch p := kc.Primitive.(type) {
	case ops.ScaleOp:
		scalar = p.Value
	case ops.AddScalarOp:
		scalar = p.Value
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	n := kc.Output.NumElements()
	if n == 0 {
		return out, nil
	}
	name := "unary_" + string(kc.Primitive.Kind())
	if err := b.launch(name, unaryShader(expr), in, out, sizeParams(n, scalar), linearGroups(n)); err != nil {
		return nil, err
	}
	return out, nil
}

// matmulKernel executes C = A @ B with 16x16 workgroups.
func (b *Backend) matmulKernel(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	if kc.Output.DType != tensor.Float32 {
		return b.hostFallback(kc, in)
	}
	m, k, n := kc.Inputs[0].Shape[0], kc.Inputs[0].Shape[1], kc.Inputs[1].Shape[1]
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	if m == 0 || n == 0 || k == 0 {
		return out, nil
	}

	params := make([]byte, 16) // 3 u32 padded to 16
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(n))

	//nolint:gosec // G115: Safe conversions, workgroup counts are non-negative
	groups := [3]uint32{uint32((n + 15) / 16), uint32((m + 15) / 16), 1}
	if err := b.launch("matmul", matmulShader, in, out, params, groups); err != nil {
		return nil, err
	}
	return out, nil
}
