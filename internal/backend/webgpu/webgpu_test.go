package webgpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/backend/cpu"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/tensor"
)

func openBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	b, err := New(cpu.New(parallel.DefaultConfig()).Kernels())
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func TestNewUnavailable(t *testing.T) {
	if IsAvailable() {
		t.Skip("WebGPU available")
	}
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestGPUAdd(t *testing.T) {
	b := openBackend(t)
	r := graph.NewRegistry()
	r.Install(b)

	gpu := tensor.NewDevice(tensor.GPU, 0)
	spec := tensor.Spec{Shape: tensor.Shape{4}, DType: tensor.Float32, Device: gpu}
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, gpu)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{4}, gpu)
	require.NoError(t, err)

	reg, ok := r.Lookup(ops.KindAdd, tensor.GPU)
	require.True(t, ok)
	assert.Equal(t, Name, reg.Backend)

	out, err := reg.Kernel(graph.NewKernelContext(ops.AddOp{}, []tensor.Spec{spec, spec}, spec, nil), []*tensor.Storage{x, y})
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.Float32s())
}

func TestGPUHostFallback(t *testing.T) {
	b := openBackend(t)
	r := graph.NewRegistry()
	r.Install(b)

	reg, ok := r.Lookup(ops.KindSum, tensor.GPU)
	require.True(t, ok)
	assert.Equal(t, hostName, reg.Backend)
}
