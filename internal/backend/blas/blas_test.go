package blas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/backend/cpu"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/tensor"
)

func registry() *graph.Registry {
	r := graph.NewRegistry()
	c := cpu.New(parallel.DefaultConfig())
	r.Install(c)
	r.Install(New(c.Kernels()[ops.KindMatMul]))
	return r
}

func eval(t *testing.T, r *graph.Registry, out *graph.Array) (*tensor.Storage, string) {
	t.Helper()
	reg, ok := r.Lookup(out.Kind(), tensor.CPU)
	require.True(t, ok)
	in := out.Inputs()
	kc := graph.NewKernelContext(out.Primitive(), []tensor.Spec{in[0].Spec(), in[1].Spec()}, out.Spec(), nil)
	s, err := reg.Kernel(kc, []*tensor.Storage{in[0].Storage(), in[1].Storage()})
	require.NoError(t, err)
	return s, reg.Backend
}

func TestGemmFloat32(t *testing.T) {
	a, err := graph.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.DefaultDevice)
	require.NoError(t, err)
	b, err := graph.FromSlice([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, tensor.DefaultDevice)
	require.NoError(t, err)
	c, err := ops.MatMul(a, b)
	require.NoError(t, err)

	s, backend := eval(t, registry(), c)
	assert.Equal(t, Name, backend)
	assert.Equal(t, []float32{58, 64, 139, 154}, s.Float32s())
}

func TestDenseFloat64(t *testing.T) {
	a, err := graph.FromSlice([]float64{1, 0, 0, 1}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	require.NoError(t, err)
	b, err := graph.FromSlice([]float64{3, 4, 5, 6}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	require.NoError(t, err)
	c, err := ops.MatMul(a, b)
	require.NoError(t, err)

	s, _ := eval(t, registry(), c)
	assert.Equal(t, []float64{3, 4, 5, 6}, s.Float64s())
}

func TestFallbackForHalfPrecision(t *testing.T) {
	spec := tensor.Spec{Shape: tensor.Shape{2, 2}, DType: tensor.Float16}
	a, err := graph.Full(spec, 1)
	require.NoError(t, err)
	c, err := ops.MatMul(a, a)
	require.NoError(t, err)

	s, _ := eval(t, registry(), c)
	assert.Equal(t, []float64{2, 2, 2, 2}, s.Float64Values())
}
