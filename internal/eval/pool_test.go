package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/tensor"
)

func TestPoolRecyclesOnlyAtZero(t *testing.T) {
	p := NewPool()
	spec := tensor.Spec{Shape: tensor.Shape{2, 2}, DType: tensor.Float32}

	s, err := p.Get(spec)
	require.NoError(t, err)
	require.NoError(t, s.SetFloat64Values([]float64{1, 2, 3, 4}))

	s.Retain()
	s.Release()
	assert.Zero(t, p.Stats().Idle, "still owned")

	s.Release()
	assert.Equal(t, 1, p.Stats().Idle)
	assert.Equal(t, int64(1), p.Stats().Donated)

	// Same byte size, different dtype: the buffer is relabelled and zeroed.
	other := tensor.Spec{Shape: tensor.Shape{4}, DType: tensor.Int32}
	r, err := p.Get(other)
	require.NoError(t, err)
	assert.Same(t, s, r)
	assert.Equal(t, other, r.Spec())
	assert.Equal(t, []int32{0, 0, 0, 0}, r.Int32s())
	assert.Equal(t, int64(1), p.Stats().Hits)
	assert.Equal(t, int64(16), p.Stats().BytesReused)
}

func TestPoolKeysByDevice(t *testing.T) {
	p := NewPool()
	cpuSpec := tensor.Spec{Shape: tensor.Shape{3}, DType: tensor.Float32}
	gpuSpec := cpuSpec
	gpuSpec.Device = tensor.NewDevice(tensor.GPU, 0)

	s, err := p.Get(cpuSpec)
	require.NoError(t, err)
	s.Release()

	g, err := p.Get(gpuSpec)
	require.NoError(t, err)
	assert.NotSame(t, s, g)
	assert.Equal(t, int64(2), p.Stats().Misses)

	p.Clear()
	assert.Zero(t, p.Stats().Idle)
}

func TestPoolBound(t *testing.T) {
	p := NewPool()
	spec := tensor.Spec{Shape: tensor.Shape{1}, DType: tensor.Float64}

	var held []*tensor.Storage
	for i := 0; i < maxPerKey+3; i++ {
		s, err := p.Get(spec)
		require.NoError(t, err)
		held = append(held, s)
	}
	for _, s := range held {
		s.Release()
	}
	assert.Equal(t, maxPerKey, p.Stats().Idle)
}
