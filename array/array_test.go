package array_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/array"
	"github.com/born-ml/lazy/autodiff"
	"github.com/born-ml/lazy/tensor"
)

func newEngine(t *testing.T) *array.Engine {
	t.Helper()
	cfg := array.DefaultConfig()
	cfg.GPU = false
	e, err := array.NewEngine(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestMulAddRoundTrip(t *testing.T) {
	e := newEngine(t)
	a, err := array.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	require.NoError(t, err)
	b, err := array.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	require.NoError(t, err)

	ab, err := array.Mul(a, b)
	require.NoError(t, err)
	c, err := array.Add(ab, a)
	require.NoError(t, err)
	assert.False(t, c.IsMaterialized())

	grads, err := autodiff.VJP([]*array.Array{c}, nil, []*array.Array{a, b})
	require.NoError(t, err)
	require.NoError(t, e.Materialize(context.Background(), append(grads, c)...))

	vals, err := c.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 14, 24, 36}, vals)
	da, err := grads[0].Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 7, 8, 9}, da)
}

func TestConstructionErrors(t *testing.T) {
	a, err := array.Zeros(tensor.Spec{Shape: tensor.Shape{2, 3}, DType: tensor.Float32})
	require.NoError(t, err)
	b, err := array.Zeros(tensor.Spec{Shape: tensor.Shape{3, 2}, DType: tensor.Float32})
	require.NoError(t, err)

	_, err = array.Add(a, b)
	var shapeErr *tensor.ShapeError
	require.ErrorAs(t, err, &shapeErr)

	c, err := array.Zeros(tensor.Spec{Shape: tensor.Shape{2, 3}, DType: tensor.Float64})
	require.NoError(t, err)
	_, err = array.Add(a, c)
	var typeErr *tensor.TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestUnsupportedDevice(t *testing.T) {
	e := newEngine(t)
	gpu := tensor.NewDevice(tensor.GPU, 0)
	a, err := array.Ones(tensor.Spec{Shape: tensor.Shape{2}, DType: tensor.Float32, Device: gpu})
	require.NoError(t, err)
	b, err := array.Exp(a)
	require.NoError(t, err)

	err = e.Materialize(context.Background(), b)
	var unsupported *array.UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	assert.False(t, b.IsMaterialized())
}
