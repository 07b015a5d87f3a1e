package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/tensor"
)

// run evaluates the single pending node out, whose inputs must be leaves.
func run(t *testing.T, out *graph.Array) []float64 {
	t.Helper()
	r := graph.NewRegistry()
	New(parallel.DefaultConfig()).Register(r)

	reg, ok := r.Lookup(out.Kind(), tensor.CPU)
	require.True(t, ok, "no kernel for %s", out.Kind())

	inputs := out.Inputs()
	specs := make([]tensor.Spec, len(inputs))
	storages := make([]*tensor.Storage, len(inputs))
	for i, in := range inputs {
		specs[i] = in.Spec()
		storages[i] = in.Storage()
		require.NotNil(t, storages[i])
	}
	kc := graph.NewKernelContext(out.Primitive(), specs, out.Spec(), nil)
	s, err := reg.Kernel(kc, storages)
	require.NoError(t, err)
	require.True(t, s.Spec().Equal(out.Spec()))
	return s.Float64Values()
}

func f32(t *testing.T, shape tensor.Shape, vals ...float32) *graph.Array {
	t.Helper()
	a, err := graph.FromSlice(vals, shape, tensor.DefaultDevice)
	require.NoError(t, err)
	return a
}

func TestBinaryKernels(t *testing.T) {
	a := f32(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
	b := f32(t, tensor.Shape{2, 2}, 5, 6, 7, 8)

	tests := []struct {
		build func(a, b *graph.Array) (*graph.Array, error)
		want  []float64
	}{
		{ops.Add, []float64{6, 8, 10, 12}},
		{ops.Sub, []float64{-4, -4, -4, -4}},
		{ops.Mul, []float64{5, 12, 21, 32}},
		{ops.Div, []float64{0.2, 2.0 / 6, 3.0 / 7, 0.5}},
		{ops.Maximum, []float64{5, 6, 7, 8}},
	}
	for _, tt := range tests {
		out, err := tt.build(a, b)
		require.NoError(t, err)
		assert.InDeltaSlice(t, tt.want, run(t, out), 1e-6, string(out.Kind()))
	}
}

func TestBinaryFloat64AndInt(t *testing.T) {
	a, err := graph.FromSlice([]float64{1.5, -2}, tensor.Shape{2}, tensor.DefaultDevice)
	require.NoError(t, err)
	out, err := ops.Mul(a, a)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.25, 4}, run(t, out))

	i, err := graph.FromSlice([]int32{3, -4}, tensor.Shape{2}, tensor.DefaultDevice)
	require.NoError(t, err)
	sum, err := ops.Add(i, i)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, -8}, run(t, sum))
}

func TestMaximumNaNAgreesAcrossTypes(t *testing.T) {
	nan := math.NaN()
	a32 := f32(t, tensor.Shape{3}, float32(nan), 1, 2)
	b32 := f32(t, tensor.Shape{3}, 1, float32(nan), 1)
	a64, err := graph.FromSlice([]float64{nan, 1, 2}, tensor.Shape{3}, tensor.DefaultDevice)
	require.NoError(t, err)
	b64, err := graph.FromSlice([]float64{1, nan, 1}, tensor.Shape{3}, tensor.DefaultDevice)
	require.NoError(t, err)

	for _, pair := range [][2]*graph.Array{{a32, b32}, {a64, b64}} {
		out, err := ops.Maximum(pair[0], pair[1])
		require.NoError(t, err)
		got := run(t, out)
		assert.True(t, math.IsNaN(got[0]), "%s: max(NaN, 1)", out.DType())
		assert.True(t, math.IsNaN(got[1]), "%s: max(1, NaN)", out.DType())
		assert.Equal(t, 2.0, got[2])
	}
}

func TestUnaryKernels(t *testing.T) {
	x := f32(t, tensor.Shape{3}, -1, 0, 2)

	relu, err := ops.ReLU(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, run(t, relu))

	sign, err := ops.Sign(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 1}, run(t, sign))

	sig, err := ops.Sigmoid(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.268941, 0.5, 0.880797}, run(t, sig), 1e-5)

	sc, err := ops.Scale(x, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 0, 6}, run(t, sc))

	as, err := ops.AddScalar(x, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.5, 0.5, 2.5}, run(t, as))
}

func TestMatMulKernel(t *testing.T) {
	a := f32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	b := f32(t, tensor.Shape{3, 2}, 7, 8, 9, 10, 11, 12)
	c, err := ops.MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{58, 64, 139, 154}, run(t, c))
}

func TestMatMulParallelRows(t *testing.T) {
	const m, k, n = 64, 32, 16
	av := make([]float32, m*k)
	bv := make([]float32, k*n)
	for i := range av {
		av[i] = 1
	}
	for i := range bv {
		bv[i] = 2
	}
	c, err := ops.MatMul(f32(t, tensor.Shape{m, k}, av...), f32(t, tensor.Shape{k, n}, bv...))
	require.NoError(t, err)

	r := graph.NewRegistry()
	New(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}).Register(r)
	reg, ok := r.Lookup(ops.KindMatMul, tensor.CPU)
	require.True(t, ok)
	in := c.Inputs()
	kc := graph.NewKernelContext(c.Primitive(), []tensor.Spec{in[0].Spec(), in[1].Spec()}, c.Spec(), nil)
	s, err := reg.Kernel(kc, []*tensor.Storage{in[0].Storage(), in[1].Storage()})
	require.NoError(t, err)
	for _, v := range s.Float32s() {
		require.Equal(t, float32(2*k), v)
	}
}

func TestSumKernel(t *testing.T) {
	x := f32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	rows, err := ops.Sum(x, []int{1}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 15}, run(t, rows))

	cols, err := ops.Sum(x, []int{0}, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, run(t, cols))

	all, err := ops.Sum(x, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{21}, run(t, all))
}

func TestLayoutKernels(t *testing.T) {
	x := f32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	tr, err := ops.Transpose(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, run(t, tr))

	r, err := ops.Reshape(x, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, run(t, r))

	col := f32(t, tensor.Shape{2, 1}, 1, 2)
	b, err := ops.Broadcast(col, tensor.Shape{2, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2, 1, 1, 1, 2, 2, 2}, run(t, b))
}

func TestConversionKernels(t *testing.T) {
	x := f32(t, tensor.Shape{3}, 1.4, -2.6, 0)

	h, err := ops.Cast(x, tensor.Float16)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.4, -2.6, 0}, run(t, h), 1e-3)

	i, err := ops.Cast(x, tensor.Int32)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -3, 0}, run(t, i))

	bl, err := ops.Cast(x, tensor.Bool)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0}, run(t, bl))

	d, err := ops.ToDevice(x, tensor.DefaultDevice)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.4, -2.6, 0}, run(t, d), 1e-6)

	f, err := ops.FullLike(x, 7)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7}, run(t, f))
}

func TestCompareAndSelect(t *testing.T) {
	a := f32(t, tensor.Shape{3}, 1, 5, 3)
	b := f32(t, tensor.Shape{3}, 2, 5, 1)

	gt, err := ops.Greater(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, run(t, gt))

	eq, err := ops.Equal(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, run(t, eq))

	cond, err := graph.FromSlice([]bool{true, false, true}, tensor.Shape{3}, tensor.DefaultDevice)
	require.NoError(t, err)
	sel, err := ops.Select(cond, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5, 3}, run(t, sel))
}
