package optim_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/autodiff"
	"github.com/born-ml/lazy/internal/backend/cpu"
	"github.com/born-ml/lazy/internal/eval"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/optim"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/stream"
	"github.com/born-ml/lazy/internal/tensor"
	"github.com/born-ml/lazy/internal/tree"
)

func newEvaluator(t *testing.T) *eval.Evaluator {
	t.Helper()
	r := graph.NewRegistry()
	r.Install(cpu.New(parallel.DefaultConfig()))
	e := eval.New(r, stream.NewScheduler(1, 8), eval.Options{Donate: true})
	t.Cleanup(e.Close)
	return e
}

func vec(t *testing.T, vals ...float32) *graph.Array {
	t.Helper()
	a, err := graph.FromSlice(vals, tensor.Shape{len(vals)}, tensor.DefaultDevice)
	require.NoError(t, err)
	return a
}

// stepAndRead runs one optimizer step and materializes the new parameters
// together with the optimizer state.
func stepAndRead(t *testing.T, e *eval.Evaluator, opt optim.Optimizer, grads, params tree.Tree) tree.Tree {
	t.Helper()
	next, err := opt.Step(grads, params)
	require.NoError(t, err)
	targets := append(tree.Leaves(next), opt.State().Arrays()...)
	require.NoError(t, e.Materialize(context.Background(), targets...))
	return next
}

func value(t *testing.T, p tree.Tree, key string) []float32 {
	t.Helper()
	v, err := p[key].Array.Float32s()
	require.NoError(t, err)
	return v
}

func TestSGDSimpleUpdate(t *testing.T) {
	e := newEvaluator(t)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})

	params := tree.Tree{"x": tree.Leaf(vec(t, 2.0))}
	grads := tree.Tree{"x": tree.Leaf(vec(t, 1.0))}
	params = stepAndRead(t, e, opt, grads, params)

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	assert.InDelta(t, 1.9, value(t, params, "x")[0], 1e-6)
	assert.Empty(t, opt.State().Arrays(), "plain SGD keeps no velocity")
}

func TestSGDMomentum(t *testing.T) {
	e := newEvaluator(t)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	params := tree.Tree{"x": tree.Leaf(vec(t, 1.0))}

	// Step 1: v = 1, x = 1 - 0.1 = 0.9
	params = stepAndRead(t, e, opt, tree.Tree{"x": tree.Leaf(vec(t, 1.0))}, params)
	assert.InDelta(t, 0.9, value(t, params, "x")[0], 1e-6)

	// Step 2: v = 0.9 * 1 + 1 = 1.9, x = 0.9 - 0.19 = 0.71
	params = stepAndRead(t, e, opt, tree.Tree{"x": tree.Leaf(vec(t, 1.0))}, params)
	assert.InDelta(t, 0.71, value(t, params, "x")[0], 1e-6)

	st, ok := opt.State().Lookup("x")
	require.True(t, ok)
	v, ok := st.Get("velocity")
	require.True(t, ok)
	got, err := v.Float32s()
	require.NoError(t, err)
	assert.InDelta(t, 1.9, got[0], 1e-6)
}

func TestAdamFirstStep(t *testing.T) {
	e := newEvaluator(t)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.1})

	params := tree.Tree{"x": tree.Leaf(vec(t, 1.0, -1.0))}
	grads := tree.Tree{"x": tree.Leaf(vec(t, 0.5, -4.0))}
	params = stepAndRead(t, e, opt, grads, params)

	// With bias correction the first step moves every coordinate by lr
	// against the sign of its gradient.
	got := value(t, params, "x")
	assert.InDelta(t, 0.9, got[0], 1e-5)
	assert.InDelta(t, -0.9, got[1], 1e-5)

	st, ok := opt.State().Lookup("x")
	require.True(t, ok)
	steps, _ := st.Scalar("step")
	assert.Equal(t, 1.0, steps)
	m, ok := st.Get("m")
	require.True(t, ok)
	mv, err := m.Float32s()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.05, -0.4}, mv, 1e-6)
}

func TestAdamDefaults(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{})
	assert.InDelta(t, 0.001, opt.LR(), 1e-12)
	opt.SetLR(0.01)
	assert.InDelta(t, 0.01, opt.LR(), 1e-12)

	sgd := optim.NewSGD(optim.SGDConfig{})
	assert.InDelta(t, 0.01, sgd.LR(), 1e-12)
}

// TestConvergenceSimpleQuadratic minimizes f(x) = x² with gradients from
// autodiff. The minimum is at x = 0.
func TestConvergenceSimpleQuadratic(t *testing.T) {
	cases := []struct {
		name string
		opt  optim.Optimizer
		tol  float64
	}{
		{"SGD", optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9}), 0.1},
		{"Adam", optim.NewAdam(optim.AdamConfig{LR: 0.1}), 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEvaluator(t)
			params := tree.Tree{"x": tree.Leaf(vec(t, 3.0))}

			for range 100 {
				x := params["x"].Array
				loss, err := ops.Mul(x, x)
				require.NoError(t, err)
				grads, err := autodiff.Grad(loss, x)
				require.NoError(t, err)
				params = stepAndRead(t, e, tc.opt, tree.Tree{"x": tree.Leaf(grads[0])}, params)
			}

			final := value(t, params, "x")[0]
			assert.Less(t, math.Abs(float64(final)), tc.tol, "x = %f, expected close to 0", final)
		})
	}
}

// TestTrainingGraphStaysBounded checks that a step's graph does not reach
// back into earlier steps once parameters and state are materialized.
func TestTrainingGraphStaysBounded(t *testing.T) {
	cases := []struct {
		name string
		opt  optim.Optimizer
	}{
		{"SGD", optim.NewSGD(optim.SGDConfig{LR: 0.01, Momentum: 0.9})},
		{"Adam", optim.NewAdam(optim.AdamConfig{LR: 0.01})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEvaluator(t)
			params := tree.Tree{"x": tree.Leaf(vec(t, 3.0, -2.0))}

			var sizes []int
			for range 200 {
				x := params["x"].Array
				sq, err := ops.Mul(x, x)
				require.NoError(t, err)
				loss, err := ops.Sum(sq, nil, false)
				require.NoError(t, err)
				grads, err := autodiff.Grad(loss, x)
				require.NoError(t, err)

				nodes, err := graph.Walk(append([]*graph.Array{loss, grads[0]}, tc.opt.State().Arrays()...)...)
				require.NoError(t, err)
				sizes = append(sizes, len(nodes))

				params = stepAndRead(t, e, tc.opt, tree.Tree{"x": tree.Leaf(grads[0])}, params)
				assert.True(t, params["x"].Array.IsLeaf())
				for _, a := range tc.opt.State().Arrays() {
					assert.True(t, a.IsLeaf())
				}
			}

			// The first step has no optimizer state yet.
			for i := 2; i < len(sizes); i++ {
				require.Equal(t, sizes[1], sizes[i], "graph size at step %d", i)
			}
		})
	}
}

func TestMultipleParameters(t *testing.T) {
	e := newEvaluator(t)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})

	frozen := vec(t, 7.0)
	params := tree.Tree{
		"layer": tree.Sub(tree.Tree{
			"w": tree.Leaf(vec(t, 1.0, 2.0)),
			"b": tree.Leaf(vec(t, 3.0)),
		}),
		"frozen": tree.Leaf(frozen),
	}
	grads := tree.Tree{
		"layer": tree.Sub(tree.Tree{
			"w": tree.Leaf(vec(t, 1.0, 2.0)),
			"b": tree.Leaf(vec(t, 0.5)),
		}),
	}
	next := stepAndRead(t, e, opt, grads, params)

	flat := tree.Flatten(next)
	w, err := flat["layer.w"].Float32s()
	require.NoError(t, err)
	b, err := flat["layer.b"].Float32s()
	require.NoError(t, err)

	// [1.0, 2.0] - 0.1 * [1.0, 2.0] = [0.9, 1.8]
	assert.InDeltaSlice(t, []float32{0.9, 1.8}, w, 1e-6)
	// 3.0 - 0.1 * 0.5 = 2.95
	assert.InDelta(t, 2.95, b[0], 1e-6)
	assert.Same(t, frozen, flat["frozen"], "parameters without a gradient are untouched")
}

func TestStepShapeMismatch(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{})
	params := tree.Tree{"x": tree.Leaf(vec(t, 1.0, 2.0))}
	grads := tree.Tree{"x": tree.Leaf(vec(t, 1.0))}

	_, err := opt.Step(grads, params)
	require.Error(t, err)
	var shapeErr *tensor.ShapeError
	assert.ErrorAs(t, err, &shapeErr)
	var pathErr *tree.PathError
	assert.ErrorAs(t, err, &pathErr)
	assert.Empty(t, opt.State().Arrays(), "failed update leaves no moments behind")
}
