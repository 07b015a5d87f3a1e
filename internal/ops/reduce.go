package ops

import (
	"fmt"
	"sort"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// SumOp sums over Axes, which are normalized, sorted and unique.
//
// Backward: the cotangent is reshaped to the kept-dims shape and broadcast
// back to the input shape.
type SumOp struct {
	Axes     []int
	KeepDims bool
}

func normalizeAxes(axes []int, rank int) ([]int, error) {
	if axes == nil {
		all := make([]int, rank)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	seen := make(map[int]bool, len(axes))
	out := make([]int, 0, len(axes))
	for _, ax := range axes {
		n, err := tensor.NormalizeAxis(ax, rank)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			return nil, fmt.Errorf("axis %d repeated", ax)
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// Sum records the sum of x over axes. A nil axes slice reduces every axis.
func Sum(x *graph.Array, axes []int, keepDims bool) (*graph.Array, error) {
	norm, err := normalizeAxes(axes, len(x.Shape()))
	if err != nil {
		return nil, &tensor.ShapeError{Op: string(KindSum), Shapes: []tensor.Shape{x.Shape()}, Msg: err.Error()}
	}
	return graph.Apply(SumOp{Axes: norm, KeepDims: keepDims}, x)
}

// Mean records the mean of x over axes: Sum followed by Scale.
func Mean(x *graph.Array, axes []int, keepDims bool) (*graph.Array, error) {
	s, err := Sum(x, axes, keepDims)
	if err != nil {
		return nil, err
	}
	n := x.Spec().NumElements() / max(s.Spec().NumElements(), 1)
	if n == 0 {
		n = 1
	}
	return Scale(s, 1/float64(n))
}

// Kind implements graph.Primitive.
func (SumOp) Kind() graph.Kind { return KindSum }

// KeptShape returns the input shape with every reduced axis set to 1.
func (op SumOp) KeptShape(in tensor.Shape) tensor.Shape {
	kept := in.Clone()
	for _, ax := range op.Axes {
		kept[ax] = 1
	}
	return kept
}

// Infer implements graph.Primitive.
func (op SumOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindSum, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	if err := requireNumeric(KindSum, in[0]); err != nil {
		return tensor.Spec{}, err
	}
	rank := len(in[0].Shape)
	reduced := make(map[int]bool, len(op.Axes))
	for i, ax := range op.Axes {
		if ax < 0 || ax >= rank || (i > 0 && op.Axes[i-1] >= ax) {
			return tensor.Spec{}, &tensor.ShapeError{
				Op:     string(KindSum),
				Shapes: []tensor.Shape{in[0].Shape},
				Msg:    fmt.Sprintf("axes %v are not normalized for rank %d", op.Axes, rank),
			}
		}
		reduced[ax] = true
	}
	if op.KeepDims {
		return in[0].WithShape(op.KeptShape(in[0].Shape)), nil
	}
	out := make(tensor.Shape, 0, rank-len(op.Axes))
	for i, d := range in[0].Shape {
		if !reduced[i] {
			out = append(out, d)
		}
	}
	return in[0].WithShape(out), nil
}

// VJP implements graph.Primitive.
func (op SumOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	in := p[0].Shape()
	return c.grads(c.broadcast(c.reshape(g, op.KeptShape(in)), in))
}

// JVP implements graph.Primitive.
func (op SumOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return graph.Apply(op, t[0])
}

// Params implements graph.Describer.
func (op SumOp) Params() map[string]any {
	return map[string]any{"axes": op.Axes, "keep_dims": op.KeepDims}
}
