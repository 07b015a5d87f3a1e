package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// CompareOp compares two arrays element-wise and produces a bool array.
// Comparisons are flat: both cotangents and the tangent are zero.
type CompareOp struct {
	kind graph.Kind
}

// Greater records a > b.
func Greater(a, b *graph.Array) (*graph.Array, error) {
	return graph.Apply(CompareOp{kind: KindGreater}, a, b)
}

// Less records a < b.
func Less(a, b *graph.Array) (*graph.Array, error) {
	return graph.Apply(CompareOp{kind: KindLess}, a, b)
}

// Equal records a == b.
func Equal(a, b *graph.Array) (*graph.Array, error) {
	return graph.Apply(CompareOp{kind: KindEqual}, a, b)
}

// Kind implements graph.Primitive.
func (op CompareOp) Kind() graph.Kind { return op.kind }

// Infer implements graph.Primitive.
func (op CompareOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(op.kind, in, 2); err != nil {
		return tensor.Spec{}, err
	}
	if err := sameSpec(op.kind, in[0], in[1]); err != nil {
		return tensor.Spec{}, err
	}
	return in[0].WithDType(tensor.Bool), nil
}

// VJP implements graph.Primitive.
func (CompareOp) VJP(_ *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.zerosLike(p[0]), c.zerosLike(p[1]))
}

// JVP implements graph.Primitive.
func (CompareOp) JVP(_, _ []*graph.Array, out *graph.Array) (*graph.Array, error) {
	return ZerosLike(out)
}

// SelectOp picks x where cond is true and y elsewhere.
//
//	grad_cond = 0
//	grad_x = select(cond, g, 0)
//	grad_y = select(cond, 0, g)
type SelectOp struct{}

// Select records where(cond, x, y).
func Select(cond, x, y *graph.Array) (*graph.Array, error) {
	return graph.Apply(SelectOp{}, cond, x, y)
}

// Kind implements graph.Primitive.
func (SelectOp) Kind() graph.Kind { return KindSelect }

// Infer implements graph.Primitive.
func (SelectOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindSelect, in, 3); err != nil {
		return tensor.Spec{}, err
	}
	cond, x, y := in[0], in[1], in[2]
	if cond.DType != tensor.Bool {
		return tensor.Spec{}, &tensor.TypeError{Op: string(KindSelect), Specs: in, Msg: "condition must be bool"}
	}
	if err := sameSpec(KindSelect, x, y); err != nil {
		return tensor.Spec{}, err
	}
	if !cond.Shape.Equal(x.Shape) {
		return tensor.Spec{}, &tensor.ShapeError{Op: string(KindSelect), Shapes: []tensor.Shape{cond.Shape, x.Shape}, Msg: "condition shape differs"}
	}
	if cond.Device != x.Device {
		return tensor.Spec{}, &tensor.TypeError{Op: string(KindSelect), Specs: in, Msg: "devices differ (transfer explicitly)"}
	}
	return x.WithShape(x.Shape), nil
}

// VJP implements graph.Primitive.
func (SelectOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	zero := c.zerosLike(g)
	return c.grads(c.zerosLike(p[0]), c.sel(p[0], g, zero), c.sel(p[0], zero, g))
}

// JVP implements graph.Primitive.
func (SelectOp) JVP(t, p []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Select(p[0], t[1], t[2])
}
