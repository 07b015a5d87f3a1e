package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

func inferBinary(kind graph.Kind, in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(kind, in, 2); err != nil {
		return tensor.Spec{}, err
	}
	if err := sameSpec(kind, in[0], in[1]); err != nil {
		return tensor.Spec{}, err
	}
	if err := requireNumeric(kind, in[0]); err != nil {
		return tensor.Spec{}, err
	}
	return in[0].WithShape(in[0].Shape), nil
}

// AddOp represents element-wise addition: output = a + b.
//
//	grad_a = g, grad_b = g
type AddOp struct{}

// Add records a + b.
func Add(a, b *graph.Array) (*graph.Array, error) { return graph.Apply(AddOp{}, a, b) }

// Kind implements graph.Primitive.
func (AddOp) Kind() graph.Kind { return KindAdd }

// Infer implements graph.Primitive.
func (AddOp) Infer(in []tensor.Spec) (tensor.Spec, error) { return inferBinary(KindAdd, in) }

// VJP implements graph.Primitive.
func (AddOp) VJP(g *graph.Array, _ []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	return []*graph.Array{g, g}, nil
}

// JVP implements graph.Primitive.
func (AddOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Add(t[0], t[1])
}

// SubOp represents element-wise subtraction: output = a - b.
//
//	grad_a = g, grad_b = -g
type SubOp struct{}

// Sub records a - b.
func Sub(a, b *graph.Array) (*graph.Array, error) { return graph.Apply(SubOp{}, a, b) }

// Kind implements graph.Primitive.
func (SubOp) Kind() graph.Kind { return KindSub }

// Infer implements graph.Primitive.
func (SubOp) Infer(in []tensor.Spec) (tensor.Spec, error) { return inferBinary(KindSub, in) }

// VJP implements graph.Primitive.
func (SubOp) VJP(g *graph.Array, _ []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(g, c.neg(g))
}

// JVP implements graph.Primitive.
func (SubOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Sub(t[0], t[1])
}

// MulOp represents element-wise multiplication: output = a * b.
//
//	grad_a = g * b, grad_b = g * a
type MulOp struct{}

// Mul records a * b.
func Mul(a, b *graph.Array) (*graph.Array, error) { return graph.Apply(MulOp{}, a, b) }

// Kind implements graph.Primitive.
func (MulOp) Kind() graph.Kind { return KindMul }

// Infer implements graph.Primitive.
func (MulOp) Infer(in []tensor.Spec) (tensor.Spec, error) { return inferBinary(KindMul, in) }

// VJP implements graph.Primitive.
func (MulOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.mul(g, p[1]), c.mul(g, p[0]))
}

// JVP implements graph.Primitive.
func (MulOp) JVP(t, p []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	var c chain
	return c.one(c.add(c.mul(t[0], p[1]), c.mul(p[0], t[1])))
}

// DivOp represents element-wise division: output = a / b.
//
//	grad_a = g / b
//	grad_b = -g * out / b
type DivOp struct{}

// Div records a / b.
func Div(a, b *graph.Array) (*graph.Array, error) { return graph.Apply(DivOp{}, a, b) }

// Kind implements graph.Primitive.
func (DivOp) Kind() graph.Kind { return KindDiv }

// Infer implements graph.Primitive.
func (DivOp) Infer(in []tensor.Spec) (tensor.Spec, error) { return inferBinary(KindDiv, in) }

// VJP implements graph.Primitive.
func (DivOp) VJP(g *graph.Array, p []*graph.Array, out *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.div(g, p[1]), c.neg(c.div(c.mul(g, out), p[1])))
}

// JVP implements graph.Primitive.
func (DivOp) JVP(t, p []*graph.Array, out *graph.Array) (*graph.Array, error) {
	var c chain
	return c.one(c.div(c.sub(t[0], c.mul(out, t[1])), p[1]))
}

// MaximumOp represents element-wise maximum. A NaN in either input gives
// NaN, as math.Max does, for every float type. Ties route the gradient to b.
type MaximumOp struct{}

// Maximum records max(a, b).
func Maximum(a, b *graph.Array) (*graph.Array, error) { return graph.Apply(MaximumOp{}, a, b) }

// Kind implements graph.Primitive.
func (MaximumOp) Kind() graph.Kind { return KindMaximum }

// Infer implements graph.Primitive.
func (MaximumOp) Infer(in []tensor.Spec) (tensor.Spec, error) { return inferBinary(KindMaximum, in) }

// VJP implements graph.Primitive.
func (MaximumOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	mask := c.greater(p[0], p[1])
	zero := c.zerosLike(g)
	return c.grads(c.sel(mask, g, zero), c.sel(mask, zero, g))
}

// JVP implements graph.Primitive.
func (MaximumOp) JVP(t, p []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	var c chain
	return c.one(c.sel(c.greater(p[0], p[1]), t[0], t[1]))
}
