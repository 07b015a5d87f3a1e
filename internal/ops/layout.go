package ops

import (
	"fmt"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// BroadcastOp expands an array to Shape following NumPy rules.
//
// Backward: the cotangent is summed over every broadcast axis and reshaped
// to the input shape.
type BroadcastOp struct {
	Shape tensor.Shape
}

// Broadcast records x expanded to shape.
func Broadcast(x *graph.Array, shape tensor.Shape) (*graph.Array, error) {
	return graph.Apply(BroadcastOp{Shape: shape.Clone()}, x)
}

// Kind implements graph.Primitive.
func (BroadcastOp) Kind() graph.Kind { return KindBroadcast }

// Infer implements graph.Primitive.
func (op BroadcastOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindBroadcast, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	src := in[0].Shape
	if len(src) > len(op.Shape) {
		return tensor.Spec{}, &tensor.ShapeError{Op: string(KindBroadcast), Shapes: []tensor.Shape{src, op.Shape}, Msg: "cannot broadcast to lower rank"}
	}
	out, _, err := tensor.BroadcastShapes(src, op.Shape)
	if err != nil {
		return tensor.Spec{}, err
	}
	if !out.Equal(op.Shape) {
		return tensor.Spec{}, &tensor.ShapeError{Op: string(KindBroadcast), Shapes: []tensor.Shape{src, op.Shape}, Msg: "target is not a broadcast of the input"}
	}
	return in[0].WithShape(op.Shape), nil
}

// BroadcastAxes returns the output axes along which src was expanded.
func BroadcastAxes(src, dst tensor.Shape) []int {
	lead := len(dst) - len(src)
	axes := make([]int, 0, len(dst))
	for i := range dst {
		if i < lead || (src[i-lead] == 1 && dst[i] != 1) {
			axes = append(axes, i)
		}
	}
	return axes
}

// VJP implements graph.Primitive.
func (op BroadcastOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	src := p[0].Shape()
	var c chain
	grad := g
	if axes := BroadcastAxes(src, op.Shape); len(axes) > 0 {
		grad = c.sum(grad, axes, true)
	}
	return c.grads(c.reshape(grad, src))
}

// JVP implements graph.Primitive.
func (op BroadcastOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Broadcast(t[0], op.Shape)
}

// Params implements graph.Describer.
func (op BroadcastOp) Params() map[string]any { return map[string]any{"shape": []int(op.Shape)} }

// ReshapeOp reinterprets the elements in row-major order with a new shape.
type ReshapeOp struct {
	Shape tensor.Shape
}

// Reshape records x with a new shape. At most one dimension may be -1 and is
// inferred from the element count.
func Reshape(x *graph.Array, shape ...int) (*graph.Array, error) {
	resolved, err := resolveShape(x.Shape(), shape)
	if err != nil {
		return nil, err
	}
	return graph.Apply(ReshapeOp{Shape: resolved}, x)
}

func resolveShape(src tensor.Shape, shape []int) (tensor.Shape, error) {
	out := make(tensor.Shape, len(shape))
	copy(out, shape)
	infer := -1
	known := 1
	for i, d := range out {
		switch {
		case d == -1 && infer < 0:
			infer = i
		case d < 0:
			return nil, &tensor.ShapeError{Op: string(KindReshape), Shapes: []tensor.Shape{src, out}, Msg: "invalid target dimension"}
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || src.NumElements()%known != 0 {
			return nil, &tensor.ShapeError{Op: string(KindReshape), Shapes: []tensor.Shape{src, out}, Msg: "cannot infer dimension"}
		}
		out[infer] = src.NumElements() / known
	}
	return out, nil
}

// Kind implements graph.Primitive.
func (ReshapeOp) Kind() graph.Kind { return KindReshape }

// Infer implements graph.Primitive.
func (op ReshapeOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindReshape, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	if err := op.Shape.Validate(); err != nil {
		return tensor.Spec{}, err
	}
	if in[0].Shape.NumElements() != op.Shape.NumElements() {
		return tensor.Spec{}, &tensor.ShapeError{
			Op:     string(KindReshape),
			Shapes: []tensor.Shape{in[0].Shape, op.Shape},
			Msg:    fmt.Sprintf("element count %d vs %d", in[0].Shape.NumElements(), op.Shape.NumElements()),
		}
	}
	return in[0].WithShape(op.Shape), nil
}

// VJP implements graph.Primitive.
func (ReshapeOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.reshape(g, p[0].Shape()))
}

// JVP implements graph.Primitive.
func (op ReshapeOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Reshape(t[0], op.Shape...)
}

// Params implements graph.Describer.
func (op ReshapeOp) Params() map[string]any { return map[string]any{"shape": []int(op.Shape)} }

// TransposeOp permutes axes: output axis i is input axis Perm[i].
//
// Backward: the cotangent is transposed by the inverse permutation.
type TransposeOp struct {
	Perm []int
}

// Transpose records x with permuted axes. With no perm the axes are reversed.
func Transpose(x *graph.Array, perm ...int) (*graph.Array, error) {
	if len(perm) == 0 {
		rank := len(x.Shape())
		perm = make([]int, rank)
		for i := range perm {
			perm[i] = rank - 1 - i
		}
	}
	return graph.Apply(TransposeOp{Perm: append([]int(nil), perm...)}, x)
}

// Kind implements graph.Primitive.
func (TransposeOp) Kind() graph.Kind { return KindTranspose }

// Infer implements graph.Primitive.
func (op TransposeOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindTranspose, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	src := in[0].Shape
	if len(op.Perm) != len(src) {
		return tensor.Spec{}, &tensor.ShapeError{Op: string(KindTranspose), Shapes: []tensor.Shape{src}, Msg: fmt.Sprintf("perm %v has wrong length", op.Perm)}
	}
	seen := make([]bool, len(src))
	out := make(tensor.Shape, len(src))
	for i, ax := range op.Perm {
		if ax < 0 || ax >= len(src) || seen[ax] {
			return tensor.Spec{}, &tensor.ShapeError{Op: string(KindTranspose), Shapes: []tensor.Shape{src}, Msg: fmt.Sprintf("perm %v is not a permutation", op.Perm)}
		}
		seen[ax] = true
		out[i] = src[ax]
	}
	return in[0].WithShape(out), nil
}

// Inverse returns the permutation that undoes op.
func (op TransposeOp) Inverse() []int {
	inv := make([]int, len(op.Perm))
	for i, ax := range op.Perm {
		inv[ax] = i
	}
	return inv
}

// VJP implements graph.Primitive.
func (op TransposeOp) VJP(g *graph.Array, _ []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.transpose(g, op.Inverse()...))
}

// JVP implements graph.Primitive.
func (op TransposeOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Transpose(t[0], op.Perm...)
}

// Params implements graph.Describer.
func (op TransposeOp) Params() map[string]any { return map[string]any{"perm": op.Perm} }
