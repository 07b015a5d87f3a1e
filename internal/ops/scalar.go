package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

func inferScalar(kind graph.Kind, in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(kind, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	if err := requireFloat(kind, in[0]); err != nil {
		return tensor.Spec{}, err
	}
	return in[0].WithShape(in[0].Shape), nil
}

// ScaleOp multiplies every element by a constant: output = x * Value.
type ScaleOp struct {
	Value float64
}

// Scale records x * v.
func Scale(x *graph.Array, v float64) (*graph.Array, error) {
	return graph.Apply(ScaleOp{Value: v}, x)
}

// Kind implements graph.Primitive.
func (ScaleOp) Kind() graph.Kind { return KindScale }

// Infer implements graph.Primitive.
func (ScaleOp) Infer(in []tensor.Spec) (tensor.Spec, error) { return inferScalar(KindScale, in) }

// VJP implements graph.Primitive.
func (op ScaleOp) VJP(g *graph.Array, _ []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.scale(g, op.Value))
}

// JVP implements graph.Primitive.
func (op ScaleOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return Scale(t[0], op.Value)
}

// Params implements graph.Describer.
func (op ScaleOp) Params() map[string]any { return map[string]any{"value": op.Value} }

// AddScalarOp adds a constant to every element: output = x + Value.
type AddScalarOp struct {
	Value float64
}

// AddScalar records x + v.
func AddScalar(x *graph.Array, v float64) (*graph.Array, error) {
	return graph.Apply(AddScalarOp{Value: v}, x)
}

// Kind implements graph.Primitive.
func (AddScalarOp) Kind() graph.Kind { return KindAddScalar }

// Infer implements graph.Primitive.
func (AddScalarOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	return inferScalar(KindAddScalar, in)
}

// VJP implements graph.Primitive.
func (AddScalarOp) VJP(g *graph.Array, _ []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	return []*graph.Array{g}, nil
}

// JVP implements graph.Primitive.
func (AddScalarOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return t[0], nil
}

// Params implements graph.Describer.
func (op AddScalarOp) Params() map[string]any { return map[string]any{"value": op.Value} }
