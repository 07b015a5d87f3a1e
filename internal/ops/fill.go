package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// FillOp produces an array of Spec with every element equal to Value. It has
// no inputs, so it stays pending and costs nothing until materialized.
type FillOp struct {
	Spec  tensor.Spec
	Value float64
}

// Fill records a constant array.
func Fill(spec tensor.Spec, v float64) (*graph.Array, error) {
	return graph.Apply(FillOp{Spec: spec.WithShape(spec.Shape), Value: v})
}

// ZerosLike records zeros matching x.
func ZerosLike(x *graph.Array) (*graph.Array, error) { return Fill(x.Spec(), 0) }

// OnesLike records ones matching x.
func OnesLike(x *graph.Array) (*graph.Array, error) { return Fill(x.Spec(), 1) }

// FullLike records an array matching x filled with v.
func FullLike(x *graph.Array, v float64) (*graph.Array, error) { return Fill(x.Spec(), v) }

// Kind implements graph.Primitive.
func (FillOp) Kind() graph.Kind { return KindFill }

// Infer implements graph.Primitive.
func (op FillOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindFill, in, 0); err != nil {
		return tensor.Spec{}, err
	}
	return op.Spec.WithShape(op.Spec.Shape), nil
}

// VJP implements graph.Primitive.
func (FillOp) VJP(_ *graph.Array, _ []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	return nil, nil
}

// JVP implements graph.Primitive.
func (FillOp) JVP(_, _ []*graph.Array, out *graph.Array) (*graph.Array, error) {
	return ZerosLike(out)
}

// Params implements graph.Describer.
func (op FillOp) Params() map[string]any { return map[string]any{"value": op.Value} }
