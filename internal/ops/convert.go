package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// CastOp converts elements to another type. Derivatives flow only between
// floating point types.
type CastOp struct {
	To tensor.DataType
}

// Cast records x converted to dt.
func Cast(x *graph.Array, dt tensor.DataType) (*graph.Array, error) {
	return graph.Apply(CastOp{To: dt}, x)
}

// Kind implements graph.Primitive.
func (CastOp) Kind() graph.Kind { return KindCast }

// Infer implements graph.Primitive.
func (op CastOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindCast, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	return in[0].WithDType(op.To), nil
}

// VJP implements graph.Primitive.
func (op CastOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	if !p[0].DType().IsFloat() || !op.To.IsFloat() {
		return c.grads(c.zerosLike(p[0]))
	}
	return c.grads(c.cast(g, p[0].DType()))
}

// JVP implements graph.Primitive.
func (op CastOp) JVP(t, p []*graph.Array, out *graph.Array) (*graph.Array, error) {
	if !p[0].DType().IsFloat() || !op.To.IsFloat() {
		return ZerosLike(out)
	}
	return Cast(t[0], op.To)
}

// Params implements graph.Describer.
func (op CastOp) Params() map[string]any { return map[string]any{"to": op.To.String()} }

// ToDeviceOp copies an array to another device. The kernel is looked up on
// the destination device.
type ToDeviceOp struct {
	To tensor.Device
}

// ToDevice records a transfer of x to d.
func ToDevice(x *graph.Array, d tensor.Device) (*graph.Array, error) {
	return graph.Apply(ToDeviceOp{To: d}, x)
}

// Kind implements graph.Primitive.
func (ToDeviceOp) Kind() graph.Kind { return KindToDevice }

// Infer implements graph.Primitive.
func (op ToDeviceOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindToDevice, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	out := in[0].WithShape(in[0].Shape)
	out.Device = op.To
	return out, nil
}

// VJP implements graph.Primitive.
func (ToDeviceOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(c.toDevice(g, p[0].Device()))
}

// JVP implements graph.Primitive.
func (op ToDeviceOp) JVP(t, _ []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	return ToDevice(t[0], op.To)
}

// Params implements graph.Describer.
func (op ToDeviceOp) Params() map[string]any { return map[string]any{"to": op.To.String()} }
