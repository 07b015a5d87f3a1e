package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// UnaryOp represents an element-wise function of one input. The kind selects
// the function; all unary kinds share inference and differ only in their
// derivative rules.
//
//	neg:     grad = -g
//	exp:     grad = g * out
//	log:     grad = g / x
//	sin:     grad = g * cos(x)
//	cos:     grad = -g * sin(x)
//	tanh:    grad = g * (1 - out²)
//	sigmoid: grad = g * out * (1 - out)
//	relu:    grad = g where x > 0, else 0
//	sqrt:    grad = g / (2 * out)
//	abs:     grad = g * sign(x)
//	sign, round, stop_gradient: grad = 0
type UnaryOp struct {
	kind graph.Kind
}

// floatOnly kinds reject integer inputs.
var floatOnly = map[graph.Kind]bool{
	KindExp: true, KindLog: true, KindSin: true, KindCos: true,
	KindTanh: true, KindSigmoid: true, KindSqrt: true, KindRound: true,
}

func unary(kind graph.Kind, x *graph.Array) (*graph.Array, error) {
	return graph.Apply(UnaryOp{kind: kind}, x)
}

// Neg records -x.
func Neg(x *graph.Array) (*graph.Array, error) { return unary(KindNeg, x) }

// Exp records e^x.
func Exp(x *graph.Array) (*graph.Array, error) { return unary(KindExp, x) }

// Log records ln(x).
func Log(x *graph.Array) (*graph.Array, error) { return unary(KindLog, x) }

// Sin records sin(x).
func Sin(x *graph.Array) (*graph.Array, error) { return unary(KindSin, x) }

// Cos records cos(x).
func Cos(x *graph.Array) (*graph.Array, error) { return unary(KindCos, x) }

// Tanh records tanh(x).
func Tanh(x *graph.Array) (*graph.Array, error) { return unary(KindTanh, x) }

// Sigmoid records 1 / (1 + e^-x).
func Sigmoid(x *graph.Array) (*graph.Array, error) { return unary(KindSigmoid, x) }

// ReLU records max(x, 0).
func ReLU(x *graph.Array) (*graph.Array, error) { return unary(KindReLU, x) }

// Sqrt records √x.
func Sqrt(x *graph.Array) (*graph.Array, error) { return unary(KindSqrt, x) }

// Abs records |x|.
func Abs(x *graph.Array) (*graph.Array, error) { return unary(KindAbs, x) }

// Sign records -1, 0 or 1 per element.
func Sign(x *graph.Array) (*graph.Array, error) { return unary(KindSign, x) }

// Round records x rounded half away from zero.
func Round(x *graph.Array) (*graph.Array, error) { return unary(KindRound, x) }

// StopGradient records an identity whose derivatives are zero.
func StopGradient(x *graph.Array) (*graph.Array, error) { return unary(KindStopGradient, x) }

// Kind implements graph.Primitive.
func (op UnaryOp) Kind() graph.Kind { return op.kind }

// Infer implements graph.Primitive.
func (op UnaryOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(op.kind, in, 1); err != nil {
		return tensor.Spec{}, err
	}
	if floatOnly[op.kind] {
		if err := requireFloat(op.kind, in[0]); err != nil {
			return tensor.Spec{}, err
		}
	} else if op.kind != KindStopGradient {
		if err := requireNumeric(op.kind, in[0]); err != nil {
			return tensor.Spec{}, err
		}
	}
	return in[0].WithShape(in[0].Shape), nil
}

// derivative returns d(out)/dx times v, built from x and out.
func (op UnaryOp) derivative(c *chain, v, x, out *graph.Array) *graph.Array {
	switch op.kind {
	case KindNeg:
		return c.neg(v)
	case KindExp:
		return c.mul(v, out)
	case KindLog:
		return c.div(v, x)
	case KindSin:
		return c.mul(v, c.cos(x))
	case KindCos:
		return c.neg(c.mul(v, c.sin(x)))
	case KindTanh:
		return c.mul(v, c.addScalar(c.neg(c.mul(out, out)), 1))
	case KindSigmoid:
		return c.mul(v, c.mul(out, c.addScalar(c.neg(out), 1)))
	case KindReLU:
		return c.sel(c.greater(x, c.zerosLike(x)), v, c.zerosLike(v))
	case KindSqrt:
		return c.div(v, c.scale(out, 2))
	case KindAbs:
		return c.mul(v, c.sign(x))
	default:
		// sign, round and stop_gradient are flat almost everywhere.
		return c.zerosLike(x)
	}
}

// VJP implements graph.Primitive.
func (op UnaryOp) VJP(g *graph.Array, p []*graph.Array, out *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(op.derivative(&c, g, p[0], out))
}

// JVP implements graph.Primitive.
func (op UnaryOp) JVP(t, p []*graph.Array, out *graph.Array) (*graph.Array, error) {
	var c chain
	return c.one(op.derivative(&c, t[0], p[0], out))
}
