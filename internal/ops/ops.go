// Package ops defines the primitive catalogue of the lazy graph.
//
// Each primitive implements graph.Primitive, which provides:
//   - Infer: output shape/type from input specs, failing fast on mismatch
//   - VJP: cotangents for inputs given the output cotangent
//   - JVP: output tangent given input tangents
//
// Supported primitives:
//   - Element-wise binary: Add, Sub, Mul, Div, Maximum
//   - Element-wise unary: Neg, Exp, Log, Sin, Cos, Tanh, Sigmoid, ReLU, Sqrt, Abs, Sign, Round
//   - Scalar parameterised: Scale, AddScalar
//   - Linear algebra: MatMul (2-D)
//   - Reductions: Sum (Mean is Sum followed by Scale)
//   - Layout: Broadcast, Reshape, Transpose
//   - Conversion: Cast, ToDevice
//   - Comparison: Greater, Less, Equal
//   - Control: Select, StopGradient
//   - Generators: Fill (ZerosLike, OnesLike, FullLike)
//
// Shapes, element types and devices are never reconciled implicitly:
// broadcasting, casting and device transfer are explicit primitives.
package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// Primitive kinds.
const (
	KindAdd          graph.Kind = "add"
	KindSub          graph.Kind = "sub"
	KindMul          graph.Kind = "mul"
	KindDiv          graph.Kind = "div"
	KindMaximum      graph.Kind = "maximum"
	KindNeg          graph.Kind = "neg"
	KindExp          graph.Kind = "exp"
	KindLog          graph.Kind = "log"
	KindSin          graph.Kind = "sin"
	KindCos          graph.Kind = "cos"
	KindTanh         graph.Kind = "tanh"
	KindSigmoid      graph.Kind = "sigmoid"
	KindReLU         graph.Kind = "relu"
	KindSqrt         graph.Kind = "sqrt"
	KindAbs          graph.Kind = "abs"
	KindSign         graph.Kind = "sign"
	KindRound        graph.Kind = "round"
	KindScale        graph.Kind = "scale"
	KindAddScalar    graph.Kind = "add_scalar"
	KindMatMul       graph.Kind = "matmul"
	KindSum          graph.Kind = "sum"
	KindBroadcast    graph.Kind = "broadcast"
	KindReshape      graph.Kind = "reshape"
	KindTranspose    graph.Kind = "transpose"
	KindCast         graph.Kind = "cast"
	KindToDevice     graph.Kind = "to_device"
	KindGreater      graph.Kind = "greater"
	KindLess         graph.Kind = "less"
	KindEqual        graph.Kind = "equal"
	KindSelect       graph.Kind = "select"
	KindStopGradient graph.Kind = "stop_gradient"
	KindFill         graph.Kind = "fill"
)

// Kinds lists every primitive kind defined by this package.
func Kinds() []graph.Kind {
	return []graph.Kind{
		KindAdd, KindSub, KindMul, KindDiv, KindMaximum,
		KindNeg, KindExp, KindLog, KindSin, KindCos, KindTanh, KindSigmoid,
		KindReLU, KindSqrt, KindAbs, KindSign, KindRound,
		KindScale, KindAddScalar, KindMatMul, KindSum,
		KindBroadcast, KindReshape, KindTranspose, KindCast, KindToDevice,
		KindGreater, KindLess, KindEqual, KindSelect, KindStopGradient, KindFill,
	}
}

func wantInputs(kind graph.Kind, in []tensor.Spec, n int) error {
	if len(in) != n {
		return &tensor.TypeError{Op: string(kind), Specs: in, Msg: "wrong number of inputs"}
	}
	return nil
}

// sameSpec requires a and b to agree on shape, dtype and device.
func sameSpec(kind graph.Kind, a, b tensor.Spec) error {
	if !a.Shape.Equal(b.Shape) {
		return &tensor.ShapeError{Op: string(kind), Shapes: []tensor.Shape{a.Shape, b.Shape}, Msg: "shapes differ (broadcast explicitly)"}
	}
	if a.DType != b.DType {
		return &tensor.TypeError{Op: string(kind), Specs: []tensor.Spec{a, b}, Msg: "dtypes differ (cast explicitly)"}
	}
	if a.Device != b.Device {
		return &tensor.TypeError{Op: string(kind), Specs: []tensor.Spec{a, b}, Msg: "devices differ (transfer explicitly)"}
	}
	return nil
}

func requireFloat(kind graph.Kind, s tensor.Spec) error {
	if !s.DType.IsFloat() {
		return &tensor.TypeError{Op: string(kind), Specs: []tensor.Spec{s}, Msg: "floating point input required"}
	}
	return nil
}

func requireNumeric(kind graph.Kind, s tensor.Spec) error {
	if s.DType == tensor.Bool {
		return &tensor.TypeError{Op: string(kind), Specs: []tensor.Spec{s}, Msg: "numeric input required"}
	}
	return nil
}
