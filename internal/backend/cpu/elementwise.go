package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/tensor"
)

var binary64 = map[graph.Kind]func(a, b float64) float64{
	ops.KindAdd:     func(a, b float64) float64 { return a + b },
	ops.KindSub:     func(a, b float64) float64 { return a - b },
	ops.KindMul:     func(a, b float64) float64 { return a * b },
	ops.KindDiv:     func(a, b float64) float64 { return a / b },
	ops.KindMaximum: math.Max,
}

var binary32 = map[graph.Kind]func(a, b float32) float32{
	ops.KindAdd: func(a, b float32) float32 { return a + b },
	ops.KindSub: func(a, b float32) float32 { return a - b },
	ops.KindMul: func(a, b float32) float32 { return a * b },
	ops.KindDiv: func(a, b float32) float32 { return a / b },
	ops.KindMaximum: func(a, b float32) float32 {
		return float32(math.Max(float64(a), float64(b)))
	},
}

var unary64 = map[graph.Kind]func(x float64) float64{
	ops.KindNeg:  func(x float64) float64 { return -x },
	ops.KindExp:  math.Exp,
	ops.KindLog:  math.Log,
	ops.KindSin:  math.Sin,
	ops.KindCos:  math.Cos,
	ops.KindTanh: math.Tanh,
	ops.KindSigmoid: func(x float64) float64 {
		return 1 / (1 + math.Exp(-x))
	},
	ops.KindReLU: func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	},
	ops.KindSqrt: math.Sqrt,
	ops.KindAbs:  math.Abs,
	ops.KindSign: func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	},
	ops.KindRound: math.Round,
}

// binary evaluates the element-wise binary kinds. Inputs share one spec.
func (b *Backend) binary(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	kind := kc.Primitive.Kind()
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	n := kc.Output.NumElements()

	if kc.Output.DType == tensor.Float32 {
		f := binary32[kind]
		dst, x, y := out.Float32s(), in[0].Float32s(), in[1].Float32s()
		parallel.For(n, func(i int) { dst[i] = f(x[i], y[i]) }, b.cfg)
		return out, nil
	}

	f, ok := binary64[kind]
	if !ok {
		return nil, fmt.Errorf("cpu: no binary function for %s", kind)
	}
	x, y := in[0].Float64Values(), in[1].Float64Values()
	res := make([]float64, n)
	parallel.For(n, func(i int) { res[i] = f(x[i], y[i]) }, b.cfg)
	if err := out.SetFloat64Values(res); err != nil {
		return nil, err
	}
	return out, nil
}

// unary evaluates the element-wise unary kinds.
func (b *Backend) unary(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	kind := kc.Primitive.Kind()
	f, ok := unary64[kind]
	if !ok {
		return nil, fmt.Errorf("cpu: no unary function for %s", kind)
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	n := kc.Output.NumElements()

	if kc.Output.DType == tensor.Float32 {
		dst, x := out.Float32s(), in[0].Float32s()
		parallel.For(n, func(i int) { dst[i] = float32(f(float64(x[i]))) }, b.cfg)
		return out, nil
	}

	x := in[0].Float64Values()
	parallel.For(n, func(i int) { x[i] = f(x[i]) }, b.cfg)
	if err := out.SetFloat64Values(x); err != nil {
		return nil, err
	}
	return out, nil
}

// scalar evaluates Scale and AddScalar.
func (b *Backend) scalar(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	var f func(float64) float64
	switch p := kc.Primitive.(type) {
	case ops.ScaleOp:
		f = func(x float64) float64 { return x * p.Value }
	case ops.AddScalarOp:
		f = func(x float64) float64 { return x + p.Value }
	default:
		return nil, fmt.Errorf("cpu: unexpected scalar primitive %T", kc.Primitive)
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	n := kc.Output.NumElements()

	if kc.Output.DType == tensor.Float32 {
		dst, x := out.Float32s(), in[0].Float32s()
		parallel.For(n, func(i int) { dst[i] = float32(f(float64(x[i]))) }, b.cfg)
		return out, nil
	}

	x := in[0].Float64Values()
	parallel.For(n, func(i int) { x[i] = f(x[i]) }, b.cfg)
	if err := out.SetFloat64Values(x); err != nil {
		return nil, err
	}
	return out, nil
}

// compare evaluates Greater, Less and Equal into a bool storage.
func compare(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	var f func(a, b float64) bool
	switch kc.Primitive.Kind() {
	case ops.KindGreater:
		f = func(a, b float64) bool { return a > b }
	case ops.KindLess:
		f = func(a, b float64) bool { return a < b }
	case ops.KindEqual:
		f = func(a, b float64) bool { return a == b }
	default:
		return nil, fmt.Errorf("cpu: unexpected comparison %s", kc.Primitive.Kind())
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	dst := out.Bools()
	x, y := in[0].Float64Values(), in[1].Float64Values()
	for i := range dst {
		dst[i] = f(x[i], y[i])
	}
	return out, nil
}

// selectKernel copies each element from x or y depending on cond.
func selectKernel(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	size := kc.Output.DType.Size()
	cond := in[0].Bools()
	dst, x, y := out.Bytes(), in[1].Bytes(), in[2].Bytes()
	for i, c := range cond {
		src := y
		if c {
			src = x
		}
		copy(dst[i*size:(i+1)*size], src[i*size:(i+1)*size])
	}
	return out, nil
}
