package cpu

import (
	"fmt"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

// broadcastStrides returns strides of src aligned to dst, with 0 on every
// expanded axis.
func broadcastStrides(src, dst tensor.Shape) []int {
	strides := make([]int, len(dst))
	srcStrides := src.ComputeStrides()
	lead := len(dst) - len(src)
	for i := lead; i < len(dst); i++ {
		if src[i-lead] != 1 {
			strides[i] = srcStrides[i-lead]
		}
	}
	return strides
}

// sourceIndex maps a flat output index to a flat input index.
func sourceIndex(flat int, outStrides, inStrides []int) int {
	idx := 0
	for d, s := range outStrides {
		c := flat / s
		flat -= c * s
		idx += c * inStrides[d]
	}
	return idx
}

// gather copies one element per output index from the mapped input index.
func gather(out, in *tensor.Storage, outShape tensor.Shape, inStrides []int) {
	size := out.Spec().DType.Size()
	dst, src := out.Bytes(), in.Bytes()
	outStrides := outShape.ComputeStrides()
	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		j := sourceIndex(i, outStrides, inStrides)
		copy(dst[i*size:(i+1)*size], src[j*size:(j+1)*size])
	}
}

func broadcast(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	gather(out, in[0], kc.Output.Shape, broadcastStrides(kc.Inputs[0].Shape, kc.Output.Shape))
	return out, nil
}

func transpose(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	op, ok := kc.Primitive.(ops.TransposeOp)
	if !ok {
		return nil, fmt.Errorf("cpu: unexpected transpose primitive %T", kc.Primitive)
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	srcStrides := kc.Inputs[0].Shape.ComputeStrides()
	inStrides := make([]int, len(op.Perm))
	for i, ax := range op.Perm {
		inStrides[i] = srcStrides[ax]
	}
	gather(out, in[0], kc.Output.Shape, inStrides)
	return out, nil
}

// reshape, identity and toDevice copy bytes into a storage of the output spec.
func reshape(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	return copyKernel(kc, in)
}

func identity(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	return copyKernel(kc, in)
}

func toDevice(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	return copyKernel(kc, in)
}

func copyKernel(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	copy(out.Bytes(), in[0].Bytes())
	return out, nil
}

// sum reduces over op.Axes by accumulating each input element into its
// kept-dims output slot.
func sum(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	op, ok := kc.Primitive.(ops.SumOp)
	if !ok {
		return nil, fmt.Errorf("cpu: unexpected sum primitive %T", kc.Primitive)
	}
	src := kc.Inputs[0].Shape
	kept := op.KeptShape(src)
	// Kept-dims strides with 0 on reduced axes map input indices to outputs.
	outStrides := broadcastStrides(kept, src)
	inStrides := src.ComputeStrides()

	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	n := src.NumElements()

	if kc.Output.DType == tensor.Float32 {
		dst, x := out.Float32s(), in[0].Float32s()
		for i := 0; i < n; i++ {
			dst[sourceIndex(i, inStrides, outStrides)] += x[i]
		}
		return out, nil
	}

	acc := make([]float64, kc.Output.NumElements())
	x := in[0].Float64Values()
	for i := 0; i < n; i++ {
		acc[sourceIndex(i, inStrides, outStrides)] += x[i]
	}
	if err := out.SetFloat64Values(acc); err != nil {
		return nil, err
	}
	return out, nil
}

func cast(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	if kc.Inputs[0].DType == kc.Output.DType {
		copy(out.Bytes(), in[0].Bytes())
		return out, nil
	}
	if err := out.SetFloat64Values(in[0].Float64Values()); err != nil {
		return nil, err
	}
	return out, nil
}

func fill(kc *graph.KernelContext, _ []*tensor.Storage) (*tensor.Storage, error) {
	op, ok := kc.Primitive.(ops.FillOp)
	if !ok {
		return nil, fmt.Errorf("cpu: unexpected fill primitive %T", kc.Primitive)
	}
	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}
	if op.Value == 0 {
		return out, nil
	}
	if kc.Output.DType == tensor.Float32 {
		v := float32(op.Value)
		dst := out.Float32s()
		for i := range dst {
			dst[i] = v
		}
		return out, nil
	}
	vals := make([]float64, kc.Output.NumElements())
	for i := range vals {
		vals[i] = op.Value
	}
	if err := out.SetFloat64Values(vals); err != nil {
		return nil, err
	}
	return out, nil
}
