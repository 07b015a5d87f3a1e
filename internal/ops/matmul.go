package ops

import (
	"fmt"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// MatMulOp represents matrix multiplication: output = A @ B.
//
// Forward: C[M,N] = A[M,K] @ B[K,N]
//
// Backward:
//   - grad_A = grad_C @ B^T
//   - grad_B = A^T @ grad_C
type MatMulOp struct{}

// MatMul records a @ b for 2-D float arrays.
func MatMul(a, b *graph.Array) (*graph.Array, error) { return graph.Apply(MatMulOp{}, a, b) }

// Kind implements graph.Primitive.
func (MatMulOp) Kind() graph.Kind { return KindMatMul }

// Infer implements graph.Primitive.
func (MatMulOp) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if err := wantInputs(KindMatMul, in, 2); err != nil {
		return tensor.Spec{}, err
	}
	a, b := in[0], in[1]
	if len(a.Shape) != 2 || len(b.Shape) != 2 {
		return tensor.Spec{}, &tensor.ShapeError{Op: string(KindMatMul), Shapes: []tensor.Shape{a.Shape, b.Shape}, Msg: "2-D inputs required"}
	}
	if a.Shape[1] != b.Shape[0] {
		return tensor.Spec{}, &tensor.ShapeError{
			Op:     string(KindMatMul),
			Shapes: []tensor.Shape{a.Shape, b.Shape},
			Msg:    fmt.Sprintf("inner dimensions differ: %d vs %d", a.Shape[1], b.Shape[0]),
		}
	}
	if a.DType != b.DType || a.Device != b.Device {
		return tensor.Spec{}, &tensor.TypeError{Op: string(KindMatMul), Specs: in, Msg: "dtype and device must match"}
	}
	if err := requireFloat(KindMatMul, a); err != nil {
		return tensor.Spec{}, err
	}
	return tensor.Spec{Shape: tensor.Shape{a.Shape[0], b.Shape[1]}, DType: a.DType, Device: a.Device}, nil
}

// VJP implements graph.Primitive.
func (MatMulOp) VJP(g *graph.Array, p []*graph.Array, _ *graph.Array) ([]*graph.Array, error) {
	var c chain
	return c.grads(
		c.matmul(g, c.transpose(p[1], 1, 0)),
		c.matmul(c.transpose(p[0], 1, 0), g),
	)
}

// JVP implements graph.Primitive.
func (MatMulOp) JVP(t, p []*graph.Array, _ *graph.Array) (*graph.Array, error) {
	var c chain
	return c.one(c.add(c.matmul(t[0], p[1]), c.matmul(p[0], t[1])))
}
