// Package blas overrides the CPU matrix multiplication with gonum's BLAS
// routines: SGEMM for float32 and a dense product for float64. Other element
// types keep the generic CPU kernel.
package blas

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

// Name is the backend name reported in registrations and errors.
const Name = "blas"

// Backend registers BLAS kernels on the CPU device type.
type Backend struct {
	fallback graph.Kernel
}

// New creates a BLAS backend. fallback handles dtypes BLAS does not cover;
// it is normally the CPU matmul kernel.
func New(fallback graph.Kernel) *Backend {
	return &Backend{fallback: fallback}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return Name
}

// Register installs the BLAS matmul, replacing the generic one.
func (b *Backend) Register(r *graph.Registry) {
	r.Register(ops.KindMatMul, tensor.CPU, Name, b.matmul)
}

func (b *Backend) matmul(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	m, k := kc.Inputs[0].Shape[0], kc.Inputs[0].Shape[1]
	n := kc.Inputs[1].Shape[1]

	switch kc.Output.DType {
	case tensor.Float32:
		out, err := kc.Alloc()
		if err != nil {
			return nil, err
		}
		if m == 0 || n == 0 || k == 0 {
			return out, nil
		}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: m, Cols: k, Stride: k, Data: in[0].Float32s()},
			blas32.General{Rows: k, Cols: n, Stride: n, Data: in[1].Float32s()},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: out.Float32s()},
		)
		return out, nil
	case tensor.Float64:
		out, err := kc.Alloc()
		if err != nil {
			return nil, err
		}
		if m == 0 || n == 0 || k == 0 {
			return out, nil
		}
		// mat.Dense wraps the storage slices without copying.
		a := mat.NewDense(m, k, in[0].Float64s())
		bm := mat.NewDense(k, n, in[1].Float64s())
		c := mat.NewDense(m, n, out.Float64s())
		c.Mul(a, bm)
		return out, nil
	default:
		if b.fallback == nil {
			return nil, &graph.UnsupportedOperationError{Kind: ops.KindMatMul, Device: kc.Output.Device}
		}
		return b.fallback(kc, in)
	}
}
