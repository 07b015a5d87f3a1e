package cpu

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/tensor"
)

// matmul computes C[M,N] = A[M,K] @ B[K,N], one row block per worker.
func (b *Backend) matmul(kc *graph.KernelContext, in []*tensor.Storage) (*tensor.Storage, error) {
	m, k := kc.Inputs[0].Shape[0], kc.Inputs[0].Shape[1]
	n := kc.Inputs[1].Shape[1]

	out, err := kc.Alloc()
	if err != nil {
		return nil, err
	}

	if kc.Output.DType == tensor.Float32 {
		c, x, y := out.Float32s(), in[0].Float32s(), in[1].Float32s()
		b.rows(m, k*n, func(i int) { matmulRowFloat32(c, x, y, i, k, n) })
		return out, nil
	}

	c := make([]float64, m*n)
	x, y := in[0].Float64Values(), in[1].Float64Values()
	b.rows(m, k*n, func(i int) { matmulRowFloat64(c, x, y, i, k, n) })
	if err := out.SetFloat64Values(c); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) rows(m, work int, f func(i int)) {
	parallel.ForRows(m, work, f, b.cfg)
}

// matmulRowFloat32 computes row i of C in i-k-j order.
// C[i,j] = sum_k A[i,k] * B[k,j]
func matmulRowFloat32(c, a, b []float32, i, k, n int) {
	row := c[i*n : (i+1)*n]
	for p := 0; p < k; p++ {
		av := a[i*k+p]
		brow := b[p*n : (p+1)*n]
		for j := range row {
			row[j] += av * brow[j]
		}
	}
}

func matmulRowFloat64(c, a, b []float64, i, k, n int) {
	row := c[i*n : (i+1)*n]
	for p := 0; p < k; p++ {
		av := a[i*k+p]
		brow := b[p*n : (p+1)*n]
		for j := range row {
			row[j] += av * brow[j]
		}
	}
}
