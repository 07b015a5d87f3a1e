// Package cpu implements the host backend: kernels for every primitive kind
// in internal/ops, with float32 fast paths and a float64 path for the other
// element types.
package cpu

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/parallel"
	"github.com/born-ml/lazy/internal/tensor"
)

// Name is the backend name reported in registrations and errors.
const Name = "cpu"

// Backend registers host kernels.
type Backend struct {
	cfg parallel.Config
}

// New creates a CPU backend using cfg for element-wise parallelism.
func New(cfg parallel.Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return Name
}

// Register installs every kernel for the CPU device type.
func (b *Backend) Register(r *graph.Registry) {
	for kind, k := range b.Kernels() {
		r.Register(kind, tensor.CPU, Name, k)
	}
}

// Kernels returns the host kernels by kind. Storage is host-visible on every
// device, so other backends reuse these for kinds they do not accelerate.
func (b *Backend) Kernels() map[graph.Kind]graph.Kernel {
	m := map[graph.Kind]graph.Kernel{
		ops.KindMatMul:       b.matmul,
		ops.KindSum:          sum,
		ops.KindBroadcast:    broadcast,
		ops.KindReshape:      reshape,
		ops.KindTranspose:    transpose,
		ops.KindCast:         cast,
		ops.KindToDevice:     toDevice,
		ops.KindSelect:       selectKernel,
		ops.KindStopGradient: identity,
		ops.KindFill:         fill,
		ops.KindScale:        b.scalar,
		ops.KindAddScalar:    b.scalar,
	}
	for _, kind := range []graph.Kind{ops.KindAdd, ops.KindSub, ops.KindMul, ops.KindDiv, ops.KindMaximum} {
		m[kind] = b.binary
	}
	for kind := range unary64 {
		m[kind] = b.unary
	}
	for _, kind := range []graph.Kind{ops.KindGreater, ops.KindLess, ops.KindEqual} {
		m[kind] = compare
	}
	return m
}
