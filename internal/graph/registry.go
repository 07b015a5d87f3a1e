package graph

import (
	"sort"
	"sync"

	"github.com/born-ml/lazy/internal/tensor"
)

// Kernel evaluates one primitive application. It receives materialized input
// storages in input order and returns the output storage, which must match
// kc.Output.
type Kernel func(kc *KernelContext, inputs []*tensor.Storage) (*tensor.Storage, error)

// KernelContext carries the static description of one application.
type KernelContext struct {
	Primitive Primitive
	Inputs    []tensor.Spec
	Output    tensor.Spec

	alloc func(tensor.Spec) (*tensor.Storage, error)
}

// NewKernelContext builds a context whose Alloc draws from alloc. A nil
// alloc falls back to plain allocation.
func NewKernelContext(p Primitive, inputs []tensor.Spec, output tensor.Spec, alloc func(tensor.Spec) (*tensor.Storage, error)) *KernelContext {
	return &KernelContext{Primitive: p, Inputs: inputs, Output: output, alloc: alloc}
}

// Alloc returns zeroed storage for the output spec, reusing a donated buffer
// when the evaluator has one.
func (kc *KernelContext) Alloc() (*tensor.Storage, error) {
	if kc.alloc != nil {
		return kc.alloc(kc.Output)
	}
	return tensor.NewStorage(kc.Output)
}

// Backend is a named set of kernels.
type Backend interface {
	Name() string
	Register(r *Registry)
}

type regKey struct {
	kind Kind
	dev  tensor.DeviceType
}

// Registration is one installed kernel.
type Registration struct {
	Kind    Kind
	Device  tensor.DeviceType
	Backend string
	Kernel  Kernel
}

// Registry maps (kind, device type) to kernels. Later registrations replace
// earlier ones, which lets a specialized backend override a generic one.
type Registry struct {
	mu      sync.RWMutex
	kernels map[regKey]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[regKey]Registration)}
}

// Register installs k for kind on device type dev.
func (r *Registry) Register(kind Kind, dev tensor.DeviceType, backend string, k Kernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kernels[regKey{kind, dev}] = Registration{Kind: kind, Device: dev, Backend: backend, Kernel: k}
}

// Install registers every kernel of b.
func (r *Registry) Install(b Backend) {
	b.Register(r)
}

// Lookup returns the kernel for kind on dev.
func (r *Registry) Lookup(kind Kind, dev tensor.DeviceType) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.kernels[regKey{kind, dev}]
	return reg, ok
}

// Registrations lists installed kernels ordered by device type then kind.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	out := make([]Registration, 0, len(r.kernels))
	for _, reg := range r.kernels {
		out = append(out, reg)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Device != out[j].Device {
			return out[i].Device < out[j].Device
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
