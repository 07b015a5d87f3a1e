package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/born-ml/lazy/internal/tensor"
)

// ErrNotMaterialized is returned when reading the data of a pending array.
var ErrNotMaterialized = errors.New("array is not materialized")

var lastID atomic.Uint64

// Array is an immutable node of the lazy graph. A leaf wraps storage supplied
// at creation. Any other array records the primitive and inputs that produce
// it and receives its storage exactly once, from the evaluator.
type Array struct {
	id   uint64
	spec tensor.Spec

	mu      sync.Mutex
	prim    Primitive
	inputs  []*Array
	storage *tensor.Storage
	detach  bool
}

func newArray(spec tensor.Spec, prim Primitive, inputs []*Array) *Array {
	return &Array{
		id:     lastID.Add(1),
		spec:   spec,
		prim:   prim,
		inputs: inputs,
	}
}

// FromStorage wraps materialized storage as a leaf. The array takes over the
// caller's reference.
func FromStorage(s *tensor.Storage) *Array {
	a := newArray(s.Spec(), nil, nil)
	a.storage = s
	return a
}

// FromSlice copies data into a new leaf array.
func FromSlice[T tensor.DType](data []T, shape tensor.Shape, device tensor.Device) (*Array, error) {
	s, err := tensor.FromSlice(data, shape, device)
	if err != nil {
		return nil, err
	}
	return FromStorage(s), nil
}

// Full returns a leaf array of spec with every element set to value.
func Full(spec tensor.Spec, value float64) (*Array, error) {
	vals := make([]float64, spec.NumElements())
	for i := range vals {
		vals[i] = value
	}
	s, err := tensor.FromFloat64Values(spec, vals)
	if err != nil {
		return nil, err
	}
	return FromStorage(s), nil
}

// Zeros returns a zero-filled leaf array.
func Zeros(spec tensor.Spec) (*Array, error) {
	s, err := tensor.NewStorage(spec)
	if err != nil {
		return nil, err
	}
	return FromStorage(s), nil
}

// Ones returns a leaf array filled with ones.
func Ones(spec tensor.Spec) (*Array, error) {
	return Full(spec, 1)
}

// Apply records a pending application of p to inputs. Nothing is computed:
// the output spec is inferred and the dependency edges are stored.
func Apply(p Primitive, inputs ...*Array) (*Array, error) {
	specs := make([]tensor.Spec, len(inputs))
	for i, in := range inputs {
		if in == nil {
			return nil, errors.Errorf("%s: input %d is nil", p.Kind(), i)
		}
		specs[i] = in.spec
	}
	spec, err := p.Infer(specs)
	if err != nil {
		return nil, err
	}
	if err := spec.Shape.Validate(); err != nil {
		return nil, err
	}
	return newArray(spec, p, append([]*Array(nil), inputs...)), nil
}

// ID returns the creation-ordered identity of the array.
func (a *Array) ID() uint64 { return a.id }

// Spec returns shape, element type and device.
func (a *Array) Spec() tensor.Spec { return a.spec }

// Shape returns the array's shape.
func (a *Array) Shape() tensor.Shape { return a.spec.Shape }

// DType returns the element type.
func (a *Array) DType() tensor.DataType { return a.spec.DType }

// Device returns the placement.
func (a *Array) Device() tensor.Device { return a.spec.Device }

// Primitive returns the producing primitive, or nil for leaves.
func (a *Array) Primitive() Primitive {
	p, _ := a.Producer()
	return p
}

// Inputs returns a copy of the input list.
func (a *Array) Inputs() []*Array {
	_, in := a.Producer()
	return append([]*Array(nil), in...)
}

// Producer returns the producing primitive and the input list as one
// snapshot, so a concurrent Detach cannot separate them. Leaves return nil
// and an empty list. Callers must not modify the list.
func (a *Array) Producer() (Primitive, []*Array) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prim, a.inputs
}

// IsLeaf reports whether the array has no recorded history: it was created
// from data or has been detached.
func (a *Array) IsLeaf() bool { return a.Primitive() == nil }

// Kind returns the primitive kind, or "leaf".
func (a *Array) Kind() Kind {
	p := a.Primitive()
	if p == nil {
		return "leaf"
	}
	return p.Kind()
}

// Detach drops the primitive and inputs of a once it holds storage, so the
// array becomes a leaf and no longer keeps its history reachable. A
// materialized array is detached immediately; a pending one when the
// evaluator attaches its storage. Derivatives do not flow through a detached
// array into its former inputs.
func (a *Array) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.storage != nil {
		a.prim, a.inputs = nil, nil
		return
	}
	a.detach = true
}

// IsMaterialized reports whether storage has been attached.
func (a *Array) IsMaterialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storage != nil
}

// Storage returns the attached storage or nil.
func (a *Array) Storage() *tensor.Storage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storage
}

// Attach sets the storage of a pending array. Storage is write-once: a second
// attach fails and leaves the first value in place. The array takes over the
// caller's reference on success.
func (a *Array) Attach(s *tensor.Storage) error {
	if !s.Spec().Equal(a.spec) {
		return errors.Errorf("attach %s to array %d of %s", s.Spec(), a.id, a.spec)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.storage != nil {
		return errors.Errorf("array %d is already materialized", a.id)
	}
	a.storage = s
	if a.detach {
		a.prim, a.inputs = nil, nil
	}
	return nil
}

// Float64s decodes the array's values. The array must be materialized.
func (a *Array) Float64s() ([]float64, error) {
	s := a.Storage()
	if s == nil {
		return nil, errors.Wrapf(ErrNotMaterialized, "array %d", a.id)
	}
	return s.Float64Values(), nil
}

// Float32s decodes the array's values. The array must be materialized.
func (a *Array) Float32s() ([]float32, error) {
	s := a.Storage()
	if s == nil {
		return nil, errors.Wrapf(ErrNotMaterialized, "array %d", a.id)
	}
	return s.Float32Values(), nil
}

func (a *Array) String() string {
	state := "pending"
	if a.IsMaterialized() {
		state = "materialized"
	}
	return fmt.Sprintf("Array(%d %s %s %s)", a.id, a.Kind(), a.spec, state)
}
