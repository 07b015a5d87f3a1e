package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Storage is a reference-counted host-visible buffer holding the elements of
// one materialized array. Arrays, evaluation runs and the buffer pool share
// ownership through Retain/Release; when the count drops to zero the buffer is
// handed to its recycler (if any) or dropped.
type Storage struct {
	spec    Spec
	data    []byte
	refs    atomic.Int32
	mu      sync.Mutex // guards data and recycle on the release path
	recycle func(*Storage)
}

// NewStorage allocates zeroed storage for spec with a reference count of 1.
func NewStorage(spec Spec) (*Storage, error) {
	if err := spec.Shape.Validate(); err != nil {
		return nil, err
	}
	s := &Storage{
		spec: spec.WithShape(spec.Shape),
		data: make([]byte, spec.ByteSize()),
	}
	s.refs.Store(1)
	return s, nil
}

// WrapBytes adopts data as the storage for spec. The slice is not copied.
func WrapBytes(spec Spec, data []byte) (*Storage, error) {
	if err := spec.Shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != spec.ByteSize() {
		return nil, fmt.Errorf("wrap %s: got %d bytes, want %d", spec, len(data), spec.ByteSize())
	}
	s := &Storage{spec: spec.WithShape(spec.Shape), data: data}
	s.refs.Store(1)
	return s, nil
}

// FromSlice copies data into new storage of the given shape.
func FromSlice[T DType](data []T, shape Shape, device Device) (*Storage, error) {
	spec := Spec{Shape: shape, DType: InferDataType[T](), Device: device}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, &ShapeError{
			Op:     "from_slice",
			Shapes: []Shape{shape},
			Msg:    fmt.Sprintf("data has %d elements, shape needs %d", len(data), shape.NumElements()),
		}
	}
	s, err := NewStorage(spec)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		//nolint:gosec // unsafe.Slice for zero-copy performance, length derived from len(data)
		src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(s.data))
		copy(s.data, src)
	}
	return s, nil
}

// Spec returns the layout of the stored elements.
func (s *Storage) Spec() Spec {
	return s.spec
}

// Bytes returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (s *Storage) Bytes() []byte {
	return s.data
}

// Retain increments the reference count and returns s.
func (s *Storage) Retain() *Storage {
	s.refs.Add(1)
	return s
}

// Release decrements the reference count. At zero the buffer is recycled or
// dropped. Releasing an already released storage is a no-op.
func (s *Storage) Release() {
	n := s.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		s.refs.Store(0)
		return
	}
	s.mu.Lock()
	recycle := s.recycle
	s.recycle = nil
	if recycle == nil {
		s.data = nil
	}
	s.mu.Unlock()
	if recycle != nil {
		recycle(s)
	}
}

// RefCount returns the current number of owners.
func (s *Storage) RefCount() int {
	return int(s.refs.Load())
}

// IsUnique returns true if this storage has exactly one owner.
func (s *Storage) IsUnique() bool {
	return s.refs.Load() == 1
}

// Released reports whether the buffer was dropped.
func (s *Storage) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data == nil && s.spec.ByteSize() > 0
}

// SetRecycler installs fn to receive the storage when its count reaches zero.
func (s *Storage) SetRecycler(fn func(*Storage)) {
	s.mu.Lock()
	s.recycle = fn
	s.mu.Unlock()
}

// Reset relabels a recycled buffer with spec and zeroes it for reuse.
// The byte size must match and the storage must have no owners.
func (s *Storage) Reset(spec Spec) error {
	if spec.ByteSize() != len(s.data) {
		return fmt.Errorf("reset %s: buffer holds %d bytes", spec, len(s.data))
	}
	if n := s.refs.Load(); n != 0 {
		return fmt.Errorf("reset %s: storage still has %d owners", spec, n)
	}
	clear(s.data)
	s.spec = spec.WithShape(spec.Shape)
	s.refs.Store(1)
	return nil
}

// Clone returns a deep copy with a fresh reference count.
func (s *Storage) Clone() *Storage {
	c := &Storage{spec: s.spec.WithShape(s.spec.Shape), data: append([]byte(nil), s.data...)}
	c.refs.Store(1)
	return c
}

func (s *Storage) check(dt DataType) {
	if s.spec.DType != dt {
		panic(fmt.Sprintf("storage dtype is %s, not %s", s.spec.DType, dt))
	}
}

// Float32s interprets the data as []float32.
// Panics if the storage dtype is not Float32.
func (s *Storage) Float32s() []float32 {
	s.check(Float32)
	n := s.spec.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&s.data[0])), n)
}

// Float64s interprets the data as []float64.
// Panics if the storage dtype is not Float64.
func (s *Storage) Float64s() []float64 {
	s.check(Float64)
	n := s.spec.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&s.data[0])), n)
}

// Int32s interprets the data as []int32.
// Panics if the storage dtype is not Int32.
func (s *Storage) Int32s() []int32 {
	s.check(Int32)
	n := s.spec.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&s.data[0])), n)
}

// Int64s interprets the data as []int64.
// Panics if the storage dtype is not Int64.
func (s *Storage) Int64s() []int64 {
	s.check(Int64)
	n := s.spec.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&s.data[0])), n)
}

// Uint8s interprets the data as []uint8.
// Panics if the storage dtype is not Uint8.
func (s *Storage) Uint8s() []uint8 {
	s.check(Uint8)
	return s.data
}

// Bools interprets the data as []bool.
// Panics if the storage dtype is not Bool.
func (s *Storage) Bools() []bool {
	s.check(Bool)
	n := s.spec.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*bool)(unsafe.Pointer(&s.data[0])), n)
}

// Uint16s exposes the raw bits of a Float16 or BFloat16 storage.
func (s *Storage) Uint16s() []uint16 {
	if s.spec.DType != Float16 && s.spec.DType != BFloat16 {
		panic(fmt.Sprintf("storage dtype is %s, not a 16-bit float", s.spec.DType))
	}
	n := s.spec.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*uint16)(unsafe.Pointer(&s.data[0])), n)
}
