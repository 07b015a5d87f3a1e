package tensor

import (
	"fmt"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Float64Values decodes every element of s into a new []float64.
// Bools decode to 0/1. This is the generic path used by kernels that do not
// specialize on the element type.
func (s *Storage) Float64Values() []float64 {
	n := s.spec.NumElements()
	out := make([]float64, n)
	switch s.spec.DType {
	case Float32:
		for i, v := range s.Float32s() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, s.Float64s())
	case Float16:
		for i, v := range s.Uint16s() {
			out[i] = float64(float16.Frombits(v).Float32())
		}
	case BFloat16:
		for i, v := range bfloat16.DecodeFloat32(s.data) {
			out[i] = float64(v)
		}
	case Int32:
		for i, v := range s.Int32s() {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range s.Int64s() {
			out[i] = float64(v)
		}
	case Uint8:
		for i, v := range s.Uint8s() {
			out[i] = float64(v)
		}
	case Bool:
		for i, v := range s.Bools() {
			if v {
				out[i] = 1
			}
		}
	}
	return out
}

// Float32Values decodes every element of s into a new []float32.
func (s *Storage) Float32Values() []float32 {
	if s.spec.DType == Float32 {
		return append([]float32(nil), s.Float32s()...)
	}
	if s.spec.DType == BFloat16 {
		return bfloat16.DecodeFloat32(s.data)
	}
	vals := s.Float64Values()
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

// SetFloat64Values encodes vals into s, converting to the storage dtype.
// Integer types round to nearest; bools store v != 0.
func (s *Storage) SetFloat64Values(vals []float64) error {
	if len(vals) != s.spec.NumElements() {
		return fmt.Errorf("set %s: got %d values", s.spec, len(vals))
	}
	switch s.spec.DType {
	case Float32:
		dst := s.Float32s()
		for i, v := range vals {
			dst[i] = float32(v)
		}
	case Float64:
		copy(s.Float64s(), vals)
	case Float16:
		dst := s.Uint16s()
		for i, v := range vals {
			dst[i] = float16.Fromfloat32(float32(v)).Bits()
		}
	case BFloat16:
		f32 := make([]float32, len(vals))
		for i, v := range vals {
			f32[i] = float32(v)
		}
		copy(s.data, bfloat16.EncodeFloat32(f32))
	case Int32:
		dst := s.Int32s()
		for i, v := range vals {
			dst[i] = int32(math.Round(v))
		}
	case Int64:
		dst := s.Int64s()
		for i, v := range vals {
			dst[i] = int64(math.Round(v))
		}
	case Uint8:
		dst := s.Uint8s()
		for i, v := range vals {
			dst[i] = uint8(math.Round(v))
		}
	case Bool:
		dst := s.Bools()
		for i, v := range vals {
			dst[i] = v != 0
		}
	default:
		return fmt.Errorf("set %s: unsupported dtype", s.spec)
	}
	return nil
}

// FromFloat64Values allocates storage for spec and encodes vals into it.
func FromFloat64Values(spec Spec, vals []float64) (*Storage, error) {
	s, err := NewStorage(spec)
	if err != nil {
		return nil, err
	}
	if err := s.SetFloat64Values(vals); err != nil {
		return nil, err
	}
	return s, nil
}
