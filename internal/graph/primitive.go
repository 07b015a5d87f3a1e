// Package graph implements the lazy computation graph: arrays that are either
// materialized leaves or pending {primitive, inputs} records, the primitive
// contract, the kernel registry backends plug into, and deterministic
// topological ordering with cycle detection.
//
// Supported primitive behaviours:
//   - Infer: pure shape/type inference, run at construction time
//   - VJP: reverse-mode rule (output cotangent to input cotangents)
//   - JVP: forward-mode rule (input tangents to output tangent)
//
// Forward evaluation is not part of the primitive itself: backends register a
// Kernel per (Kind, DeviceType) in a Registry.
package graph

import "github.com/born-ml/lazy/internal/tensor"

// Kind tags a primitive. Kernels are looked up by kind.
type Kind string

// Primitive describes one operation kind together with its parameters.
// Implementations are immutable value objects.
type Primitive interface {
	// Kind returns the tag used for kernel lookup.
	Kind() Kind

	// Infer computes the output spec from the input specs, returning
	// *tensor.ShapeError or *tensor.TypeError on invalid combinations.
	Infer(inputs []tensor.Spec) (tensor.Spec, error)

	// VJP returns one cotangent per primal given the cotangent of output.
	// The returned arrays are new graph nodes; nil entries mean zero.
	VJP(cotangent *Array, primals []*Array, output *Array) ([]*Array, error)

	// JVP returns the output tangent given one tangent per primal.
	JVP(tangents []*Array, primals []*Array, output *Array) (*Array, error)
}

// Describer is implemented by primitives that carry parameters worth showing
// in graph dumps and exports.
type Describer interface {
	Params() map[string]any
}
