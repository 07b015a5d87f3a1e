// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"context"
	"io"

	"github.com/born-ml/lazy/internal/engine"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// Array is a lazy n-dimensional array.
type Array = graph.Array

// Kind names a primitive.
type Kind = graph.Kind

// UnsupportedOperationError reports a node whose device has no kernel.
type UnsupportedOperationError = graph.UnsupportedOperationError

// ComputeError reports a kernel failure.
type ComputeError = graph.ComputeError

// CyclicGraphError reports a cycle among array dependencies.
type CyclicGraphError = graph.CyclicGraphError

// FromSlice creates a materialized array holding a copy of data.
//
// Example:
//
//	x, err := array.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, tensor.DefaultDevice)
func FromSlice[T tensor.DType](data []T, shape tensor.Shape, device tensor.Device) (*Array, error) {
	return graph.FromSlice(data, shape, device)
}

// FromStorage wraps materialized storage in a leaf array.
func FromStorage(s *tensor.Storage) *Array {
	return graph.FromStorage(s)
}

// Full creates a materialized array filled with value.
func Full(spec tensor.Spec, value float64) (*Array, error) {
	return graph.Full(spec, value)
}

// Zeros creates a materialized array of zeros.
func Zeros(spec tensor.Spec) (*Array, error) {
	return graph.Zeros(spec)
}

// Ones creates a materialized array of ones.
func Ones(spec tensor.Spec) (*Array, error) {
	return graph.Ones(spec)
}

// Materialize computes every pending array reachable from targets on the
// default engine.
func Materialize(ctx context.Context, targets ...*Array) error {
	e, err := engine.Default()
	if err != nil {
		return err
	}
	return e.Materialize(ctx, targets...)
}

// Pending returns the arrays Materialize would compute for targets, in
// evaluation order.
func Pending(targets ...*Array) ([]*Array, error) {
	return graph.Pending(targets...)
}

// Dump writes a table of the graph reachable from targets.
func Dump(w io.Writer, targets ...*Array) error {
	return graph.Dump(w, targets...)
}
