// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation of lazy arrays.
//
// Derivatives are built as new graph nodes: the forward graph is left
// untouched, and gradients are ordinary pending arrays that can be
// materialized, composed or differentiated again.
//
// Example:
//
//	import (
//	    "github.com/born-ml/lazy/array"
//	    "github.com/born-ml/lazy/autodiff"
//	)
//
//	func main() {
//	    ab, _ := array.Mul(a, b)
//	    c, _ := array.Add(ab, a)
//
//	    // Reverse mode: dc/da and dc/db, seeded with ones.
//	    grads, err := autodiff.VJP([]*array.Array{c}, nil, []*array.Array{a, b})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := array.Materialize(ctx, grads...); err != nil {
//	        log.Fatal(err)
//	    }
//	}
package autodiff

import (
	"github.com/born-ml/lazy/internal/autodiff"
	"github.com/born-ml/lazy/internal/graph"
)

// VJP returns the cotangent of each wrt array given one seed per output.
// Nil seeds mean ones. Inputs that influence no output get zeros.
func VJP(outputs, seeds, wrt []*graph.Array) ([]*graph.Array, error) {
	return autodiff.VJP(outputs, seeds, wrt)
}

// JVP returns the tangent of each output given one tangent per wrt array.
func JVP(outputs, wrt, tangents []*graph.Array) ([]*graph.Array, error) {
	return autodiff.JVP(outputs, wrt, tangents)
}

// Grad returns the gradient of a single-element loss.
//
// Example:
//
//	sq, _ := array.Mul(x, x)
//	loss, _ := array.Sum(sq, nil, false)
//	grads, _ := autodiff.Grad(loss, x) // 2x
func Grad(loss *graph.Array, wrt ...*graph.Array) ([]*graph.Array, error) {
	return autodiff.Grad(loss, wrt...)
}

// ValueAndGrad applies fn to args and returns the loss with its gradient
// with respect to every argument.
func ValueAndGrad(fn func(args ...*graph.Array) (*graph.Array, error), args ...*graph.Array) (*graph.Array, []*graph.Array, error) {
	return autodiff.ValueAndGrad(fn, args...)
}
