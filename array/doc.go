// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array is the public API for lazy arrays.
//
// # Overview
//
// Every operation records a node in a computation graph and returns at
// once; nothing is computed until Materialize is called. Output shapes and
// types are inferred eagerly, so invalid programs fail where they are
// written.
//
//	a, _ := array.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.DefaultDevice)
//	b, _ := array.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, tensor.DefaultDevice)
//	ab, _ := array.Mul(a, b)
//	c, _ := array.Add(ab, a)
//
//	if err := array.Materialize(ctx, c); err != nil {
//	    log.Fatal(err)
//	}
//	vals, _ := c.Float32s() // [6 14 24 36]
//
// # Evaluation
//
// Materialize runs on the process-wide engine configured from the LAZY_*
// environment variables. Kernels for different devices run on separate
// in-order streams; intermediates that are not requested donate their
// buffers to later nodes of the same run.
//
// # Errors
//
// Construction returns *tensor.ShapeError or *tensor.TypeError. Evaluation
// returns *UnsupportedOperationError when a device has no kernel for a node
// and *ComputeError when a kernel fails.
package array
