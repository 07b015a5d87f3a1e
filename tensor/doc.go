// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor describes array values without their computation: element
// types, shapes, devices and the errors raised when they do not agree.
//
// # Overview
//
// A Spec is the static description of an array. Every primitive infers the
// Spec of its output when it is recorded, so shape and type errors surface
// at construction time, long before any kernel runs.
//
//	spec := tensor.Spec{Shape: tensor.Shape{2, 3}, DType: tensor.Float32, Device: tensor.DefaultDevice}
//	fmt.Println(spec) // float32[2 3]@cpu:0
//
// # Supported Data Types
//
//   - float32, float64, float16, bfloat16 (floating-point, differentiable)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks)
//
// # Devices
//
// Devices are a class (CPU or GPU) plus an index. Arrays never move between
// devices implicitly; use array.ToDevice.
//
//	d, err := tensor.ParseDevice("gpu:0")
//
// # No Implicit Reconciliation
//
// Binary operations require identical shapes, types and devices. Broadcasting
// and casts are explicit primitives:
//
//	a, _ := array.Zeros(tensor.Spec{Shape: tensor.Shape{3, 1}, DType: tensor.Float32})
//	b, _ := array.Broadcast(a, tensor.Shape{3, 4}) // (3, 4)
package tensor
