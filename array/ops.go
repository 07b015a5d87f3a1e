// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

// Element-wise binary operations. Operands must agree in shape, type and
// device.

// Add records a + b.
func Add(a, b *Array) (*Array, error) { return ops.Add(a, b) }

// Sub records a - b.
func Sub(a, b *Array) (*Array, error) { return ops.Sub(a, b) }

// Mul records a * b.
func Mul(a, b *Array) (*Array, error) { return ops.Mul(a, b) }

// Div records a / b.
func Div(a, b *Array) (*Array, error) { return ops.Div(a, b) }

// Maximum records max(a, b).
func Maximum(a, b *Array) (*Array, error) { return ops.Maximum(a, b) }

// Element-wise unary operations.

// Neg records -x.
func Neg(x *Array) (*Array, error) { return ops.Neg(x) }

// Exp records e^x.
func Exp(x *Array) (*Array, error) { return ops.Exp(x) }

// Log records ln(x).
func Log(x *Array) (*Array, error) { return ops.Log(x) }

// Sin records sin(x).
func Sin(x *Array) (*Array, error) { return ops.Sin(x) }

// Cos records cos(x).
func Cos(x *Array) (*Array, error) { return ops.Cos(x) }

// Tanh records tanh(x).
func Tanh(x *Array) (*Array, error) { return ops.Tanh(x) }

// Sigmoid records 1 / (1 + e^-x).
func Sigmoid(x *Array) (*Array, error) { return ops.Sigmoid(x) }

// ReLU records max(0, x).
func ReLU(x *Array) (*Array, error) { return ops.ReLU(x) }

// Sqrt records √x.
func Sqrt(x *Array) (*Array, error) { return ops.Sqrt(x) }

// Abs records |x|.
func Abs(x *Array) (*Array, error) { return ops.Abs(x) }

// Sign records the sign of x. It has zero derivatives.
func Sign(x *Array) (*Array, error) { return ops.Sign(x) }

// Round records x rounded half away from zero. It has zero derivatives.
func Round(x *Array) (*Array, error) { return ops.Round(x) }

// StopGradient records x with zero derivatives.
func StopGradient(x *Array) (*Array, error) { return ops.StopGradient(x) }

// Scale records x * v.
func Scale(x *Array, v float64) (*Array, error) { return ops.Scale(x, v) }

// AddScalar records x + v.
func AddScalar(x *Array, v float64) (*Array, error) { return ops.AddScalar(x, v) }

// MatMul records a @ b for [M, K] and [K, N] operands.
func MatMul(a, b *Array) (*Array, error) { return ops.MatMul(a, b) }

// Reductions.

// Sum records the sum over axes (all axes when empty).
func Sum(x *Array, axes []int, keepDims bool) (*Array, error) { return ops.Sum(x, axes, keepDims) }

// Mean records the mean over axes (all axes when empty).
func Mean(x *Array, axes []int, keepDims bool) (*Array, error) { return ops.Mean(x, axes, keepDims) }

// Layout.

// Broadcast records x expanded to shape.
func Broadcast(x *Array, shape tensor.Shape) (*Array, error) { return ops.Broadcast(x, shape) }

// Reshape records x with a new shape of the same size.
func Reshape(x *Array, shape ...int) (*Array, error) { return ops.Reshape(x, shape...) }

// Transpose records x with permuted axes (reversed when perm is empty).
func Transpose(x *Array, perm ...int) (*Array, error) { return ops.Transpose(x, perm...) }

// Conversion.

// Cast records x converted to dt.
func Cast(x *Array, dt tensor.DataType) (*Array, error) { return ops.Cast(x, dt) }

// ToDevice records x copied to d.
func ToDevice(x *Array, d tensor.Device) (*Array, error) { return ops.ToDevice(x, d) }

// Comparison and selection.

// Greater records a > b as a bool array.
func Greater(a, b *Array) (*Array, error) { return ops.Greater(a, b) }

// Less records a < b as a bool array.
func Less(a, b *Array) (*Array, error) { return ops.Less(a, b) }

// Equal records a == b as a bool array.
func Equal(a, b *Array) (*Array, error) { return ops.Equal(a, b) }

// Select records x where cond holds and y elsewhere.
func Select(cond, x, y *Array) (*Array, error) { return ops.Select(cond, x, y) }

// Constants shaped like an existing array. They stay pending until used.

// ZerosLike records zeros with the spec of x.
func ZerosLike(x *Array) (*Array, error) { return ops.ZerosLike(x) }

// OnesLike records ones with the spec of x.
func OnesLike(x *Array) (*Array, error) { return ops.OnesLike(x) }

// FullLike records v with the spec of x.
func FullLike(x *Array, v float64) (*Array, error) { return ops.FullLike(x, v) }
