// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/lazy/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for Go element types.
// Supported types: float32, float64, float16, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the element type of an array.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32  DataType = tensor.Float32
	Float64  DataType = tensor.Float64
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
	Int32    DataType = tensor.Int32
	Int64    DataType = tensor.Int64
	Uint8    DataType = tensor.Uint8
	Bool     DataType = tensor.Bool
)

// DeviceType is the class of a device.
type DeviceType = tensor.DeviceType

// Device class constants.
const (
	CPU DeviceType = tensor.CPU
	GPU DeviceType = tensor.GPU
)

// Device identifies one concrete device.
type Device = tensor.Device

// DefaultDevice is cpu:0.
var DefaultDevice = tensor.DefaultDevice

// Shape represents the dimensions of an array.
// Example: Shape{2, 3, 4} represents a 3D array with dimensions 2×3×4.
type Shape = tensor.Shape

// Spec is the shape, element type and device of an array.
type Spec = tensor.Spec

// Storage is a materialized, reference-counted buffer.
type Storage = tensor.Storage

// ShapeError reports incompatible shapes.
type ShapeError = tensor.ShapeError

// TypeError reports incompatible element types or devices.
type TypeError = tensor.TypeError

// NewDevice returns the device of class t with the given index.
func NewDevice(t DeviceType, index int) Device {
	return tensor.NewDevice(t, index)
}

// ParseDevice parses "cpu", "gpu", "cpu:0" or "gpu:1".
func ParseDevice(s string) (Device, error) {
	return tensor.ParseDevice(s)
}

// ParseDataType parses names such as "float32" or "bool".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// BroadcastShapes returns the NumPy broadcast of a and b.
func BroadcastShapes(a, b Shape) (Shape, error) {
	out, _, err := tensor.BroadcastShapes(a, b)
	return out, err
}
