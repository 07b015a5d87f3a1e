package tensor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// DeviceType is the class of a compute device. Kernels register per type.
type DeviceType int

// Supported device classes.
const (
	CPU DeviceType = iota
	GPU
)

// String returns a human-readable device class.
func (t DeviceType) String() string {
	switch t {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// Device identifies one concrete device: a class plus an index within it.
type Device struct {
	Type  DeviceType
	Index int
}

// DefaultDevice is the first CPU device.
var DefaultDevice = Device{Type: CPU}

// NewDevice returns the device of the given class and index.
func NewDevice(t DeviceType, index int) Device {
	return Device{Type: t, Index: index}
}

// String renders the device as "cpu:0" or "gpu:1".
func (d Device) String() string {
	return d.Type.String() + ":" + strconv.Itoa(d.Index)
}

// LogValue implements slog.LogValuer.
func (d Device) LogValue() slog.Value {
	return slog.StringValue(d.String())
}

// ParseDevice parses "cpu", "gpu", "cpu:0" or "gpu:1".
func ParseDevice(s string) (Device, error) {
	name, idx, hasIdx := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	var d Device
	switch name {
	case "cpu":
		d.Type = CPU
	case "gpu":
		d.Type = GPU
	default:
		return Device{}, fmt.Errorf("unknown device %q", s)
	}
	if hasIdx {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("invalid device index in %q", s)
		}
		d.Index = n
	}
	return d, nil
}

// Spec describes an array without its data: shape, element type and placement.
type Spec struct {
	Shape  Shape
	DType  DataType
	Device Device
}

// NumElements returns the element count of the described array.
func (s Spec) NumElements() int {
	return s.Shape.NumElements()
}

// ByteSize returns the storage size in bytes.
func (s Spec) ByteSize() int {
	return s.NumElements() * s.DType.Size()
}

// Equal reports whether both specs describe the same layout on the same device.
func (s Spec) Equal(o Spec) bool {
	return s.DType == o.DType && s.Device == o.Device && s.Shape.Equal(o.Shape)
}

// WithShape returns a copy of s with a different shape.
func (s Spec) WithShape(shape Shape) Spec {
	s.Shape = shape.Clone()
	return s
}

// WithDType returns a copy of s with a different element type.
func (s Spec) WithDType(dt DataType) Spec {
	s.Shape = s.Shape.Clone()
	s.DType = dt
	return s
}

func (s Spec) String() string {
	return fmt.Sprintf("%s%s@%s", s.DType, s.Shape, s.Device)
}
