//go:build !windows

package webgpu

import "github.com/born-ml/lazy/internal/graph"

// Backend is unavailable on this platform.
type Backend struct{}

// New always reports ErrUnavailable.
func New(map[graph.Kind]graph.Kernel) (*Backend, error) {
	return nil, ErrUnavailable
}

// Name returns the backend name.
func (b *Backend) Name() string { return Name }

// Info returns an empty description.
func (b *Backend) Info() AdapterInfo { return AdapterInfo{} }

// PoolStats returns zero statistics.
func (b *Backend) PoolStats() PoolStats { return PoolStats{} }

// Register installs nothing.
func (b *Backend) Register(*graph.Registry) {}

// Release is a no-op.
func (b *Backend) Release() {}

// IsAvailable reports false.
func IsAvailable() bool { return false }

// ListAdapters reports ErrUnavailable.
func ListAdapters() ([]AdapterInfo, error) { return nil, ErrUnavailable }
