// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU arrays.
//
// Float32 element-wise operations and matrix multiplication run as WGSL
// compute shaders. Other kinds and element types run on the host over the
// same storage. The native binding is built on windows; on other platforms
// New reports ErrUnavailable.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//	    e.Registry().Install(gpu)
//	}
package webgpu

import (
	internalcpu "github.com/born-ml/lazy/internal/backend/cpu"
	internalwebgpu "github.com/born-ml/lazy/internal/backend/webgpu"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/parallel"
)

// Backend represents the WebGPU backend implementation for GPU-accelerated
// array operations.
type Backend = internalwebgpu.Backend

// AdapterInfo describes one GPU adapter.
type AdapterInfo = internalwebgpu.AdapterInfo

// Compile-time check that Backend can be installed in a registry.
var _ graph.Backend = (*Backend)(nil)

// ErrUnavailable is returned when no WebGPU adapter can be opened.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend ready
// to be installed. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New(internalcpu.New(parallel.DefaultConfig()).Kernels())
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// ListAdapters describes the available adapters.
func ListAdapters() ([]AdapterInfo, error) {
	return internalwebgpu.ListAdapters()
}
