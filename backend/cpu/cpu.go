// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/lazy/internal/backend/cpu"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/parallel"
)

// Name is the name the CPU backend registers its kernels under.
const Name = internalcpu.Name

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go kernels for every primitive, with
// row-parallel loops for large arrays.
type Backend = internalcpu.Backend

// Compile-time check that Backend can be installed in a registry.
var _ graph.Backend = (*Backend)(nil)

// New creates a CPU backend using every logical core.
//
// Example:
//
//	e, _ := array.NewEngine(array.DefaultConfig(), nil)
//	e.Registry().Install(cpu.New())
func New() *Backend {
	return internalcpu.New(parallel.DefaultConfig())
}

// NewWithWorkers creates a CPU backend that splits loops of at least
// minChunk rows across workers goroutines.
func NewWithWorkers(workers, minChunk int) *Backend {
	return internalcpu.New(parallel.NewConfig(workers, minChunk))
}
