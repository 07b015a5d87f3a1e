// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for lazy arrays.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Kernels for every primitive kind
//   - Float32 fast paths and a float64 path for other element types
//
// The default engine installs it automatically. Install it yourself only
// when building a registry by hand.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Kernels only read their
// inputs and write a freshly allocated output.
package cpu
