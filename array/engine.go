// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"log/slog"

	"github.com/born-ml/lazy/internal/config"
	"github.com/born-ml/lazy/internal/engine"
)

// Engine owns kernels, streams and the evaluator.
type Engine = engine.Engine

// Config controls an Engine.
type Config = config.Config

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config { return config.Default() }

// LoadConfig returns DefaultConfig overridden by LAZY_* variables.
func LoadConfig() Config { return config.Load() }

// NewEngine builds an engine independent of the default one. Close it when
// done.
//
// Example:
//
//	cfg := array.DefaultConfig()
//	cfg.GPU = false
//	e, err := array.NewEngine(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//	err = e.Materialize(ctx, c)
func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	return engine.New(cfg, logger)
}

// DefaultEngine returns the engine used by Materialize.
func DefaultEngine() (*Engine, error) { return engine.Default() }
