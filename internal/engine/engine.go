// Package engine wires backends, streams and the evaluator from a Config.
package engine

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/lazy/internal/backend/blas"
	"github.com/born-ml/lazy/internal/backend/cpu"
	"github.com/born-ml/lazy/internal/backend/webgpu"
	"github.com/born-ml/lazy/internal/config"
	"github.com/born-ml/lazy/internal/device"
	"github.com/born-ml/lazy/internal/eval"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/logutil"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/stream"
)

// Engine owns the kernel registry, the streams and the evaluator.
type Engine struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *graph.Registry
	eval     *eval.Evaluator
	devices  *device.Host
	gpu      *webgpu.Backend
	backends []string
}

// New builds an engine. The CPU backend is always installed; BLAS and WebGPU
// follow cfg. A GPU that cannot be opened is logged and skipped, leaving GPU
// arrays unsupported. A nil logger means slog.Default.
func New(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		registry: graph.NewRegistry(),
		devices:  device.NewHost(device.CPU{}),
	}

	host := cpu.New(cfg.Parallel())
	e.install(host)
	if cfg.BLAS {
		e.install(blas.New(host.Kernels()[ops.KindMatMul]))
	}
	if cfg.GPU {
		gpu, err := webgpu.New(host.Kernels())
		switch {
		case err != nil:
			logger.Warn("webgpu unavailable, gpu arrays are unsupported", "error", err)
		default:
			e.gpu = gpu
			e.install(gpu)
			e.devices.Add(device.GPU{})
			info := gpu.Info()
			logger.Info("webgpu adapter opened", "name", info.Name, "vendor", info.Vendor)
		}
	}

	sched := stream.NewScheduler(cfg.StreamsPerDevice, cfg.QueueDepth)
	e.eval = eval.New(e.registry, sched, eval.Options{Donate: cfg.Donate, Logger: logger})
	return e, nil
}

func (e *Engine) install(b graph.Backend) {
	e.registry.Install(b)
	e.backends = append(e.backends, b.Name())
	e.logger.Debug("backend installed", "backend", b.Name())
}

// Materialize computes targets. See eval.Evaluator.Materialize.
func (e *Engine) Materialize(ctx context.Context, targets ...*graph.Array) error {
	return e.eval.Materialize(ctx, targets...)
}

// Evaluator returns the evaluator.
func (e *Engine) Evaluator() *eval.Evaluator { return e.eval }

// Registry returns the kernel registry.
func (e *Engine) Registry() *graph.Registry { return e.registry }

// Devices returns the device host.
func (e *Engine) Devices() *device.Host { return e.devices }

// Config returns the settings the engine was built with.
func (e *Engine) Config() config.Config { return e.cfg }

// Backends lists installed backends in installation order.
func (e *Engine) Backends() []string { return slices.Clone(e.backends) }

// Close stops the streams and releases the GPU.
func (e *Engine) Close() {
	e.eval.Close()
	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
	defaultErr    error
)

// Default returns the process-wide engine built from the environment on
// first use. Its logger writes to stderr at the LAZY_DEBUG level.
func Default() (*Engine, error) {
	defaultOnce.Do(func() {
		cfg := config.Load()
		defaultEngine, defaultErr = New(cfg, logutil.NewLogger(os.Stderr, cfg.LogLevel()))
		if defaultErr != nil {
			defaultErr = errors.Wrap(defaultErr, "default engine")
		}
	})
	return defaultEngine, defaultErr
}
