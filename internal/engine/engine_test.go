package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/backend/blas"
	"github.com/born-ml/lazy/internal/backend/cpu"
	"github.com/born-ml/lazy/internal/config"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/logutil"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.GPU = false
	cfg.CPUWorkers = 2
	return cfg
}

func TestNewInstallsBackends(t *testing.T) {
	e, err := New(testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	assert.Equal(t, []string{cpu.Name, blas.Name}, e.Backends())
	reg, ok := e.Registry().Lookup(ops.KindMatMul, tensor.CPU)
	require.True(t, ok)
	assert.Equal(t, blas.Name, reg.Backend, "blas overrides the cpu matmul")
	reg, ok = e.Registry().Lookup(ops.KindAdd, tensor.CPU)
	require.True(t, ok)
	assert.Equal(t, cpu.Name, reg.Backend)
	assert.True(t, e.Devices().Has(tensor.CPU))
}

func TestNewWithoutBLAS(t *testing.T) {
	cfg := testConfig()
	cfg.BLAS = false
	e, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	reg, ok := e.Registry().Lookup(ops.KindMatMul, tensor.CPU)
	require.True(t, ok)
	assert.Equal(t, cpu.Name, reg.Backend)
}

func TestMaterialize(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Debug = 1
	e, err := New(cfg, logutil.NewLogger(&buf, cfg.LogLevel()))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	a, err := graph.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	require.NoError(t, err)
	c, err := ops.MatMul(a, a)
	require.NoError(t, err)

	require.NoError(t, e.Materialize(context.Background(), c))
	got, err := c.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 10, 15, 22}, got)
	assert.Equal(t, int64(1), e.Evaluator().Stats().Runs)
	assert.Contains(t, buf.String(), "backend installed")
}

func TestDefaultConfigComputesEachArrayOnce(t *testing.T) {
	e, err := New(testConfig(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	x, err := graph.FromSlice([]float32{0.5, 1}, tensor.Shape{2}, tensor.DefaultDevice)
	require.NoError(t, err)
	s, err := ops.Sin(x)
	require.NoError(t, err)
	z, err := ops.Mul(s, s)
	require.NoError(t, err)

	require.NoError(t, e.Materialize(context.Background(), z))
	assert.True(t, s.IsMaterialized(), "evaluated intermediates keep their values")
	assert.Equal(t, int64(2), e.Evaluator().Stats().Dispatches)

	require.NoError(t, e.Materialize(context.Background(), s))
	assert.Equal(t, int64(2), e.Evaluator().Stats().Dispatches, "no recomputation")
	assert.Equal(t, int64(1), e.Evaluator().Stats().Runs)
}

func TestGPUFallbackKeepsCPU(t *testing.T) {
	cfg := testConfig()
	cfg.GPU = true
	e, err := New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	assert.Contains(t, e.Backends(), cpu.Name)
	assert.True(t, e.Devices().Has(tensor.CPU))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StreamsPerDevice = 0
	_, err := New(cfg, nil)
	require.Error(t, err)
}
