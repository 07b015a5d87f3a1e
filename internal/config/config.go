// Package config holds runtime settings read from LAZY_* environment
// variables or decoded from generic maps.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/born-ml/lazy/internal/logutil"
	"github.com/born-ml/lazy/internal/parallel"
)

// Config controls the engine.
type Config struct {
	// Debug is the log verbosity: 0 INFO, 1 DEBUG, 2 TRACE.
	Debug int `mapstructure:"debug"`
	// Donate enables buffer donation between intermediates of a run. Donated
	// intermediates do not keep their values, so it is off by default.
	Donate bool `mapstructure:"donate"`
	// BLAS installs the gonum matmul kernels over the CPU ones.
	BLAS bool `mapstructure:"blas"`
	// GPU tries to open a WebGPU adapter.
	GPU bool `mapstructure:"gpu"`
	// StreamsPerDevice is the number of in-order queues per device.
	StreamsPerDevice int `mapstructure:"streams_per_device"`
	// QueueDepth bounds the tasks queued on one stream.
	QueueDepth int `mapstructure:"queue_depth"`
	// CPUWorkers is the goroutine count of host kernels.
	CPUWorkers int `mapstructure:"cpu_workers"`
	// MinChunk is the smallest loop a host kernel splits.
	MinChunk int `mapstructure:"min_chunk"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BLAS:             true,
		GPU:              true,
		StreamsPerDevice: 2,
		QueueDepth:       64,
		CPUWorkers:       runtime.NumCPU(),
		MinChunk:         64,
	}
}

// EnvVar describes one environment variable and its effective value.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap describes every variable with the values of c.
func (c Config) AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"LAZY_DEBUG":              {"LAZY_DEBUG", c.Debug, "Log verbosity: 1 for debug, 2 for trace (e.g. LAZY_DEBUG=1)"},
		"LAZY_DONATE":             {"LAZY_DONATE", c.Donate, "Reuse intermediate buffers within a run (default false)"},
		"LAZY_BLAS":               {"LAZY_BLAS", c.BLAS, "Use gonum BLAS for matmul (default true)"},
		"LAZY_GPU":                {"LAZY_GPU", c.GPU, "Try to open a WebGPU adapter (default true)"},
		"LAZY_STREAMS_PER_DEVICE": {"LAZY_STREAMS_PER_DEVICE", c.StreamsPerDevice, "In-order streams per device (default 2)"},
		"LAZY_QUEUE_DEPTH":        {"LAZY_QUEUE_DEPTH", c.QueueDepth, "Queued tasks per stream (default 64)"},
		"LAZY_CPU_WORKERS":        {"LAZY_CPU_WORKERS", c.CPUWorkers, "Goroutines per host kernel (default logical cores)"},
		"LAZY_MIN_CHUNK":          {"LAZY_MIN_CHUNK", c.MinChunk, "Smallest loop a host kernel splits (default 64)"},
	}
}

// Values renders AsMap as strings.
func (c Config) Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range c.AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

// Load returns Default overridden by the environment. Invalid values are
// logged and ignored.
func Load() Config {
	c := Default()

	if debug := clean("LAZY_DEBUG"); debug != "" {
		if d, err := strconv.Atoi(debug); err == nil {
			c.Debug = d
		} else if b, err := strconv.ParseBool(debug); err == nil && !b {
			c.Debug = 0
		} else {
			c.Debug = 1
		}
	}

	loadBool("LAZY_DONATE", &c.Donate)
	loadBool("LAZY_BLAS", &c.BLAS)
	loadBool("LAZY_GPU", &c.GPU)
	loadPositive("LAZY_STREAMS_PER_DEVICE", &c.StreamsPerDevice)
	loadPositive("LAZY_QUEUE_DEPTH", &c.QueueDepth)
	loadPositive("LAZY_CPU_WORKERS", &c.CPUWorkers)
	loadPositive("LAZY_MIN_CHUNK", &c.MinChunk)
	return c
}

func loadBool(key string, dst *bool) {
	if v := clean(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Error("invalid setting, ignoring", key, v, "error", err)
			return
		}
		*dst = b
	}
}

func loadPositive(key string, dst *int) {
	if v := clean(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Error("invalid setting must be greater than zero", key, v, "error", err)
			return
		}
		*dst = n
	}
}

// FromMap decodes m over Default. Values may be given as strings; unknown
// keys are rejected.
func FromMap(m map[string]any) (Config, error) {
	c := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &c,
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "config decoder")
	}
	if err := dec.Decode(m); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return c, c.Validate()
}

// Validate rejects non-positive counts.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"streams_per_device", c.StreamsPerDevice},
		{"queue_depth", c.QueueDepth},
		{"cpu_workers", c.CPUWorkers},
		{"min_chunk", c.MinChunk},
	} {
		if f.v <= 0 {
			return errors.Errorf("config: %s must be greater than zero, got %d", f.name, f.v)
		}
	}
	return nil
}

// Parallel returns the host kernel settings.
func (c Config) Parallel() parallel.Config {
	return parallel.NewConfig(c.CPUWorkers, c.MinChunk)
}

// LogLevel returns the slog level for Debug.
func (c Config) LogLevel() slog.Level {
	return logutil.Level(c.Debug)
}
