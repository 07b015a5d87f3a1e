// Package parallel splits host kernel loops across worker goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return NewConfig(runtime.NumCPU(), 64) // Typical cache line aware chunk.
}

// NewConfig returns a config for workers goroutines. Parallelism is disabled
// with fewer than two workers.
func NewConfig(workers, minChunk int) Config {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	return Config{
		Enabled:      workers > 1,
		NumWorkers:   workers,
		MinChunkSize: minChunk,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				f(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ForRows runs f once per row. Rows are spread over at most NumWorkers
// goroutines when rows*work, the total amount of inner-loop work, is large
// enough to pay for them.
func ForRows(rows, work int, f func(i int), cfg Config) {
	if !cfg.Enabled || rows < 2 || rows*work < cfg.MinChunkSize*cfg.MinChunkSize {
		for i := 0; i < rows; i++ {
			f(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(max(cfg.NumWorkers, 1))
	for i := 0; i < rows; i++ {
		g.Go(func() error {
			f(i)
			return nil
		})
	}
	_ = g.Wait()
}
