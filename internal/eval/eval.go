// Package eval materializes lazy arrays. It orders the pending subgraph of
// the requested targets, dispatches each node's kernel on an in-order stream
// of the node's device and recycles intermediate buffers once their last
// consumer has run.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/logutil"
	"github.com/born-ml/lazy/internal/stream"
	"github.com/born-ml/lazy/internal/tensor"
)

// Options configures an Evaluator.
type Options struct {
	// Donate lets intermediates that are not targets live only for the run
	// and hand their buffers to later nodes. Such an intermediate stays
	// pending and is computed again if it is materialized later. Without it
	// every evaluated node keeps its storage and is computed exactly once.
	Donate bool
	Logger *slog.Logger
}

// Stats are cumulative evaluator counters.
type Stats struct {
	Runs             int64     `json:"runs"`
	Dispatches       int64     `json:"dispatches"`
	CrossStreamWaits int64     `json:"cross_stream_waits"`
	Failures         int64     `json:"failures"`
	Pool             PoolStats `json:"pool"`
}

// Evaluator is the only component that enqueues work on streams.
// Concurrent Materialize calls are safe; overlapping target sets may compute
// a shared node twice, and the first storage attached wins.
type Evaluator struct {
	registry *graph.Registry
	sched    *stream.Scheduler
	pool     *Pool
	donate   bool
	logger   *slog.Logger

	runs       atomic.Int64
	dispatches atomic.Int64
	crossWaits atomic.Int64
	failures   atomic.Int64
}

// New returns an evaluator dispatching kernels from registry onto the
// streams of sched.
func New(registry *graph.Registry, sched *stream.Scheduler, opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		registry: registry,
		sched:    sched,
		pool:     NewPool(),
		donate:   opts.Donate,
		logger:   logger,
	}
}

// Registry returns the kernel registry.
func (e *Evaluator) Registry() *graph.Registry { return e.registry }

// Stats returns a snapshot of the counters.
func (e *Evaluator) Stats() Stats {
	return Stats{
		Runs:             e.runs.Load(),
		Dispatches:       e.dispatches.Load(),
		CrossStreamWaits: e.crossWaits.Load(),
		Failures:         e.failures.Load(),
		Pool:             e.pool.Stats(),
	}
}

// Close stops the streams and drops pooled buffers.
func (e *Evaluator) Close() {
	e.sched.Close()
	e.pool.Clear()
}

// Materialize computes every pending array reachable from targets. On return
// without error each target holds storage, and so does every intermediate it
// evaluated unless donation is enabled. Arrays that are already materialized
// cut the traversal and are never recomputed.
//
// Every pending node must have a kernel for its device type; otherwise an
// UnsupportedOperationError is returned before anything runs. A kernel
// failure returns a ComputeError; targets that finished keep their storage
// and the call may be retried. ctx bounds only the caller's wait.
func (e *Evaluator) Materialize(ctx context.Context, targets ...*graph.Array) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	nodes, err := graph.Pending(targets...)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}

	regs := make([]graph.Registration, len(nodes))
	for i, n := range nodes {
		reg, ok := e.registry.Lookup(n.Kind(), n.Device().Type)
		if !ok {
			return &graph.UnsupportedOperationError{ArrayID: n.ID(), Kind: n.Kind(), Device: n.Device()}
		}
		regs[i] = reg
	}

	r := e.newRun(nodes, regs, targets)
	start := time.Now()
	e.runs.Add(1)
	before := e.dispatches.Load()

	r.submit()
	err = r.wait(ctx)

	args := []any{
		"run", r.id,
		"nodes", len(nodes),
		"streams", len(r.byStream),
		"dispatches", e.dispatches.Load() - before,
		"duration", time.Since(start),
	}
	if err != nil {
		e.failures.Add(1)
		e.logger.Debug("materialize failed", append(args, "error", err)...)
		return err
	}
	pool := e.pool.Stats()
	e.logger.Debug("materialize", append(args, "pool_hits", pool.Hits, "pool_misses", pool.Misses)...)
	return nil
}

// run is the state of one Materialize call. Slot i of every slice belongs
// to nodes[i].
type run struct {
	e  *Evaluator
	id uuid.UUID

	nodes    []*graph.Array
	regs     []graph.Registration
	index    map[*graph.Array]int
	retained []bool
	deps     [][]int

	// users counts consumers of slot i that have not run yet.
	users []atomic.Int32
	// values holds the run-local result of each node. A slot is written by
	// its producer before its event is recorded and read by consumers after.
	values []*tensor.Storage

	streams  []*stream.Stream
	events   []*stream.Event
	byStream map[*stream.Stream][]*stream.Event
}

func (e *Evaluator) newRun(nodes []*graph.Array, regs []graph.Registration, targets []*graph.Array) *run {
	r := &run{
		e:        e,
		id:       uuid.New(),
		nodes:    nodes,
		regs:     regs,
		index:    make(map[*graph.Array]int, len(nodes)),
		retained: make([]bool, len(nodes)),
		deps:     make([][]int, len(nodes)),
		users:    make([]atomic.Int32, len(nodes)),
		values:   make([]*tensor.Storage, len(nodes)),
		streams:  make([]*stream.Stream, len(nodes)),
		events:   make([]*stream.Event, len(nodes)),
		byStream: make(map[*stream.Stream][]*stream.Event),
	}
	for i, n := range nodes {
		r.index[n] = i
		r.retained[i] = !e.donate
	}
	for _, t := range targets {
		if i, ok := r.index[t]; ok {
			r.retained[i] = true
		}
	}
	for i, n := range nodes {
		seen := make(map[int]bool)
		for _, in := range n.Inputs() {
			k, ok := r.index[in]
			if !ok || seen[k] {
				continue
			}
			seen[k] = true
			r.deps[i] = append(r.deps[i], k)
			r.users[k].Add(1)
		}
	}
	return r
}

// submit enqueues every node in dependency order. Inputs produced on another
// stream are waited on through their events; same-stream inputs are ordered
// by the queue.
func (r *run) submit() {
	for i, n := range r.nodes {
		st := r.e.sched.Stream(n.Device(), n.ID())
		var waits []*stream.Event
		for _, k := range r.deps[i] {
			if r.streams[k] != st {
				waits = append(waits, r.events[k])
				r.e.crossWaits.Add(1)
			}
		}
		r.streams[i] = st
		r.events[i] = st.Enqueue(func() error { return r.exec(i) }, waits...)
		r.byStream[st] = append(r.byStream[st], r.events[i])
	}
}

// wait blocks until every event of the run is recorded and returns the first
// failure. Skipped nodes report the failure of their dependency instead.
func (r *run) wait(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, events := range r.byStream {
		g.Go(func() error {
			for _, ev := range events {
				if err := ev.Wait(gctx); err != nil && !errors.Is(err, stream.ErrSkipped) {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *run) exec(i int) error {
	n := r.nodes[i]
	reg := r.regs[i]

	inputs := n.Inputs()
	in := make([]*tensor.Storage, len(inputs))
	specs := make([]tensor.Spec, len(inputs))
	for j, a := range inputs {
		specs[j] = a.Spec()
		if k, ok := r.index[a]; ok {
			in[j] = r.values[k]
		} else {
			in[j] = a.Storage()
		}
		if in[j] == nil {
			return r.computeError(i, errors.Errorf("input %d (array %d) has no storage", j, a.ID()))
		}
	}

	var alloc func(tensor.Spec) (*tensor.Storage, error)
	if r.e.donate {
		alloc = r.e.pool.Get
	}
	kc := graph.NewKernelContext(n.Primitive(), specs, n.Spec(), alloc)
	out, err := dispatch(reg.Kernel, kc, in)
	if err != nil {
		return r.computeError(i, err)
	}
	if out == nil {
		return r.computeError(i, errors.New("kernel returned no storage"))
	}
	if !out.Spec().Equal(n.Spec()) {
		return r.computeError(i, errors.Errorf("kernel produced %s, want %s", out.Spec(), n.Spec()))
	}
	r.e.dispatches.Add(1)

	if r.retained[i] {
		// Storage owned by an array never goes back to the pool.
		out.SetRecycler(nil)
		if err := n.Attach(out); err != nil {
			out.Release()
			out = n.Storage()
		}
	}
	r.values[i] = out

	for _, k := range r.deps[i] {
		if r.users[k].Add(-1) == 0 && !r.retained[k] {
			r.values[k].Release()
			r.values[k] = nil
		}
	}

	logutil.Trace(r.e.logger, "dispatch",
		"run", r.id,
		"array", n.ID(),
		"kind", kc.Primitive.Kind(),
		"device", n.Device(),
		"backend", reg.Backend,
		"stream", r.streams[i],
		"retained", r.retained[i],
	)
	return nil
}

func (r *run) computeError(i int, err error) error {
	n := r.nodes[i]
	return &graph.ComputeError{
		ArrayID: n.ID(),
		Kind:    n.Kind(),
		Device:  n.Device(),
		Backend: r.regs[i].Backend,
		Err:     err,
	}
}

// dispatch runs one kernel, turning a panic into an error.
func dispatch(k graph.Kernel, kc *graph.KernelContext, in []*tensor.Storage) (out *tensor.Storage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("kernel panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return k(kc, in)
}
