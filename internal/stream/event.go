// Package stream provides in-order per-device execution queues and the
// events used to order work across them.
package stream

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrSkipped is recorded on a task's event when one of the events it waited
// on failed. The task itself never ran.
var ErrSkipped = errors.New("skipped after failed dependency")

// ErrClosed is recorded on events of tasks enqueued after Close.
var ErrClosed = errors.New("stream is closed")

// Event is signalled exactly once, when the task it marks has finished.
// Waiters block on a channel and never poll.
type Event struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewEvent returns an unsignalled event.
func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Record signals the event with the outcome of its task. Only the first
// call has an effect.
func (e *Event) Record(err error) {
	e.once.Do(func() {
		e.err = err
		close(e.done)
	})
}

// Done is closed once the event is recorded.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Err returns the recorded outcome. It is nil until the event is recorded.
func (e *Event) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Wait blocks until the event is recorded or ctx is done. Only the caller
// is blocked; the task keeps running.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
