package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/lazy/internal/tensor"
)

// UnsupportedOperationError reports a (kind, device) pair with no registered
// kernel. Resubmitting the computation on another device may succeed.
type UnsupportedOperationError struct {
	ArrayID uint64
	Kind    Kind
	Device  tensor.Device
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("array %d: no kernel for %s on %s", e.ArrayID, e.Kind, e.Device)
}

// ComputeError reports a backend failure while evaluating one array.
type ComputeError struct {
	ArrayID uint64
	Kind    Kind
	Device  tensor.Device
	Backend string
	Err     error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("array %d: %s on %s (%s): %v", e.ArrayID, e.Kind, e.Device, e.Backend, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }

// CyclicGraphError reports arrays that transitively depend on themselves.
type CyclicGraphError struct {
	Cycle []uint64
}

func (e *CyclicGraphError) Error() string {
	ids := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return "cyclic graph: " + strings.Join(ids, " -> ")
}
