// Package autodiff differentiates lazy graphs by rewriting them.
//
// Both modes only add arrays: the forward graph is never changed, and the
// derivatives it returns are ordinary pending arrays that can be
// materialized, composed or differentiated again.
//
// Reverse mode (VJP) walks the graph of the outputs in reverse topological
// order, feeding each node's accumulated cotangent into its primitive's VJP
// rule. Cotangents of an array consumed several times are summed. Only nodes
// that depend on one of the requested inputs invoke their rules.
//
// Forward mode (JVP) walks in topological order and pushes tangents through
// each primitive's JVP rule.
//
// Only floating point arrays carry derivatives. Integer and bool arrays are
// constants to both modes: their cotangents and tangents are always zero.
package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

// VJP returns the cotangent of each wrt array given one cotangent seed per
// output. A nil seeds slice, or a nil entry, seeds that output with ones.
// Inputs that do not influence any output, and non-float inputs, get zeros.
func VJP(outputs, seeds, wrt []*graph.Array) ([]*graph.Array, error) {
	if len(outputs) == 0 {
		return nil, errors.New("vjp: no outputs")
	}
	if seeds != nil && len(seeds) != len(outputs) {
		return nil, errors.Errorf("vjp: %d seeds for %d outputs", len(seeds), len(outputs))
	}
	if err := checkArrays("vjp", "output", outputs); err != nil {
		return nil, err
	}
	if err := checkArrays("vjp", "wrt", wrt); err != nil {
		return nil, err
	}

	order, err := graph.Walk(outputs...)
	if err != nil {
		return nil, err
	}
	relevant := dependents(order, wrt)

	cts := make(map[*graph.Array]*graph.Array, len(order))
	for i, out := range outputs {
		var seed *graph.Array
		if seeds != nil {
			seed = seeds[i]
		}
		if seed == nil {
			if seed, err = ops.OnesLike(out); err != nil {
				return nil, err
			}
		} else if err := sameSpec("vjp seed", seed.Spec(), out.Spec()); err != nil {
			return nil, err
		}
		if !differentiable(out) {
			continue
		}
		if err := accumulate(cts, out, seed); err != nil {
			return nil, err
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		ct, ok := cts[n]
		prim, primals := n.Producer()
		// A wrt array computed from unrelated inputs ends the walk.
		if !ok || prim == nil || !relevant[n] || !anyMarked(primals, relevant) {
			continue
		}
		inCts, err := prim.VJP(ct, primals, n)
		if err != nil {
			return nil, errors.Wrapf(err, "vjp of %s (array %d)", n.Kind(), n.ID())
		}
		if len(inCts) != len(primals) {
			return nil, errors.Errorf("vjp of %s (array %d): %d cotangents for %d inputs",
				n.Kind(), n.ID(), len(inCts), len(primals))
		}
		for j, in := range primals {
			if inCts[j] == nil || !relevant[in] || !differentiable(in) {
				continue
			}
			if err := sameSpec(string(n.Kind())+" vjp", inCts[j].Spec(), in.Spec()); err != nil {
				return nil, err
			}
			if err := accumulate(cts, in, inCts[j]); err != nil {
				return nil, err
			}
		}
	}

	grads := make([]*graph.Array, len(wrt))
	for i, w := range wrt {
		if g, ok := cts[w]; ok {
			grads[i] = g
			continue
		}
		if grads[i], err = ops.ZerosLike(w); err != nil {
			return nil, err
		}
	}
	return grads, nil
}

// JVP returns the tangent of each output given one tangent per wrt array.
// Outputs that do not depend on any wrt array, and non-float outputs, get
// zeros.
func JVP(outputs, wrt, tangents []*graph.Array) ([]*graph.Array, error) {
	if len(wrt) != len(tangents) {
		return nil, errors.Errorf("jvp: %d tangents for %d inputs", len(tangents), len(wrt))
	}
	if err := checkArrays("jvp", "output", outputs); err != nil {
		return nil, err
	}
	if err := checkArrays("jvp", "wrt", wrt); err != nil {
		return nil, err
	}
	if err := checkArrays("jvp", "tangent", tangents); err != nil {
		return nil, err
	}

	tans := make(map[*graph.Array]*graph.Array, len(wrt))
	for i, w := range wrt {
		if err := sameSpec("jvp tangent", tangents[i].Spec(), w.Spec()); err != nil {
			return nil, err
		}
		if !differentiable(w) {
			continue
		}
		if err := accumulate(tans, w, tangents[i]); err != nil {
			return nil, err
		}
	}

	order, err := graph.Walk(outputs...)
	if err != nil {
		return nil, err
	}
	for _, n := range order {
		prim, primals := n.Producer()
		if _, seeded := tans[n]; seeded || prim == nil || !differentiable(n) {
			continue
		}
		inTans := make([]*graph.Array, len(primals))
		touched := false
		for j, in := range primals {
			inTans[j] = tans[in]
			touched = touched || inTans[j] != nil
		}
		if !touched {
			continue
		}
		for j, in := range primals {
			if inTans[j] == nil {
				if inTans[j], err = ops.ZerosLike(in); err != nil {
					return nil, err
				}
			}
		}
		t, err := prim.JVP(inTans, primals, n)
		if err != nil {
			return nil, errors.Wrapf(err, "jvp of %s (array %d)", n.Kind(), n.ID())
		}
		if t == nil {
			continue
		}
		if err := sameSpec(string(n.Kind())+" jvp", t.Spec(), n.Spec()); err != nil {
			return nil, err
		}
		tans[n] = t
	}

	out := make([]*graph.Array, len(outputs))
	for i, o := range outputs {
		if t, ok := tans[o]; ok {
			out[i] = t
			continue
		}
		if out[i], err = ops.ZerosLike(o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Grad returns the gradient of a single-element loss with respect to each
// wrt array.
func Grad(loss *graph.Array, wrt ...*graph.Array) ([]*graph.Array, error) {
	if loss == nil {
		return nil, errors.New("grad: nil loss")
	}
	if n := loss.Shape().NumElements(); n != 1 {
		return nil, &tensor.ShapeError{
			Op:     "grad",
			Shapes: []tensor.Shape{loss.Shape()},
			Msg:    "loss must have exactly one element",
		}
	}
	return VJP([]*graph.Array{loss}, nil, wrt)
}

// ValueAndGrad applies fn to args and returns the loss together with its
// gradient with respect to every argument.
func ValueAndGrad(fn func(args ...*graph.Array) (*graph.Array, error), args ...*graph.Array) (*graph.Array, []*graph.Array, error) {
	loss, err := fn(args...)
	if err != nil {
		return nil, nil, err
	}
	grads, err := Grad(loss, args...)
	if err != nil {
		return nil, nil, err
	}
	return loss, grads, nil
}

func differentiable(a *graph.Array) bool { return a.DType().IsFloat() }

// dependents marks every array in order that is one of wrt or depends on
// one. order must be topological.
func dependents(order, wrt []*graph.Array) map[*graph.Array]bool {
	marked := make(map[*graph.Array]bool, len(order))
	for _, w := range wrt {
		marked[w] = true
	}
	for _, n := range order {
		if marked[n] {
			continue
		}
		if anyMarked(n.Inputs(), marked) {
			marked[n] = true
		}
	}
	return marked
}

func anyMarked(arrays []*graph.Array, marked map[*graph.Array]bool) bool {
	for _, a := range arrays {
		if marked[a] {
			return true
		}
	}
	return false
}

// accumulate adds v into m[key]. Bool derivatives are always zero and are
// never summed.
func accumulate(m map[*graph.Array]*graph.Array, key, v *graph.Array) error {
	prev, ok := m[key]
	if !ok {
		m[key] = v
		return nil
	}
	if v.DType() == tensor.Bool {
		return nil
	}
	sum, err := ops.Add(prev, v)
	if err != nil {
		return err
	}
	m[key] = sum
	return nil
}

func sameSpec(op string, got, want tensor.Spec) error {
	if !got.Shape.Equal(want.Shape) {
		return &tensor.ShapeError{
			Op:     op,
			Shapes: []tensor.Shape{got.Shape, want.Shape},
			Msg:    "derivative shape differs from its array",
		}
	}
	if got.DType != want.DType || got.Device != want.Device {
		return &tensor.TypeError{
			Op:    op,
			Specs: []tensor.Spec{got, want},
			Msg:   "derivative type or device differs from its array",
		}
	}
	return nil
}

func checkArrays(op, what string, arrays []*graph.Array) error {
	for i, a := range arrays {
		if a == nil {
			return errors.Errorf("%s: %s %d is nil", op, what, i)
		}
	}
	return nil
}
