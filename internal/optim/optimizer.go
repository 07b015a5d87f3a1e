// Package optim implements optimization algorithms over parameter trees.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Each optimizer is a per-leaf update rule driven by tree.Update. Updates
// are recorded lazily: Step returns new parameter arrays and leaves new
// moment arrays in its state, and nothing runs until they are materialized.
// Step detaches everything it produces, so a training loop's graph stays the
// size of one step.
//
// Example usage:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	for step := range steps {
//	    _, grads, err := autodiff.ValueAndGrad(lossFn, tree.Leaves(params)...)
//	    if err != nil {
//	        return err
//	    }
//	    if params, err = opt.Step(gradTree(grads), params); err != nil {
//	        return err
//	    }
//	    if err := ev.Materialize(ctx, append(tree.Leaves(params), opt.State().Arrays()...)...); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tree"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step returns params with every leaf present in grads replaced by its
	// updated value. Parameters without a gradient are kept as they are.
	Step(grads, params tree.Tree) (tree.Tree, error)

	// LR returns the current learning rate.
	LR() float64

	// SetLR changes the learning rate for later steps.
	SetLR(lr float64)

	// State returns the per-parameter optimizer state.
	State() *tree.State
}

// step applies fn through tree.Update and merges the result into params.
// Updated parameters and state arrays are detached: once materialized they
// are leaves for the next step.
func step(grads, params tree.Tree, state *tree.State, fn tree.UpdateFunc) (tree.Tree, error) {
	updated, err := tree.Update(grads, params, state, fn)
	if err != nil {
		return nil, err
	}
	for _, a := range tree.Leaves(updated) {
		a.Detach()
	}
	for _, a := range state.Arrays() {
		a.Detach()
	}
	return tree.Merge(params, updated), nil
}

// builder records derivative-free arithmetic while carrying the first error.
type builder struct {
	err error
}

func (b *builder) do(f func() (*graph.Array, error)) *graph.Array {
	if b.err != nil {
		return nil
	}
	out, err := f()
	if err != nil {
		b.err = err
		return nil
	}
	return out
}
