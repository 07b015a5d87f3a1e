package optim

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tree"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule:
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
//
// The velocity of each parameter lives in its state under "velocity".
type SGD struct {
	lr       float64
	momentum float64
	state    *tree.State
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:       config.LR,
		momentum: config.Momentum,
		state:    tree.NewState(),
	}
}

// Step implements Optimizer.
func (s *SGD) Step(grads, params tree.Tree) (tree.Tree, error) {
	return step(grads, params, s.state, s.update)
}

func (s *SGD) update(_ string, grad, param *graph.Array, st *tree.State) (*graph.Array, error) {
	var b builder
	dir := grad
	if s.momentum != 0 {
		if v, ok := st.Get("velocity"); ok {
			scaled := b.do(func() (*graph.Array, error) { return ops.Scale(v, s.momentum) })
			dir = b.do(func() (*graph.Array, error) { return ops.Add(scaled, grad) })
		}
	}
	delta := b.do(func() (*graph.Array, error) { return ops.Scale(dir, s.lr) })
	next := b.do(func() (*graph.Array, error) { return ops.Sub(param, delta) })
	if b.err != nil {
		return nil, b.err
	}
	if s.momentum != 0 {
		st.Set("velocity", dir)
	}
	return next, nil
}

// LR implements Optimizer.
func (s *SGD) LR() float64 { return s.lr }

// SetLR implements Optimizer.
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// State implements Optimizer.
func (s *SGD) State() *tree.State { return s.state }
