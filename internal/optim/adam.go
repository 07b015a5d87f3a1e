package optim

import (
	"math"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tree"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Each parameter keeps "m" and "v" arrays and its own step count t in its
// state, so parameters that first receive a gradient late start their bias
// correction at t = 1.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	state *tree.State
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(config AdamConfig) *Adam {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		state: tree.NewState(),
	}
}

// Step implements Optimizer.
func (a *Adam) Step(grads, params tree.Tree) (tree.Tree, error) {
	return step(grads, params, a.state, a.update)
}

func (a *Adam) update(_ string, grad, param *graph.Array, st *tree.State) (*graph.Array, error) {
	t, _ := st.Scalar("step")
	t++

	var b builder
	// Missing moments start at zero: m_1 = (1-beta1) * g.
	m := b.do(func() (*graph.Array, error) { return ops.Scale(grad, 1-a.beta1) })
	if prev, ok := st.Get("m"); ok {
		decayed := b.do(func() (*graph.Array, error) { return ops.Scale(prev, a.beta1) })
		m = b.do(func() (*graph.Array, error) { return ops.Add(decayed, m) })
	}
	sq := b.do(func() (*graph.Array, error) { return ops.Mul(grad, grad) })
	v := b.do(func() (*graph.Array, error) { return ops.Scale(sq, 1-a.beta2) })
	if prev, ok := st.Get("v"); ok {
		decayed := b.do(func() (*graph.Array, error) { return ops.Scale(prev, a.beta2) })
		v = b.do(func() (*graph.Array, error) { return ops.Add(decayed, v) })
	}

	// Compute bias correction factors
	bc1 := 1 - math.Pow(a.beta1, t)
	bc2 := 1 - math.Pow(a.beta2, t)

	vHat := b.do(func() (*graph.Array, error) { return ops.Scale(v, 1/bc2) })
	denom := b.do(func() (*graph.Array, error) { return ops.Sqrt(vHat) })
	denom = b.do(func() (*graph.Array, error) { return ops.AddScalar(denom, a.eps) })
	ratio := b.do(func() (*graph.Array, error) { return ops.Div(m, denom) })
	delta := b.do(func() (*graph.Array, error) { return ops.Scale(ratio, a.lr/bc1) })
	next := b.do(func() (*graph.Array, error) { return ops.Sub(param, delta) })
	if b.err != nil {
		return nil, b.err
	}

	st.Set("m", m)
	st.Set("v", v)
	st.SetScalar("step", t)
	return next, nil
}

// LR implements Optimizer.
func (a *Adam) LR() float64 { return a.lr }

// SetLR implements Optimizer.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// State implements Optimizer.
func (a *Adam) State() *tree.State { return a.state }
