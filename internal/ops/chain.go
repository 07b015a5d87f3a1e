package ops

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

// chain builds derivative subgraphs while carrying the first error.
// Once an error is recorded every further call returns nil.
type chain struct {
	err error
}

func (c *chain) do(f func() (*graph.Array, error)) *graph.Array {
	if c.err != nil {
		return nil
	}
	out, err := f()
	if err != nil {
		c.err = err
		return nil
	}
	return out
}

func (c *chain) add(a, b *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Add(a, b) })
}

func (c *chain) sub(a, b *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Sub(a, b) })
}

func (c *chain) mul(a, b *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Mul(a, b) })
}

func (c *chain) div(a, b *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Div(a, b) })
}

func (c *chain) neg(a *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Neg(a) })
}

func (c *chain) sin(a *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Sin(a) })
}

func (c *chain) cos(a *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Cos(a) })
}

func (c *chain) sign(a *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Sign(a) })
}

func (c *chain) scale(a *graph.Array, v float64) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Scale(a, v) })
}

func (c *chain) addScalar(a *graph.Array, v float64) *graph.Array {
	return c.do(func() (*graph.Array, error) { return AddScalar(a, v) })
}

func (c *chain) matmul(a, b *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return MatMul(a, b) })
}

func (c *chain) transpose(a *graph.Array, perm ...int) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Transpose(a, perm...) })
}

func (c *chain) reshape(a *graph.Array, shape tensor.Shape) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Reshape(a, shape...) })
}

func (c *chain) broadcast(a *graph.Array, shape tensor.Shape) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Broadcast(a, shape) })
}

func (c *chain) sum(a *graph.Array, axes []int, keepDims bool) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Sum(a, axes, keepDims) })
}

func (c *chain) greater(a, b *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Greater(a, b) })
}

func (c *chain) sel(cond, x, y *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Select(cond, x, y) })
}

func (c *chain) zerosLike(a *graph.Array) *graph.Array {
	return c.do(func() (*graph.Array, error) { return ZerosLike(a) })
}

func (c *chain) cast(a *graph.Array, dt tensor.DataType) *graph.Array {
	return c.do(func() (*graph.Array, error) { return Cast(a, dt) })
}

func (c *chain) toDevice(a *graph.Array, d tensor.Device) *graph.Array {
	return c.do(func() (*graph.Array, error) { return ToDevice(a, d) })
}

// grads returns the collected arrays or the first error.
func (c *chain) grads(gs ...*graph.Array) ([]*graph.Array, error) {
	if c.err != nil {
		return nil, c.err
	}
	return gs, nil
}

// one returns a single array or the first error.
func (c *chain) one(g *graph.Array) (*graph.Array, error) {
	if c.err != nil {
		return nil, c.err
	}
	return g, nil
}
