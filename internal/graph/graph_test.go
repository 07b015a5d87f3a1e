package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/tensor"
)

// pairPrim is an element-wise binary primitive used to build graphs in tests.
type pairPrim struct{ tag string }

func (p pairPrim) Kind() Kind { return Kind("test_" + p.tag) }

func (p pairPrim) Infer(in []tensor.Spec) (tensor.Spec, error) {
	if len(in) != 2 {
		return tensor.Spec{}, &tensor.TypeError{Op: string(p.Kind()), Specs: in, Msg: "want 2 inputs"}
	}
	if !in[0].Shape.Equal(in[1].Shape) {
		return tensor.Spec{}, &tensor.ShapeError{Op: string(p.Kind()), Shapes: []tensor.Shape{in[0].Shape, in[1].Shape}, Msg: "shape mismatch"}
	}
	return in[0], nil
}

func (p pairPrim) VJP(g *Array, _ []*Array, _ *Array) ([]*Array, error) { return []*Array{g, g}, nil }

func (p pairPrim) JVP(t []*Array, _ []*Array, _ *Array) (*Array, error) { return Apply(p, t...) }

func (p pairPrim) Params() map[string]any { return map[string]any{"tag": p.tag} }

func leaf(t *testing.T, vals ...float32) *Array {
	t.Helper()
	a, err := FromSlice(vals, tensor.Shape{len(vals)}, tensor.DefaultDevice)
	require.NoError(t, err)
	return a
}

func TestApplyIsLazy(t *testing.T) {
	a, b := leaf(t, 1, 2), leaf(t, 3, 4)
	c, err := Apply(pairPrim{"add"}, a, b)
	require.NoError(t, err)

	assert.False(t, c.IsMaterialized())
	assert.Nil(t, c.Storage())
	assert.True(t, a.IsMaterialized())
	assert.True(t, a.IsLeaf())
	assert.Equal(t, Kind("test_add"), c.Kind())
	assert.Equal(t, []*Array{a, b}, c.Inputs())
	assert.Greater(t, c.ID(), b.ID())

	_, err = c.Float32s()
	assert.ErrorIs(t, err, ErrNotMaterialized)
}

func TestApplyShapeErrorAtConstruction(t *testing.T) {
	_, err := Apply(pairPrim{"add"}, leaf(t, 1, 2), leaf(t, 1, 2, 3))
	var se *tensor.ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "test_add", se.Op)
}

func TestAttachWriteOnce(t *testing.T) {
	a, b := leaf(t, 1, 2), leaf(t, 3, 4)
	c, err := Apply(pairPrim{"add"}, a, b)
	require.NoError(t, err)

	s1, err := tensor.FromSlice([]float32{4, 6}, tensor.Shape{2}, tensor.DefaultDevice)
	require.NoError(t, err)
	require.NoError(t, c.Attach(s1))

	s2, err := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, tensor.DefaultDevice)
	require.NoError(t, err)
	require.Error(t, c.Attach(s2))

	vals, err := c.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 6}, vals)

	wrong, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, tensor.DefaultDevice)
	require.NoError(t, err)
	d, err := Apply(pairPrim{"add"}, a, b)
	require.NoError(t, err)
	assert.Error(t, d.Attach(wrong))
}

func ids(as []*Array) []uint64 {
	out := make([]uint64, len(as))
	for i, a := range as {
		out[i] = a.ID()
	}
	return out
}

func TestPendingOrderAndTieBreak(t *testing.T) {
	a, b := leaf(t, 1), leaf(t, 2)
	x, err := Apply(pairPrim{"x"}, a, b)
	require.NoError(t, err)
	y, err := Apply(pairPrim{"y"}, b, a)
	require.NoError(t, err)
	z, err := Apply(pairPrim{"z"}, y, x)
	require.NoError(t, err)

	order, err := Pending(z)
	require.NoError(t, err)
	// x and y are both ready first; x is older.
	assert.Equal(t, []uint64{x.ID(), y.ID(), z.ID()}, ids(order))

	all, err := Walk(z)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID(), b.ID(), x.ID(), y.ID(), z.ID()}, ids(all))
}

func TestPendingStopsAtMaterialized(t *testing.T) {
	a, b := leaf(t, 1), leaf(t, 2)
	x, err := Apply(pairPrim{"x"}, a, b)
	require.NoError(t, err)
	y, err := Apply(pairPrim{"y"}, x, x)
	require.NoError(t, err)

	s, err := tensor.FromSlice([]float32{3}, tensor.Shape{1}, tensor.DefaultDevice)
	require.NoError(t, err)
	require.NoError(t, x.Attach(s))

	order, err := Pending(y, x)
	require.NoError(t, err)
	assert.Equal(t, []uint64{y.ID()}, ids(order))

	order, err = Pending(x)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestDetachDropsHistory(t *testing.T) {
	a, b := leaf(t, 1), leaf(t, 2)
	x, err := Apply(pairPrim{"x"}, a, b)
	require.NoError(t, err)
	y, err := Apply(pairPrim{"y"}, x, a)
	require.NoError(t, err)

	// Pending: the history stays until storage arrives.
	x.Detach()
	assert.False(t, x.IsLeaf())
	assert.Equal(t, []*Array{a, b}, x.Inputs())

	s, err := tensor.FromSlice([]float32{3}, tensor.Shape{1}, tensor.DefaultDevice)
	require.NoError(t, err)
	require.NoError(t, x.Attach(s))
	assert.True(t, x.IsLeaf())
	assert.Equal(t, Kind("leaf"), x.Kind())
	assert.Empty(t, x.Inputs())

	all, err := Walk(y)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID(), x.ID(), y.ID()}, ids(all))

	// Materialized: detached at once.
	s2, err := tensor.FromSlice([]float32{4}, tensor.Shape{1}, tensor.DefaultDevice)
	require.NoError(t, err)
	require.NoError(t, y.Attach(s2))
	y.Detach()
	assert.True(t, y.IsLeaf())
	all, err = Walk(y)
	require.NoError(t, err)
	assert.Equal(t, []uint64{y.ID()}, ids(all))
}

func TestCycleDetected(t *testing.T) {
	a := leaf(t, 1)
	x, err := Apply(pairPrim{"x"}, a, a)
	require.NoError(t, err)
	y, err := Apply(pairPrim{"y"}, x, a)
	require.NoError(t, err)
	// Rewire x to consume y: x -> y -> x.
	x.inputs[1] = y

	_, err = Pending(y)
	var ce *CyclicGraphError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Cycle, x.ID())
	assert.Contains(t, ce.Cycle, y.ID())
	assert.Equal(t, ce.Cycle[0], ce.Cycle[len(ce.Cycle)-1])

	_, err = Walk(x)
	assert.True(t, errors.As(err, &ce))
}

func TestSnapshotAndDump(t *testing.T) {
	a, b := leaf(t, 1, 2), leaf(t, 3, 4)
	c, err := Apply(pairPrim{"mul"}, a, b)
	require.NoError(t, err)

	ex, err := Snapshot(c)
	require.NoError(t, err)
	require.Len(t, ex.Nodes, 3)
	assert.Equal(t, []uint64{c.ID()}, ex.Targets)
	assert.Equal(t, Kind("leaf"), ex.Nodes[0].Kind)
	assert.Equal(t, []uint64{a.ID(), b.ID()}, ex.Nodes[2].Inputs)
	assert.Equal(t, "mul", ex.Nodes[2].Params["tag"])

	js, err := ex.IndentedJSON()
	require.NoError(t, err)
	var back Export
	require.NoError(t, json.Unmarshal(js, &back))
	assert.Equal(t, ex.Targets, back.Targets)

	cb, err := ex.MarshalCBOR()
	require.NoError(t, err)
	var fromCBOR Export
	require.NoError(t, cbor.Unmarshal(cb, &fromCBOR))
	assert.Len(t, fromCBOR.Nodes, 3)

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, c))
	assert.Contains(t, buf.String(), "test_mul")
	assert.Contains(t, buf.String(), "pending")
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry()
	k := func(kc *KernelContext, _ []*tensor.Storage) (*tensor.Storage, error) { return kc.Alloc() }
	r.Register("test_add", tensor.CPU, "generic", k)
	r.Register("test_add", tensor.CPU, "fast", k)

	reg, ok := r.Lookup("test_add", tensor.CPU)
	require.True(t, ok)
	assert.Equal(t, "fast", reg.Backend)

	_, ok = r.Lookup("test_add", tensor.GPU)
	assert.False(t, ok)
	assert.Len(t, r.Registrations(), 1)
}
