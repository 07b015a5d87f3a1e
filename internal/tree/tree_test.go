package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tensor"
)

func arr(t *testing.T, v float32) *graph.Array {
	t.Helper()
	a, err := graph.FromSlice([]float32{v}, tensor.Shape{1}, tensor.DefaultDevice)
	require.NoError(t, err)
	return a
}

func TestUpdateVisitsGradientLeaves(t *testing.T) {
	w1, b1, w2, frozen := arr(t, 1), arr(t, 2), arr(t, 3), arr(t, 4)
	g1, gb, g2 := arr(t, 10), arr(t, 20), arr(t, 30)

	params := Tree{
		"layer1": Sub(Tree{"w": Leaf(w1), "b": Leaf(b1)}),
		"layer2": Sub(Tree{"w": Leaf(w2)}),
		"frozen": Leaf(frozen),
	}
	grads := Tree{
		"layer2": Sub(Tree{"w": Leaf(g2)}),
		"layer1": Sub(Tree{"w": Leaf(g1), "b": Leaf(gb)}),
	}

	var visited []string
	state := NewState()
	next := map[*graph.Array]*graph.Array{}
	out, err := Update(grads, params, state, func(path string, g, p *graph.Array, st *State) (*graph.Array, error) {
		visited = append(visited, path)
		steps, _ := st.Scalar("steps")
		st.SetScalar("steps", steps+1)
		st.Set("last_grad", g)
		n := arr(t, 0)
		next[p] = n
		return n, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"layer1.b", "layer1.w", "layer2.w"}, visited)
	assert.Len(t, out, 2, "shaped like the gradient tree")
	assert.Same(t, next[w1], out["layer1"].Tree["w"].Array)
	assert.Same(t, next[b1], out["layer1"].Tree["b"].Array)
	assert.Same(t, next[w2], out["layer2"].Tree["w"].Array)

	leafState, ok := state.Child("layer1").Lookup("w")
	require.True(t, ok)
	last, ok := leafState.Get("last_grad")
	require.True(t, ok)
	assert.Same(t, g1, last)

	_, ok = state.Lookup("frozen")
	assert.False(t, ok, "no state for parameters without gradients")
	assert.Equal(t, []string{"layer1", "layer2"}, state.Keys())

	// A second step reuses the state created by the first.
	_, err = Update(grads, params, state, func(_ string, _, p *graph.Array, st *State) (*graph.Array, error) {
		steps, ok := st.Scalar("steps")
		require.True(t, ok)
		assert.Equal(t, 1.0, steps)
		return p, nil
	})
	require.NoError(t, err)
}

func TestUpdateErrors(t *testing.T) {
	a := arr(t, 1)
	noop := func(_ string, _, p *graph.Array, _ *State) (*graph.Array, error) { return p, nil }

	_, err := Update(Tree{"missing": Leaf(a)}, Tree{}, nil, noop)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"missing"}, pe.Path)

	_, err = Update(
		Tree{"enc": Sub(Tree{"w": Leaf(a)})},
		Tree{"enc": Leaf(a)},
		nil, noop)
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "differ in structure")

	boom := errors.New("boom")
	_, err = Update(
		Tree{"enc": Sub(Tree{"w": Leaf(a)})},
		Tree{"enc": Sub(Tree{"w": Leaf(a)})},
		nil,
		func(string, *graph.Array, *graph.Array, *State) (*graph.Array, error) { return nil, boom })
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"enc", "w"}, pe.Path)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "tree enc.w: update failed: boom", err.Error())
}

func TestStateAutoCreates(t *testing.T) {
	s := NewState()
	_, ok := s.Lookup("adam")
	assert.False(t, ok)

	m := s.Child("adam").Child("layer").Child("w")
	assert.Same(t, m, s.Child("adam").Child("layer").Child("w"))

	_, ok = m.Get("m")
	assert.False(t, ok, "absent, not zero")

	a := arr(t, 1)
	m.Set("m", a)
	got, ok := m.Get("m")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []*graph.Array{a}, s.Arrays())
}

func TestFlattenLeavesMerge(t *testing.T) {
	a, b, c, d := arr(t, 1), arr(t, 2), arr(t, 3), arr(t, 4)
	params := Tree{
		"enc": Sub(Tree{"w": Leaf(a), "b": Leaf(b)}),
		"out": Leaf(c),
	}

	flat := Flatten(params)
	assert.Equal(t, map[string]*graph.Array{"enc.b": b, "enc.w": a, "out": c}, flat)
	assert.Equal(t, []*graph.Array{b, a, c}, Leaves(params))

	merged := Merge(params, Tree{"enc": Sub(Tree{"w": Leaf(d)})})
	assert.Same(t, d, merged["enc"].Tree["w"].Array)
	assert.Same(t, b, merged["enc"].Tree["b"].Array)
	assert.Same(t, c, merged["out"].Array)
	assert.Same(t, a, params["enc"].Tree["w"].Array, "base is unchanged")
}

func TestFromMap(t *testing.T) {
	a, b := arr(t, 1), arr(t, 2)
	tr, err := FromMap(map[string]any{
		"enc": map[string]any{"w": a},
		"out": b,
		"raw": Leaf(a),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"enc", "out", "raw"}, tr.Keys())
	assert.Same(t, a, tr["enc"].Tree["w"].Array)

	_, err = FromMap(map[string]any{"enc": map[string]any{"w": 3}})
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"enc", "w"}, pe.Path)
}
