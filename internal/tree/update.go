package tree

import (
	"strings"

	"github.com/born-ml/lazy/internal/graph"
)

// UpdateFunc computes the new value of one parameter. path is the dotted
// key path of the leaf; state is that leaf's own sub-state.
type UpdateFunc func(path string, grad, param *graph.Array, state *State) (*graph.Array, error)

// Update visits every leaf of grads in sorted key order, finds the matching
// parameter (params may hold more keys than grads) and state, and returns a
// tree shaped like grads holding fn's results. A nil state is treated as a
// fresh one.
func Update(grads, params Tree, state *State, fn UpdateFunc) (Tree, error) {
	if state == nil {
		state = NewState()
	}
	return update(grads, params, state, fn, nil)
}

func update(grads, params Tree, state *State, fn UpdateFunc, path []string) (Tree, error) {
	out := make(Tree, len(grads))
	for _, k := range grads.Keys() {
		g := grads[k]
		p := join(path, k)
		param, ok := params[k]
		if !ok {
			return nil, &PathError{Path: p, Msg: "gradient has no matching parameter"}
		}
		switch {
		case g.IsLeaf() && param.IsLeaf():
			a, err := fn(strings.Join(p, "."), g.Array, param.Array, state.Child(k))
			if err != nil {
				return nil, &PathError{Path: p, Msg: "update failed", Err: err}
			}
			out[k] = Leaf(a)
		case !g.IsLeaf() && !param.IsLeaf():
			if g.Tree == nil {
				return nil, &PathError{Path: p, Msg: "empty gradient node"}
			}
			sub, err := update(g.Tree, param.Tree, state.Child(k), fn, p)
			if err != nil {
				return nil, err
			}
			out[k] = Sub(sub)
		default:
			return nil, &PathError{Path: p, Msg: "gradient and parameter differ in structure"}
		}
	}
	return out, nil
}
