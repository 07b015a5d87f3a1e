// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tree provides nested parameter containers and the per-leaf update
// interface optimizers are built on.
//
// Example:
//
//	params := tree.Tree{
//	    "layer1": tree.Sub(tree.Tree{"w": tree.Leaf(w1), "b": tree.Leaf(b1)}),
//	}
//	state := tree.NewState()
//	next, err := tree.Update(grads, params, state, func(path string, g, p *array.Array, st *tree.State) (*array.Array, error) {
//	    step, err := array.Scale(g, 0.1)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return array.Sub(p, step)
//	})
package tree

import (
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/tree"
)

// Tree maps keys to leaves or subtrees.
type Tree = tree.Tree

// Node is exactly one of a leaf array or a subtree.
type Node = tree.Node

// State is per-parameter optimizer state, mirroring the parameter tree.
type State = tree.State

// PathError names the key path of a failed traversal.
type PathError = tree.PathError

// UpdateFunc computes the new value of one parameter.
type UpdateFunc = tree.UpdateFunc

// Leaf wraps an array.
func Leaf(a *graph.Array) Node { return tree.Leaf(a) }

// Sub wraps a subtree.
func Sub(t Tree) Node { return tree.Sub(t) }

// NewState returns empty state.
func NewState() *State { return tree.NewState() }

// Update applies fn to every leaf of grads and its matching parameter.
func Update(grads, params Tree, state *State, fn UpdateFunc) (Tree, error) {
	return tree.Update(grads, params, state, fn)
}

// Merge returns base with the leaves present in updates replaced.
func Merge(base, updates Tree) Tree { return tree.Merge(base, updates) }

// Flatten maps dotted key paths to leaf arrays.
func Flatten(t Tree) map[string]*graph.Array { return tree.Flatten(t) }

// Leaves returns the leaf arrays ordered by key path.
func Leaves(t Tree) []*graph.Array { return tree.Leaves(t) }

// FromMap builds a tree from nested map[string]any values holding arrays.
func FromMap(m map[string]any) (Tree, error) { return tree.FromMap(m) }
