// Package tree provides the nested parameter, gradient and optimizer-state
// containers and the structural traversal optimizers are built on.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/lazy/internal/graph"
)

// Node is exactly one of a leaf array or a subtree.
type Node struct {
	Array *graph.Array
	Tree  Tree
}

// Leaf wraps an array.
func Leaf(a *graph.Array) Node { return Node{Array: a} }

// Sub wraps a subtree.
func Sub(t Tree) Node { return Node{Tree: t} }

// IsLeaf reports whether the node holds an array.
func (n Node) IsLeaf() bool { return n.Array != nil }

// Tree maps names to leaves or nested trees.
type Tree map[string]Node

// PathError reports a structural problem at a key path.
type PathError struct {
	Path []string
	Msg  string
	Err  error
}

func (e *PathError) Error() string {
	path := strings.Join(e.Path, ".")
	if path == "" {
		path = "<root>"
	}
	if e.Err != nil {
		return fmt.Sprintf("tree %s: %s: %v", path, e.Msg, e.Err)
	}
	return fmt.Sprintf("tree %s: %s", path, e.Msg)
}

func (e *PathError) Unwrap() error { return e.Err }

func join(path []string, key string) []string {
	return append(append([]string(nil), path...), key)
}

// Keys returns the keys of t in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten maps dotted key paths to leaf arrays.
func Flatten(t Tree) map[string]*graph.Array {
	out := make(map[string]*graph.Array)
	walk(t, nil, func(path []string, a *graph.Array) {
		out[strings.Join(path, ".")] = a
	})
	return out
}

// Leaves returns the leaf arrays ordered by key path.
func Leaves(t Tree) []*graph.Array {
	var out []*graph.Array
	walk(t, nil, func(_ []string, a *graph.Array) { out = append(out, a) })
	return out
}

func walk(t Tree, path []string, visit func([]string, *graph.Array)) {
	for _, k := range t.Keys() {
		n := t[k]
		p := join(path, k)
		if n.IsLeaf() {
			visit(p, n.Array)
		} else {
			walk(n.Tree, p, visit)
		}
	}
}

// Merge returns a copy of base with every leaf present in updates replaced.
// Keys only in base are kept; keys only in updates are added.
func Merge(base, updates Tree) Tree {
	out := make(Tree, len(base))
	for k, n := range base {
		out[k] = n
	}
	for k, u := range updates {
		b, ok := out[k]
		if ok && !b.IsLeaf() && !u.IsLeaf() {
			out[k] = Sub(Merge(b.Tree, u.Tree))
			continue
		}
		out[k] = u
	}
	return out
}

// FromMap builds a tree from nested maps whose values are arrays, Nodes,
// Trees or further maps.
func FromMap(m map[string]any) (Tree, error) {
	return fromMap(m, nil)
}

func fromMap(m map[string]any, path []string) (Tree, error) {
	t := make(Tree, len(m))
	for k, v := range m {
		p := join(path, k)
		switch v := v.(type) {
		case *graph.Array:
			if v == nil {
				return nil, &PathError{Path: p, Msg: "nil array"}
			}
			t[k] = Leaf(v)
		case Node:
			t[k] = v
		case Tree:
			t[k] = Sub(v)
		case map[string]any:
			sub, err := fromMap(v, p)
			if err != nil {
				return nil, err
			}
			t[k] = Sub(sub)
		default:
			return nil, &PathError{Path: p, Msg: fmt.Sprintf("unsupported value %T", v)}
		}
	}
	return t, nil
}
