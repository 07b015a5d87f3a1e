package tree

import (
	"sort"

	"github.com/born-ml/lazy/internal/graph"
)

// State is the per-parameter optimizer state: a recursive mapping whose
// children are created on first access. A missing entry is always reported
// as absent, never as a zero value.
type State struct {
	children map[string]*State
	values   map[string]*graph.Array
	scalars  map[string]float64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		children: make(map[string]*State),
		values:   make(map[string]*graph.Array),
		scalars:  make(map[string]float64),
	}
}

// Child returns the sub-state for key, inserting an empty one if missing.
func (s *State) Child(key string) *State {
	c, ok := s.children[key]
	if !ok {
		c = NewState()
		s.children[key] = c
	}
	return c
}

// Lookup returns the sub-state for key without inserting it.
func (s *State) Lookup(key string) (*State, bool) {
	c, ok := s.children[key]
	return c, ok
}

// Get returns the array stored under name.
func (s *State) Get(name string) (*graph.Array, bool) {
	a, ok := s.values[name]
	return a, ok
}

// Set stores a under name.
func (s *State) Set(name string, a *graph.Array) {
	s.values[name] = a
}

// Scalar returns the number stored under name, such as a step count.
func (s *State) Scalar(name string) (float64, bool) {
	v, ok := s.scalars[name]
	return v, ok
}

// SetScalar stores v under name.
func (s *State) SetScalar(name string, v float64) {
	s.scalars[name] = v
}

// Keys returns the child keys in sorted order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.children))
	for k := range s.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Arrays returns every stored array, including those of descendants, in a
// deterministic order.
func (s *State) Arrays() []*graph.Array {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]*graph.Array, 0, len(names))
	for _, k := range names {
		out = append(out, s.values[k])
	}
	for _, k := range s.Keys() {
		out = append(out, s.children[k].Arrays()...)
	}
	return out
}
