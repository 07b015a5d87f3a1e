package graph

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/pkg/errors"
)

// Pending returns the unmaterialized arrays reachable from targets, in
// dependency order. Materialized arrays are treated as leaves and are not
// included. Among ready arrays the lowest ID (oldest) comes first.
func Pending(targets ...*Array) ([]*Array, error) {
	return order(targets, true)
}

// Walk returns every array reachable from targets, materialized or not, in
// dependency order with the same tie-break as Pending.
func Walk(targets ...*Array) ([]*Array, error) {
	return order(targets, false)
}

const (
	white = iota
	grey
	black
)

type frame struct {
	a    *Array
	next int
}

func collect(targets []*Array, stopAtMaterialized bool) ([]*Array, error) {
	color := make(map[*Array]int)
	var nodes []*Array

	skip := func(a *Array) bool {
		return stopAtMaterialized && a.IsMaterialized()
	}

	for i, t := range targets {
		if t == nil {
			return nil, errors.Errorf("target %d is nil", i)
		}
		if color[t] != white || skip(t) {
			continue
		}
		color[t] = grey
		stack := []frame{{a: t}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			_, inputs := top.a.Producer()
			if top.next < len(inputs) {
				in := inputs[top.next]
				top.next++
				if in == nil {
					return nil, errors.Errorf("array %d has a nil input", top.a.id)
				}
				if skip(in) {
					continue
				}
				switch color[in] {
				case grey:
					return nil, cycleFrom(stack, in)
				case white:
					color[in] = grey
					stack = append(stack, frame{a: in})
				}
				continue
			}
			color[top.a] = black
			nodes = append(nodes, top.a)
			stack = stack[:len(stack)-1]
		}
	}
	return nodes, nil
}

func cycleFrom(stack []frame, repeat *Array) error {
	start := 0
	for i, f := range stack {
		if f.a == repeat {
			start = i
			break
		}
	}
	cycle := make([]uint64, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.a.id)
	}
	cycle = append(cycle, repeat.id)
	return &CyclicGraphError{Cycle: cycle}
}

func order(targets []*Array, stopAtMaterialized bool) ([]*Array, error) {
	nodes, err := collect(targets, stopAtMaterialized)
	if err != nil {
		return nil, err
	}

	inSet := make(map[*Array]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}

	indeg := make(map[*Array]int, len(nodes))
	consumers := make(map[*Array][]*Array, len(nodes))
	for _, n := range nodes {
		_, inputs := n.Producer()
		seen := make(map[*Array]bool, len(inputs))
		for _, in := range inputs {
			if !inSet[in] || seen[in] {
				continue
			}
			seen[in] = true
			indeg[n]++
			consumers[in] = append(consumers[in], n)
		}
	}

	ready := binaryheap.NewWith(func(a, b interface{}) int {
		x, y := a.(*Array).id, b.(*Array).id
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	})
	for _, n := range nodes {
		if indeg[n] == 0 {
			ready.Push(n)
		}
	}

	out := make([]*Array, 0, len(nodes))
	for !ready.Empty() {
		v, _ := ready.Pop()
		n := v.(*Array)
		out = append(out, n)
		for _, c := range consumers[n] {
			indeg[c]--
			if indeg[c] == 0 {
				ready.Push(c)
			}
		}
	}
	if len(out) != len(nodes) {
		// Unreachable after a successful DFS.
		ids := make([]uint64, 0)
		for _, n := range nodes {
			if indeg[n] > 0 {
				ids = append(ids, n.id)
			}
		}
		return nil, &CyclicGraphError{Cycle: ids}
	}
	return out, nil
}
