// Package tree turns flat parent-referencing records into ordered forests.
// Navigation menus and comment threads are both built with it.
package tree

import (
	"cmp"
	"slices"
)

// Node is one element of a forest.
type Node[K comparable, T any] struct {
	ID       K
	Item     T
	Children []*Node[K, T]
}

// Options tells Build how to read each item.
type Options[K comparable, T any, S cmp.Ordered] struct {
	// ID returns the item identity. Required.
	ID func(T) K
	// Parent returns the parent identity, false for items without one.
	Parent func(T) (K, bool)
	// SortKey returns the sibling sort key, false when absent. Items without
	// a key keep their input position; keyed siblings are sorted among the
	// remaining positions.
	SortKey func(T) (S, bool)
	// SameScope rejects parents from a different scope, e.g. another menu.
	// A rejected parent makes the child a root.
	SameScope func(child, parent T) bool
}

type entry[K comparable, T any, S cmp.Ordered] struct {
	node   *Node[K, T]
	parent int
	key    S
	hasKey bool
	index  int
}

// Build returns the roots of the forest described by items. Every item
// appears exactly once. Missing, self-referencing and out-of-scope parents
// make an item a root. Parent cycles never loop: the first member of a cycle
// in input order is promoted to a root.
func Build[K comparable, T any, S cmp.Ordered](items []T, opts Options[K, T, S]) []*Node[K, T] {
	if len(items) == 0 || opts.ID == nil {
		return nil
	}

	entries := make([]*entry[K, T, S], len(items))
	byID := make(map[K]int, len(items))
	for i, item := range items {
		id := opts.ID(item)
		e := &entry[K, T, S]{
			node:   &Node[K, T]{ID: id, Item: item},
			parent: -1,
			index:  i,
		}
		if opts.SortKey != nil {
			e.key, e.hasKey = opts.SortKey(item)
		}
		entries[i] = e
		if _, dup := byID[id]; !dup {
			byID[id] = i
		}
	}

	children := make([][]int, len(items))
	roots := make([]int, 0)
	for i, e := range entries {
		p := resolveParent(items, i, e.node.ID, byID, opts)
		if p < 0 {
			roots = append(roots, i)
			continue
		}
		e.parent = p
		children[p] = append(children[p], i)
	}

	roots = promoteCycles(entries, children, roots)

	for i, list := range children {
		if len(list) == 0 {
			continue
		}
		orderSiblings(entries, list)
		nodes := make([]*Node[K, T], len(list))
		for j, c := range list {
			nodes[j] = entries[c].node
		}
		entries[i].node.Children = nodes
	}
	orderSiblings(entries, roots)
	out := make([]*Node[K, T], len(roots))
	for i, r := range roots {
		out[i] = entries[r].node
	}
	return out
}

func resolveParent[K comparable, T any, S cmp.Ordered](items []T, i int, id K, byID map[K]int, opts Options[K, T, S]) int {
	if opts.Parent == nil {
		return -1
	}
	parentID, ok := opts.Parent(items[i])
	if !ok || parentID == id {
		return -1
	}
	p, ok := byID[parentID]
	if !ok || p == i {
		return -1
	}
	if opts.SameScope != nil && !opts.SameScope(items[i], items[p]) {
		return -1
	}
	return p
}

// promoteCycles detaches nodes that no root reaches and turns them into
// roots, walking in input order so the result is deterministic.
func promoteCycles[K comparable, T any, S cmp.Ordered](entries []*entry[K, T, S], children [][]int, roots []int) []int {
	reached := make([]bool, len(entries))
	stack := make([]int, 0, len(entries))
	mark := func(start int) {
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[n] {
				continue
			}
			reached[n] = true
			stack = append(stack, children[n]...)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for i, e := range entries {
		if reached[i] {
			continue
		}
		if p := e.parent; p >= 0 {
			children[p] = slices.DeleteFunc(children[p], func(c int) bool { return c == i })
			e.parent = -1
		}
		roots = append(roots, i)
		mark(i)
	}
	return roots
}

// Count returns the number of nodes in the forest.
func Count[K comparable, T any](roots []*Node[K, T]) int {
	total := 0
	Walk(roots, func(*Node[K, T], int) bool {
		total++
		return true
	})
	return total
}

// Walk visits nodes depth first in order. Returning false from fn skips the
// node's children.
func Walk[K comparable, T any](roots []*Node[K, T], fn func(node *Node[K, T], depth int) bool) {
	type frame struct {
		node  *Node[K, T]
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Map converts a forest to another payload type, keeping shape and order.
func Map[K comparable, T, U any](roots []*Node[K, T], fn func(T) U) []*Node[K, U] {
	if roots == nil {
		return nil
	}
	out := make([]*Node[K, U], len(roots))
	for i, n := range roots {
		out[i] = &Node[K, U]{ID: n.ID, Item: fn(n.Item), Children: Map(n.Children, fn)}
	}
	return out
}

// orderSiblings puts list in input order, then sorts the keyed entries
// within the slots they occupy. Equal keys keep input order.
func orderSiblings[K comparable, T any, S cmp.Ordered](entries []*entry[K, T, S], list []int) {
	slices.Sort(list)
	slots := make([]int, 0, len(list))
	keyed := make([]int, 0, len(list))
	for pos, idx := range list {
		if entries[idx].hasKey {
			slots = append(slots, pos)
			keyed = append(keyed, idx)
		}
	}
	slices.SortStableFunc(keyed, func(a, b int) int {
		return cmp.Compare(entries[a].key, entries[b].key)
	})
	for i, pos := range slots {
		list[pos] = keyed[i]
	}
}
