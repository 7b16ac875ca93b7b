package gen

//go:generate genny -in=$GOFILE -out=../rt/delay/expiry_list.go -pkg=delay gen "Generic=Expiry"

import (
	"github.com/cheekybits/genny/generic"
)

type Generic generic.Type

// GenericNode is one element of a GenericOrderedList.  Nodes live in the
// list's fixed pool and are recycled, never allocated after construction.
type GenericNode struct {
	prev  *GenericNode
	next  *GenericNode
	inUse bool
	Value Generic
}

// Next returns the next element of the list or nil at the end.
func (g *GenericNode) Next() *GenericNode {
	return g.next
}

// Prev returns the previous element of the list or nil at the front.
func (g *GenericNode) Prev() *GenericNode {
	return g.prev
}

// GenericOrderedList keeps values sorted by a caller supplied ordering.
// Values that compare equal keep their insertion order.  The list has a
// fixed capacity chosen at construction, Insert fails rather than grow.
// It is not safe for concurrent use.
type GenericOrderedList struct {
	first  *GenericNode
	last   *GenericNode
	free   *GenericNode
	pool   []GenericNode
	length int
	less   func(a, b Generic) bool
}

// NewGenericOrderedList returns an empty list that can hold capacity
// values ordered by less.
func NewGenericOrderedList(capacity int, less func(a, b Generic) bool) *GenericOrderedList {
	if capacity <= 0 {
		panic("ordered list capacity must be positive")
	}
	g := &GenericOrderedList{pool: make([]GenericNode, capacity), less: less}
	for i := capacity - 1; i >= 0; i-- {
		g.pool[i].next = g.free
		g.free = &g.pool[i]
	}
	return g
}

// Capacity returns the number of values the list can hold.
func (g *GenericOrderedList) Capacity() int {
	return len(g.pool)
}

// Length returns the number of values in the list.
func (g *GenericOrderedList) Length() int {
	return g.length
}

// Empty returns true if the list is empty.
func (g *GenericOrderedList) Empty() bool {
	if g.first == nil {
		if g.last != nil || g.length != 0 {
			panic("invariant violated checking for Empty")
		}
		return true
	}
	return false
}

// Full returns true if another Insert would fail.
func (g *GenericOrderedList) Full() bool {
	return g.free == nil
}

// First returns the smallest node or nil if the list is empty.
func (g *GenericOrderedList) First() *GenericNode {
	if g.first != nil && g.first.prev != nil {
		panic("invariant of first node violated (First())")
	}
	return g.first
}

// Last returns the largest node or nil if the list is empty.
func (g *GenericOrderedList) Last() *GenericNode {
	if g.last != nil && g.last.next != nil {
		panic("invariant of last node violated (Last())")
	}
	return g.last
}

// Insert places v after every value that is not greater than it and
// returns the node holding it.  It returns nil if the pool is exhausted.
func (g *GenericOrderedList) Insert(v Generic) *GenericNode {
	n := g.alloc()
	if n == nil {
		return nil
	}
	n.Value = v
	// walk from the back, most inserts land near the end
	target := g.last
	for target != nil && g.less(v, target.Value) {
		target = target.prev
	}
	g.insertAfter(target, n)
	return n
}

// Remove takes a node out of the list and returns its value to the caller.
// The node goes back to the pool and must not be used again.
func (g *GenericOrderedList) Remove(n *GenericNode) Generic {
	if !n.inUse {
		panic("attempt to remove a node that is not in the list")
	}
	if n.prev == nil {
		if g.first != n {
			panic("invariant of removing first element violated")
		}
		g.first = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		if g.last != n {
			panic("invariant of removing last element violated")
		}
		g.last = n.prev
	} else {
		n.next.prev = n.prev
	}
	v := n.Value
	g.release(n)
	return v
}

// PopFirst removes the smallest value.  The boolean is false if the
// list was empty.
func (g *GenericOrderedList) PopFirst() (Generic, bool) {
	f := g.First()
	if f == nil {
		var zero Generic
		return zero, false
	}
	return g.Remove(f), true
}

// Nth returns the node that is the Nth element of the list, or nil if there are
// insufficient nodes in the list to reach the Nth.
func (g *GenericOrderedList) Nth(i int) *GenericNode {
	if i < 0 {
		return nil
	}
	curr := g.first
	for ; curr != nil && i > 0; i-- {
		curr = curr.next
	}
	return curr
}

// Traverse walks all the nodes in the list, in order, starting at the
// front.  It is ok to remove the node passed to fn but no other.  If fn
// returns an error the traversal is halted and that error is returned.
func (g *GenericOrderedList) Traverse(fn func(n *GenericNode) error) error {
	curr := g.first
	for curr != nil {
		next := curr.next
		if err := fn(curr); err != nil {
			return err
		}
		curr = next
	}
	return nil
}

func (g *GenericOrderedList) insertAfter(target *GenericNode, n *GenericNode) {
	if target == nil {
		n.prev = nil
		n.next = g.first
		if g.first != nil {
			g.first.prev = n
		} else {
			g.last = n
		}
		g.first = n
	} else {
		n.prev = target
		n.next = target.next
		if target.next != nil {
			target.next.prev = n
		} else {
			g.last = n
		}
		target.next = n
	}
	g.length++
}

func (g *GenericOrderedList) alloc() *GenericNode {
	n := g.free
	if n == nil {
		return nil
	}
	g.free = n.next
	n.next = nil
	n.prev = nil
	n.inUse = true
	return n
}

func (g *GenericOrderedList) release(n *GenericNode) {
	var zero Generic
	n.Value = zero
	n.prev = nil
	n.inUse = false
	n.next = g.free
	g.free = n
	g.length--
}
