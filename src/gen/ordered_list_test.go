package gen

import (
	"errors"
	"testing"
)

type tick struct {
	at  uint64
	tag string
}

func byTick(a, b Generic) bool {
	return a.(tick).at < b.(tick).at
}

func checkOrder(t *testing.T, g *GenericOrderedList, expected ...string) {
	t.Helper()
	if g.Length() != len(expected) {
		t.Errorf("expected length %d but got %d", len(expected), g.Length())
	}
	i := 0
	g.Traverse(func(n *GenericNode) error {
		if i >= len(expected) {
			t.Errorf("too many nodes in list, extra %v", n.Value)
			return nil
		}
		if tag := n.Value.(tick).tag; tag != expected[i] {
			t.Errorf("position %d: expected %s but got %s", i, expected[i], tag)
		}
		i++
		return nil
	})
}

func TestOrderedBasics(t *testing.T) {
	g := NewGenericOrderedList(4, byTick)
	if !g.Empty() || g.First() != nil || g.Last() != nil {
		t.Errorf("ordered list not empty at start")
	}
	g.Insert(tick{30, "c"})
	g.Insert(tick{10, "a"})
	g.Insert(tick{20, "b"})
	checkOrder(t, g, "a", "b", "c")

	if g.First().Value.(tick).tag != "a" || g.Last().Value.(tick).tag != "c" {
		t.Errorf("first/last wrong after inserts")
	}
	if g.Last().Prev().Prev() != g.First() {
		t.Errorf("prev links broken")
	}
	if g.Nth(1).Value.(tick).tag != "b" || g.Nth(3) != nil || g.Nth(-1) != nil {
		t.Errorf("Nth gave wrong results")
	}
}

func TestOrderedTiesAreStable(t *testing.T) {
	g := NewGenericOrderedList(8, byTick)
	g.Insert(tick{5, "first"})
	g.Insert(tick{5, "second"})
	g.Insert(tick{1, "early"})
	g.Insert(tick{5, "third"})
	checkOrder(t, g, "early", "first", "second", "third")
}

func TestOrderedCapacity(t *testing.T) {
	g := NewGenericOrderedList(2, byTick)
	if g.Insert(tick{1, "x"}) == nil || g.Insert(tick{2, "y"}) == nil {
		t.Fatalf("inserts below capacity failed")
	}
	if !g.Full() {
		t.Errorf("expected list to be full")
	}
	if g.Insert(tick{3, "z"}) != nil {
		t.Errorf("insert beyond capacity should fail")
	}
	v, ok := g.PopFirst()
	if !ok || v.(tick).tag != "x" {
		t.Errorf("PopFirst returned %v,%v", v, ok)
	}
	if g.Insert(tick{0, "w"}) == nil {
		t.Errorf("released node was not recycled")
	}
	checkOrder(t, g, "w", "y")
}

func TestOrderedRemoveMiddleAndEnds(t *testing.T) {
	g := NewGenericOrderedList(5, byTick)
	var nodes []*GenericNode
	for i, tag := range []string{"a", "b", "c", "d"} {
		nodes = append(nodes, g.Insert(tick{uint64(i), tag}))
	}
	g.Remove(nodes[1])
	checkOrder(t, g, "a", "c", "d")
	g.Remove(nodes[0])
	checkOrder(t, g, "c", "d")
	g.Remove(nodes[3])
	checkOrder(t, g, "c")
	g.Remove(nodes[2])
	if !g.Empty() {
		t.Errorf("expected empty list")
	}
	if _, ok := g.PopFirst(); ok {
		t.Errorf("PopFirst on empty list should fail")
	}
}

func TestOrderedTraverseRemovesAndHalts(t *testing.T) {
	g := NewGenericOrderedList(5, byTick)
	for i := 0; i < 5; i++ {
		g.Insert(tick{uint64(i), string(rune('a' + i))})
	}
	stop := errors.New("stop")
	err := g.Traverse(func(n *GenericNode) error {
		if n.Value.(tick).at >= 3 {
			return stop
		}
		g.Remove(n)
		return nil
	})
	if err != stop {
		t.Errorf("expected traversal to halt with stop, got %v", err)
	}
	checkOrder(t, g, "d", "e")
}
