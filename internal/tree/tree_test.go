package tree

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
)

type item struct {
	id     string
	parent string
	menu   string
	order  *int
}

func intp(v int) *int { return &v }

var itemOptions = Options[string, item, int]{
	ID: func(i item) string { return i.id },
	Parent: func(i item) (string, bool) {
		return i.parent, i.parent != ""
	},
	SortKey: func(i item) (int, bool) {
		if i.order == nil {
			return 0, false
		}
		return *i.order, true
	},
	SameScope: func(child, parent item) bool { return child.menu == parent.menu },
}

func rootIDs(nodes []*Node[string, item]) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestBuildCommentScenario(t *testing.T) {
	roots := Build([]item{{id: "1"}, {id: "2", parent: "1"}, {id: "3", parent: "99"}}, itemOptions)
	if got := rootIDs(roots); !slices.Equal(got, []string{"1", "3"}) {
		t.Fatalf("expected roots [1 3], got %v", got)
	}
	if got := rootIDs(roots[0].Children); !slices.Equal(got, []string{"2"}) {
		t.Fatalf("expected children [2], got %v", got)
	}
}

func TestBuildSortsSiblingsStable(t *testing.T) {
	items := []item{
		{id: "a", order: intp(2)},
		{id: "b", order: intp(1)},
		{id: "c", order: intp(1)},
		{id: "d"},
		{id: "e", order: intp(0)},
		{id: "f"},
	}
	got := rootIDs(Build(items, itemOptions))
	want := []string{"e", "b", "c", "d", "a", "f"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildSelfAndForeignParentsAreRoots(t *testing.T) {
	items := []item{
		{id: "a", menu: "main"},
		{id: "b", parent: "b", menu: "main"},
		{id: "c", parent: "x", menu: "footer"},
		{id: "x", menu: "main"},
		{id: "d", parent: "a", menu: "main"},
	}
	roots := Build(items, itemOptions)
	if got := rootIDs(roots); !slices.Equal(got, []string{"a", "b", "c", "x"}) {
		t.Fatalf("unexpected roots %v", got)
	}
	if Count(roots) != len(items) {
		t.Fatalf("expected %d nodes, got %d", len(items), Count(roots))
	}
}

func TestBuildCyclesTerminateAndKeepEveryNode(t *testing.T) {
	items := []item{
		{id: "a", parent: "c"},
		{id: "b", parent: "a"},
		{id: "c", parent: "b"},
		{id: "d", parent: "e"},
		{id: "e", parent: "d"},
		{id: "f"},
	}
	roots := Build(items, itemOptions)
	if Count(roots) != len(items) {
		t.Fatalf("expected %d nodes, got %d", len(items), Count(roots))
	}
	if got := rootIDs(roots); !slices.Equal(got, []string{"a", "d", "f"}) {
		t.Fatalf("expected first cycle members promoted, got %v", got)
	}
	if got := rootIDs(roots[0].Children); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("expected a -> b, got %v", got)
	}
}

func TestBuildDuplicateIDsKeepBoth(t *testing.T) {
	roots := Build([]item{{id: "a"}, {id: "a"}, {id: "b", parent: "a"}}, itemOptions)
	if Count(roots) != 3 {
		t.Fatalf("expected 3 nodes, got %d", Count(roots))
	}
	if len(roots[0].Children) != 1 {
		t.Fatalf("expected child on first duplicate")
	}
}

func TestBuildEmpty(t *testing.T) {
	if roots := Build(nil, itemOptions); roots != nil {
		t.Fatalf("expected nil forest, got %v", roots)
	}
}

func TestBuildPropertyCountAndOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		items := make([]item, n)
		for i := range items {
			it := item{id: fmt.Sprint(i), menu: "main"}
			if rng.Intn(3) > 0 {
				it.parent = fmt.Sprint(rng.Intn(n + 5))
			}
			if rng.Intn(4) > 0 {
				it.order = intp(rng.Intn(5))
			}
			items[i] = it
		}
		roots := Build(items, itemOptions)
		if got := Count(roots); got != n {
			t.Fatalf("round %d: expected %d nodes, got %d", round, n, got)
		}
		Walk(roots, func(node *Node[string, item], _ int) bool {
			var lastKey *int
			for _, child := range node.Children {
				if cur := child.Item.order; cur != nil {
					if lastKey != nil && *lastKey > *cur {
						t.Fatalf("round %d: children of %s out of order", round, node.ID)
					}
					lastKey = cur
				}
			}
			return true
		})
	}
}

func TestBuildKeylessSiblingsKeepInputPosition(t *testing.T) {
	roots := Build([]item{
		{id: "c", order: intp(3)},
		{id: "x"},
		{id: "a", order: intp(1)},
		{id: "y"},
		{id: "b", order: intp(1)},
	}, itemOptions)
	got := rootIDs(roots)
	want := []string{"a", "x", "b", "y", "c"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWalkDepthAndMap(t *testing.T) {
	roots := Build([]item{{id: "1"}, {id: "2", parent: "1"}, {id: "3", parent: "2"}}, itemOptions)
	depths := map[string]int{}
	Walk(roots, func(n *Node[string, item], depth int) bool {
		depths[n.ID] = depth
		return true
	})
	if depths["3"] != 2 {
		t.Fatalf("expected depth 2, got %d", depths["3"])
	}
	labels := Map(roots, func(i item) string { return "#" + i.id })
	if labels[0].Children[0].Children[0].Item != "#3" {
		t.Fatalf("unexpected mapped tree")
	}
}
