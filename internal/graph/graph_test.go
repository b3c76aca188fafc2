package graph

import (
	"errors"
	"testing"
)

func TestEntryNodes(t *testing.T) {
	g := New()
	g.AddEdge("child", "base")
	g.AddNode("isolated")

	got := g.EntryNodes()
	want := []string{"base", "isolated"}
	if !equalStrings(got, want) {
		t.Fatalf("EntryNodes() = %v, want %v", got, want)
	}
}

func TestExecutionLevelsChain(t *testing.T) {
	g := New()
	g.AddEdge("child", "base")

	plan, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(plan.Levels))
	}
	if !equalStrings(plan.Names(0), []string{"base"}) {
		t.Fatalf("level 0 = %v, want [base]", plan.Names(0))
	}
	if !equalStrings(plan.Names(1), []string{"child"}) {
		t.Fatalf("level 1 = %v, want [child]", plan.Names(1))
	}
}

func TestExecutionLevelsDiamond(t *testing.T) {
	g := New()
	g.AddEdge("top", "left")
	g.AddEdge("top", "right")
	g.AddEdge("left", "bottom")
	g.AddEdge("right", "bottom")

	plan, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(plan.Levels))
	}
	if !equalStrings(plan.Names(0), []string{"bottom"}) {
		t.Fatalf("level 0 = %v", plan.Names(0))
	}
	if !equalStrings(plan.Names(1), []string{"left", "right"}) {
		t.Fatalf("level 1 = %v", plan.Names(1))
	}
	if !equalStrings(plan.Names(2), []string{"top"}) {
		t.Fatalf("level 2 = %v", plan.Names(2))
	}
}

func TestExecutionLevelsCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	_, err := g.ExecutionLevels()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestCycleDetectionIsolatesCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("clean", "a")

	cyclic := g.CycleDetection()
	if !equalStrings(cyclic, []string{"a", "b"}) {
		t.Fatalf("CycleDetection() = %v, want [a b]", cyclic)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")

	if !g.WouldCreateCycle("b", "a") {
		t.Fatalf("expected adding b->a to create a cycle")
	}
	if g.WouldCreateCycle("c", "a") {
		t.Fatalf("did not expect c->a to create a cycle")
	}
	// Must not have mutated the receiver.
	if g.HasNode("c") {
		t.Fatalf("WouldCreateCycle must not mutate the receiver")
	}
}

func TestSubRestrictsEdges(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddNode("d")

	sub := g.Sub(map[string]struct{}{"a": {}, "b": {}})
	if !equalStrings(sub.Nodes(), []string{"a", "b"}) {
		t.Fatalf("Sub nodes = %v, want [a b]", sub.Nodes())
	}
	if !equalStrings(sub.Deps("a"), []string{"b"}) {
		t.Fatalf("Sub deps(a) = %v, want [b]", sub.Deps("a"))
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
