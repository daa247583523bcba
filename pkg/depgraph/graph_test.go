package depgraph

import (
	"slices"
	"testing"
)

func TestAddNodeUpsert(t *testing.T) {
	g := New()

	g.AddNode("a", "")
	g.AddNode("a", "1.0.0")

	n, ok := g.Node("a")
	if !ok {
		t.Fatal("node a not found")
	}
	if n.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q (empty version filled in)", n.Version, "1.0.0")
	}

	// First known version wins.
	g.AddNode("a", "2.0.0")
	if n.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q (known version never overwritten)", n.Version, "1.0.0")
	}

	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestAddEdgeUpsertsEndpoints(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", ">=1.0.0", false)

	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.OutDegree("a") != 1 || g.InDegree("b") != 1 {
		t.Errorf("degrees = out(a)=%d in(b)=%d, want 1/1", g.OutDegree("a"), g.InDegree("b"))
	}

	in := g.Incoming("b")
	if len(in) != 1 || in[0].Constraint != ">=1.0.0" {
		t.Errorf("Incoming(b) = %+v, want one edge with constraint >=1.0.0", in)
	}
}

func TestParallelEdgesKept(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", ">=1.0.0", false)
	g.AddEdge("a", "b", "<=2.0.0", false)

	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2 (parallel edges must not duplicate nodes)", g.NodeCount())
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("a", "b", "", true)

	if !g.RemoveEdge("a", "b") {
		t.Fatal("RemoveEdge returned false")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1 (only first match removed)", g.EdgeCount())
	}
	if g.RemoveEdge("b", "a") {
		t.Error("RemoveEdge for missing edge returned true")
	}
}

func TestTopologicalOrder(t *testing.T) {
	// app requires lib requires core; sibling requires core too.
	g := New()
	g.AddEdge("app", "lib", "", false)
	g.AddEdge("lib", "core", "", false)
	g.AddEdge("app", "sibling", "", false)
	g.AddEdge("sibling", "core", "", false)

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("order length = %d, want 4", len(order))
	}

	assertTopological(t, g, order)

	if order[0] != "core" {
		t.Errorf("order[0] = %q, want core", order[0])
	}
}

func TestTopologicalOrderDeterministic(t *testing.T) {
	g := New()
	g.AddNode("c", "")
	g.AddNode("a", "")
	g.AddNode("b", "")

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v (ties broken by name)", order, want)
	}
}

func TestTopologicalOrderCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("b", "a", "", false)

	if _, err := g.TopologicalOrder(); err != ErrCycle {
		t.Errorf("TopologicalOrder error = %v, want ErrCycle", err)
	}
}

func TestDetectCycles(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("b", "c", "", false)
	g.AddEdge("c", "a", "", false)
	g.AddEdge("b", "d", "", false) // not part of the cycle

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("DetectCycles() found %d cycles, want 1: %v", len(cycles), cycles)
	}
	if len(cycles[0]) != 3 {
		t.Errorf("cycle = %v, want 3 nodes", cycles[0])
	}
}

func TestDetectCyclesSelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("a", "a", "", false)

	cycles := g.DetectCycles()
	if len(cycles) != 1 || len(cycles[0]) != 1 || cycles[0][0] != "a" {
		t.Errorf("DetectCycles() = %v, want [[a]]", cycles)
	}
}

func TestDetectCyclesNone(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("a", "c", "", false)
	g.AddEdge("b", "d", "", false)
	g.AddEdge("c", "d", "", false)

	if cycles := g.DetectCycles(); len(cycles) != 0 {
		t.Errorf("DetectCycles() = %v, want none for a diamond", cycles)
	}
}

func TestBreakCyclesRemovesOptionalEdge(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("b", "c", "", true) // optional edge inside the cycle
	g.AddEdge("c", "a", "", false)

	removed := g.BreakCycles()
	if removed != 1 {
		t.Fatalf("BreakCycles() = %d, want 1", removed)
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder after BreakCycles: %v", err)
	}
	if len(order) != 3 {
		t.Errorf("order length = %d, want 3 (all nodes exactly once)", len(order))
	}
}

func TestBreakCyclesAllRequired(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("b", "a", "", false)

	if removed := g.BreakCycles(); removed != 0 {
		t.Errorf("BreakCycles() = %d, want 0 (no optional edge to drop)", removed)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2 (required cycle left unbroken)", g.EdgeCount())
	}
}

func TestInstallOrderClean(t *testing.T) {
	g := New()
	g.AddEdge("app", "lib", "", false)
	g.AddEdge("lib", "core", "", false)

	order, degraded := g.InstallOrder()
	if degraded {
		t.Error("InstallOrder degraded = true, want false")
	}
	assertTopological(t, g, order)
}

func TestInstallOrderBreaksOptionalCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("b", "a", "", true)

	order, degraded := g.InstallOrder()
	if degraded {
		t.Error("InstallOrder degraded = true, want false after optional break")
	}
	if len(order) != 2 {
		t.Errorf("order length = %d, want 2", len(order))
	}
	assertTopological(t, g, order)
}

func TestInstallOrderDegraded(t *testing.T) {
	// Required cycle a→b→c→a plus b→d (optional, outside the cycle).
	g := New()
	g.AddEdge("a", "b", "", false)
	g.AddEdge("b", "c", "", false)
	g.AddEdge("c", "a", "", false)
	g.AddEdge("b", "d", "", true)

	order, degraded := g.InstallOrder()
	if !degraded {
		t.Fatal("InstallOrder degraded = false, want true for unbreakable cycle")
	}
	if len(order) != 4 {
		t.Fatalf("order length = %d, want 4", len(order))
	}

	// Out-degree ascending: d(0), then a(1), c(1), then b. The optional
	// b→d edge outside the cycle must not have been removed.
	if order[0] != "d" {
		t.Errorf("order[0] = %q, want d (lowest out-degree first)", order[0])
	}
	if order[len(order)-1] != "b" {
		t.Errorf("order[3] = %q, want b (highest out-degree last)", order[3])
	}
}

// assertTopological checks that every edge's target precedes its source.
func assertTopological(t *testing.T, g *Graph, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	for _, e := range g.Edges() {
		if pos[e.To] >= pos[e.From] {
			t.Errorf("order %v: %s requires %s but %s does not precede it", order, e.From, e.To, e.To)
		}
	}
}
