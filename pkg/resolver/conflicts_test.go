package resolver

import (
	"testing"

	"github.com/kpmtools/kpm/pkg/depgraph"
)

func TestCheckVersionConflictsBoundsSymmetry(t *testing.T) {
	g := depgraph.New()
	g.AddEdge("a", "x", ">=2.0.0", false)
	g.AddEdge("b", "x", "<=1.0.0", false)

	result := CheckVersionConflicts(g)
	if len(result) != 1 {
		t.Fatalf("conflicts for %d packages, want 1: %+v", len(result), result)
	}
	pc := result[0]
	if pc.Package != "x" {
		t.Errorf("Package = %q, want x", pc.Package)
	}
	if len(pc.Conflicts) != 2 {
		t.Fatalf("conflict entries = %d, want 2 (both sides listed)", len(pc.Conflicts))
	}

	requirers := map[string]string{}
	for _, c := range pc.Conflicts {
		requirers[c.RequiringPackage] = c.RequiredVersion
		if c.Description == "" {
			t.Error("conflict entry missing description")
		}
	}
	if requirers["a"] != ">=2.0.0" || requirers["b"] != "<=1.0.0" {
		t.Errorf("requirers = %v, want a:>=2.0.0 and b:<=1.0.0", requirers)
	}
}

func TestCheckVersionConflictsCompatibleBounds(t *testing.T) {
	g := depgraph.New()
	g.AddEdge("a", "x", ">=1.0.0", false)
	g.AddEdge("b", "x", "<=2.0.0", false)

	if result := CheckVersionConflicts(g); len(result) != 0 {
		t.Errorf("conflicts = %+v, want none for overlapping bounds", result)
	}
}

func TestCheckVersionConflictsInclusiveBoundary(t *testing.T) {
	// >=1.0.0 and <=1.0.0 meet at exactly 1.0.0.
	g := depgraph.New()
	g.AddEdge("a", "x", ">=1.0.0", false)
	g.AddEdge("b", "x", "<=1.0.0", false)

	if result := CheckVersionConflicts(g); len(result) != 0 {
		t.Errorf("conflicts = %+v, want none for touching inclusive bounds", result)
	}
}

func TestCheckVersionConflictsStrictBounds(t *testing.T) {
	// >1.0.0 and <1.0.0 leave no room at all.
	g := depgraph.New()
	g.AddEdge("a", "x", ">1.0.0", false)
	g.AddEdge("b", "x", "<1.0.0", false)

	result := CheckVersionConflicts(g)
	if len(result) != 1 {
		t.Fatalf("conflicts = %+v, want one for disjoint strict bounds", result)
	}
}

func TestCheckVersionConflictsPins(t *testing.T) {
	g := depgraph.New()
	g.AddEdge("a", "x", "==1.0.0", false)
	g.AddEdge("b", "x", "==2.0.0", false)

	if result := CheckVersionConflicts(g); len(result) != 1 {
		t.Errorf("conflicts = %+v, want one for disagreeing pins", result)
	}

	// Agreeing pins are fine, even via the single-equals spelling.
	g2 := depgraph.New()
	g2.AddEdge("a", "x", "==1.0.0", false)
	g2.AddEdge("b", "x", "=1.0", false)

	if result := CheckVersionConflicts(g2); len(result) != 0 {
		t.Errorf("conflicts = %+v, want none for numerically equal pins", result)
	}
}

func TestCheckVersionConflictsLenient(t *testing.T) {
	// Caret/tilde/garbage constraints are assumed compatible.
	g := depgraph.New()
	g.AddEdge("a", "x", "^1.0.0", false)
	g.AddEdge("b", "x", "==9.0.0", false)
	g.AddEdge("c", "x", "not-a-constraint", false)

	if result := CheckVersionConflicts(g); len(result) != 0 {
		t.Errorf("conflicts = %+v, want none from uninterpretable constraints", result)
	}
}

func TestCheckVersionConflictsNeedsTwoConstrainedEdges(t *testing.T) {
	g := depgraph.New()
	g.AddEdge("a", "x", ">=2.0.0", false)
	g.AddEdge("b", "x", "", false) // unconstrained edge does not count

	if result := CheckVersionConflicts(g); len(result) != 0 {
		t.Errorf("conflicts = %+v, want none with a single constrained edge", result)
	}
}
