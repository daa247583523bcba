package resolver

import (
	"fmt"
	"strings"

	"github.com/kpmtools/kpm/pkg/depgraph"
	"github.com/kpmtools/kpm/pkg/version"
)

// CheckVersionConflicts finds packages whose incoming constraints cannot
// all hold at once. Every package with two or more constrained incoming
// edges gets a pairwise comparison; detected conflicts are grouped by the
// conflicted package with both sides of each pair listed.
//
// The check is deliberately conservative: it flags only the unambiguous
// cases — a lower bound above an upper bound, strict bounds that leave no
// room, and disagreeing exact pins. Constraints it cannot interpret
// (caret, tilde, ranges, unparsable text) are assumed compatible rather
// than risk a false positive.
func CheckVersionConflicts(g *depgraph.Graph) []PackageConflicts {
	var result []PackageConflicts

	for _, name := range g.Names() {
		var constrained []depgraph.Edge
		for _, e := range g.Incoming(name) {
			if strings.TrimSpace(e.Constraint) != "" {
				constrained = append(constrained, e)
			}
		}
		if len(constrained) < 2 {
			continue
		}

		var conflicts []Conflict
		for i := 0; i < len(constrained); i++ {
			for j := i + 1; j < len(constrained); j++ {
				a, b := constrained[i], constrained[j]
				if !incompatible(a.Constraint, b.Constraint) {
					continue
				}
				desc := fmt.Sprintf("%s requires %s but %s requires %s",
					a.From, a.Constraint, b.From, b.Constraint)
				conflicts = append(conflicts,
					Conflict{RequiringPackage: a.From, RequiredVersion: a.Constraint, Description: desc},
					Conflict{RequiringPackage: b.From, RequiredVersion: b.Constraint, Description: desc},
				)
			}
		}

		if len(conflicts) > 0 {
			result = append(result, PackageConflicts{Package: name, Conflicts: conflicts})
		}
	}
	return result
}

// bound is a constraint reduced to the shapes the conservative check can
// reason about: a lower bound, an upper bound, or an exact pin.
type bound struct {
	op  string // ">=", ">", "<=", "<" or "==" (pins normalized to "==")
	ver string
}

// parseBound interprets a constraint leniently. ok is false for anything
// the conservative check does not reason about.
func parseBound(spec string) (bound, bool) {
	s := strings.TrimSpace(spec)

	for _, op := range []string{">=", "<=", "==", "=", ">", "<"} {
		if rest, found := strings.CutPrefix(s, op); found {
			rest = strings.TrimSpace(rest)
			if !version.Valid(rest) {
				return bound{}, false
			}
			if op == "=" {
				op = "=="
			}
			return bound{op: op, ver: rest}, true
		}
	}

	// A bare numeric version acts as an exact pin.
	if version.Valid(s) {
		return bound{op: "==", ver: s}, true
	}
	return bound{}, false
}

// incompatible reports whether two constraints certainly cannot both hold.
// Anything uncertain, including unparsable constraints, is compatible.
func incompatible(specA, specB string) bool {
	a, okA := parseBound(specA)
	b, okB := parseBound(specB)
	if !okA || !okB {
		return false
	}

	cmp, err := version.Compare(a.ver, b.ver)
	if err != nil {
		return false
	}

	switch {
	case a.op == "==" && b.op == "==":
		return cmp != 0
	case isLower(a.op) && isUpper(b.op):
		return boundsConflict(cmp, a.op == ">=", b.op == "<=")
	case isUpper(a.op) && isLower(b.op):
		return boundsConflict(-cmp, b.op == ">=", a.op == "<=")
	}
	return false
}

func isLower(op string) bool { return op == ">=" || op == ">" }
func isUpper(op string) bool { return op == "<=" || op == "<" }

// boundsConflict decides whether a lower bound and an upper bound leave no
// satisfiable version, given cmp = Compare(lower, upper). Two inclusive
// bounds still meet when equal; a strict bound on either side does not.
func boundsConflict(cmp int, lowerInclusive, upperInclusive bool) bool {
	if lowerInclusive && upperInclusive {
		return cmp > 0
	}
	return cmp >= 0
}
