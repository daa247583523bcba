// Package version implements parsing and evaluation of version requirement
// expressions as they appear in package metadata.
//
// A constraint is one of:
//
//   - the sentinel "latest", satisfied by any version
//   - an operator expression such as ">=1.2.0", "^1.2.3" or "~0.4.0"
//   - an inclusive range "1.0.0 - 2.0.0"
//   - a bare version such as "1.0.0", matched by literal text equality
//
// Constraints are validated at construction time: [Parse] rejects malformed
// input with a [*ParseError] so that evaluation never has to guess. Evaluation
// returns an explicit error when the concrete version cannot be parsed, and
// the caller decides whether that means "unsatisfied" or "assume compatible".
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel spec matched by every version.
const Latest = "latest"

// ParseError is returned by [Parse] when a constraint string is malformed.
type ParseError struct {
	Spec   string // the offending constraint string
	Reason string // what was wrong with it
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse constraint %q: %s", e.Spec, e.Reason)
}

// operators ordered longest-first so that ">=" wins over ">".
var operators = []string{">=", "<=", "==", "=", ">", "<", "^", "~"}

type kind int

const (
	kindLatest kind = iota
	kindLiteral
	kindOperator
	kindRange
)

// Constraint is a parsed version requirement. The zero value is not usable;
// construct one with [Parse].
type Constraint struct {
	raw  string
	kind kind

	op  string  // kindOperator only
	ver release // kindOperator only

	lo, hi release // kindRange only
}

// String returns the original constraint text.
func (c Constraint) String() string { return c.raw }

// IsLatest reports whether the constraint is the "latest" sentinel.
func (c Constraint) IsLatest() bool { return c.kind == kindLatest }

// Parse validates and parses a constraint string.
//
// An unrecognized operator prefix, a non-numeric version component, or a
// range that does not have exactly two " - "-separated sides all fail with
// a [*ParseError].
func Parse(spec string) (Constraint, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Constraint{}, &ParseError{Spec: spec, Reason: "empty constraint"}
	}
	if s == Latest {
		return Constraint{raw: s, kind: kindLatest}, nil
	}

	if strings.Contains(s, " - ") {
		parts := strings.Split(s, " - ")
		if len(parts) != 2 {
			return Constraint{}, &ParseError{Spec: spec, Reason: "range must have exactly two sides"}
		}
		lo, err := parseRelease(parts[0])
		if err != nil {
			return Constraint{}, &ParseError{Spec: spec, Reason: err.Error()}
		}
		hi, err := parseRelease(parts[1])
		if err != nil {
			return Constraint{}, &ParseError{Spec: spec, Reason: err.Error()}
		}
		return Constraint{raw: s, kind: kindRange, lo: lo, hi: hi}, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			ver, err := parseRelease(s[len(op):])
			if err != nil {
				return Constraint{}, &ParseError{Spec: spec, Reason: err.Error()}
			}
			return Constraint{raw: s, kind: kindOperator, op: op, ver: ver}, nil
		}
	}

	if !isVersionStart(s[0]) {
		return Constraint{}, &ParseError{Spec: spec, Reason: "unrecognized operator"}
	}

	// Bare version: matched by literal text equality, but the shape is
	// still validated here so that junk is rejected up front.
	if _, err := parseRelease(s); err != nil {
		return Constraint{}, &ParseError{Spec: spec, Reason: err.Error()}
	}
	return Constraint{raw: s, kind: kindLiteral}, nil
}

// SatisfiedBy reports whether the concrete version satisfies the constraint.
//
// The error is non-nil only when the concrete version cannot be parsed and
// the constraint needs a numeric comparison. Callers that want to be lenient
// treat that case as satisfied; callers that want to be strict treat it as a
// failure.
func (c Constraint) SatisfiedBy(actual string) (bool, error) {
	switch c.kind {
	case kindLatest:
		return true, nil
	case kindLiteral:
		return c.raw == strings.TrimSpace(actual), nil
	}

	v, err := parseRelease(actual)
	if err != nil {
		return false, fmt.Errorf("version %q: %w", actual, err)
	}

	if c.kind == kindRange {
		return compareRelease(v, c.lo) >= 0 && compareRelease(v, c.hi) <= 0, nil
	}

	switch c.op {
	case "==", "=":
		return compareRelease(v, c.ver) == 0, nil
	case ">=":
		return compareRelease(v, c.ver) >= 0, nil
	case "<=":
		return compareRelease(v, c.ver) <= 0, nil
	case ">":
		return compareRelease(v, c.ver) > 0, nil
	case "<":
		return compareRelease(v, c.ver) < 0, nil
	case "^":
		return c.caretSatisfied(v), nil
	case "~":
		return compareRelease(v, c.ver) >= 0 &&
			v.nums[0] == c.ver.nums[0] && v.nums[1] == c.ver.nums[1], nil
	}
	return false, fmt.Errorf("operator %q not evaluable", c.op)
}

// caretSatisfied implements caret compatibility: the leftmost non-zero
// component is pinned, everything to its right may float upward.
func (c Constraint) caretSatisfied(v release) bool {
	base := c.ver
	switch {
	case base.nums[0] > 0:
		return compareRelease(v, base) >= 0 && v.nums[0] == base.nums[0]
	case base.nums[1] > 0:
		return compareRelease(v, base) >= 0 && v.nums[0] == 0 && v.nums[1] == base.nums[1]
	default:
		return compareRelease(v, base) == 0
	}
}

// Satisfies parses spec and evaluates it against actual in one step.
func Satisfies(spec, actual string) (bool, error) {
	c, err := Parse(spec)
	if err != nil {
		return false, err
	}
	return c.SatisfiedBy(actual)
}

// Valid reports whether s parses as a version: 1-3 dotted numeric
// components with an optional pre-release suffix.
func Valid(s string) bool {
	_, err := parseRelease(s)
	return err == nil
}

// Compare numerically compares two version strings after zero-padding each
// to three components. Pre-release suffixes are ignored. Returns -1, 0 or 1.
func Compare(a, b string) (int, error) {
	va, err := parseRelease(a)
	if err != nil {
		return 0, fmt.Errorf("version %q: %w", a, err)
	}
	vb, err := parseRelease(b)
	if err != nil {
		return 0, fmt.Errorf("version %q: %w", b, err)
	}
	return compareRelease(va, vb), nil
}

// release is a version reduced to three numeric components. Pre-release
// suffixes are stripped before comparison.
type release struct {
	nums [3]int
}

func isVersionStart(b byte) bool { return b >= '0' && b <= '9' }

func parseRelease(s string) (release, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return release{}, fmt.Errorf("empty version")
	}

	// Strip the pre-release suffix; only the dotted numeric part compares.
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return release{}, fmt.Errorf("too many version components in %q", s)
	}

	var r release
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return release{}, fmt.Errorf("non-numeric version component %q", p)
		}
		r.nums[i] = n
	}
	return r, nil
}

func compareRelease(a, b release) int {
	for i := range 3 {
		switch {
		case a.nums[i] < b.nums[i]:
			return -1
		case a.nums[i] > b.nums[i]:
			return 1
		}
	}
	return 0
}
