// Package source defines the package-metadata provider interface consumed
// by the resolver, together with the canonical dependency representation
// shared by all concrete providers.
//
// A provider answers one question: given a package name, what is its
// current version and what does it declare as dependencies? Providers come
// in two flavors, "live" repository indexes and installed-package
// databases; the resolver consults the latter only as a fallback.
package source

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by [Source.Lookup] when a provider has no
// metadata for the requested package. The resolver treats it as a skipped
// branch, never as a fatal error.
var ErrNotFound = errors.New("package not found")

// Dependency is one declared dependency of a package, normalized from
// whatever shape the metadata used (bare string or structured table).
type Dependency struct {
	Name       string `json:"name" toml:"name" bson:"name"`
	VersionReq string `json:"version_req,omitempty" toml:"version_req" bson:"version_req,omitempty"`
	Version    string `json:"version,omitempty" toml:"version" bson:"version,omitempty"`
	Optional   bool   `json:"optional,omitempty" toml:"optional" bson:"optional,omitempty"`
}

// PackageInfo is the metadata record for one package.
type PackageInfo struct {
	Name         string       `json:"name" toml:"name" bson:"name"`
	Version      string       `json:"version" toml:"version" bson:"version"`
	Dependencies []Dependency `json:"dependencies,omitempty" toml:"dependencies" bson:"dependencies,omitempty"`
}

// Source provides package metadata by name.
//
// Lookup returns ErrNotFound (possibly wrapped) when the package is absent;
// any other error indicates the provider itself failed.
type Source interface {
	Lookup(ctx context.Context, name string) (*PackageInfo, error)
}

// Multi chains several sources: Lookup asks each in order and returns the
// first hit. ErrNotFound from one source moves on to the next; provider
// failures surface immediately.
type Multi []Source

// Lookup implements [Source].
func (m Multi) Lookup(ctx context.Context, name string) (*PackageInfo, error) {
	for _, s := range m {
		info, err := s.Lookup(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return info, nil
	}
	return nil, ErrNotFound
}

// specOperators are the requirement prefixes recognized inside a bare
// dependency string, longest-first.
var specOperators = []string{">=", "<=", "==", "!=", "=", ">", "<", "^", "~"}

// ParseSpec normalizes a bare dependency string into a [Dependency].
//
// Accepted shapes:
//
//	"urllib3"            name only, unconstrained
//	"urllib3>=1.21.1"    name plus requirement expression
//	"chardet ~4.0.0"     whitespace around the operator is tolerated
//
// Everything from the first operator character onward becomes VersionReq.
// ParseSpec never fails: a string with no recognizable requirement is a
// plain unconstrained dependency.
func ParseSpec(spec string) Dependency {
	s := strings.TrimSpace(spec)
	cut := len(s)
	for _, op := range specOperators {
		if i := strings.Index(s, op); i >= 0 && i < cut {
			cut = i
		}
	}
	name := strings.TrimSpace(s[:cut])
	req := strings.TrimSpace(s[cut:])
	return Dependency{Name: name, VersionReq: req}
}
