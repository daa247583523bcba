package cli

import (
	"strings"
	"testing"

	"github.com/kpmtools/kpm/pkg/resolver"
)

func TestRenderTree(t *testing.T) {
	root := &resolver.TreeNode{
		Name:    "app",
		Version: "1.0.0",
		Dependencies: []*resolver.TreeNode{
			{
				Name:            "lib",
				Version:         "2.1.0",
				RequiredVersion: ">=2.0.0",
				Dependencies: []*resolver.TreeNode{
					{Name: "core", Version: "0.9.0"},
				},
			},
			{Name: "extras", Version: "1.2.0", Optional: true},
			{Name: "gone", NotFound: true},
		},
	}

	got := renderTree(root)
	want := strings.Join([]string{
		"app@1.0.0",
		"├── lib@2.1.0 (requires >=2.0.0)",
		"│   └── core@0.9.0",
		"├── extras@1.2.0 (optional)",
		"└── gone (not found)",
		"",
	}, "\n")
	if got != want {
		t.Errorf("renderTree =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTreeCircular(t *testing.T) {
	root := &resolver.TreeNode{
		Name:    "a",
		Version: "1.0.0",
		Dependencies: []*resolver.TreeNode{
			{
				Name:    "b",
				Version: "1.0.0",
				Dependencies: []*resolver.TreeNode{
					{Name: "a", Circular: true},
				},
			},
		},
	}

	got := renderTree(root)
	if !strings.Contains(got, "└── a (circular)") {
		t.Errorf("circular marker missing:\n%s", got)
	}
}

func TestRenderTreeNil(t *testing.T) {
	if got := renderTree(nil); got != "" {
		t.Errorf("renderTree(nil) = %q, want empty", got)
	}
}
