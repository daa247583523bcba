package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kpmtools/kpm/pkg/source"
)

func writeIndex(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLookupSimple(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "requests", `
name = "requests"
version = "2.31.0"
dependencies = [
    "urllib3>=1.21.1",
    "certifi",
]
`)

	info, err := NewDir(dir).Lookup(context.Background(), "requests")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if info.Name != "requests" || info.Version != "2.31.0" {
		t.Errorf("info = %s@%s, want requests@2.31.0", info.Name, info.Version)
	}
	if len(info.Dependencies) != 2 {
		t.Fatalf("dependencies = %d, want 2", len(info.Dependencies))
	}
	if d := info.Dependencies[0]; d.Name != "urllib3" || d.VersionReq != ">=1.21.1" {
		t.Errorf("dep[0] = %+v, want urllib3 >=1.21.1", d)
	}
	if d := info.Dependencies[1]; d.Name != "certifi" || d.VersionReq != "" {
		t.Errorf("dep[1] = %+v, want unconstrained certifi", d)
	}
}

func TestLookupStructuredDependencies(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "requests", `
name = "requests"
version = "2.31.0"
dependencies = [
    "urllib3>=1.21.1",
    { name = "pysocks", version_req = ">=1.5.6", optional = true },
    { name = "chardet", version = "4.0.0" },
]
`)

	info, err := NewDir(dir).Lookup(context.Background(), "requests")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(info.Dependencies) != 3 {
		t.Fatalf("dependencies = %d, want 3", len(info.Dependencies))
	}

	want := []source.Dependency{
		{Name: "urllib3", VersionReq: ">=1.21.1"},
		{Name: "pysocks", VersionReq: ">=1.5.6", Optional: true},
		{Name: "chardet", Version: "4.0.0"},
	}
	for i, w := range want {
		if info.Dependencies[i] != w {
			t.Errorf("dep[%d] = %+v, want %+v", i, info.Dependencies[i], w)
		}
	}
}

func TestLookupHighestRelease(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "flask", `
name = "flask"

[[releases]]
version = "2.3.0"
dependencies = ["werkzeug>=2.3.0"]

[[releases]]
version = "3.0.0"
dependencies = ["werkzeug>=3.0.0"]

[[releases]]
version = "2.9.9"
dependencies = ["werkzeug>=2.3.0"]
`)

	info, err := NewDir(dir).Lookup(context.Background(), "flask")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info.Version != "3.0.0" {
		t.Errorf("Version = %q, want 3.0.0 (highest release)", info.Version)
	}
	if len(info.Dependencies) != 1 || info.Dependencies[0].VersionReq != ">=3.0.0" {
		t.Errorf("dependencies = %+v, want the 3.0.0 release's deps", info.Dependencies)
	}
}

func TestLookupNotFound(t *testing.T) {
	_, err := NewDir(t.TempDir()).Lookup(context.Background(), "ghost")
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Lookup error = %v, want ErrNotFound", err)
	}
}

func TestLookupMissingDirectory(t *testing.T) {
	_, err := NewDir("/nonexistent/registry").Lookup(context.Background(), "ghost")
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Lookup error = %v, want ErrNotFound for missing directory", err)
	}
}

func TestLookupMalformedIndex(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "broken", `name = "broken" version =`)

	if _, err := NewDir(dir).Lookup(context.Background(), "broken"); err == nil {
		t.Error("Lookup of malformed index: expected error, got nil")
	}
}
