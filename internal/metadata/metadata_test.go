package metadata_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/metadata"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w := &metadata.Workspace{
		Name:   "my-ws",
		Branch: "my-ws",
		Repos: map[string]*metadata.RepoRef{
			"github.com/acme/widgets": nil,
			"github.com/acme/docs":    {Ref: "v1.0.0"},
		},
		Created: time.Now().Truncate(time.Second),
	}

	if err := metadata.Save(dir, w); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temporary file leaked: %s", e.Name())
		}
	}

	loaded, err := metadata.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Name != w.Name || loaded.Branch != w.Branch {
		t.Errorf("loaded = %+v, want name/branch from %+v", loaded, w)
	}

	if len(loaded.Repos) != 2 {
		t.Errorf("loaded.Repos = %+v, want 2 entries", loaded.Repos)
	}

	if !loaded.Repos["github.com/acme/widgets"].IsActive() {
		t.Errorf("expected widgets to be active (no ref)")
	}

	if loaded.Repos["github.com/acme/docs"].Ref != "v1.0.0" {
		t.Errorf("expected docs pinned at v1.0.0, got %q", loaded.Repos["github.com/acme/docs"].Ref)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	if _, err := metadata.Load(dir); err == nil {
		t.Fatal("expected not-found error for missing sidecar")
	}
}

func TestComputeDirNames(t *testing.T) {
	a := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}
	b := identity.Identity{Host: "github.com", Owner: "other", Repo: "widgets"}
	c := identity.Identity{Host: "github.com", Owner: "acme", Repo: "gadgets"}

	dirs := metadata.ComputeDirNames([]identity.Identity{a, b, c})

	if dirs[a.Canonical()] != "acme-widgets" {
		t.Errorf("dirs[a] = %q, want %q", dirs[a.Canonical()], "acme-widgets")
	}

	if dirs[b.Canonical()] != "other-widgets" {
		t.Errorf("dirs[b] = %q, want %q", dirs[b.Canonical()], "other-widgets")
	}

	if _, ok := dirs[c.Canonical()]; ok {
		t.Errorf("expected singleton gadgets to have no override, got %q", dirs[c.Canonical()])
	}
}

func TestDetectWalksUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")

	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	w := &metadata.Workspace{Name: "ws", Branch: "ws", Repos: map[string]*metadata.RepoRef{}}
	if err := metadata.Save(root, w); err != nil {
		t.Fatalf("Save: %v", err)
	}

	found, err := metadata.Detect(nested)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedFound, _ := filepath.EvalSymlinks(found)

	if resolvedFound != resolvedRoot {
		t.Errorf("Detect() = %q, want %q", found, root)
	}
}

func TestDetectFailsWithoutSidecar(t *testing.T) {
	dir := t.TempDir()

	if _, err := metadata.Detect(dir); err == nil {
		t.Fatal("expected not-found error when no sidecar exists up the tree")
	}
}
