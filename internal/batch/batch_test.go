package batch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wspcli/wsp/internal/batch"
	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/metadata"
	"github.com/wspcli/wsp/internal/testutil"
)

func cloneFrom(t *testing.T, src, dest string) {
	t.Helper()

	testutil.RunGit(t, filepath.Dir(dest), "clone", src, dest)
	testutil.RunGit(t, dest, "config", "user.email", "test@example.com")
	testutil.RunGit(t, dest, "config", "user.name", "Test User")
}

func newWorkspace(t *testing.T) (wsDir, clone string, meta *metadata.Workspace) {
	t.Helper()

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.CreateRepoWithCommit(t, src)

	wsDir = filepath.Join(tmp, "ws")
	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	clone = filepath.Join(wsDir, "repo")
	cloneFrom(t, src, clone)

	meta = &metadata.Workspace{
		Name:   "ws",
		Branch: "main",
		Repos:  map[string]*metadata.RepoRef{"github.com/acme/repo": nil},
		Dirs:   map[string]string{"github.com/acme/repo": "repo"},
	}

	return wsDir, clone, meta
}

func TestStatusCleanRepo(t *testing.T) {
	wsDir, _, meta := newWorkspace(t)
	engine := gitrun.New()

	rows := batch.Status(context.Background(), wsDir, meta, engine)
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want 1", rows)
	}

	if rows[0].Error != "" {
		t.Fatalf("unexpected error: %s", rows[0].Error)
	}

	if rows[0].Changed != 0 {
		t.Errorf("Changed = %d, want 0", rows[0].Changed)
	}
}

func TestStatusDirtyRepo(t *testing.T) {
	wsDir, clone, meta := newWorkspace(t)
	engine := gitrun.New()

	if err := os.WriteFile(filepath.Join(clone, "untracked.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rows := batch.Status(context.Background(), wsDir, meta, engine)
	if rows[0].Changed != 1 {
		t.Errorf("Changed = %d, want 1", rows[0].Changed)
	}
}

func TestDiffReportsChanges(t *testing.T) {
	wsDir, clone, meta := newWorkspace(t)
	engine := gitrun.New()

	if err := os.WriteFile(filepath.Join(clone, "README.md"), []byte("changed content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rows := batch.Diff(context.Background(), wsDir, meta, engine, nil)
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want 1", rows)
	}

	if rows[0].Error != "" {
		t.Fatalf("unexpected error: %s", rows[0].Error)
	}

	if rows[0].Output == "" {
		t.Errorf("expected non-empty diff output")
	}
}

func TestPushRefusesDefaultBranch(t *testing.T) {
	wsDir, clone, meta := newWorkspace(t)
	engine := gitrun.New()

	branch := testutil.RunGitOutput(t, clone, "symbolic-ref", "--short", "HEAD")
	meta.Branch = branch

	rows := batch.Push(context.Background(), wsDir, meta, engine, false, false)
	if rows[0].Status != batch.PushError {
		t.Errorf("Status = %v, want PushError", rows[0].Status)
	}
}

func TestPushNothingToPush(t *testing.T) {
	wsDir, clone, meta := newWorkspace(t)
	engine := gitrun.New()

	testutil.RunGit(t, clone, "checkout", "-b", "feature")

	rows := batch.Push(context.Background(), wsDir, meta, engine, false, false)
	if rows[0].Status != batch.PushNothing && rows[0].Status != batch.PushError {
		t.Errorf("Status = %v, detail = %q", rows[0].Status, rows[0].Detail)
	}
}

func TestPushSkipsContextRepo(t *testing.T) {
	wsDir, _, meta := newWorkspace(t)
	engine := gitrun.New()

	meta.Repos["github.com/acme/repo"] = &metadata.RepoRef{Ref: "v1.0.0"}

	rows := batch.Push(context.Background(), wsDir, meta, engine, false, false)
	if rows[0].Status != batch.PushSkipped {
		t.Errorf("Status = %v, want PushSkipped", rows[0].Status)
	}
}
