package sync_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/metadata"
	"github.com/wspcli/wsp/internal/sync"
	"github.com/wspcli/wsp/internal/testutil"
)

func cloneFrom(t *testing.T, src, dest string) {
	t.Helper()

	testutil.RunGit(t, filepath.Dir(dest), "clone", src, dest)
	testutil.RunGit(t, dest, "config", "user.email", "test@example.com")
	testutil.RunGit(t, dest, "config", "user.name", "Test User")
}

func TestSyncActiveRepoRebasesBehind(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.CreateRepoWithCommit(t, src)

	wsDir := filepath.Join(tmp, "ws")
	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	clone := filepath.Join(wsDir, "repo")
	cloneFrom(t, src, clone)

	testutil.RunGit(t, src, "commit", "--allow-empty", "-m", "upstream advances")

	meta := &metadata.Workspace{
		Name:   "ws",
		Branch: "main",
		Repos:  map[string]*metadata.RepoRef{"github.com/acme/repo": nil},
		Dirs:   map[string]string{"github.com/acme/repo": "repo"},
	}

	engine := sync.New(gitrun.New())
	ctx := context.Background()

	result := engine.Sync(ctx, wsDir, meta, sync.StrategyRebase, false)

	if result.Failures != 0 {
		t.Fatalf("Failures = %d, want 0: %+v", result.Failures, result.Outcomes)
	}

	if len(result.Outcomes) != 1 {
		t.Fatalf("Outcomes = %+v, want 1 entry", result.Outcomes)
	}

	got := result.Outcomes[0]
	if got.Status != sync.StatusRebased && got.Status != sync.StatusFastForward {
		t.Errorf("Status = %v, want Rebased or FastForward", got.Status)
	}
}

func TestSyncDryRunReportsBehind(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.CreateRepoWithCommit(t, src)

	wsDir := filepath.Join(tmp, "ws")
	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	clone := filepath.Join(wsDir, "repo")
	cloneFrom(t, src, clone)

	testutil.RunGit(t, src, "commit", "--allow-empty", "-m", "upstream advances")
	testutil.RunGit(t, clone, "fetch", "origin")

	meta := &metadata.Workspace{
		Name:   "ws",
		Branch: "main",
		Repos:  map[string]*metadata.RepoRef{"github.com/acme/repo": nil},
		Dirs:   map[string]string{"github.com/acme/repo": "repo"},
	}

	engine := sync.New(gitrun.New())
	ctx := context.Background()

	result := engine.Sync(ctx, wsDir, meta, sync.StrategyRebase, true)

	if result.Failures != 0 {
		t.Fatalf("Failures = %d, want 0: %+v", result.Failures, result.Outcomes)
	}

	got := result.Outcomes[0]
	if got.Status != sync.StatusDryRun {
		t.Errorf("Status = %v, want DryRun", got.Status)
	}

	if got.Detail == "" {
		t.Errorf("expected a non-empty dry-run detail message")
	}
}

func TestSyncActiveRepoDirtySkipped(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.CreateRepoWithCommit(t, src)

	wsDir := filepath.Join(tmp, "ws")
	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	clone := filepath.Join(wsDir, "repo")
	cloneFrom(t, src, clone)

	if err := os.WriteFile(filepath.Join(clone, "README.md"), []byte("dirty"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	meta := &metadata.Workspace{
		Name:   "ws",
		Branch: "main",
		Repos:  map[string]*metadata.RepoRef{"github.com/acme/repo": nil},
		Dirs:   map[string]string{"github.com/acme/repo": "repo"},
	}

	engine := sync.New(gitrun.New())
	ctx := context.Background()

	result := engine.Sync(ctx, wsDir, meta, sync.StrategyRebase, false)

	if result.Failures != 1 {
		t.Fatalf("Failures = %d, want 1: %+v", result.Failures, result.Outcomes)
	}

	if result.Outcomes[0].Detail != "uncommitted changes" {
		t.Errorf("Detail = %q, want %q", result.Outcomes[0].Detail, "uncommitted changes")
	}
}

func TestSyncContextRepoChecksOutPin(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	testutil.CreateRepoWithCommit(t, src)
	testutil.RunGit(t, src, "tag", "v1.0.0")

	wsDir := filepath.Join(tmp, "ws")
	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	clone := filepath.Join(wsDir, "repo")
	cloneFrom(t, src, clone)

	meta := &metadata.Workspace{
		Name:   "ws",
		Branch: "main",
		Repos:  map[string]*metadata.RepoRef{"github.com/acme/repo": {Ref: "v1.0.0"}},
		Dirs:   map[string]string{"github.com/acme/repo": "repo"},
	}

	engine := sync.New(gitrun.New())
	ctx := context.Background()

	result := engine.Sync(ctx, wsDir, meta, sync.StrategyRebase, false)

	if result.Failures != 0 {
		t.Fatalf("Failures = %d, want 0: %+v", result.Failures, result.Outcomes)
	}

	if result.Outcomes[0].Status != sync.StatusDetached {
		t.Errorf("Status = %v, want Detached", result.Outcomes[0].Status)
	}
}

func TestSyncContinuesAfterConflict(t *testing.T) {
	tmp := t.TempDir()

	srcA := filepath.Join(tmp, "src-a")
	testutil.CreateRepoWithCommit(t, srcA)
	testutil.MustWriteFile(t, filepath.Join(srcA, "conflict.txt"), "base\n")
	testutil.RunGit(t, srcA, "add", ".")
	testutil.RunGit(t, srcA, "commit", "-m", "add conflict.txt")

	srcB := filepath.Join(tmp, "src-b")
	testutil.CreateRepoWithCommit(t, srcB)

	wsDir := filepath.Join(tmp, "ws")
	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cloneA := filepath.Join(wsDir, "repo-a")
	cloneFrom(t, srcA, cloneA)

	cloneB := filepath.Join(wsDir, "repo-b")
	cloneFrom(t, srcB, cloneB)

	// Repo A: local commit and upstream commit touch the same line.
	testutil.MustWriteFile(t, filepath.Join(cloneA, "conflict.txt"), "local\n")
	testutil.RunGit(t, cloneA, "add", ".")
	testutil.RunGit(t, cloneA, "commit", "-m", "local change")

	testutil.MustWriteFile(t, filepath.Join(srcA, "conflict.txt"), "upstream\n")
	testutil.RunGit(t, srcA, "add", ".")
	testutil.RunGit(t, srcA, "commit", "-m", "upstream change")

	// Repo B: upstream simply advances by one commit.
	testutil.RunGit(t, srcB, "commit", "--allow-empty", "-m", "upstream advances")

	meta := &metadata.Workspace{
		Name:   "ws",
		Branch: "main",
		Repos: map[string]*metadata.RepoRef{
			"github.com/acme/repo-a": nil,
			"github.com/acme/repo-b": nil,
		},
		Dirs: map[string]string{
			"github.com/acme/repo-a": "repo-a",
			"github.com/acme/repo-b": "repo-b",
		},
	}

	engine := sync.New(gitrun.New())
	ctx := context.Background()

	result := engine.Sync(ctx, wsDir, meta, sync.StrategyRebase, false)

	if result.Failures != 1 {
		t.Fatalf("Failures = %d, want 1: %+v", result.Failures, result.Outcomes)
	}

	gotA := result.Outcomes[0]
	if gotA.Identity != "github.com/acme/repo-a" || gotA.Status != sync.StatusError {
		t.Errorf("repo-a outcome = %+v, want error", gotA)
	}

	if !strings.Contains(gotA.Detail, "aborted, repo unchanged") {
		t.Errorf("repo-a detail = %q, want conflict abort message", gotA.Detail)
	}

	// The conflicted rebase was aborted, so repo A's tree is untouched.
	if got := testutil.MustReadFile(t, filepath.Join(cloneA, "conflict.txt")); got != "local\n" {
		t.Errorf("conflict.txt = %q, want local content preserved", got)
	}

	gotB := result.Outcomes[1]
	if gotB.Identity != "github.com/acme/repo-b" || gotB.Status != sync.StatusFastForward {
		t.Errorf("repo-b outcome = %+v, want fast-forward", gotB)
	}

	if gotB.Commits != 1 {
		t.Errorf("repo-b Commits = %d, want 1", gotB.Commits)
	}
}
