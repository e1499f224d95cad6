package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/metadata"
	"github.com/wspcli/wsp/internal/mirror"
	"github.com/wspcli/wsp/internal/testutil"
	"github.com/wspcli/wsp/internal/workspace"
)

func setup(t *testing.T) (*workspace.Lifecycle, *mirror.Manager, string, string) {
	t.Helper()

	tmp := t.TempDir()
	mirrorsRoot := filepath.Join(tmp, "mirrors")
	workspacesRoot := filepath.Join(tmp, "workspaces")

	if err := os.MkdirAll(workspacesRoot, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	engine := gitrun.New()
	mirrors := mirror.New(mirrorsRoot, engine)
	lifecycle := workspace.New(workspacesRoot, mirrors, engine)

	return lifecycle, mirrors, workspacesRoot, tmp
}

func makeSourceRepo(t *testing.T, tmp, name string) string {
	t.Helper()

	src := filepath.Join(tmp, name)
	testutil.CreateRepoWithCommit(t, src)

	return src
}

func TestLifecycleCreateAndBootstrap(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")
	id := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}

	if err := mirrors.Clone(ctx, id, src); err != nil {
		t.Fatalf("mirror Clone: %v", err)
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: id}}, "wsp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if meta.Branch != "wsp/myws" {
		t.Errorf("Branch = %q, want wsp/myws", meta.Branch)
	}

	if _, ok := meta.Repos[id.Canonical()]; !ok {
		t.Errorf("Repos missing %s", id.Canonical())
	}

	cloneDir := filepath.Join(workspacesRoot, "myws", "widgets")
	if info, err := os.Stat(cloneDir); err != nil || !info.IsDir() {
		t.Fatalf("expected clone directory at %s", cloneDir)
	}

	reloaded, err := metadata.Load(filepath.Join(workspacesRoot, "myws"))
	if err != nil {
		t.Fatalf("metadata.Load: %v", err)
	}

	if reloaded.Name != "myws" {
		t.Errorf("reloaded Name = %q, want myws", reloaded.Name)
	}

	// Creating again must fail without touching anything.
	if _, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: id}}, "wsp"); err == nil {
		t.Fatalf("expected conflict on duplicate Create")
	}
}

func TestLifecycleAddReposResolvesCollision(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")

	acme := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}
	other := identity.Identity{Host: "github.com", Owner: "other", Repo: "widgets"}

	for _, id := range []identity.Identity{acme, other} {
		if err := mirrors.Clone(ctx, id, src); err != nil {
			t.Fatalf("mirror Clone(%s): %v", id.Canonical(), err)
		}
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: acme}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wsDir := filepath.Join(workspacesRoot, "myws")

	if _, err := os.Stat(filepath.Join(wsDir, "widgets")); err != nil {
		t.Fatalf("expected initial clone at widgets/: %v", err)
	}

	warnings, err := lifecycle.AddRepos(ctx, wsDir, meta, []workspace.RepoRequest{{Identity: other}})
	if err != nil {
		t.Fatalf("AddRepos: %v", err)
	}

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	if _, err := os.Stat(filepath.Join(wsDir, "acme-widgets")); err != nil {
		t.Errorf("expected renamed clone at acme-widgets/: %v", err)
	}

	if _, err := os.Stat(filepath.Join(wsDir, "other-widgets")); err != nil {
		t.Errorf("expected new clone at other-widgets/: %v", err)
	}

	if meta.Dirs[acme.Canonical()] != "acme-widgets" {
		t.Errorf("Dirs[acme] = %q, want acme-widgets", meta.Dirs[acme.Canonical()])
	}

	if meta.Dirs[other.Canonical()] != "other-widgets" {
		t.Errorf("Dirs[other] = %q, want other-widgets", meta.Dirs[other.Canonical()])
	}

	reloaded, err := metadata.Load(wsDir)
	if err != nil {
		t.Fatalf("metadata.Load: %v", err)
	}

	if len(reloaded.Repos) != 2 {
		t.Errorf("reloaded Repos = %d entries, want 2", len(reloaded.Repos))
	}
}

func TestLifecycleRemoveReposDissolvesCollision(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")

	acme := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}
	other := identity.Identity{Host: "github.com", Owner: "other", Repo: "widgets"}

	for _, id := range []identity.Identity{acme, other} {
		if err := mirrors.Clone(ctx, id, src); err != nil {
			t.Fatalf("mirror Clone(%s): %v", id.Canonical(), err)
		}
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: acme}, {Identity: other}}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wsDir := filepath.Join(workspacesRoot, "myws")

	if _, err := os.Stat(filepath.Join(wsDir, "acme-widgets")); err != nil {
		t.Fatalf("expected disambiguated clone at acme-widgets/: %v", err)
	}

	if _, err := lifecycle.RemoveRepos(ctx, wsDir, meta, []string{other.Canonical()}, true); err != nil {
		t.Fatalf("RemoveRepos: %v", err)
	}

	if _, err := os.Stat(filepath.Join(wsDir, "widgets")); err != nil {
		t.Errorf("expected surviving clone renamed back to widgets/: %v", err)
	}

	if _, err := os.Stat(filepath.Join(wsDir, "other-widgets")); !os.IsNotExist(err) {
		t.Errorf("expected removed clone gone, got err=%v", err)
	}

	if len(meta.Dirs) != 0 {
		t.Errorf("Dirs = %+v, want empty after dissolution", meta.Dirs)
	}
}

func TestLifecycleRemoveReposSafeWithoutForce(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")
	id := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}

	if err := mirrors.Clone(ctx, id, src); err != nil {
		t.Fatalf("mirror Clone: %v", err)
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: id}}, "wsp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wsDir := filepath.Join(workspacesRoot, "myws")

	warnings, err := lifecycle.RemoveRepos(ctx, wsDir, meta, []string{id.Canonical()}, false)
	if err != nil {
		t.Fatalf("RemoveRepos: %v (warnings: %v)", err, warnings)
	}

	if len(meta.Repos) != 0 {
		t.Errorf("Repos = %+v, want empty", meta.Repos)
	}

	if _, err := os.Stat(filepath.Join(wsDir, "widgets")); !os.IsNotExist(err) {
		t.Errorf("expected clone directory removed, got err=%v", err)
	}
}

func TestLifecycleRemoveReposUnknownIdentity(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")
	id := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}

	if err := mirrors.Clone(ctx, id, src); err != nil {
		t.Fatalf("mirror Clone: %v", err)
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: id}}, "wsp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wsDir := filepath.Join(workspacesRoot, "myws")

	if _, err := lifecycle.RemoveRepos(ctx, wsDir, meta, []string{"github.com/nope/nope"}, true); err == nil {
		t.Fatalf("expected not-found error for unregistered identity")
	}
}

func TestLifecycleRemoveWorkspace(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")
	id := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}

	if err := mirrors.Clone(ctx, id, src); err != nil {
		t.Fatalf("mirror Clone: %v", err)
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: id}}, "wsp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wsDir := filepath.Join(workspacesRoot, "myws")

	if _, err := lifecycle.Remove(ctx, wsDir, meta, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := os.Stat(wsDir); !os.IsNotExist(err) {
		t.Errorf("expected workspace directory removed, got err=%v", err)
	}
}

func TestLifecyclePropagateMirrorToClones(t *testing.T) {
	lifecycle, mirrors, workspacesRoot, tmp := setup(t)
	ctx := context.Background()

	src := makeSourceRepo(t, tmp, "widgets-src")
	id := identity.Identity{Host: "github.com", Owner: "acme", Repo: "widgets"}

	if err := mirrors.Clone(ctx, id, src); err != nil {
		t.Fatalf("mirror Clone: %v", err)
	}

	meta, err := lifecycle.Create(ctx, "myws", []workspace.RepoRequest{{Identity: id}}, "wsp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	testutil.RunGit(t, src, "commit", "--allow-empty", "-m", "new upstream commit")

	if err := mirrors.Fetch(ctx, id); err != nil {
		t.Fatalf("mirror Fetch: %v", err)
	}

	wsDir := filepath.Join(workspacesRoot, "myws")

	warnings := lifecycle.PropagateMirrorToClones(ctx, wsDir, meta)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}
