// Package workspace implements the workspace lifecycle: create, add-repos,
// remove-repos, and remove, plus the clone-from-mirror bootstrap and the
// directory-rename logic around short-name collisions.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/metadata"
	"github.com/wspcli/wsp/internal/mirror"
	"github.com/wspcli/wsp/internal/safety"
	"github.com/wspcli/wsp/internal/validation"
)

// RepoRequest is a single repo to attach to a workspace: its identity, an
// optional pinned ref (empty = active), and the upstream URL to configure
// as origin.
type RepoRequest struct {
	Identity    identity.Identity
	Ref         string
	UpstreamURL string
}

// Lifecycle owns the workspace root and the collaborators it needs to
// create, mutate, and destroy workspace clones.
type Lifecycle struct {
	WorkspacesRoot string
	Mirrors        *mirror.Manager
	Engine         *gitrun.Engine
	Safety         *safety.Checker
}

// New returns a Lifecycle rooted at workspacesRoot.
func New(workspacesRoot string, mirrors *mirror.Manager, engine *gitrun.Engine) *Lifecycle {
	return &Lifecycle{
		WorkspacesRoot: workspacesRoot,
		Mirrors:        mirrors,
		Engine:         engine,
		Safety:         safety.New(engine),
	}
}

// dir returns a workspace's root directory path.
func (l *Lifecycle) dir(name string) string {
	return filepath.Join(l.WorkspacesRoot, name)
}

// Create validates name, fails if the workspace directory already exists,
// computes the shared branch from branchPrefix, bootstraps a clone for
// every requested repo, and persists the metadata atomically. Any failure
// in the bootstrap or save phase best-effort deletes the partially built
// workspace directory.
func (l *Lifecycle) Create(ctx context.Context, name string, requests []RepoRequest, branchPrefix string) (*metadata.Workspace, error) {
	if err := validation.ValidateWorkspaceName(name); err != nil {
		return nil, err
	}

	wsDir := l.dir(name)

	if _, err := os.Stat(wsDir); err == nil {
		return nil, cerrors.NewConflict(fmt.Sprintf("workspace %q already exists", name))
	}

	if err := os.MkdirAll(wsDir, 0o755); err != nil {
		return nil, cerrors.NewIO("create workspace directory", err)
	}

	branch := name
	if branchPrefix != "" {
		branch = branchPrefix + "/" + branch
	}

	ids := make([]identity.Identity, len(requests))
	for i, req := range requests {
		ids[i] = req.Identity
	}

	dirs := metadata.ComputeDirNames(ids)

	meta := &metadata.Workspace{
		Name:    name,
		Branch:  branch,
		Repos:   map[string]*metadata.RepoRef{},
		Created: time.Now(),
		Dirs:    dirs,
	}

	if err := l.bootstrapAll(ctx, wsDir, meta, requests); err != nil {
		_ = os.RemoveAll(wsDir)
		return nil, err
	}

	if err := metadata.Save(wsDir, meta); err != nil {
		_ = os.RemoveAll(wsDir)
		return nil, err
	}

	return meta, nil
}

func (l *Lifecycle) bootstrapAll(ctx context.Context, wsDir string, meta *metadata.Workspace, requests []RepoRequest) error {
	for _, req := range requests {
		dirName, err := meta.DirName(req.Identity.Canonical())
		if err != nil {
			return err
		}

		if err := l.bootstrapClone(ctx, wsDir, req.Identity, dirName, meta.Branch, req.Ref, req.UpstreamURL); err != nil {
			return err
		}

		meta.Repos[req.Identity.Canonical()] = metadata.NewRepoRef(req.Ref)
	}

	return nil
}

// bootstrapClone clones from the mirror into ws_dir/dir_name, wires the
// wsp-mirror and origin remotes, and checks out the right ref for the
// repo's active/context variant.
func (l *Lifecycle) bootstrapClone(ctx context.Context, wsDir string, id identity.Identity, dirName, branch, ref, upstreamURL string) error {
	dest := filepath.Join(wsDir, dirName)
	mirrorPath := l.Mirrors.Path(id)

	if err := l.Engine.CloneFromMirror(ctx, mirrorPath, dest); err != nil {
		return err
	}

	if err := l.Engine.EnsureCloneMirrorRefspec(ctx, dest); err != nil {
		return err
	}

	if err := l.Engine.FetchRemote(ctx, dest, "wsp-mirror", false); err != nil {
		return err
	}

	if upstreamURL != "" {
		if err := l.Engine.SetRemoteURL(ctx, dest, "origin", upstreamURL); err != nil {
			return err
		}

		// Best-effort: copy the default-branch pointer from wsp-mirror to origin.
		if defaultBranch, err := l.Engine.DefaultBranch(ctx, dest, "wsp-mirror"); err == nil {
			_, _ = l.Engine.Run(ctx, dest, []string{"remote", "set-head", "origin", defaultBranch}, nil)
		}

		if err := l.Engine.Fetch(ctx, dest, false); err != nil {
			return err
		}
	}

	return l.checkout(ctx, dest, branch, ref)
}

func (l *Lifecycle) checkout(ctx context.Context, dest, branch, ref string) error {
	if ref != "" {
		return l.checkoutContext(ctx, dest, ref)
	}

	return l.checkoutActive(ctx, dest, branch)
}

func (l *Lifecycle) checkoutContext(ctx context.Context, dest, ref string) error {
	if l.Engine.BranchExists(ctx, dest, ref) {
		_, err := l.Engine.Run(ctx, dest, []string{"checkout", ref}, nil)
		return err
	}

	mirrorRef := "wsp-mirror/" + ref
	if l.Engine.RefExists(ctx, dest, mirrorRef) {
		if _, err := l.Engine.Run(ctx, dest, []string{"checkout", "-b", ref, mirrorRef}, nil); err != nil {
			return err
		}

		if l.Engine.RemoteBranchExists(ctx, dest, "origin", ref) {
			_, _ = l.Engine.Run(ctx, dest, []string{"branch", "--set-upstream-to=origin/" + ref, ref}, nil)
		}

		return nil
	}

	_, err := l.Engine.Run(ctx, dest, []string{"checkout", "--detach", ref}, nil)

	return err
}

func (l *Lifecycle) checkoutActive(ctx context.Context, dest, branch string) error {
	if l.Engine.BranchExists(ctx, dest, branch) {
		_, err := l.Engine.Run(ctx, dest, []string{"checkout", branch}, nil)
		return err
	}

	defaultBranch, err := l.Engine.DefaultBranch(ctx, dest, "wsp-mirror")
	if err != nil {
		return err
	}

	if _, err := l.Engine.Run(ctx, dest, []string{"checkout", "-b", branch, "wsp-mirror/" + defaultBranch, "--no-track"}, nil); err != nil {
		return err
	}

	if l.Engine.RemoteBranchExists(ctx, dest, "origin", defaultBranch) {
		_, _ = l.Engine.Run(ctx, dest, []string{"branch", "--set-upstream-to=origin/" + defaultBranch, branch}, nil)
	}

	return nil
}

// AddRepos attaches each requested repo to an existing workspace, already
// present identities are skipped, and short-name collisions are resolved
// by renaming the existing clone to its disambiguated form and bootstrapping
// the new one directly at its own disambiguated directory.
func (l *Lifecycle) AddRepos(ctx context.Context, wsDir string, meta *metadata.Workspace, requests []RepoRequest) ([]string, error) {
	var warnings []string

	for _, req := range requests {
		canonical := req.Identity.Canonical()

		if _, exists := meta.Repos[canonical]; exists {
			warnings = append(warnings, fmt.Sprintf("%s already in workspace, skipped", canonical))
			continue
		}

		defaultDir := req.Identity.Repo

		colliding := findCollisions(meta, defaultDir)
		if len(colliding) > 0 {
			for _, existing := range colliding {
				if _, hasOverride := meta.Dirs[existing]; hasOverride {
					continue
				}

				renamedDir := ownerDash(existing) + "-" + defaultDir
				if err := renameClone(wsDir, defaultDir, renamedDir); err != nil {
					return warnings, err
				}

				meta.Dirs[existing] = renamedDir
			}

			ownDir := ownerDash(canonical) + "-" + req.Identity.Repo
			if err := l.bootstrapClone(ctx, wsDir, req.Identity, ownDir, meta.Branch, req.Ref, req.UpstreamURL); err != nil {
				return warnings, err
			}

			meta.Dirs[canonical] = ownDir
		} else {
			if err := l.bootstrapClone(ctx, wsDir, req.Identity, defaultDir, meta.Branch, req.Ref, req.UpstreamURL); err != nil {
				return warnings, err
			}
		}

		meta.Repos[canonical] = metadata.NewRepoRef(req.Ref)
	}

	if err := metadata.Save(wsDir, meta); err != nil {
		return warnings, err
	}

	return warnings, nil
}

// findCollisions returns every workspace identity whose parsed repo
// segment equals the candidate default directory name, in metadata order.
func findCollisions(meta *metadata.Workspace, defaultDir string) []string {
	var colliding []string

	for _, c := range meta.SortedIdentities() {
		id, err := identity.FromCanonical(c)
		if err != nil {
			continue
		}

		if id.Repo == defaultDir {
			colliding = append(colliding, c)
		}
	}

	return colliding
}

func ownerDash(canonical string) string {
	id, err := identity.FromCanonical(canonical)
	if err != nil {
		return "unknown"
	}

	return strings.ReplaceAll(id.Owner, "/", "-")
}

func renameClone(wsDir, from, to string) error {
	if from == to {
		return nil
	}

	if err := os.Rename(filepath.Join(wsDir, from), filepath.Join(wsDir, to)); err != nil {
		return cerrors.NewIO("rename clone directory", err)
	}

	return nil
}

// pendingChangesOffender describes why an identity blocks a safety-gated removal.
type pendingChangesOffender struct {
	canonical string
	reason    string
}

// evaluateRemovalSafety runs the pre-removal safety gate: pending local
// changes or an unsafe branch classification both flag the identity as an
// offender.
func (l *Lifecycle) evaluateRemovalSafety(ctx context.Context, wsDir string, meta *metadata.Workspace, canonical string) (*pendingChangesOffender, []string) {
	var warnings []string

	ref, ok := meta.Repos[canonical]
	if !ok || !ref.IsActive() {
		return nil, warnings
	}

	dirName, err := meta.DirName(canonical)
	if err != nil {
		return &pendingChangesOffender{canonical: canonical, reason: err.Error()}, warnings
	}

	dest := filepath.Join(wsDir, dirName)

	changed, _ := l.Engine.ChangedFileCount(ctx, dest)
	ahead, _ := l.Engine.AheadCount(ctx, dest)

	if fetchErr := l.Engine.Fetch(ctx, dest, false); fetchErr != nil {
		warnings = append(warnings, fmt.Sprintf("%s: fetch failed, local data may be stale", canonical))
	}

	// DefaultBranch falls back to the clone's own HEAD, which here is the
	// workspace branch, so origin is only asked when it has a HEAD pointer.
	defaultRemote := "origin"
	if !l.Engine.RefExists(ctx, dest, "refs/remotes/origin/HEAD") {
		defaultRemote = "wsp-mirror"
	}

	defaultBranch, dbErr := l.Engine.DefaultBranch(ctx, dest, defaultRemote)
	if dbErr != nil {
		return &pendingChangesOffender{canonical: canonical, reason: "cannot resolve default branch"}, warnings
	}

	target := "origin/" + defaultBranch
	if !l.Engine.RefExists(ctx, dest, target) {
		target = defaultBranch
	}

	classification := l.Safety.Classify(ctx, dest, meta.Branch, target)

	safe, reason := safety.IsSafeToRemove(classification)
	if safe && changed == 0 && ahead == 0 {
		return nil, warnings
	}

	if !safe {
		return &pendingChangesOffender{canonical: canonical, reason: reason}, warnings
	}

	return &pendingChangesOffender{canonical: canonical, reason: "pending changes"}, warnings
}

// RemoveRepos removes identities from a workspace. Without force, every
// identity is safety-gated first; if any is flagged, nothing is changed
// on disk and an error enumerates the offenders.
func (l *Lifecycle) RemoveRepos(ctx context.Context, wsDir string, meta *metadata.Workspace, identities []string, force bool) ([]string, error) {
	for _, canonical := range identities {
		if _, ok := meta.Repos[canonical]; !ok {
			return nil, cerrors.NewNotFound("repo in workspace", canonical)
		}
	}

	var warnings []string

	if !force {
		var offenders []string

		for _, canonical := range identities {
			offender, w := l.evaluateRemovalSafety(ctx, wsDir, meta, canonical)
			warnings = append(warnings, w...)

			if offender != nil {
				offenders = append(offenders, fmt.Sprintf("%s: %s", offender.canonical, offender.reason))
			}
		}

		if len(offenders) > 0 {
			return warnings, cerrors.NewSafetyGate("cannot remove repos", offenders)
		}
	}

	for _, canonical := range identities {
		dirName, err := meta.DirName(canonical)
		if err != nil {
			return warnings, err
		}

		if err := os.RemoveAll(filepath.Join(wsDir, dirName)); err != nil {
			return warnings, cerrors.NewIO("remove clone directory", err)
		}

		delete(meta.Repos, canonical)
		delete(meta.Dirs, canonical)
	}

	if err := l.recomputeDirs(wsDir, meta); err != nil {
		return warnings, err
	}

	if err := metadata.Save(wsDir, meta); err != nil {
		return warnings, err
	}

	return warnings, nil
}

// recomputeDirs recomputes the short-name-collision overrides over the
// survivors and renames any directory whose override changed, including
// renaming a now-collision-free identity back to its short name.
func (l *Lifecycle) recomputeDirs(wsDir string, meta *metadata.Workspace) error {
	survivors := make([]identity.Identity, 0, len(meta.Repos))

	for canonical := range meta.Repos {
		id, err := identity.FromCanonical(canonical)
		if err != nil {
			return err
		}

		survivors = append(survivors, id)
	}

	newDirs := metadata.ComputeDirNames(survivors)

	for _, id := range survivors {
		canonical := id.Canonical()

		oldDir, hadOverride := meta.Dirs[canonical]
		newDir, hasOverride := newDirs[canonical]

		if !hadOverride && !hasOverride {
			continue
		}

		from := id.Repo
		if hadOverride {
			from = oldDir
		}

		to := id.Repo
		if hasOverride {
			to = newDir
		}

		if from == to {
			continue
		}

		if err := renameClone(wsDir, from, to); err != nil {
			return err
		}
	}

	meta.Dirs = newDirs

	return nil
}

// Remove applies the same safety gate to every active repo collectively,
// then deletes the whole workspace directory tree.
func (l *Lifecycle) Remove(ctx context.Context, wsDir string, meta *metadata.Workspace, force bool) ([]string, error) {
	var warnings []string

	if !force {
		var offenders []string

		for _, canonical := range meta.SortedIdentities() {
			offender, w := l.evaluateRemovalSafety(ctx, wsDir, meta, canonical)
			warnings = append(warnings, w...)

			if offender != nil {
				offenders = append(offenders, fmt.Sprintf("%s: %s", offender.canonical, offender.reason))
			}
		}

		if len(offenders) > 0 {
			return warnings, cerrors.NewSafetyGate("cannot remove workspace", offenders)
		}
	}

	if err := os.RemoveAll(wsDir); err != nil {
		return warnings, cerrors.NewIO("remove workspace directory", err)
	}

	return warnings, nil
}

// PropagateMirrorToClones runs "git fetch wsp-mirror" in every clone in
// parallel so freshly fetched mirror refs become visible without a full
// sync. Errors are warnings, never fatal.
func (l *Lifecycle) PropagateMirrorToClones(ctx context.Context, wsDir string, meta *metadata.Workspace) []string {
	var warnings []string

	type result struct {
		canonical string
		err       error
	}

	results := make(chan result, len(meta.Repos))

	g, gctx := errgroup.WithContext(ctx)

	for canonical := range meta.Repos {
		canonical := canonical

		g.Go(func() error {
			dirName, err := meta.DirName(canonical)
			if err != nil {
				results <- result{canonical: canonical, err: err}
				return nil
			}

			dest := filepath.Join(wsDir, dirName)
			err = l.Engine.FetchRemote(gctx, dest, "wsp-mirror", false)
			results <- result{canonical: canonical, err: err}

			return nil
		})
	}

	_ = g.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", r.canonical, r.err))
		}
	}

	return warnings
}
