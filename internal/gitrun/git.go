// Package gitrun is a thin, typed wrapper over the git command-line tool.
//
// Every operation ultimately funnels through Run, which launches git with
// an explicit working directory and argument list. Interactive operations
// (rebase, merge conflict resolution, squash-merge detection via
// commit-tree/cherry) have no pure-Go equivalent in the ecosystem — see
// DESIGN.md for why this package shells out instead of using go-git.
package gitrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/logging"
)

// DefaultNetworkTimeout bounds clone/fetch/push invocations.
const DefaultNetworkTimeout = 5 * time.Minute

// DefaultLocalTimeout bounds local-only invocations (status, ref lookups).
const DefaultLocalTimeout = 30 * time.Second

// MirrorRefspec is the canonical fetch refspec every mirror is configured
// with: refs/heads/* on the remote become refs/remotes/origin/* locally.
const MirrorRefspec = "+refs/heads/*:refs/remotes/origin/*"

// CloneMirrorRefspec is the refspec a workspace clone's wsp-mirror remote
// uses to pull the mirror's already-fetched remote-tracking refs.
const CloneMirrorRefspec = "+refs/remotes/origin/*:refs/remotes/wsp-mirror/*"

// syntheticAuthorEnv is the fixed author/committer identity used for the
// detached commit-tree built during patch-id merge detection; git refuses
// to create a commit without *some* identity configured.
var syntheticAuthorEnv = []string{
	"GIT_AUTHOR_NAME=wsp",
	"GIT_AUTHOR_EMAIL=wsp@localhost",
	"GIT_COMMITTER_NAME=wsp",
	"GIT_COMMITTER_EMAIL=wsp@localhost",
}

// Engine runs git subcommands against working directories, retrying
// network operations per RetryConfig.
type Engine struct {
	RetryConfig RetryConfig
}

// New returns an Engine with the default retry configuration.
func New() *Engine {
	return &Engine{RetryConfig: DefaultRetryConfig()}
}

// Run is the adapter's single primitive: it executes git with the given
// working directory, arguments, and additional environment variables. A
// non-zero exit produces a SUBPROCESS WspError carrying the command,
// directory, status, and trimmed stderr. Both the command and the stderr
// are redacted before they enter the error: clone/fetch/remote arguments
// can carry URLs with embedded credentials.
func (e *Engine) Run(ctx context.Context, dir string, args []string, env []string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //nolint:gosec // args are always separate parameters, never shell-interpolated
	cmd.Dir = dir

	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	command := logging.RedactSensitive(strings.Join(args, " "))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
		return "", cerrors.NewSubprocess(command, dir, -1, ctx.Err().Error())
	}

	status := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status = exitErr.ExitCode()
	}

	return "", cerrors.NewSubprocess(command, dir, status, logging.RedactSensitive(strings.TrimSpace(stderr.String())))
}

func (e *Engine) runWithTimeout(ctx context.Context, timeout time.Duration, dir string, args []string, env []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Run(ctx, dir, args, env)
}

// BareClone clones url as a bare repository at dest and configures the
// canonical mirror refspec.
func (e *Engine) BareClone(ctx context.Context, url, dest string) error {
	_, err := WithRetry(ctx, e.RetryConfig, func() (string, error) {
		return e.runWithTimeout(ctx, DefaultNetworkTimeout, "", []string{"clone", "--bare", url, dest}, nil)
	})
	if err != nil {
		return err
	}

	return e.EnsureMirrorRefspec(ctx, dest)
}

// EnsureMirrorRefspec sets remote.origin.fetch to the canonical mirror
// refspec; idempotent.
func (e *Engine) EnsureMirrorRefspec(ctx context.Context, dir string) error {
	_, err := e.Run(ctx, dir, []string{"config", "--replace-all", "remote.origin.fetch", MirrorRefspec}, nil)
	return err
}

// Fetch repairs the refspec before fetching origin, optionally pruning.
func (e *Engine) Fetch(ctx context.Context, dir string, prune bool) error {
	if err := e.EnsureMirrorRefspec(ctx, dir); err != nil {
		return err
	}

	args := []string{"fetch", "origin"}
	if prune {
		args = []string{"fetch", "--prune", "origin"}
	}

	_, err := WithRetry(ctx, e.RetryConfig, func() (string, error) {
		return e.runWithTimeout(ctx, DefaultNetworkTimeout, dir, args, nil)
	})

	return err
}

// FetchRemote fetches an arbitrary named remote (used for wsp-mirror,
// which is local and never needs network retry).
func (e *Engine) FetchRemote(ctx context.Context, dir, remote string, prune bool) error {
	args := []string{"fetch", remote}
	if prune {
		args = []string{"fetch", "--prune", remote}
	}

	_, err := e.runWithTimeout(ctx, DefaultLocalTimeout, dir, args, nil)

	return err
}

// CloneFromMirror performs a local, hardlinked clone from the bare mirror
// into dest, naming the remote wsp-mirror.
func (e *Engine) CloneFromMirror(ctx context.Context, mirrorPath, dest string) error {
	_, err := e.runWithTimeout(ctx, DefaultLocalTimeout, "", []string{"clone", "--origin", "wsp-mirror", mirrorPath, dest}, nil)
	return err
}

// EnsureCloneMirrorRefspec configures the wsp-mirror remote's refspec to
// pull the mirror's already-fetched remote-tracking refs.
func (e *Engine) EnsureCloneMirrorRefspec(ctx context.Context, dir string) error {
	_, err := e.Run(ctx, dir, []string{"config", "--replace-all", "remote.wsp-mirror.fetch", CloneMirrorRefspec}, nil)
	return err
}

// SetRemoteURL sets or replaces a remote's URL, adding the remote first
// if it does not already exist.
func (e *Engine) SetRemoteURL(ctx context.Context, dir, remote, url string) error {
	if _, err := e.Run(ctx, dir, []string{"remote", "set-url", remote, url}, nil); err != nil {
		_, addErr := e.Run(ctx, dir, []string{"remote", "add", remote, url}, nil)
		return addErr
	}

	return nil
}

// DefaultBranch resolves a remote's default branch: prefer the remote's
// HEAD symbolic ref, falling back to the repo's own HEAD. Returns the
// last path component (e.g. "main").
func (e *Engine) DefaultBranch(ctx context.Context, dir, remote string) (string, error) {
	out, err := e.Run(ctx, dir, []string{"symbolic-ref", fmt.Sprintf("refs/remotes/%s/HEAD", remote)}, nil)
	if err == nil {
		return lastPathComponent(out), nil
	}

	out, err = e.Run(ctx, dir, []string{"symbolic-ref", "HEAD"}, nil)
	if err != nil {
		return "", cerrors.NewNotFound("default branch", dir)
	}

	return lastPathComponent(out), nil
}

func lastPathComponent(ref string) string {
	ref = strings.TrimSpace(ref)
	segments := strings.Split(ref, "/")

	return segments[len(segments)-1]
}

// CurrentBranch returns the checked-out branch name; fails on detached HEAD.
func (e *Engine) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := e.Run(ctx, dir, []string{"symbolic-ref", "--short", "HEAD"}, nil)
	if err != nil {
		return "", cerrors.NewConflict("HEAD is detached")
	}

	return strings.TrimSpace(out), nil
}

// RefExists reports whether ref resolves to a commit.
func (e *Engine) RefExists(ctx context.Context, dir, ref string) bool {
	_, err := e.Run(ctx, dir, []string{"rev-parse", "--verify", "--quiet", ref}, nil)
	return err == nil
}

// BranchExists reports whether a local branch exists.
func (e *Engine) BranchExists(ctx context.Context, dir, branch string) bool {
	return e.RefExists(ctx, dir, "refs/heads/"+branch)
}

// RemoteBranchExists reports whether a remote-tracking branch exists.
func (e *Engine) RemoteBranchExists(ctx context.Context, dir, remote, branch string) bool {
	return e.RefExists(ctx, dir, fmt.Sprintf("refs/remotes/%s/%s", remote, branch))
}

// MergeBase returns the merge base of two revisions.
func (e *Engine) MergeBase(ctx context.Context, dir, a, b string) (string, error) {
	out, err := e.Run(ctx, dir, []string{"merge-base", a, b}, nil)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// CommitCount returns the number of commits in (from, to].
func (e *Engine) CommitCount(ctx context.Context, dir, from, to string) (int, error) {
	out, err := e.Run(ctx, dir, []string{"rev-list", "--count", from + ".." + to}, nil)
	if err != nil {
		return 0, err
	}

	n, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil {
		return 0, cerrors.NewInternal("parse commit count", convErr)
	}

	return n, nil
}

// IsAncestor reports whether branch is an ancestor of target, distinguishing
// the "no" exit status (1) from a genuine error.
func (e *Engine) IsAncestor(ctx context.Context, dir, branch, target string) (bool, error) {
	_, err := e.Run(ctx, dir, []string{"merge-base", "--is-ancestor", branch, target}, nil)
	if err == nil {
		return true, nil
	}

	var werr *cerrors.WspError
	if errors.As(err, &werr) {
		var serr *cerrors.SubprocessError
		if errors.As(werr, &serr) && serr.Status == 1 {
			return false, nil
		}
	}

	return false, err
}

// PatchIDMerged implements the detached patch-id merge detector: it builds
// a synthetic commit with the branch's tree on top of merge_base, using a
// fixed author/committer identity, then asks `git cherry` whether that
// commit is already present in target (a leading "-" means yes).
func (e *Engine) PatchIDMerged(ctx context.Context, dir, branch, target string) (bool, error) {
	base, err := e.MergeBase(ctx, dir, branch, target)
	if err != nil {
		return false, err
	}

	treeOut, err := e.Run(ctx, dir, []string{"rev-parse", branch + "^{tree}"}, nil)
	if err != nil {
		return false, err
	}

	tree := strings.TrimSpace(treeOut)

	commitOut, err := e.Run(ctx, dir, []string{"commit-tree", tree, "-p", base, "-m", "wsp synthetic patch-id commit"}, syntheticAuthorEnv)
	if err != nil {
		return false, err
	}

	synthetic := strings.TrimSpace(commitOut)

	cherryOut, err := e.Run(ctx, dir, []string{"cherry", target, synthetic}, nil)
	if err != nil {
		return false, err
	}

	return strings.HasPrefix(strings.TrimSpace(cherryOut), "-"), nil
}

// ChangedFiles lists files that differ between two revisions.
func (e *Engine) ChangedFiles(ctx context.Context, dir, from, to string) ([]string, error) {
	out, err := e.Run(ctx, dir, []string{"diff", "--name-only", from, to}, nil)
	if err != nil {
		return nil, err
	}

	return splitNonEmptyLines(out), nil
}

// ContentIdentical implements the content-identity merge detector: given
// the set of files changed on branch since merge_base(branch, target), it
// reports whether those files are byte-identical between target and
// branch (`git diff --quiet` exits 0 when there is no difference).
func (e *Engine) ContentIdentical(ctx context.Context, dir, target, branch string, files []string) (bool, error) {
	if len(files) == 0 {
		return true, nil
	}

	args := append([]string{"diff", "--quiet", target, branch, "--"}, files...)

	_, err := e.Run(ctx, dir, args, nil)
	if err == nil {
		return true, nil
	}

	var werr *cerrors.WspError
	if errors.As(err, &werr) {
		var serr *cerrors.SubprocessError
		if errors.As(werr, &serr) && serr.Status == 1 {
			return false, nil
		}
	}

	return false, err
}

// SyncAction is the typed result of a rebase or merge attempt.
type SyncAction struct {
	Kind    SyncActionKind
	Commits int
}

// SyncActionKind enumerates the possible sync outcomes.
type SyncActionKind string

// Sync action kinds.
const (
	SyncUpToDate    SyncActionKind = "UpToDate"
	SyncFastForward SyncActionKind = "FastForward"
	SyncRebased     SyncActionKind = "Rebased"
	SyncMerged      SyncActionKind = "Merged"
)

// RebaseOnto rebases HEAD onto target, aborting cleanly on conflict.
func (e *Engine) RebaseOnto(ctx context.Context, dir, target string) (SyncAction, error) {
	head, err := e.Run(ctx, dir, []string{"rev-parse", "HEAD"}, nil)
	if err != nil {
		return SyncAction{}, err
	}

	targetSHA, err := e.Run(ctx, dir, []string{"rev-parse", target}, nil)
	if err != nil {
		return SyncAction{}, err
	}

	if strings.TrimSpace(head) == strings.TrimSpace(targetSHA) {
		return SyncAction{Kind: SyncUpToDate}, nil
	}

	ancestor, err := e.IsAncestor(ctx, dir, target, "HEAD")
	if err != nil {
		return SyncAction{}, err
	}

	if ancestor {
		return SyncAction{Kind: SyncUpToDate}, nil
	}

	ff, err := e.IsAncestor(ctx, dir, "HEAD", target)
	if err != nil {
		return SyncAction{}, err
	}

	if ff {
		commits, err := e.CommitCount(ctx, dir, "HEAD", target)
		if err != nil {
			return SyncAction{}, err
		}

		if _, err := e.Run(ctx, dir, []string{"rebase", target}, nil); err != nil {
			return SyncAction{}, err
		}

		return SyncAction{Kind: SyncFastForward, Commits: commits}, nil
	}

	base, err := e.MergeBase(ctx, dir, "HEAD", target)
	if err != nil {
		return SyncAction{}, err
	}

	commits, err := e.CommitCount(ctx, dir, base, strings.TrimSpace(head))
	if err != nil {
		return SyncAction{}, err
	}

	if _, err := e.Run(ctx, dir, []string{"rebase", target}, nil); err != nil {
		if _, abortErr := e.Run(ctx, dir, []string{"rebase", "--abort"}, nil); abortErr != nil {
			return SyncAction{}, cerrors.NewInternal("rebase --abort failed after rebase conflict", abortErr)
		}

		return SyncAction{}, cerrors.NewConflict("aborted, repo unchanged")
	}

	return SyncAction{Kind: SyncRebased, Commits: commits}, nil
}

// MergeFrom merges target into HEAD, aborting cleanly on conflict.
func (e *Engine) MergeFrom(ctx context.Context, dir, target string) (SyncAction, error) {
	head, err := e.Run(ctx, dir, []string{"rev-parse", "HEAD"}, nil)
	if err != nil {
		return SyncAction{}, err
	}

	targetSHA, err := e.Run(ctx, dir, []string{"rev-parse", target}, nil)
	if err != nil {
		return SyncAction{}, err
	}

	if strings.TrimSpace(head) == strings.TrimSpace(targetSHA) {
		return SyncAction{Kind: SyncUpToDate}, nil
	}

	ancestor, err := e.IsAncestor(ctx, dir, target, "HEAD")
	if err != nil {
		return SyncAction{}, err
	}

	if ancestor {
		return SyncAction{Kind: SyncUpToDate}, nil
	}

	ff, err := e.IsAncestor(ctx, dir, "HEAD", target)
	if err != nil {
		return SyncAction{}, err
	}

	var commits int
	if ff {
		commits, err = e.CommitCount(ctx, dir, "HEAD", target)
		if err != nil {
			return SyncAction{}, err
		}
	}

	if _, err := e.Run(ctx, dir, []string{"merge", target, "--no-edit"}, nil); err != nil {
		if _, abortErr := e.Run(ctx, dir, []string{"merge", "--abort"}, nil); abortErr != nil {
			return SyncAction{}, cerrors.NewInternal("merge --abort failed after merge conflict", abortErr)
		}

		return SyncAction{}, cerrors.NewConflict("aborted, repo unchanged")
	}

	if ff {
		return SyncAction{Kind: SyncFastForward, Commits: commits}, nil
	}

	return SyncAction{Kind: SyncMerged}, nil
}

// Push pushes branch to remote, optionally setting upstream or using
// --force-with-lease.
func (e *Engine) Push(ctx context.Context, dir, remote, branch string, setUpstream, forceWithLease bool) error {
	args := []string{"push"}

	if forceWithLease {
		args = append(args, "--force-with-lease")
	}

	if setUpstream {
		args = append(args, "--set-upstream")
	}

	args = append(args, remote, branch)

	_, err := WithRetry(ctx, e.RetryConfig, func() (string, error) {
		return e.runWithTimeout(ctx, DefaultNetworkTimeout, dir, args, nil)
	})

	return err
}

// Upstream is the three-variant result of resolving a branch's upstream.
type Upstream struct {
	Kind UpstreamKind
	Ref  string
}

// UpstreamKind enumerates the possible upstream resolutions.
type UpstreamKind string

// Upstream resolution kinds.
const (
	UpstreamTracking UpstreamKind = "tracking"
	UpstreamOrigin   UpstreamKind = "origin-default"
	UpstreamHEAD     UpstreamKind = "head"
)

// ResolveUpstream probes @{upstream} first, falls back to origin/<default>,
// and finally HEAD.
func (e *Engine) ResolveUpstream(ctx context.Context, dir string) (Upstream, error) {
	if out, err := e.Run(ctx, dir, []string{"rev-parse", "--abbrev-ref", "@{upstream}"}, nil); err == nil {
		return Upstream{Kind: UpstreamTracking, Ref: strings.TrimSpace(out)}, nil
	}

	defaultBranch, err := e.DefaultBranch(ctx, dir, "origin")
	if err == nil {
		ref := "origin/" + defaultBranch
		if e.RefExists(ctx, dir, ref) {
			return Upstream{Kind: UpstreamOrigin, Ref: ref}, nil
		}
	}

	return Upstream{Kind: UpstreamHEAD, Ref: "HEAD"}, nil
}

// AheadCount returns the number of commits HEAD is ahead of the resolved
// upstream; 0 when the upstream variant is HEAD itself.
func (e *Engine) AheadCount(ctx context.Context, dir string) (int, error) {
	upstream, err := e.ResolveUpstream(ctx, dir)
	if err != nil {
		return 0, err
	}

	if upstream.Kind == UpstreamHEAD {
		return 0, nil
	}

	return e.CommitCount(ctx, dir, upstream.Ref, "HEAD")
}

// ChangedFileCount returns the number of short-status lines, i.e. how
// dirty the working tree is.
func (e *Engine) ChangedFileCount(ctx context.Context, dir string) (int, error) {
	out, err := e.Run(ctx, dir, []string{"status", "--porcelain"}, nil)
	if err != nil {
		return 0, err
	}

	return len(splitNonEmptyLines(out)), nil
}

func splitNonEmptyLines(s string) []string {
	var lines []string

	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// MirrorPath computes the on-disk path for a mirror given its root and
// (host, owner, repo) segments.
func MirrorPath(mirrorsRoot, host, owner, repo string) string {
	return filepath.Join(mirrorsRoot, host, owner, repo+".git")
}
