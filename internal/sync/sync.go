// Package sync implements the two-phase workspace sync engine: a parallel
// fetch phase followed by a serial per-repo rebase or merge phase.
package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/metadata"
)

// Strategy selects the reconciliation method for active repos.
type Strategy string

// Supported strategies.
const (
	StrategyRebase Strategy = "rebase"
	StrategyMerge  Strategy = "merge"
)

// OutcomeStatus classifies a single repo's phase-2 result.
type OutcomeStatus string

// Outcome statuses.
const (
	StatusUpToDate    OutcomeStatus = "up-to-date"
	StatusFastForward OutcomeStatus = "fast-forward"
	StatusRebased     OutcomeStatus = "rebased"
	StatusMerged      OutcomeStatus = "merged"
	StatusDetached    OutcomeStatus = "detached"
	StatusDryRun      OutcomeStatus = "dry-run"
	StatusSkipped     OutcomeStatus = "skipped"
	StatusError       OutcomeStatus = "error"
)

// Outcome is the per-repo result of a sync run.
type Outcome struct {
	Identity    string
	Status      OutcomeStatus
	Detail      string
	Commits     int
	FetchFailed bool
}

// Result aggregates every repo's outcome plus the overall failure tally.
type Result struct {
	Outcomes []Outcome
	Failures int
}

// Engine runs sync phases against a gitrun.Engine.
type Engine struct {
	Git *gitrun.Engine
}

// New returns an Engine backed by git.
func New(git *gitrun.Engine) *Engine {
	return &Engine{Git: git}
}

// Sync runs phase 1 (parallel fetch, skipped under dryRun) followed by
// phase 2 (serial rebase/merge) over every repo in meta, in metadata
// iteration order.
func (e *Engine) Sync(ctx context.Context, wsDir string, meta *metadata.Workspace, strategy Strategy, dryRun bool) *Result {
	if strategy == "" {
		strategy = StrategyRebase
	}

	identities := meta.SortedIdentities()

	fetchFailed := make(map[string]bool, len(identities))
	if !dryRun {
		fetchFailed = e.parallelFetch(ctx, wsDir, meta, identities)
	}

	result := &Result{}

	for _, canonical := range identities {
		outcome := e.syncOne(ctx, wsDir, meta, canonical, strategy, dryRun, fetchFailed[canonical])
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Status == StatusError {
			result.Failures++
		}
	}

	return result
}

// parallelFetch runs "git fetch --prune origin" for every repo concurrently
// and returns the set of identities whose fetch failed. Progress lines are
// serialized behind a single mutex so they never interleave mid-line.
func (e *Engine) parallelFetch(ctx context.Context, wsDir string, meta *metadata.Workspace, identities []string) map[string]bool {
	failed := make(map[string]bool, len(identities))

	var (
		mu         sync.Mutex
		progressMu sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, canonical := range identities {
		canonical := canonical

		dirName, err := meta.DirName(canonical)
		if err != nil {
			mu.Lock()
			failed[canonical] = true
			mu.Unlock()

			continue
		}

		dest := filepath.Join(wsDir, dirName)

		g.Go(func() error {
			err := e.Git.Fetch(gctx, dest, true)

			progressMu.Lock()
			if err != nil {
				log.Warn("fetch failed", "repo", canonical, "error", err)
			} else {
				log.Debug("fetched", "repo", canonical)
			}
			progressMu.Unlock()

			if err != nil {
				mu.Lock()
				failed[canonical] = true
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return failed
}

func (e *Engine) syncOne(ctx context.Context, wsDir string, meta *metadata.Workspace, canonical string, strategy Strategy, dryRun, fetchFailed bool) Outcome {
	dirName, err := meta.DirName(canonical)
	if err != nil {
		return Outcome{Identity: canonical, Status: StatusError, Detail: err.Error()}
	}

	dest := filepath.Join(wsDir, dirName)
	ref := meta.Ref(canonical)

	var outcome Outcome
	if ref != "" {
		outcome = e.syncContext(ctx, dest, canonical, ref)
	} else {
		outcome = e.syncActive(ctx, dest, canonical, strategy, dryRun)
	}

	outcome.FetchFailed = fetchFailed
	if fetchFailed && outcome.Status != StatusError {
		outcome.Detail = appendParen(outcome.Detail, "fetch failed, data may be stale")
	}

	return outcome
}

func appendParen(detail, note string) string {
	if detail == "" {
		return "(" + note + ")"
	}

	return detail + " (" + note + ")"
}

// syncContext handles a pinned (non-active) repo: tracked branch merge if
// the pin resolves to a remote branch, otherwise a detached checkout.
func (e *Engine) syncContext(ctx context.Context, dest, canonical, ref string) Outcome {
	target := "origin/" + ref

	if e.Git.RefExists(ctx, dest, target) {
		action, err := e.Git.MergeFrom(ctx, dest, target)
		if err != nil {
			return Outcome{Identity: canonical, Status: StatusError, Detail: err.Error()}
		}

		return Outcome{Identity: canonical, Status: statusFromAction(action.Kind), Commits: action.Commits}
	}

	if _, err := e.Git.Run(ctx, dest, []string{"checkout", "--detach", ref}, nil); err != nil {
		return Outcome{Identity: canonical, Status: StatusError, Detail: err.Error()}
	}

	return Outcome{Identity: canonical, Status: StatusDetached, Detail: ref}
}

// syncActive handles an active (unpinned) repo against origin's default
// branch: dirty check, dry-run reporting, then rebase or merge.
func (e *Engine) syncActive(ctx context.Context, dest, canonical string, strategy Strategy, dryRun bool) Outcome {
	defaultBranch, err := e.Git.DefaultBranch(ctx, dest, "origin")
	if err != nil {
		return Outcome{Identity: canonical, Status: StatusError, Detail: "cannot resolve default branch: " + err.Error()}
	}

	target := "origin/" + defaultBranch

	changed, err := e.Git.ChangedFileCount(ctx, dest)
	if err != nil {
		return Outcome{Identity: canonical, Status: StatusError, Detail: err.Error()}
	}

	if changed > 0 {
		return Outcome{Identity: canonical, Status: StatusError, Detail: "uncommitted changes"}
	}

	if dryRun {
		return e.dryRunReport(ctx, dest, canonical, target)
	}

	var action gitrun.SyncAction

	switch strategy {
	case StrategyMerge:
		action, err = e.Git.MergeFrom(ctx, dest, target)
	default:
		action, err = e.Git.RebaseOnto(ctx, dest, target)
	}

	if err != nil {
		return Outcome{Identity: canonical, Status: StatusError, Detail: err.Error()}
	}

	return Outcome{Identity: canonical, Status: statusFromAction(action.Kind), Commits: action.Commits}
}

func (e *Engine) dryRunReport(ctx context.Context, dest, canonical, target string) Outcome {
	behind, errBehind := e.Git.CommitCount(ctx, dest, "HEAD", target)
	ahead, errAhead := e.Git.CommitCount(ctx, dest, target, "HEAD")

	if errBehind != nil || errAhead != nil {
		return Outcome{Identity: canonical, Status: StatusError, Detail: "cannot compute commit counts"}
	}

	if behind == 0 && ahead == 0 {
		return Outcome{Identity: canonical, Status: StatusDryRun, Detail: "already up to date"}
	}

	return Outcome{
		Identity: canonical,
		Status:   StatusDryRun,
		Detail:   fmt.Sprintf("%d behind, %d ahead", behind, ahead),
	}
}

func statusFromAction(kind gitrun.SyncActionKind) OutcomeStatus {
	switch kind {
	case gitrun.SyncUpToDate:
		return StatusUpToDate
	case gitrun.SyncFastForward:
		return StatusFastForward
	case gitrun.SyncRebased:
		return StatusRebased
	case gitrun.SyncMerged:
		return StatusMerged
	default:
		return StatusError
	}
}
