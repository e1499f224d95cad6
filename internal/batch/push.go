package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/metadata"
)

// PushStatus classifies a single repo's push outcome.
type PushStatus string

// Push statuses.
const (
	PushPushed  PushStatus = "pushed"
	PushNothing PushStatus = "nothing-to-push"
	PushDryRun  PushStatus = "dry-run"
	PushSkipped PushStatus = "skipped"
	PushError   PushStatus = "error"
)

// RepoPush is a single repo's row in a `push` result.
type RepoPush struct {
	Identity string
	Status   PushStatus
	Detail   string
	Commits  int
}

// Push pushes every active repo's current branch to origin, refusing (per
// repo) to push the default branch itself. Context repos are reported as
// skipped.
func Push(ctx context.Context, wsDir string, meta *metadata.Workspace, engine *gitrun.Engine, forceWithLease, dryRun bool) []RepoPush {
	identities := meta.SortedIdentities()
	rows := make([]RepoPush, 0, len(identities))

	for _, canonical := range identities {
		rows = append(rows, pushOne(ctx, wsDir, meta, canonical, engine, forceWithLease, dryRun))
	}

	return rows
}

func pushOne(ctx context.Context, wsDir string, meta *metadata.Workspace, canonical string, engine *gitrun.Engine, forceWithLease, dryRun bool) RepoPush {
	row := RepoPush{Identity: canonical}

	pin := meta.Ref(canonical)
	if pin != "" {
		row.Status = PushSkipped
		row.Detail = fmt.Sprintf("skipped (context @%s)", pin)

		return row
	}

	dirName, err := meta.DirName(canonical)
	if err != nil {
		row.Status = PushError
		row.Detail = err.Error()

		return row
	}

	dest := filepath.Join(wsDir, dirName)

	currentBranch, err := engine.CurrentBranch(ctx, dest)
	if err != nil {
		row.Status = PushError
		row.Detail = err.Error()

		return row
	}

	defaultBranch, err := engine.DefaultBranch(ctx, dest, "origin")
	if err != nil {
		row.Status = PushError
		row.Detail = "cannot resolve default branch: " + err.Error()

		return row
	}

	if currentBranch == defaultBranch {
		row.Status = PushError
		row.Detail = "refusing to push the default branch"

		return row
	}

	upstream, err := engine.ResolveUpstream(ctx, dest)
	if err != nil {
		row.Status = PushError
		row.Detail = err.Error()

		return row
	}

	if upstream.Kind == gitrun.UpstreamHEAD {
		row.Status = PushError
		row.Detail = "cannot determine upstream"

		return row
	}

	ahead, err := engine.AheadCount(ctx, dest)
	if err != nil {
		row.Status = PushError
		row.Detail = err.Error()

		return row
	}

	needsUpstream := upstream.Kind != gitrun.UpstreamTracking || !engine.RemoteBranchExists(ctx, dest, "origin", currentBranch)

	if ahead == 0 {
		row.Status = PushNothing
		row.Detail = "nothing to push"

		return row
	}

	row.Commits = ahead

	if dryRun {
		row.Status = PushDryRun

		if needsUpstream {
			row.Detail = fmt.Sprintf("%d commit(s) to push, will set upstream", ahead)
		} else {
			row.Detail = fmt.Sprintf("%d commit(s) to push", ahead)
		}

		return row
	}

	if err := engine.Push(ctx, dest, "origin", currentBranch, needsUpstream, forceWithLease); err != nil {
		row.Status = PushError
		row.Detail = err.Error()

		return row
	}

	row.Status = PushPushed
	row.Detail = fmt.Sprintf("pushed %d commit(s)", ahead)

	return row
}
