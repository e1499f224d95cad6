// Package batch implements the read-side (status, diff) and push-side
// batch operations that run independently across every repo in a
// workspace, in metadata order.
package batch

import (
	"context"
	"path/filepath"

	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/metadata"
)

// RepoStatus is a single repo's row in a `status` result.
type RepoStatus struct {
	Identity string
	Pin      string
	Branch   string
	Changed  int
	Ahead    int
	Behind   int
	Error    string
}

// Status runs over every repo in meta, in metadata order, and reports its
// checked-out ref, dirty-file count, and ahead/behind counts against
// origin's default branch for active repos, or against origin/<pin> for
// context repos when that remote branch exists (no counts otherwise).
func Status(ctx context.Context, wsDir string, meta *metadata.Workspace, engine *gitrun.Engine) []RepoStatus {
	identities := meta.SortedIdentities()
	rows := make([]RepoStatus, 0, len(identities))

	for _, canonical := range identities {
		rows = append(rows, statusOne(ctx, wsDir, meta, canonical, engine))
	}

	return rows
}

func statusOne(ctx context.Context, wsDir string, meta *metadata.Workspace, canonical string, engine *gitrun.Engine) RepoStatus {
	row := RepoStatus{Identity: canonical}

	dirName, err := meta.DirName(canonical)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	dest := filepath.Join(wsDir, dirName)

	pin := meta.Ref(canonical)
	row.Pin = pin

	branch, err := engine.CurrentBranch(ctx, dest)
	if err == nil {
		row.Branch = branch
	} else if pin != "" {
		row.Branch = pin
	}

	changed, err := engine.ChangedFileCount(ctx, dest)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	row.Changed = changed

	target, err := statusTarget(ctx, dest, pin, engine)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	if target == "" {
		return row
	}

	ahead, err := engine.CommitCount(ctx, dest, target, "HEAD")
	if err != nil {
		row.Error = err.Error()
		return row
	}

	behind, err := engine.CommitCount(ctx, dest, "HEAD", target)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	row.Ahead = ahead
	row.Behind = behind

	return row
}

// statusTarget resolves the comparison ref for a repo: a pinned context
// ref's tracked remote branch if one exists, otherwise origin's default
// branch for active repos. An empty result (no error) means there is
// nothing meaningful to compare against (e.g. a detached tag pin).
func statusTarget(ctx context.Context, dest, pin string, engine *gitrun.Engine) (string, error) {
	if pin != "" {
		remote := "origin/" + pin
		if engine.RefExists(ctx, dest, remote) {
			return remote, nil
		}

		return "", nil
	}

	defaultBranch, err := engine.DefaultBranch(ctx, dest, "origin")
	if err != nil {
		return "", err
	}

	return "origin/" + defaultBranch, nil
}
