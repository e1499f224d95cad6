// Package safety classifies a workspace branch against a target branch
// before any destructive operation, using three independent detectors
// plus a remote-existence check, applied in a fixed order.
package safety

import (
	"context"

	"github.com/wspcli/wsp/internal/gitrun"
)

// Classification is the four-variant branch-safety verdict.
type Classification string

// Classification values, ordered from safest to least safe.
const (
	Merged         Classification = "Merged"
	SquashMerged   Classification = "SquashMerged"
	PushedToRemote Classification = "PushedToRemote"
	Unmerged       Classification = "Unmerged"
)

// Checker evaluates branch safety using a gitrun.Engine.
type Checker struct {
	Engine *gitrun.Engine
}

// New returns a Checker backed by engine.
func New(engine *gitrun.Engine) *Checker {
	return &Checker{Engine: engine}
}

// Classify evaluates branch against target in clone_dir, trying each
// detector in order and treating any detector error as a negative result
// so classification itself never fails.
func (c *Checker) Classify(ctx context.Context, dir, branch, target string) Classification {
	if ancestor, err := c.Engine.IsAncestor(ctx, dir, branch, target); err == nil && ancestor {
		return Merged
	}

	if merged, err := c.Engine.PatchIDMerged(ctx, dir, branch, target); err == nil && merged {
		return SquashMerged
	}

	if c.contentIdentical(ctx, dir, branch, target) {
		return SquashMerged
	}

	if c.Engine.RemoteBranchExists(ctx, dir, "origin", branch) {
		return PushedToRemote
	}

	return Unmerged
}

// contentIdentical implements detector 3: the files changed on branch
// since merge_base(branch, target) must be byte-identical between target
// and branch. Any error along the way is a negative (not merged) result.
func (c *Checker) contentIdentical(ctx context.Context, dir, branch, target string) bool {
	base, err := c.Engine.MergeBase(ctx, dir, branch, target)
	if err != nil {
		return false
	}

	files, err := c.Engine.ChangedFiles(ctx, dir, base, branch)
	if err != nil {
		return false
	}

	identical, err := c.Engine.ContentIdentical(ctx, dir, target, branch, files)
	if err != nil {
		return false
	}

	return identical
}

// IsSafeToRemove reports whether a classification permits removal without
// --force, and the explanatory phrase to surface when it does not.
func IsSafeToRemove(c Classification) (safe bool, reason string) {
	switch c {
	case Merged, SquashMerged:
		return true, ""
	case PushedToRemote:
		return false, "unmerged branch, but pushed to remote"
	default:
		return false, "unmerged branch"
	}
}
