package batch

import (
	"context"
	"path/filepath"

	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/metadata"
)

// RepoDiff is a single repo's working-tree diff output.
type RepoDiff struct {
	Identity string
	Output   string
	Error    string
}

// Diff runs "git diff <extraArgs...>" in every repo's clone directory, in
// metadata order. extraArgs lets the caller scope the diff, e.g. to a
// path ("-- path/to/file").
func Diff(ctx context.Context, wsDir string, meta *metadata.Workspace, engine *gitrun.Engine, extraArgs []string) []RepoDiff {
	identities := meta.SortedIdentities()
	rows := make([]RepoDiff, 0, len(identities))

	for _, canonical := range identities {
		rows = append(rows, diffOne(ctx, wsDir, meta, canonical, engine, extraArgs))
	}

	return rows
}

func diffOne(ctx context.Context, wsDir string, meta *metadata.Workspace, canonical string, engine *gitrun.Engine, extraArgs []string) RepoDiff {
	row := RepoDiff{Identity: canonical}

	dirName, err := meta.DirName(canonical)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	dest := filepath.Join(wsDir, dirName)

	args := append([]string{"diff"}, extraArgs...)

	out, err := engine.Run(ctx, dest, args, nil)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	row.Output = out

	return row
}
