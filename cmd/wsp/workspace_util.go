package main

import (
	"os"
	"path/filepath"

	"github.com/wspcli/wsp/internal/app"
	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/metadata"
)

// resolveWorkspaceDir locates a workspace's root directory: by name under
// the configured workspaces root when name is non-empty, otherwise by
// walking up from the current directory looking for ".wsp.yaml" (see
// metadata.Detect).
func resolveWorkspaceDir(a *app.App, name string) (string, error) {
	if name != "" {
		dir := filepath.Join(a.Config.WorkspacesRoot, name)

		if _, err := os.Stat(metadata.Path(dir)); err != nil {
			return "", cerrors.NewNotFound("workspace", name)
		}

		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", cerrors.NewIO("get current directory", err)
	}

	return metadata.Detect(cwd)
}

// loadWorkspace resolves and loads a workspace's metadata in one step.
func loadWorkspace(a *app.App, name string) (string, *metadata.Workspace, error) {
	dir, err := resolveWorkspaceDir(a, name)
	if err != nil {
		return "", nil, err
	}

	meta, err := metadata.Load(dir)
	if err != nil {
		return "", nil, err
	}

	return dir, meta, nil
}
