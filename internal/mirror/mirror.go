// Package mirror maintains the bare git mirrors that back every workspace
// clone, one per registered identity, shared across workspaces.
package mirror

import (
	"context"
	"os"
	"path/filepath"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/identity"
)

// Manager owns the mirrors directory and delegates the actual git work to
// a gitrun.Engine.
type Manager struct {
	Root   string
	Engine *gitrun.Engine
}

// New returns a Manager rooted at root.
func New(root string, engine *gitrun.Engine) *Manager {
	return &Manager{Root: root, Engine: engine}
}

// Path returns the on-disk path of an identity's mirror.
func (m *Manager) Path(id identity.Identity) string {
	return gitrun.MirrorPath(m.Root, id.Host, id.Owner, id.Repo)
}

// Exists reports whether a mirror has already been cloned for id.
func (m *Manager) Exists(id identity.Identity) bool {
	info, err := os.Stat(m.Path(id))
	return err == nil && info.IsDir()
}

// Clone bare-clones url into the mirror path for id, creating parent
// directories as needed, and configures the canonical refspec.
func (m *Manager) Clone(ctx context.Context, id identity.Identity, url string) error {
	path := m.Path(id)

	if m.Exists(id) {
		return cerrors.NewConflict("mirror already exists for " + id.Canonical())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cerrors.NewIO("create mirror parent directory", err)
	}

	if err := m.Engine.BareClone(ctx, url, path); err != nil {
		_ = os.RemoveAll(path)
		return err
	}

	return nil
}

// Fetch updates the mirror for id, repairing its refspec if needed.
func (m *Manager) Fetch(ctx context.Context, id identity.Identity) error {
	if !m.Exists(id) {
		return cerrors.NewNotFound("mirror", id.Canonical())
	}

	return m.Engine.Fetch(ctx, m.Path(id), false)
}

// Remove deletes the mirror directory tree for id.
func (m *Manager) Remove(id identity.Identity) error {
	if !m.Exists(id) {
		return cerrors.NewNotFound("mirror", id.Canonical())
	}

	if err := os.RemoveAll(m.Path(id)); err != nil {
		return cerrors.NewIO("remove mirror directory", err)
	}

	return nil
}
