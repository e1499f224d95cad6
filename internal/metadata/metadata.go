// Package metadata is the in-memory workspace model and its atomic
// persistence as a ".wsp.yaml" sidecar at the workspace root.
package metadata

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/validation"
)

// MetadataFileName is the sidecar file name persisted at a workspace root.
const MetadataFileName = ".wsp.yaml"

// RepoRef is a per-repo entry inside a workspace. An active repo is
// stored as a nil *RepoRef, which serializes to YAML null; a context repo
// carries its pinned branch, tag, or commit SHA.
type RepoRef struct {
	Ref string `yaml:"ref,omitempty"`
}

// NewRepoRef builds the stored form of a ref: nil for active (empty ref),
// a pinned RepoRef otherwise.
func NewRepoRef(ref string) *RepoRef {
	if ref == "" {
		return nil
	}

	return &RepoRef{Ref: ref}
}

// IsActive reports whether this ref is the active (unpinned) variant.
func (r *RepoRef) IsActive() bool {
	return r == nil || r.Ref == ""
}

// Workspace is the persisted model of a single workspace.
type Workspace struct {
	Name    string              `yaml:"name"`
	Branch  string              `yaml:"branch"`
	Repos   map[string]*RepoRef `yaml:"repos"`
	Created time.Time           `yaml:"created"`
	Dirs    map[string]string   `yaml:"dirs,omitempty"`
}

// Ref returns the pinned ref for an identity, "" for active repos.
func (w *Workspace) Ref(canonical string) string {
	if r, ok := w.Repos[canonical]; ok && r != nil {
		return r.Ref
	}

	return ""
}

// DirName returns the directory name an identity is checked out at:
// its override from Dirs if present, otherwise its parsed repo segment.
func (w *Workspace) DirName(canonical string) (string, error) {
	if override, ok := w.Dirs[canonical]; ok {
		return override, nil
	}

	id, err := identity.FromCanonical(canonical)
	if err != nil {
		return "", err
	}

	return id.Repo, nil
}

// ComputeDirNames groups identities by their parsed repo segment; every
// group with more than one member gets each identity an override of
// "<owner-with-slashes-replaced-by-dashes>-<repo>", singletons get none.
func ComputeDirNames(identities []identity.Identity) map[string]string {
	byRepo := make(map[string][]identity.Identity)

	for _, id := range identities {
		byRepo[id.Repo] = append(byRepo[id.Repo], id)
	}

	dirs := make(map[string]string)

	for _, group := range byRepo {
		if len(group) < 2 {
			continue
		}

		for _, id := range group {
			owner := strings.ReplaceAll(id.Owner, "/", "-")
			dirs[id.Canonical()] = owner + "-" + id.Repo
		}
	}

	return dirs
}

// Path returns the sidecar file path for a workspace directory.
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, MetadataFileName)
}

// Load reads and decodes the sidecar file in workspaceDir. A missing Dirs
// field decodes to an empty map for backward compatibility.
func Load(workspaceDir string) (*Workspace, error) {
	data, err := os.ReadFile(Path(workspaceDir)) //nolint:gosec // path is workspace-root-relative and fixed
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.NewNotFound("workspace metadata", workspaceDir)
		}

		return nil, cerrors.NewIO("read workspace metadata", err)
	}

	var w Workspace
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, cerrors.NewIO("decode workspace metadata", err)
	}

	if w.Dirs == nil {
		w.Dirs = map[string]string{}
	}

	if w.Repos == nil {
		w.Repos = map[string]*RepoRef{}
	}

	return &w, nil
}

// Save atomically persists w to workspaceDir: it writes a temporary file
// in the same directory, then renames it over the sidecar path, so a
// reader never observes a partially-written file.
func Save(workspaceDir string, w *Workspace) error {
	if err := validation.ValidateWorkspaceName(w.Name); err != nil {
		return err
	}

	// An empty pinned ref is the same as active; store it as null.
	for canonical, r := range w.Repos {
		if r != nil && r.Ref == "" {
			w.Repos[canonical] = nil
		}
	}

	data, err := yaml.Marshal(w)
	if err != nil {
		return cerrors.NewIO("encode workspace metadata", err)
	}

	tmp, err := os.CreateTemp(workspaceDir, ".wsp.yaml.tmp-*")
	if err != nil {
		return cerrors.NewIO("create temporary metadata file", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return cerrors.NewIO("write temporary metadata file", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return cerrors.NewIO("sync temporary metadata file", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return cerrors.NewIO("close temporary metadata file", err)
	}

	if err := os.Rename(tmpPath, Path(workspaceDir)); err != nil {
		_ = os.Remove(tmpPath)
		return cerrors.NewIO("rename metadata file into place", err)
	}

	return nil
}

// Detect walks upward from startDir until a directory containing the
// sidecar file is found.
func Detect(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", cerrors.NewIO("resolve absolute path", err)
	}

	for {
		if _, statErr := os.Stat(Path(dir)); statErr == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", cerrors.NewNotFound("workspace", startDir)
		}

		dir = parent
	}
}

// SortedIdentities returns the workspace's repo identities in
// deterministic (canonical-string) order.
func (w *Workspace) SortedIdentities() []string {
	ids := make([]string, 0, len(w.Repos))
	for canonical := range w.Repos {
		ids = append(ids, canonical)
	}

	sort.Strings(ids)

	return ids
}
