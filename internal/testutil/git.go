package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// gitEnv pins git to a hermetic configuration so host-level settings
// (aliases, hooks, credential helpers) cannot leak into a test.
func gitEnv() []string {
	return append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_SYSTEM=/dev/null")
}

// RunGit runs a git subcommand in dir, failing the test on a non-zero exit.
func RunGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	_ = gitOutput(t, dir, args...)
}

// RunGitOutput runs a git subcommand in dir and returns its trimmed
// combined output, failing the test on a non-zero exit.
func RunGitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	return gitOutput(t, dir, args...)
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...) //nolint:gosec // test helper
	cmd.Dir = dir
	cmd.Env = gitEnv()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %s (%v)", args, strings.TrimSpace(string(out)), err)
	}

	return strings.TrimSpace(string(out))
}

// CreateRepoWithCommit initializes a repository at path with a committed
// README.md, a fixed test identity, and no credential helper: the shape
// every workspace and mirror test starts from.
func CreateRepoWithCommit(t *testing.T, path string) {
	t.Helper()

	MustMkdir(t, path)
	RunGit(t, path, "init")
	RunGit(t, path, "config", "user.email", "test@example.com")
	RunGit(t, path, "config", "user.name", "Test User")
	RunGit(t, path, "config", "credential.helper", "")

	MustWriteFile(t, filepath.Join(path, "README.md"), "test repository\n")
	RunGit(t, path, "add", ".")
	RunGit(t, path, "commit", "-m", "init")
}

// CloneToBare clones sourceRepo as a bare repository at destPath, the
// same on-disk shape the mirror manager produces.
func CloneToBare(t *testing.T, sourceRepo, destPath string) {
	t.Helper()

	RunGit(t, filepath.Dir(destPath), "clone", "--bare", sourceRepo, destPath)
}
