package testutil

import (
	"os"
	"testing"
)

// MustMkdir creates path and any missing parents, failing the test on error.
func MustMkdir(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(path, 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// MustWriteFile writes content to path, failing the test on error.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // test helper
		t.Fatalf("write %s: %v", path, err)
	}
}

// MustReadFile returns path's contents, failing the test on error.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test helper
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return string(data)
}
