// Package validation provides centralized input validation functions
// to prevent security issues like path traversal and ensure consistent UX.
package validation

import (
	"path/filepath"
	"strings"
	"unicode"

	cerrors "github.com/wspcli/wsp/internal/errors"
)

// MaxComponentLength is the maximum allowed length for a path component
// (identity segment, workspace name, directory name).
const MaxComponentLength = 255

// ValidatePathComponent validates a single path component used as an
// identity segment (host/owner/repo) or directory name override: it must
// be non-empty and free of "..", leading/trailing "/", and null bytes.
func ValidatePathComponent(field, value string) error {
	if value == "" {
		return cerrors.NewValidation(field, "cannot be empty")
	}

	if strings.HasPrefix(value, "/") || strings.HasSuffix(value, "/") {
		return cerrors.NewValidation(field, "cannot start or end with /")
	}

	if strings.Contains(value, "..") {
		return cerrors.NewValidation(field, "cannot contain path traversal sequences (..)")
	}

	if strings.ContainsRune(value, 0) {
		return cerrors.NewValidation(field, "cannot contain a null byte")
	}

	if len(value) > MaxComponentLength {
		return cerrors.NewValidation(field, "exceeds maximum length")
	}

	return nil
}

// ValidateWorkspaceName validates a workspace name: non-empty, no path
// separators or null bytes, must not start with "-" or ".".
func ValidateWorkspaceName(name string) error {
	if name == "" {
		return cerrors.NewValidation("workspace-name", "cannot be empty")
	}

	if strings.TrimSpace(name) != name {
		return cerrors.NewValidation("workspace-name", "cannot have leading or trailing whitespace")
	}

	if len(name) > MaxComponentLength {
		return cerrors.NewValidation("workspace-name", "exceeds maximum length")
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return cerrors.NewValidation("workspace-name", "cannot contain path separators")
	}

	if strings.ContainsRune(name, 0) {
		return cerrors.NewValidation("workspace-name", "cannot contain a null byte")
	}

	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return cerrors.NewValidation("workspace-name", "cannot start with '-' or '.'")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return cerrors.NewValidation("workspace-name", "cannot contain control characters")
		}
	}

	return nil
}

// ValidateGroupName validates a group name: non-empty, no path separators.
func ValidateGroupName(name string) error {
	if name == "" {
		return cerrors.NewValidation("group-name", "cannot be empty")
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return cerrors.NewValidation("group-name", "cannot contain path separators")
	}

	return nil
}

// SanitizeDirName cleans a user-controlled directory-name candidate,
// refusing absolute paths, traversal sequences, and embedded separators.
func SanitizeDirName(name string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(name))
	if cleaned == "" || cleaned == "." {
		return "", cerrors.NewValidation("dir-name", "cannot be empty")
	}

	if filepath.IsAbs(cleaned) {
		return "", cerrors.NewValidation("dir-name", "must be relative")
	}

	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", cerrors.NewValidation("dir-name", "contains invalid path elements")
	}

	return cleaned, nil
}
