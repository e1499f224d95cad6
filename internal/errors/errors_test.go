package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	cerrors "github.com/wspcli/wsp/internal/errors"
)

func TestWspError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *cerrors.WspError
		expected string
	}{
		{
			name:     "without cause",
			err:      cerrors.NewNotFound("workspace", "my-ws"),
			expected: "NOT_FOUND: workspace not found: my-ws",
		},
		{
			name:     "with cause",
			err:      cerrors.NewSubprocess("clone", "/tmp/x", 128, "network error"),
			expected: "SUBPROCESS: git clone failed: git clone (in /tmp/x) exited 128: network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWspError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := cerrors.NewIO("read file", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find cause")
	}
}

func TestWspError_Is(t *testing.T) {
	err := cerrors.NewNotFound("identity", "github.com/acme/utils")

	if !errors.Is(err, cerrors.NotFound) {
		t.Errorf("expected errors.Is to match sentinel NotFound")
	}

	if errors.Is(err, cerrors.Conflict) {
		t.Errorf("expected errors.Is to not match sentinel Conflict")
	}
}

func TestWspError_WithContext(t *testing.T) {
	base := cerrors.NewValidation("name", "cannot be empty")
	withCtx := base.WithContext("extra", "value")

	if withCtx.Context["field"] != "name" {
		t.Errorf("expected original context preserved")
	}

	if withCtx.Context["extra"] != "value" {
		t.Errorf("expected new context key set")
	}

	if _, ok := base.Context["extra"]; ok {
		t.Errorf("expected original error untouched")
	}
}

func TestNewSafetyGate_ListsOffenders(t *testing.T) {
	err := cerrors.NewSafetyGate("cannot remove workspace", []string{"github.com/acme/a: unmerged branch", "github.com/acme/b: pushed to remote"})

	if err.Code != cerrors.ErrSafetyGate {
		t.Fatalf("expected safety gate code")
	}

	msg := err.Error()
	if !strings.Contains(msg, "unmerged branch") || !strings.Contains(msg, "pushed to remote") || !strings.Contains(msg, "--force") {
		t.Errorf("expected message to enumerate offenders and mention --force, got: %s", msg)
	}
}
