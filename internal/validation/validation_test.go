package validation_test

import (
	"strings"
	"testing"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/validation"
)

func TestValidateWorkspaceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple name", input: "my-workspace", wantErr: false},
		{name: "with dots mid-string", input: "my.workspace", wantErr: false},
		{name: "unicode", input: "workspace-日本語", wantErr: false},
		{name: "max length", input: strings.Repeat("a", 255), wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 256), wantErr: true},
		{name: "leading whitespace", input: " ws", wantErr: true},
		{name: "path separator", input: "my/workspace", wantErr: true},
		{name: "leading dash", input: "-workspace", wantErr: true},
		{name: "leading dot", input: ".workspace", wantErr: true},
		{name: "null byte", input: "ws\x00name", wantErr: true},
		{name: "control char", input: "ws\nname", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validation.ValidateWorkspaceName(tt.input)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateWorkspaceName(%q) = nil, want error", tt.input)
			}

			if !tt.wantErr && err != nil {
				t.Errorf("ValidateWorkspaceName(%q) = %v, want nil", tt.input, err)
			}

			if tt.wantErr && err != nil {
				var werr *cerrors.WspError
				if e, ok := err.(*cerrors.WspError); ok {
					werr = e
				}

				if werr == nil || werr.Code != cerrors.ErrValidation {
					t.Errorf("expected ErrValidation code, got %v", err)
				}
			}
		})
	}
}

func TestValidatePathComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "acme", wantErr: false},
		{name: "nested owner ok at caller level", input: "org", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "leading slash", input: "/acme", wantErr: true},
		{name: "trailing slash", input: "acme/", wantErr: true},
		{name: "traversal", input: "ac..me", wantErr: true},
		{name: "null byte", input: "ac\x00me", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validation.ValidatePathComponent("owner", tt.input)
			if tt.wantErr != (err != nil) {
				t.Errorf("ValidatePathComponent(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeDirName(t *testing.T) {
	t.Parallel()

	if _, err := validation.SanitizeDirName("../escape"); err == nil {
		t.Errorf("expected error for traversal")
	}

	if _, err := validation.SanitizeDirName("/abs/path"); err == nil {
		t.Errorf("expected error for absolute path")
	}

	got, err := validation.SanitizeDirName("  my-dir  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "my-dir" {
		t.Errorf("SanitizeDirName trimmed = %q, want %q", got, "my-dir")
	}
}

func TestValidateGroupName(t *testing.T) {
	t.Parallel()

	if err := validation.ValidateGroupName(""); err == nil {
		t.Errorf("expected error for empty group name")
	}

	if err := validation.ValidateGroupName("backend/core"); err == nil {
		t.Errorf("expected error for path separator in group name")
	}

	if err := validation.ValidateGroupName("backend-core"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
