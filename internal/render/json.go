package render

import (
	"encoding/json"

	cerrors "github.com/wspcli/wsp/internal/errors"
)

// JSON renders r as a single structured document, for --json mode.
func JSON(r Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", cerrors.NewInternal("encode JSON result", err)
	}

	return string(data) + "\n", nil
}

// Render is the collaborator contract: it renders r as CLI text or JSON
// depending on jsonMode, and returns the derived exit code alongside it.
func Render(r Result, jsonMode bool) (string, int, error) {
	if jsonMode {
		out, err := JSON(r)
		if err != nil {
			return "", 1, err
		}

		return out, ExitCode(r), nil
	}

	return CLI(r), ExitCode(r), nil
}
