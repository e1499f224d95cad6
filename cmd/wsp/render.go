package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/render"
)

// printResult renders r per the --json flag, writes it to stdout, and
// returns an ExitCodeError when the result's derived exit code is
// non-zero (a batch command with at least one per-item failure).
func printResult(_ *cobra.Command, r render.Result) error {
	out, code, err := render.Render(r, jsonOutput)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, out)

	if code != 0 {
		return NewExitCodeError(code, "")
	}

	return nil
}

// printResultWithExit renders r like printResult but forces the given
// exit code regardless of what render.ExitCode would derive (used by
// commands whose failure tally isn't expressed in r's own Kind, e.g.
// `repo fetch`).
func printResultWithExit(_ *cobra.Command, r render.Result, code int) error {
	out, _, err := render.Render(r, jsonOutput)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, out)

	if code != 0 {
		return NewExitCodeError(code, "")
	}

	return nil
}
