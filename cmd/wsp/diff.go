package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/batch"
	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/render"
)

var diffCmd = &cobra.Command{
	Use:   "diff [<workspace>] [-- <git-diff-args>...]",
	Short: "Run git diff across every repo in a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		wsArgs, extraArgs := splitDashArgs(cmd, args)

		if len(wsArgs) > 1 {
			return cerrors.NewValidation("workspace", "diff takes at most one workspace name")
		}

		name := ""
		if len(wsArgs) == 1 {
			name = wsArgs[0]
		}

		wsDir, meta, err := loadWorkspace(a, name)
		if err != nil {
			return err
		}

		rows := batch.Diff(cmd.Context(), wsDir, meta, a.Git, extraArgs)

		return printResult(cmd, render.Result{Kind: render.KindDiff, Diff: rows})
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

// splitDashArgs splits args at the "--" separator cobra tracks via
// ArgsLenAtDash: everything before is positional, everything after (and the
// dash position itself) is passed through verbatim to the wrapped git
// command.
func splitDashArgs(cmd *cobra.Command, args []string) (before, after []string) {
	dashAt := cmd.ArgsLenAtDash()
	if dashAt < 0 {
		return args, nil
	}

	return args[:dashAt], args[dashAt:]
}
