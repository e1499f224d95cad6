package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/batch"
	"github.com/wspcli/wsp/internal/render"
)

var pushCmd = &cobra.Command{
	Use:   "push [<workspace>]",
	Short: "Push every active repo's current branch to origin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		wsDir, meta, err := loadWorkspace(a, name)
		if err != nil {
			return err
		}

		forceWithLease, _ := cmd.Flags().GetBool("force-with-lease")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		rows := batch.Push(cmd.Context(), wsDir, meta, a.Git, forceWithLease, dryRun)

		return printResult(cmd, render.Result{Kind: render.KindPush, Push: rows})
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().Bool("force-with-lease", false, "push with --force-with-lease")
	pushCmd.Flags().Bool("dry-run", false, "report what would be pushed without pushing")
}
