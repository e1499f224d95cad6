package main

import (
	"github.com/spf13/cobra"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/render"
	"github.com/wspcli/wsp/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [<workspace>]",
	Short: "Fetch every repo and rebase (or merge) active branches onto their default branch",
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

		strategyFlag, _ := cmd.Flags().GetString("strategy")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if strategyFlag == "" {
			strategyFlag = a.Config.SyncStrategy
		}

		strategy := sync.Strategy(strategyFlag)
		if strategy != "" && strategy != sync.StrategyRebase && strategy != sync.StrategyMerge {
			return cerrors.NewValidation("strategy", "must be \"rebase\" or \"merge\"")
		}

		result := a.Sync.Sync(cmd.Context(), wsDir, meta, strategy, dryRun)

		var warnings []string
		for _, outcome := range result.Outcomes {
			if outcome.FetchFailed {
				warnings = append(warnings, outcome.Identity+": fetch failed")
			}
		}

		r := render.Result{Kind: render.KindSync, Sync: result.Outcomes, Warnings: warnings}

		return printResult(cmd, r)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().String("strategy", "", "reconciliation strategy: rebase (default) or merge")
	syncCmd.Flags().Bool("dry-run", false, "report what would change without touching any repo")
}
