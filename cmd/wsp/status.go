package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/batch"
	"github.com/wspcli/wsp/internal/render"
)

var statusCmd = &cobra.Command{
	Use:   "status [<workspace>]",
	Short: "Report each repo's checked-out ref, dirty count, and ahead/behind",
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

		rows := batch.Status(cmd.Context(), wsDir, meta, a.Git)

		return printResult(cmd, render.Result{Kind: render.KindStatus, Status: rows})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
