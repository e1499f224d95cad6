package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/render"
)

var removeCmd = &cobra.Command{
	Use:   "remove <workspace>",
	Short: "Delete a workspace by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		wsDir, meta, err := loadWorkspace(a, args[0])
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")

		warnings, err := a.Lifecycle.Remove(cmd.Context(), wsDir, meta, force)
		if err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "removed workspace " + meta.Name, Warnings: warnings})
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolP("force", "f", false, "skip the branch-safety gate")
}
