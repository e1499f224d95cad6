package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/render"
)

var addCmd = &cobra.Command{
	Use:   "add <repo>...",
	Short: "Attach repos to the current workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		wsDir, meta, err := loadWorkspace(a, "")
		if err != nil {
			return err
		}

		groups, _ := cmd.Flags().GetStringSlice("group")

		requests, err := buildRepoRequests(a, args, groups)
		if err != nil {
			return err
		}

		warnings, err := a.Lifecycle.AddRepos(cmd.Context(), wsDir, meta, requests)
		if err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "added repos to " + meta.Name, Warnings: warnings})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringSliceP("group", "g", nil, "add every identity in this group")
}
