package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/render"
)

var newCmd = &cobra.Command{
	Use:   "new <workspace> [<repo>...]",
	Short: "Create a workspace and clone its repos onto a shared branch",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		tokens := args[1:]

		groups, _ := cmd.Flags().GetStringSlice("group")

		requests, err := buildRepoRequests(a, tokens, groups)
		if err != nil {
			return err
		}

		if _, err := a.Lifecycle.Create(cmd.Context(), name, requests, a.Config.BranchPrefix); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "created workspace " + name})
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringSliceP("group", "g", nil, "add every identity in this group")
}
