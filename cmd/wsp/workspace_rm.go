package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/render"
)

// rmCmd removes repos from the current workspace, or the whole workspace
// when invoked with no repo tokens. Tokens resolve only against
// identities already present in the current workspace, never the global
// registry.
var rmCmd = &cobra.Command{
	Use:   "rm [<repo>...]",
	Short: "Remove repos from the current workspace, or delete it entirely",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		wsDir, meta, err := loadWorkspace(a, "")
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")

		if len(args) == 0 {
			warnings, err := a.Lifecycle.Remove(cmd.Context(), wsDir, meta, force)
			if err != nil {
				return err
			}

			return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "removed workspace " + meta.Name, Warnings: warnings})
		}

		present := make([]identity.Identity, 0, len(meta.Repos))

		for canonical := range meta.Repos {
			id, err := identity.FromCanonical(canonical)
			if err != nil {
				return err
			}

			present = append(present, id)
		}

		canonicals := make([]string, 0, len(args))

		for _, token := range args {
			id, err := identity.Resolve(token, present)
			if err != nil {
				return err
			}

			canonicals = append(canonicals, id.Canonical())
		}

		warnings, err := a.Lifecycle.RemoveRepos(cmd.Context(), wsDir, meta, canonicals, force)
		if err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "removed repos from " + meta.Name, Warnings: warnings})
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolP("force", "f", false, "skip the branch-safety gate")
}
