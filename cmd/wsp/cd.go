package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/render"
)

// cdCmd prints a workspace's path and propagates freshly fetched mirror
// refs into its clones via a "git fetch wsp-mirror" fan-out. It never
// changes the caller's own working directory; the shell-integration
// wrapper (WSP_SHELL=1) is what actually cds, using this command's stdout.
var cdCmd = &cobra.Command{
	Use:   "cd <workspace>",
	Short: "Print a workspace's path and refresh its clones from the mirror",
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

		warnings := a.Lifecycle.PropagateMirrorToClones(cmd.Context(), wsDir, meta)

		if os.Getenv("WSP_SHELL") == "" {
			warnings = append(warnings, "set WSP_SHELL=1 in your shell wrapper so `wsp cd` actually changes directory")
		}

		return printResult(cmd, render.Result{Kind: render.KindPath, Path: wsDir, Warnings: warnings})
	},
}

func init() {
	rootCmd.AddCommand(cdCmd)
}
