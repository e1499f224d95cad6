package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/render"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the registry of known repositories",
}

var repoAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register a repository and create its mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		url := args[0]

		id, err := identity.Parse(url)
		if err != nil {
			return err
		}

		if _, exists := a.Config.Repos[id.Canonical()]; exists {
			return cerrors.NewConflict(fmt.Sprintf("%s is already registered", id.Canonical()))
		}

		if a.Mirrors.Exists(id) {
			return cerrors.NewConflict(fmt.Sprintf("mirror already exists for %s", id.Canonical()))
		}

		if err := a.Mirrors.Clone(cmd.Context(), id, url); err != nil {
			return err
		}

		if err := a.Config.AddRepo(id, url, time.Now()); err != nil {
			_ = a.Mirrors.Remove(id)
			return err
		}

		if err := saveConfigOrRollback(a, func() { _ = a.Config.RemoveRepo(id.Canonical()); _ = a.Mirrors.Remove(id) }); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "added " + id.Canonical()})
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		ids, err := a.Config.Identities()
		if err != nil {
			return err
		}

		shortnames := identity.Shortnames(ids)

		items := make([]render.ListItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, render.ListItem{
				Identity:  id.Canonical(),
				Shortname: shortnames[id],
				URL:       a.Config.Repos[id.Canonical()].URL,
			})
		}

		sort.Slice(items, func(i, j int) bool { return items[i].Shortname < items[j].Shortname })

		return printResult(cmd, render.Result{Kind: render.KindList, List: items})
	},
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a repository's mirror and deregister it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		id, err := a.Resolver.Resolve(args[0])
		if err != nil {
			return err
		}

		if err := a.Mirrors.Remove(id); err != nil {
			return err
		}

		if err := a.Config.RemoveRepo(id.Canonical()); err != nil {
			return err
		}

		if err := saveConfig(a); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "removed " + id.Canonical()})
	},
}

var repoFetchCmd = &cobra.Command{
	Use:   "fetch [<name>]",
	Short: "Fetch one mirror, or every mirror with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")

		var targets []identity.Identity

		switch {
		case all:
			ids, err := a.Config.Identities()
			if err != nil {
				return err
			}

			targets = ids
		case len(args) == 1:
			id, err := a.Resolver.Resolve(args[0])
			if err != nil {
				return err
			}

			targets = []identity.Identity{id}
		default:
			return cerrors.NewValidation("repo fetch", "requires a <name> or --all")
		}

		var warnings []string

		failures := 0

		for _, id := range targets {
			if err := a.Mirrors.Fetch(cmd.Context(), id); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", id.Canonical(), err))
				failures++
			}
		}

		result := render.Result{Kind: render.KindMessage, Message: fmt.Sprintf("fetched %d/%d mirrors", len(targets)-failures, len(targets)), Warnings: warnings}
		if failures > 0 {
			return printResultWithExit(cmd, result, 1)
		}

		return printResult(cmd, result)
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoRemoveCmd)
	repoCmd.AddCommand(repoFetchCmd)

	repoFetchCmd.Flags().Bool("all", false, "fetch every registered mirror")
}
