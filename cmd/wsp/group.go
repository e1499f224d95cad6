package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/render"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage named groups of repository identities",
}

var groupNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an empty group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		if err := a.Config.CreateGroup(args[0]); err != nil {
			return err
		}

		if err := saveConfig(a); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "created group " + args[0]})
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List group names",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(a.Config.Groups))
		for name := range a.Config.Groups {
			names = append(names, name)
		}

		sort.Strings(names)

		items := make([]render.ListItem, 0, len(names))
		for _, name := range names {
			items = append(items, render.ListItem{Shortname: name})
		}

		return printResult(cmd, render.Result{Kind: render.KindList, List: items})
	},
}

var groupShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "List a group's member identities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		ids, err := a.Resolver.ResolveGroup(args[0])
		if err != nil {
			return err
		}

		shortnames := identity.Shortnames(ids)

		items := make([]render.ListItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, render.ListItem{Identity: id.Canonical(), Shortname: shortnames[id]})
		}

		return printResult(cmd, render.Result{Kind: render.KindList, List: items})
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		if err := a.Config.DeleteGroup(args[0]); err != nil {
			return err
		}

		if err := saveConfig(a); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "deleted group " + args[0]})
	},
}

var groupUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Add or remove identities from a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		addRaw, _ := cmd.Flags().GetString("add")
		removeRaw, _ := cmd.Flags().GetString("remove")

		if err := a.Config.UpdateGroup(args[0], splitCSV(addRaw), splitCSV(removeRaw)); err != nil {
			return err
		}

		if err := saveConfig(a); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "updated group " + args[0]})
	},
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupNewCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupShowCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	groupCmd.AddCommand(groupUpdateCmd)

	groupUpdateCmd.Flags().String("add", "", "comma-separated identities to add")
	groupUpdateCmd.Flags().String("remove", "", "comma-separated identities to remove")
}
