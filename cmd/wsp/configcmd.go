package main

import (
	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set workspace preferences",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every currently-set preference",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindConfigList, ConfigEntries: a.Config.List()})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a single preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		value, ok := a.Config.Get(args[0])
		if !ok {
			return printResult(cmd, render.Result{Kind: render.KindConfigGet, ConfigEntries: map[string]string{args[0]: "not set"}})
		}

		return printResult(cmd, render.Result{Kind: render.KindConfigGet, ConfigEntries: map[string]string{args[0]: value}})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		if err := a.Config.Set(args[0], args[1]); err != nil {
			return err
		}

		if err := saveConfig(a); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "set " + args[0]})
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Clear a preference back to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		if err := a.Config.Unset(args[0]); err != nil {
			return err
		}

		if err := saveConfig(a); err != nil {
			return err
		}

		return printResult(cmd, render.Result{Kind: render.KindMessage, Message: "unset " + args[0]})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
