// Package main implements the wsp CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wspcli/wsp/internal/app"
	cerrors "github.com/wspcli/wsp/internal/errors"
)

type contextKey string

const appContextKey contextKey = "app"

// interrupted is set by the SIGINT handler installed in main; command code
// never checks it directly, but main consults it to pick the exit code.
var interrupted atomic.Bool

var (
	debug      bool
	jsonOutput bool
	configPath string

	rootCmd = &cobra.Command{
		Use:   "wsp",
		Short: "Multi-repository workspace manager",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			appInstance, err := app.New(debug, app.WithConfigPath(configPath))
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), appContextKey, appInstance)
			cmd.SetContext(ctx)
			cmd.Root().SetContext(ctx)

			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (overrides WSP_CONFIG and default locations)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "render output as structured JSON")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		interrupted.Store(true)
		cancel()
	}()

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()

	if interrupted.Load() {
		os.Exit(130)
	}

	if err != nil {
		var exitErr *ExitCodeError
		if asExitCodeError(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}

			os.Exit(exitErr.Code)
		}

		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func getApp(cmd *cobra.Command) (*app.App, error) {
	value := cmd.Context().Value(appContextKey)
	if value == nil {
		return nil, cerrors.NewInternal("app not initialized", nil)
	}

	appInstance, ok := value.(*app.App)
	if !ok {
		return nil, cerrors.NewInternal("invalid app in context", nil)
	}

	return appInstance, nil
}
