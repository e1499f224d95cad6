package main

import (
	"github.com/charmbracelet/log"

	"github.com/wspcli/wsp/internal/app"
	"github.com/wspcli/wsp/internal/config"
)

// saveConfig persists app.Config, the single choke point every command
// that mutates the registry, groups, or preferences funnels through.
func saveConfig(a *app.App) error {
	return config.Save(a.Config)
}

// saveConfigOrRollback saves app.Config; if the save fails it invokes
// rollback, logs a warning carrying the save error, and returns that
// error. rollback reports nothing back, so it cannot fail the call.
func saveConfigOrRollback(a *app.App, rollback func()) error {
	if err := saveConfig(a); err != nil {
		rollback()
		log.Warn("rolled back after config save failure", "error", err)

		return err
	}

	return nil
}
