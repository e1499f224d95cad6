// Package render turns a core result into either a styled CLI report or
// structured JSON, and derives the process exit code from it.
package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const colorEnv = "WSP_COLOR"

var (
	// AccentStyle highlights headers and identities.
	AccentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")).Bold(true)
	// SuccessStyle highlights successful outcomes.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	// WarningStyle highlights warnings and dry-run output.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	// ErrorStyle highlights errors and failures.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	// MutedStyle de-emphasizes secondary text.
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// ColorEnabled reports whether styled output should be used: NO_COLOR and
// WSP_COLOR override the terminal probe.
func ColorEnabled() bool {
	if val, ok := os.LookupEnv("NO_COLOR"); ok && strings.TrimSpace(val) != "" {
		return false
	}

	if val, ok := os.LookupEnv(colorEnv); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "0", "false", "no":
			return false
		default:
			return true
		}
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Colorize renders text in style when color output is enabled, otherwise
// returns it unchanged.
func Colorize(style lipgloss.Style, text string) string {
	if !ColorEnabled() {
		return text
	}

	return style.Render(text)
}
