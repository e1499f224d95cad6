package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wspcli/wsp/internal/batch"
	"github.com/wspcli/wsp/internal/logging"
)

// CLI renders r as the styled, human-readable report the terminal sees.
func CLI(r Result) string {
	var b strings.Builder

	switch r.Kind {
	case KindMessage:
		renderMessage(&b, r)
	case KindList:
		renderList(&b, r)
	case KindStatus:
		renderStatus(&b, r)
	case KindDiff:
		renderDiff(&b, r)
	case KindSync:
		renderSync(&b, r)
	case KindPush:
		renderPush(&b, r)
	case KindConfigGet:
		renderConfigGet(&b, r)
	case KindConfigList:
		renderConfigList(&b, r)
	case KindPath:
		b.WriteString(r.Path)
		b.WriteString("\n")
	}

	renderWarnings(&b, r.Warnings)

	return b.String()
}

func renderMessage(b *strings.Builder, r Result) {
	fmt.Fprintln(b, Colorize(SuccessStyle, r.Message))
}

func renderList(b *strings.Builder, r Result) {
	for _, item := range r.List {
		url := logging.RedactSensitive(item.URL)
		fmt.Fprintf(b, "%s  %s  %s\n", Colorize(AccentStyle, item.Shortname), item.Identity, Colorize(MutedStyle, url))
	}
}

func renderStatus(b *strings.Builder, r Result) {
	for _, row := range r.Status {
		header := Colorize(AccentStyle, row.Identity)

		if row.Error != "" {
			fmt.Fprintf(b, "%s %s\n", header, Colorize(ErrorStyle, "error: "+row.Error))
			continue
		}

		branch := row.Branch
		if row.Pin != "" {
			branch = "@" + row.Pin
		}

		fmt.Fprintf(b, "%s %s %s\n", header, branch, statusIndicator(row))
	}
}

func statusIndicator(row batch.RepoStatus) string {
	var parts []string

	if row.Changed > 0 {
		parts = append(parts, fmt.Sprintf("%d dirty", row.Changed))
	}

	if row.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("%d ahead", row.Ahead))
	}

	if row.Behind > 0 {
		parts = append(parts, fmt.Sprintf("%d behind", row.Behind))
	}

	if len(parts) == 0 {
		return "[clean]"
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func renderDiff(b *strings.Builder, r Result) {
	for i, row := range r.Diff {
		if i > 0 {
			fmt.Fprintln(b)
		}

		fmt.Fprintln(b, Colorize(AccentStyle, "=== "+row.Identity+" ==="))

		if row.Error != "" {
			fmt.Fprintln(b, Colorize(ErrorStyle, "error: "+row.Error))
			continue
		}

		if row.Output == "" {
			fmt.Fprintln(b, Colorize(MutedStyle, "(no changes)"))
			continue
		}

		fmt.Fprint(b, row.Output)
	}
}

func renderSync(b *strings.Builder, r Result) {
	for _, row := range r.Sync {
		header := Colorize(AccentStyle, row.Identity)

		style := SuccessStyle
		if row.Status == "error" {
			style = ErrorStyle
		} else if row.Status == "dry-run" {
			style = WarningStyle
		}

		line := string(row.Status)
		if row.Commits > 0 {
			line += fmt.Sprintf(" (%d commit(s))", row.Commits)
		}

		if row.Detail != "" {
			line += ": " + row.Detail
		}

		fmt.Fprintf(b, "%s %s\n", header, Colorize(style, line))
	}
}

func renderPush(b *strings.Builder, r Result) {
	for _, row := range r.Push {
		header := Colorize(AccentStyle, row.Identity)

		style := SuccessStyle
		if row.Status == "error" {
			style = ErrorStyle
		} else if row.Status == "dry-run" || row.Status == "skipped" {
			style = WarningStyle
		}

		fmt.Fprintf(b, "%s %s\n", header, Colorize(style, row.Detail))
	}
}

func renderConfigGet(b *strings.Builder, r Result) {
	for _, v := range r.ConfigEntries {
		fmt.Fprintln(b, v)
	}
}

func renderConfigList(b *strings.Builder, r Result) {
	keys := make([]string, 0, len(r.ConfigEntries))
	for k := range r.ConfigEntries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "%s = %s\n", Colorize(AccentStyle, k), r.ConfigEntries[k])
	}
}

func renderWarnings(b *strings.Builder, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(b, Colorize(WarningStyle, "warning: "+w))
	}
}
