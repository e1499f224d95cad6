package render

import (
	"github.com/wspcli/wsp/internal/batch"
	"github.com/wspcli/wsp/internal/sync"
)

// Kind discriminates the fixed set of result shapes the core returns.
type Kind string

// Result kinds.
const (
	KindMessage    Kind = "message"
	KindList       Kind = "list"
	KindStatus     Kind = "status"
	KindDiff       Kind = "diff"
	KindSync       Kind = "sync"
	KindPush       Kind = "push"
	KindConfigGet  Kind = "config-get"
	KindConfigList Kind = "config-list"
	KindPath       Kind = "path"
)

// ListItem is a single row of a `repo list` or `group show` result.
type ListItem struct {
	Identity  string
	Shortname string
	URL       string
}

// Result is the one fixed shape every command produces; the CLI and JSON
// renderers each interpret only the fields relevant to its Kind.
type Result struct {
	Kind Kind

	Message  string
	Warnings []string

	List []ListItem

	Status []batch.RepoStatus
	Diff   []batch.RepoDiff
	Sync   []sync.Outcome
	Push   []batch.RepoPush

	ConfigEntries map[string]string
	Path          string
}

// ExitCode derives the process exit code: 0 unless a batch result carries
// at least one per-item failure.
func ExitCode(r Result) int {
	switch r.Kind {
	case KindStatus:
		for _, row := range r.Status {
			if row.Error != "" {
				return 1
			}
		}
	case KindDiff:
		for _, row := range r.Diff {
			if row.Error != "" {
				return 1
			}
		}
	case KindSync:
		for _, row := range r.Sync {
			if row.Status == sync.StatusError {
				return 1
			}
		}
	case KindPush:
		for _, row := range r.Push {
			if row.Status == batch.PushError {
				return 1
			}
		}
	}

	return 0
}
