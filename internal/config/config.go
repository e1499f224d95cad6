// Package config loads and persists wsp's global configuration: the
// registry of known repositories and groups plus a handful of workspace
// preferences (branch prefix, sync strategy, per-language integration
// toggles).
//
// # Configuration loading priority
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Explicit --config flag path
//  2. WSP_CONFIG environment variable
//  3. Default search paths (in order):
//     - ./config.yaml (current directory)
//     - ~/.wsp/config.yaml
//     - ~/.config/wsp/config.yaml
//
// When an explicit config path is supplied (flag or env var), the file
// must exist or loading fails. Default search paths are optional — if no
// config file is found there, an empty registry plus defaults is used.
//
// Paths support tilde (~) expansion to the user's home directory.
// Environment variables with the WSP_ prefix override configuration
// values, e.g. WSP_BRANCH_PREFIX, WSP_SYNC_STRATEGY.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/validation"
)

// Sync strategies recognized by the sync engine.
const (
	SyncStrategyRebase = "rebase"
	SyncStrategyMerge  = "merge"
)

// LanguageIntegration names a per-language post-create integration toggle.
// Absent key means enabled.
type LanguageIntegration string

// Known language integration keys.
const (
	LanguageGo LanguageIntegration = "go"
	LanguageJS LanguageIntegration = "javascript"
	LanguagePy LanguageIntegration = "python"
	LanguageRs LanguageIntegration = "rust"
)

// RegisteredRepo is a repository known to the global config: its identity,
// the URL it was registered with (kept verbatim for push/fetch), and when
// it was added.
type RegisteredRepo struct {
	Identity string    `mapstructure:"identity" yaml:"identity"`
	URL      string    `mapstructure:"url" yaml:"url"`
	AddedAt  time.Time `mapstructure:"added_at" yaml:"added_at"`
}

// Group is a named set of repository identities.
type Group struct {
	Name       string   `mapstructure:"-" yaml:"-"`
	Identities []string `mapstructure:"identities" yaml:"identities"`
}

// GlobalConfig is the persisted global registry: known repos, groups, and
// workspace preferences.
type GlobalConfig struct {
	BranchPrefix string                    `mapstructure:"branch_prefix" yaml:"branch_prefix,omitempty"`
	SyncStrategy string                    `mapstructure:"sync_strategy" yaml:"sync_strategy"`
	Languages    map[string]bool           `mapstructure:"languages" yaml:"languages,omitempty"`
	Repos        map[string]RegisteredRepo `mapstructure:"repos" yaml:"repos"`
	Groups       map[string]Group          `mapstructure:"groups" yaml:"groups"`

	// MirrorsRoot and WorkspacesRoot are the filesystem roots the mirror
	// manager and workspace lifecycle operate under.
	MirrorsRoot    string `mapstructure:"mirrors_root" yaml:"mirrors_root"`
	WorkspacesRoot string `mapstructure:"workspaces_root" yaml:"workspaces_root"`

	// ConfigPath is where Save writes this config back to. It is set by
	// Load to the file actually read (or the default location when no file
	// was found) and is never itself persisted.
	ConfigPath string `mapstructure:"-" yaml:"-"`

	Warnings []string `mapstructure:"-" yaml:"-"`
}

// knownConfigFields lists valid top-level and nested field names, used to
// produce "did you mean" suggestions for typos in the config file.
var knownConfigFields = []string{
	"branch_prefix",
	"sync_strategy",
	"languages",
	"repos",
	"repos.identity",
	"repos.url",
	"repos.added_at",
	"groups",
	"groups.identities",
	"mirrors_root",
	"workspaces_root",
}

// Load initializes and loads the global configuration. Priority order:
// configPath parameter > WSP_CONFIG env > default search paths.
func Load(configPath string) (*GlobalConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, cerrors.NewIO("get user home dir", err)
	}

	// Registry keys are canonical identities such as github.com/acme/widgets,
	// so viper's default "." key delimiter would split them apart.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yaml")

	explicitConfigPath := false

	switch {
	case configPath != "":
		v.SetConfigFile(expandPath(configPath, home))
		explicitConfigPath = true
	case os.Getenv("WSP_CONFIG") != "":
		v.SetConfigFile(expandPath(os.Getenv("WSP_CONFIG"), home))
		explicitConfigPath = true
	default:
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".wsp"))
		v.AddConfigPath(filepath.Join(home, ".config", "wsp"))
	}

	defaultConfigPath := filepath.Join(home, ".wsp", "config.yaml")

	v.SetDefault("branch_prefix", "")
	v.SetDefault("sync_strategy", SyncStrategyRebase)
	v.SetDefault("mirrors_root", filepath.Join(home, ".wsp", "mirrors"))
	v.SetDefault("workspaces_root", filepath.Join(home, ".wsp", "workspaces"))

	v.SetEnvPrefix("WSP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if explicitConfigPath {
				return nil, cerrors.NewIO("read config file", fmt.Errorf("config file not found: %s", configPath))
			}
			// Default search paths: absence is okay, fall back to defaults.
		} else {
			return nil, cerrors.NewIO("read config file", err)
		}
	}

	var cfg GlobalConfig

	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}); err != nil {
		return nil, handleUnmarshalError(err)
	}

	cfg.MirrorsRoot = expandPath(cfg.MirrorsRoot, home)
	cfg.WorkspacesRoot = expandPath(cfg.WorkspacesRoot, home)
	cfg.SyncStrategy = strings.ToLower(strings.TrimSpace(cfg.SyncStrategy))

	if cfg.SyncStrategy == "" {
		cfg.SyncStrategy = SyncStrategyRebase
	}

	if cfg.Repos == nil {
		cfg.Repos = map[string]RegisteredRepo{}
	}

	if cfg.Groups == nil {
		cfg.Groups = map[string]Group{}
	}

	for name, g := range cfg.Groups {
		g.Name = name
		cfg.Groups[name] = g
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ConfigPath = v.ConfigFileUsed()
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = defaultConfigPath
	}

	return &cfg, nil
}

// Save atomically persists cfg to cfg.ConfigPath: it writes a temporary
// file in the same directory (creating it if needed), then renames it
// into place, matching the write-temp-then-rename pattern used for
// workspace metadata.
func Save(cfg *GlobalConfig) error {
	if cfg.ConfigPath == "" {
		return cerrors.NewInternal("config has no ConfigPath to save to", nil)
	}

	dir := filepath.Dir(cfg.ConfigPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cerrors.NewIO("create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return cerrors.NewIO("encode config", err)
	}

	tmp, err := os.CreateTemp(dir, ".config.yaml.tmp-*")
	if err != nil {
		return cerrors.NewIO("create temporary config file", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return cerrors.NewIO("write temporary config file", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return cerrors.NewIO("close temporary config file", err)
	}

	if err := os.Rename(tmpPath, cfg.ConfigPath); err != nil {
		_ = os.Remove(tmpPath)
		return cerrors.NewIO("rename config file into place", err)
	}

	return nil
}

// Get reads a configuration key. Unknown keys yield "not set" rather
// than an error. Supported keys: branch-prefix, sync-strategy,
// language-integrations.<name>.
func (c *GlobalConfig) Get(key string) (string, bool) {
	switch {
	case key == "branch-prefix":
		if c.BranchPrefix == "" {
			return "", false
		}

		return c.BranchPrefix, true
	case key == "sync-strategy":
		return c.SyncStrategy, true
	case strings.HasPrefix(key, "language-integrations."):
		name := strings.TrimPrefix(key, "language-integrations.")
		if enabled, ok := c.Languages[name]; ok {
			return strconv.FormatBool(enabled), true
		}

		return "", false
	default:
		return "", false
	}
}

// Set assigns a configuration key, failing loudly on an unrecognized key
// or an unknown language-integration name.
func (c *GlobalConfig) Set(key, value string) error {
	switch {
	case key == "branch-prefix":
		c.BranchPrefix = value
		return nil
	case key == "sync-strategy":
		value = strings.ToLower(strings.TrimSpace(value))
		if value != SyncStrategyRebase && value != SyncStrategyMerge {
			return cerrors.NewValidation("sync-strategy", fmt.Sprintf("must be %q or %q", SyncStrategyRebase, SyncStrategyMerge))
		}

		c.SyncStrategy = value

		return nil
	case strings.HasPrefix(key, "language-integrations."):
		name := strings.TrimPrefix(key, "language-integrations.")
		if !knownLanguageIntegration(name) {
			return cerrors.NewValidation("language-integrations", fmt.Sprintf("unknown integration %q", name))
		}

		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return cerrors.NewValidation(key, "must be a boolean")
		}

		if c.Languages == nil {
			c.Languages = map[string]bool{}
		}

		c.Languages[name] = enabled

		return nil
	default:
		return cerrors.NewValidation("config key", fmt.Sprintf("unknown key %q", key))
	}
}

// Unset clears a configuration key back to its default, failing on an
// unrecognized key.
func (c *GlobalConfig) Unset(key string) error {
	switch {
	case key == "branch-prefix":
		c.BranchPrefix = ""
		return nil
	case key == "sync-strategy":
		c.SyncStrategy = SyncStrategyRebase
		return nil
	case strings.HasPrefix(key, "language-integrations."):
		name := strings.TrimPrefix(key, "language-integrations.")
		delete(c.Languages, name)

		return nil
	default:
		return cerrors.NewValidation("config key", fmt.Sprintf("unknown key %q", key))
	}
}

// List returns every currently-set configuration key/value, for `config list`.
func (c *GlobalConfig) List() map[string]string {
	entries := map[string]string{
		"sync-strategy": c.SyncStrategy,
	}

	if c.BranchPrefix != "" {
		entries["branch-prefix"] = c.BranchPrefix
	}

	for name, enabled := range c.Languages {
		entries["language-integrations."+name] = strconv.FormatBool(enabled)
	}

	return entries
}

func knownLanguageIntegration(name string) bool {
	switch LanguageIntegration(name) {
	case LanguageGo, LanguageJS, LanguagePy, LanguageRs:
		return true
	default:
		return false
	}
}

// handleUnmarshalError turns a strict-mode mapstructure error into a
// WspError, naming the unknown fields when they can be extracted.
func handleUnmarshalError(err error) error {
	errMsg := err.Error()
	if strings.Contains(errMsg, "invalid keys") {
		if fields := extractUnknownFields(errMsg); len(fields) > 0 {
			return cerrors.NewValidation("config", formatUnknownFieldError(fields))
		}
	}

	return cerrors.NewValidation("config", fmt.Sprintf("failed to unmarshal: %v", err))
}

func extractUnknownFields(errMsg string) []string {
	idx := strings.Index(errMsg, "invalid keys:")
	if idx == -1 {
		return nil
	}

	keysStr := strings.TrimSpace(errMsg[idx+len("invalid keys:"):])

	var fields []string

	for _, field := range strings.Split(keysStr, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}

	return fields
}

func formatUnknownFieldError(unknownFields []string) string {
	msgs := make([]string, 0, len(unknownFields))

	for _, field := range unknownFields {
		if similar := findSimilarField(field); similar != "" {
			msgs = append(msgs, fmt.Sprintf("unknown config field %q, did you mean %q?", field, similar))
		} else {
			msgs = append(msgs, fmt.Sprintf("unknown config field %q", field))
		}
	}

	return strings.Join(msgs, "; ")
}

// findSimilarField finds the closest known field name by edit distance,
// returning "" when nothing is close enough to be a useful suggestion.
func findSimilarField(unknown string) string {
	bestMatch := ""
	bestDistance := 4

	for _, known := range knownConfigFields {
		parts := strings.Split(known, ".")
		fieldName := parts[len(parts)-1]

		if dist := levenshteinDistance(strings.ToLower(unknown), strings.ToLower(fieldName)); dist < bestDistance {
			bestDistance = dist
			bestMatch = fieldName
		}

		if len(parts) > 1 {
			if dist := levenshteinDistance(strings.ToLower(unknown), strings.ToLower(known)); dist < bestDistance {
				bestDistance = dist
				bestMatch = known
			}
		}
	}

	return bestMatch
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}

	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			matrix[i][j] = minInt(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}

func expandPath(path, home string) string {
	if path == "~" {
		return home
	}

	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(home, path[2:])
	}

	return path
}

// Validate checks the loaded configuration's values without touching the
// filesystem beyond what Load has already resolved.
func (c *GlobalConfig) Validate() error {
	if c.SyncStrategy != SyncStrategyRebase && c.SyncStrategy != SyncStrategyMerge {
		return cerrors.NewValidation("sync_strategy", fmt.Sprintf("must be %q or %q, got %q", SyncStrategyRebase, SyncStrategyMerge, c.SyncStrategy))
	}

	if !filepath.IsAbs(c.MirrorsRoot) {
		return cerrors.NewValidation("mirrors_root", "must be an absolute path")
	}

	if !filepath.IsAbs(c.WorkspacesRoot) {
		return cerrors.NewValidation("workspaces_root", "must be an absolute path")
	}

	for canonical, repo := range c.Repos {
		if _, err := identity.FromCanonical(canonical); err != nil {
			return cerrors.NewValidation("repos", fmt.Sprintf("key %q is not a valid identity: %v", canonical, err))
		}

		if repo.URL == "" {
			return cerrors.NewValidation(fmt.Sprintf("repos.%s.url", canonical), "cannot be empty")
		}
	}

	for name, g := range c.Groups {
		if err := validation.ValidateGroupName(name); err != nil {
			return err
		}

		seen := make(map[string]bool, len(g.Identities))

		for _, ident := range g.Identities {
			if seen[ident] {
				return cerrors.NewValidation(fmt.Sprintf("groups.%s", name), fmt.Sprintf("duplicate identity %q", ident))
			}

			seen[ident] = true
		}
	}

	return nil
}

// LanguageEnabled reports whether a per-language integration is enabled.
// An absent key means enabled.
func (c *GlobalConfig) LanguageEnabled(lang LanguageIntegration) bool {
	enabled, ok := c.Languages[string(lang)]
	if !ok {
		return true
	}

	return enabled
}

// WorkspaceBranch gives the resolved workspace branch name for a given
// workspace name, applying BranchPrefix when set.
func (c *GlobalConfig) WorkspaceBranch(name string) string {
	if c.BranchPrefix == "" {
		return name
	}

	return c.BranchPrefix + "/" + name
}

// AddRepo registers a repo under its canonical identity, failing if the
// identity is already registered with a different URL.
func (c *GlobalConfig) AddRepo(id identity.Identity, url string, addedAt time.Time) error {
	canonical := id.Canonical()

	if existing, ok := c.Repos[canonical]; ok && existing.URL != url {
		return cerrors.NewConflict(fmt.Sprintf("repo %s is already registered with a different URL", canonical))
	}

	if c.Repos == nil {
		c.Repos = map[string]RegisteredRepo{}
	}

	c.Repos[canonical] = RegisteredRepo{Identity: canonical, URL: url, AddedAt: addedAt}

	return nil
}

// RemoveRepo unregisters a repo, returning a not-found error if absent.
func (c *GlobalConfig) RemoveRepo(canonical string) error {
	if _, ok := c.Repos[canonical]; !ok {
		return cerrors.NewNotFound("repo", canonical)
	}

	delete(c.Repos, canonical)

	for name, g := range c.Groups {
		g.Identities = removeString(g.Identities, canonical)
		c.Groups[name] = g
	}

	return nil
}

// Identities returns every registered identity, parsed and sorted by
// canonical form for deterministic listing.
func (c *GlobalConfig) Identities() ([]identity.Identity, error) {
	ids := make([]identity.Identity, 0, len(c.Repos))

	for canonical := range c.Repos {
		id, err := identity.FromCanonical(canonical)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Canonical() < ids[j].Canonical() })

	return ids, nil
}

// CreateGroup creates a new, empty group, failing if the name is taken.
func (c *GlobalConfig) CreateGroup(name string) error {
	if err := validation.ValidateGroupName(name); err != nil {
		return err
	}

	if c.Groups == nil {
		c.Groups = map[string]Group{}
	}

	if _, ok := c.Groups[name]; ok {
		return cerrors.NewConflict(fmt.Sprintf("group %q already exists", name))
	}

	c.Groups[name] = Group{Name: name}

	return nil
}

// DeleteGroup removes a group, failing if it does not exist.
func (c *GlobalConfig) DeleteGroup(name string) error {
	if _, ok := c.Groups[name]; !ok {
		return cerrors.NewNotFound("group", name)
	}

	delete(c.Groups, name)

	return nil
}

// UpdateGroup adds and/or removes identities from a group, deduplicating
// as it goes.
func (c *GlobalConfig) UpdateGroup(name string, add, remove []string) error {
	g, ok := c.Groups[name]
	if !ok {
		return cerrors.NewNotFound("group", name)
	}

	for _, ident := range remove {
		g.Identities = removeString(g.Identities, ident)
	}

	present := make(map[string]bool, len(g.Identities))
	for _, ident := range g.Identities {
		present[ident] = true
	}

	for _, ident := range add {
		if !present[ident] {
			g.Identities = append(g.Identities, ident)
			present[ident] = true
		}
	}

	c.Groups[name] = g

	return nil
}

func removeString(items []string, target string) []string {
	out := items[:0]

	for _, item := range items {
		if item != target {
			out = append(out, item)
		}
	}

	return out
}
