// Package app wires together the shared services every CLI command needs:
// config, logging, the git adapter, mirrors, the workspace lifecycle, the
// sync engine, and the identity resolver.
package app

import (
	"github.com/wspcli/wsp/internal/config"
	"github.com/wspcli/wsp/internal/gitrun"
	"github.com/wspcli/wsp/internal/logging"
	"github.com/wspcli/wsp/internal/mirror"
	"github.com/wspcli/wsp/internal/resolve"
	"github.com/wspcli/wsp/internal/safety"
	"github.com/wspcli/wsp/internal/sync"
	"github.com/wspcli/wsp/internal/workspace"
)

// App holds every shared service a CLI command needs to do its work.
type App struct {
	Config    *config.GlobalConfig
	Logger    *logging.Logger
	Git       *gitrun.Engine
	Mirrors   *mirror.Manager
	Lifecycle *workspace.Lifecycle
	Sync      *sync.Engine
	Safety    *safety.Checker
	Resolver  *resolve.Resolver
}

// Option is a functional option for configuring App construction.
type Option func(*options)

type options struct {
	configPath string
	cfg        *config.GlobalConfig
	logger     *logging.Logger
}

// WithConfigPath overrides the config file search, taking precedence over
// the WSP_CONFIG environment variable and the default search locations.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithConfig injects an already-loaded config, bypassing Load entirely
// (used by tests).
func WithConfig(cfg *config.GlobalConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger injects a logger, bypassing logging.New.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New loads config (unless injected), builds every collaborator on top of
// it, and returns the assembled App.
func New(debug bool, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		logger = logging.New(debug)
	}

	engine := gitrun.New()
	mirrors := mirror.New(cfg.MirrorsRoot, engine)
	lifecycle := workspace.New(cfg.WorkspacesRoot, mirrors, engine)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Git:       engine,
		Mirrors:   mirrors,
		Lifecycle: lifecycle,
		Sync:      sync.New(engine),
		Safety:    safety.New(engine),
		Resolver:  resolve.New(cfg),
	}, nil
}
