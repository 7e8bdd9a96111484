package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkcanvas/pkg/buildinfo"
	"github.com/matzehuels/linkcanvas/pkg/cache"
	"github.com/matzehuels/linkcanvas/pkg/canvas"
	"github.com/matzehuels/linkcanvas/pkg/config"
	"github.com/matzehuels/linkcanvas/pkg/errors"
	"github.com/matzehuels/linkcanvas/pkg/layout"
	"github.com/matzehuels/linkcanvas/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "linkcanvas"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	logOut io.Writer
	hooks  *logHooks

	// engine overrides the Graphviz engine; tests set it.
	engine layout.Engine
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{
		Logger: logger,
		logOut: w,
		hooks:  &logHooks{logger: logger},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Linkcanvas lays out node-link graphs and lets you wire them up",
		Long:         `Linkcanvas computes automatic layouts for node-link graphs, exposes a pannable and zoomable view of them, and supports creating edges by dragging from one node to another.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			observability.SetCanvasHooks(c.hooks)
			observability.SetCacheHooks(c.hooks)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Canvas Factory
// =============================================================================

// session is a canvas together with the cache backing its engine.
type session struct {
	file   *config.File
	canvas *canvas.Canvas
	cache  cache.Cache
}

// Close closes the canvas and then its cache.
func (s *session) Close() error {
	s.canvas.Close()
	return s.cache.Close()
}

// openCanvas builds a canvas for f. cfg is usually f.CanvasConfig() with the
// command's callbacks attached.
func (c *CLI) openCanvas(ctx context.Context, f *config.File, cfg canvas.Config, noCache bool) (*session, error) {
	lc, err := newCache(f.Cache, noCache)
	if err != nil {
		return nil, err
	}
	opts := []canvas.Option{
		canvas.WithLogger(c.Logger),
		canvas.WithCache(lc, cache.NewScopedKeyer(nil, appName)),
	}
	if c.engine != nil {
		opts = append(opts, canvas.WithEngine(c.engine))
	}
	c.Logger.Debug("opening canvas", "config", f.Path, "nodes", len(cfg.Nodes), "edges", len(cfg.Edges), "cache", f.Cache)
	return &session{file: f, canvas: canvas.New(ctx, cfg, opts...), cache: lc}, nil
}

// newCache resolves a cache setting: "" and "none" disable caching, "file"
// uses the user cache directory, and redis:// URLs connect to Redis.
func newCache(spec string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch {
	case spec == "" || spec == config.CacheNone:
		return cache.NewNullCache(), nil
	case spec == config.CacheFile:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		return cache.NewRedisCache(spec)
	}
	return nil, errors.New(errors.ErrCodeConfiguration, "unsupported cache %q", spec)
}

// cacheDir returns the layout cache directory, honoring XDG_CACHE_HOME.
func cacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
