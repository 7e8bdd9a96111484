// Package cli implements the linkcanvas command-line interface.
//
// The CLI loads a canvas configuration file (see package config), builds a
// canvas from it and either prints the composed state, opens an interactive
// terminal view, or watches the file and relays changes into the canvas.
//
// # Commands
//
// The main commands are:
//   - layout: Compute the layout once and write the canvas state as JSON
//   - view: Interactive terminal canvas with pan, zoom and drag-to-link
//   - watch: Re-apply the configuration whenever the file changes
//   - cache: Manage the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and canvas and cache events are reported
// through observability hooks.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkcanvas/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Reloaded canvas.toml (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks reports canvas and cache events at debug level and counts cache
// hits for the stats line.
type logHooks struct {
	logger *log.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

var (
	_ observability.CanvasHooks = (*logHooks)(nil)
	_ observability.CacheHooks  = (*logHooks)(nil)
)

func (h *logHooks) OnLayoutStart(_ context.Context, engine string, nodeCount int) {
	h.logger.Debug("layout started", "engine", engine, "nodes", nodeCount)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout failed", "engine", engine, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("layout finished", "engine", engine, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnLayoutDiscarded(_ context.Context, engine string, generation uint64) {
	h.logger.Debug("stale layout discarded", "engine", engine, "generation", generation)
}

func (h *logHooks) OnZoomChange(_ context.Context, zoom float64) {
	h.logger.Debug("zoom changed", "zoom", zoom)
}

func (h *logHooks) OnLinkCommit(_ context.Context, from, to string) {
	h.logger.Debug("link created", "from", from, "to", to)
}

func (h *logHooks) OnCacheHit(_ context.Context, key string) {
	h.hits.Add(1)
	h.logger.Debug("layout cache hit", "key", key)
}

func (h *logHooks) OnCacheMiss(_ context.Context, key string) {
	h.misses.Add(1)
	h.logger.Debug("layout cache miss", "key", key)
}

func (h *logHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("layout cached", "key", key, "bytes", size)
}

// cached reports whether the most recent lookups were all served from cache.
func (h *logHooks) cached() bool {
	return h.hits.Load() > 0 && h.misses.Load() == 0
}
