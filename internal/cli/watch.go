package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkcanvas/pkg/canvas"
	"github.com/matzehuels/linkcanvas/pkg/config"
	"github.com/matzehuels/linkcanvas/pkg/graph"
)

// watchDebounce coalesces bursts of file events (editors often write a file
// in several steps) into one reload.
const watchDebounce = 100 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "watch [config]",
		Short: "Re-apply a configuration file whenever it changes",
		Long: `Re-apply a configuration file whenever it changes.

The watch command keeps a canvas open and watches the configuration file and
the graph file it references. On every change the file is reloaded and pushed
into the canvas; the layout is only recomputed when the graph, direction or
layout options actually changed. Layout updates and errors are logged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runWatch runs until ctx is cancelled.
func (c *CLI) runWatch(ctx context.Context, path string, noCache bool) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}

	w := &watcher{path: path, logger: loggerFromContext(ctx)}
	s, err := c.openCanvas(ctx, f, w.canvasConfig(f), noCache)
	if err != nil {
		return err
	}
	defer s.Close()
	w.session = s

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	w.fs = fw

	if err := w.watchDirs(); err != nil {
		return err
	}
	w.logger.Info("watching", "config", path)
	w.loop(ctx)
	return nil
}

// =============================================================================
// Watcher
// =============================================================================

// watcher reloads a config file into an open canvas. Directories are watched
// rather than files so that rename-on-save editors keep working.
type watcher struct {
	path    string
	logger  *log.Logger
	session *session
	fs      *fsnotify.Watcher
	dirs    map[string]bool
}

// canvasConfig converts f and attaches the logging callbacks.
func (w *watcher) canvasConfig(f *config.File) canvas.Config {
	cfg := f.CanvasConfig()
	cfg.OnLayoutChange = func(l *graph.Layout) {
		w.logger.Info("layout updated", "nodes", len(l.Nodes), "edges", len(l.Edges), "width", l.Width, "height", l.Height)
	}
	cfg.OnLayoutError = func(err error) {
		w.logger.Error("layout failed", "err", err)
	}
	return cfg
}

// watchDirs adds the directories of the watched files that are not watched
// yet.
func (w *watcher) watchDirs() error {
	if w.dirs == nil {
		w.dirs = make(map[string]bool)
	}
	for _, p := range w.session.file.WatchPaths() {
		dir := filepath.Dir(p)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	return nil
}

// relevant reports whether ev touches one of the watched files.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	for _, p := range w.session.file.WatchPaths() {
		if filepath.Clean(p) == name {
			return true
		}
	}
	return false
}

func (w *watcher) loop(ctx context.Context) {
	debounce := time.NewTimer(0)
	<-debounce.C
	pending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped watching")
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			pending = true
			debounce.Reset(watchDebounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)

		case <-debounce.C:
			if pending {
				pending = false
				w.reload(ctx)
			}
		}
	}
}

// reload re-reads the config and applies it. A broken file is logged and the
// canvas keeps its current configuration.
func (w *watcher) reload(ctx context.Context) bool {
	prog := newProgress(w.logger)
	f, err := config.Load(w.path)
	if err != nil {
		w.logger.Error("reload failed", "config", w.path, "err", err)
		return false
	}
	if f.Cache != w.session.file.Cache {
		w.logger.Warn("cache setting changes take effect on restart", "cache", f.Cache)
	}

	w.session.file = f
	w.session.canvas.Configure(ctx, w.canvasConfig(f))
	if w.fs != nil {
		if err := w.watchDirs(); err != nil {
			w.logger.Warn("cannot watch graph file", "err", err)
		}
	}
	prog.done("Reloaded " + filepath.Base(w.path))
	return true
}
