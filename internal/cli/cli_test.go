package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/linkcanvas/pkg/cache"
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/layout"
	"github.com/matzehuels/linkcanvas/pkg/observability"
)

// rowEngine places nodes left to right, 100 points apart, and draws every
// edge as a straight line between node centers.
var rowEngine = layout.FuncEngine{
	EngineName: "row",
	Fn: func(ctx context.Context, in layout.Input) (*graph.Layout, error) {
		if err := graph.Validate(in.Graph()); err != nil {
			return nil, err
		}
		l := &graph.Layout{Direction: in.Direction, Width: float64(len(in.Nodes)) * 100, Height: 60}
		for i, n := range in.Nodes {
			l.Nodes = append(l.Nodes, graph.NodeLayout{ID: n.ID, Label: n.Label, X: float64(i) * 100, Width: 80, Height: 60})
		}
		for _, e := range in.Edges {
			from, _ := l.Node(e.From)
			to, _ := l.Node(e.To)
			l.Edges = append(l.Edges, graph.EdgeLayout{
				ID: e.Key(), From: e.From, To: e.To, ToPort: e.ToPort,
				Points: []graph.Point{from.Center(), to.Center()},
			})
		}
		return l, nil
	},
}

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, LogDebug)
	c.engine = rowEngine
	t.Cleanup(observability.Reset)
	return c, &logs
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const threeNodeTOML = `
direction = "RIGHT"
fit = true

[container]
width = 600
height = 200

[[nodes]]
id = "A"

[[nodes]]
id = "B"
ports = [{ id = "in", side = "WEST" }]

[[nodes]]
id = "C"

[[edges]]
from = "A"
to = "B"
to_port = "in"
`

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c, _ := newTestCLI(t)
	root := c.RootCommand()

	for _, name := range []string{"layout", "view", "watch", "cache", "completion"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.Use != appName {
		t.Errorf("Use = %q, want %q", root.Use, appName)
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	tests := []struct {
		spec    string
		noCache bool
		want    string
		wantErr bool
	}{
		{spec: "", want: "null"},
		{spec: "none", want: "null"},
		{spec: "file", want: "file"},
		{spec: "file", noCache: true, want: "null"},
		{spec: "redis://localhost:6379/0", noCache: true, want: "null"},
		{spec: "redis://localhost:6379/0", want: "redis"},
		{spec: "memcached://x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c, err := newCache(tt.spec, tt.noCache)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newCache(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer c.Close()

			var got string
			switch c.(type) {
			case *cache.NullCache:
				got = "null"
			case *cache.FileCache:
				got = "file"
			case *cache.RedisCache:
				got = "redis"
			}
			if got != tt.want {
				t.Errorf("newCache(%q) = %T, want %s", tt.spec, c, tt.want)
			}
		})
	}
}

func TestCacheDirHonorsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(base, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheStatsAndClearCommands(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	out := captureStdout(t)
	c, _ := newTestCLI(t)

	fc, err := cache.NewFileCache(filepath.Join(base, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, input := range []string{"a", "b", "c"} {
		key := cache.LayoutKey{Engine: "row", Input: input}.String()
		if err := fc.Set(ctx, key, []byte(`{}`), cache.TTLLayout); err != nil {
			t.Fatal(err)
		}
	}

	run := func(args ...string) {
		t.Helper()
		root := c.RootCommand()
		root.SetArgs(args)
		if err := root.ExecuteContext(ctx); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	run("cache", "stats")
	for _, want := range []string{"Entries", "3", "row"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("cache stats output missing %q: %s", want, out.String())
		}
	}

	out.Reset()
	run("cache", "clear")
	if !strings.Contains(out.String(), "Cleared 3 cached layouts") {
		t.Errorf("cache clear output = %q", out.String())
	}
	if _, ok, _ := fc.Get(ctx, cache.LayoutKey{Engine: "row", Input: "a"}.String()); ok {
		t.Error("entry still readable after clear")
	}

	out.Reset()
	run("cache", "clear")
	if !strings.Contains(out.String(), "Cache is empty") {
		t.Errorf("second cache clear output = %q", out.String())
	}
}

func TestCachePathCommand(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	c, _ := newTestCLI(t)

	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if want := filepath.Join(base, appName) + "\n"; out.String() != want {
		t.Errorf("cache path = %q, want %q", out.String(), want)
	}
}
