// Package pkg provides the core libraries of Linkcanvas, an interactive
// node-link canvas.
//
// # Overview
//
// A canvas takes a graph (nodes with optional ports, and edges between them),
// lays it out automatically, and exposes the result as a pannable and zoomable
// view in which new edges can be created by dragging from one node to another.
// The libraries produce a view model; drawing it is up to the caller (the
// linkcanvas CLI draws it in the terminal).
//
// # Architecture
//
// Three controllers each own one slice of state and the canvas merges them
// into a single snapshot:
//
//	canvas.Config
//	     ↓
//	┌──────────────┬─────────────────────┬──────────────────┐
//	│ [zoom]       │ [layout]            │ [linkdrag]       │
//	│ clamped zoom │ engine + viewport   │ drag-to-link     │
//	└──────────────┴─────────────────────┴──────────────────┘
//	     ↓
//	canvas.State (published to subscribers)
//
// Layout runs asynchronously. Every request gets a generation number and a
// result that arrives after a newer request was made is discarded, so the
// view always converges on the latest graph.
//
// # Quick Start
//
//	cfg := canvas.DefaultConfig()
//	cfg.Nodes = []graph.Node{{ID: "api"}, {ID: "db"}}
//	cfg.Edges = []graph.Edge{{From: "api", To: "db"}}
//	cfg.Fit = true
//	cfg.ContainerWidth, cfg.ContainerHeight = 1200, 800
//	cfg.OnLink = func(from, to graph.Node, port *graph.Port) {
//	    // persist the new edge, then Configure with it
//	}
//
//	c := canvas.New(ctx, cfg)
//	defer c.Close()
//	c.WaitLayout()
//	st := c.State()
//
// # Main Packages
//
// [canvas] - The orchestrator. Owns the controllers, serializes all
// mutations, composes [canvas.State] and notifies subscribers. Also provides
// the context accessor for code that runs inside a canvas scope.
//
// [layout] - The layout [layout.Engine] interface, the Graphviz engine, a
// caching engine decorator, the coordinator that keeps the current layout and
// viewport (fit, center, pan, screen/canvas transforms).
//
// [zoom] - Zoom factor clamped to configurable bounds.
//
// [linkdrag] - The drag-to-link gesture state machine with a pluggable
// validity predicate.
//
// [graph] - Graph and layout types, JSON serialization and validation.
//
// ## Infrastructure
//
// [config] - Configuration files (TOML, YAML, JSON) describing a canvas.
//
// [cache] - Layout cache backends: file, Redis and a no-op cache.
//
// [observability] - Hooks for layout, zoom, link and cache events.
//
// [errors] - Coded errors shared by all packages.
//
// [buildinfo] - Version information stamped at build time.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/canvas/...   # Specific package
//	go test -run Example       # Examples only
//
// [canvas]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/canvas
// [layout]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/layout
// [zoom]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/zoom
// [linkdrag]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/linkdrag
// [graph]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/graph
// [config]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/linkcanvas/pkg/buildinfo
package pkg
