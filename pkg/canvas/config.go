package canvas

import (
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/layout"
	"github.com/matzehuels/linkcanvas/pkg/linkdrag"
	"github.com/matzehuels/linkcanvas/pkg/zoom"
)

// Config is the caller-owned input of a canvas. The canvas copies what it
// keeps, so the caller may reuse a Config after passing it in.
type Config struct {
	// Graph
	Nodes         []graph.Node
	Edges         []graph.Edge
	Direction     graph.Direction
	LayoutOptions map[string]string

	// Zoom. Zero bounds take zoom.DefaultMin and zoom.DefaultMax.
	Zoom     float64
	MinZoom  float64
	MaxZoom  float64
	Zoomable bool

	// Viewport
	Pannable        bool
	Fit             bool
	Center          bool
	ContainerWidth  float64
	ContainerHeight float64

	// MaxWidth and MaxHeight bound the drawing surface around the container.
	// Pans keep the layout on it. Zero leaves an axis unbounded.
	MaxWidth  float64
	MaxHeight float64

	// Interaction
	Readonly   bool
	Selections []string

	// LinkCheck decides drag targets; nil means any other node is valid.
	LinkCheck linkdrag.CheckFunc

	// OnLink is called once per committed drag-to-link gesture.
	OnLink linkdrag.LinkFunc

	// Notifications, each fired at most once per actual change.
	OnLayoutChange func(l *graph.Layout)
	OnLayoutError  func(err error)
	OnZoomChange   func(zoom float64)
}

// DefaultConfig returns a config with zoom and pan enabled, centering on and
// zoom 1 within the default bounds.
func DefaultConfig() Config {
	return Config{
		Direction: graph.DefaultDirection,
		Zoom:      1,
		MinZoom:   zoom.DefaultMin,
		MaxZoom:   zoom.DefaultMax,
		Zoomable:  true,
		Pannable:  true,
		Center:    true,
	}
}

// Input returns the layout engine input described by the config.
func (c Config) Input() layout.Input {
	dir := c.Direction
	if dir == "" {
		dir = graph.DefaultDirection
	}
	return layout.Input{
		Nodes:     c.Nodes,
		Edges:     c.Edges,
		Direction: dir,
		Options:   c.LayoutOptions,
	}
}

// Graph returns the config's nodes and edges.
func (c Config) Graph() graph.Graph {
	return graph.Graph{Nodes: c.Nodes, Edges: c.Edges}
}

func (c Config) clone() Config {
	in := c.Input().Clone()
	c.Nodes, c.Edges, c.LayoutOptions = in.Nodes, in.Edges, in.Options
	c.Selections = append([]string(nil), c.Selections...)
	return c
}
