package layout

import (
	"context"

	"github.com/matzehuels/linkcanvas/pkg/cache"
	"github.com/matzehuels/linkcanvas/pkg/errors"
	"github.com/matzehuels/linkcanvas/pkg/graph"
)

// Engine computes positioned layouts. Implementations must not retain
// mutable state between calls.
type Engine interface {
	// Name identifies the engine in cache keys and logs.
	Name() string

	// Layout positions in. Structural problems are reported with
	// errors.ErrCodeInvalidGraph.
	Layout(ctx context.Context, in Input) (*graph.Layout, error)
}

// Input is everything an engine needs for one run.
type Input struct {
	Nodes     []graph.Node      `json:"nodes"`
	Edges     []graph.Edge      `json:"edges"`
	Direction graph.Direction   `json:"direction"`
	Options   map[string]string `json:"options,omitempty"`
}

// Key returns a structural hash of the input. Two inputs with equal content
// have equal keys regardless of slice or map identity. An input without a
// JSON encoding (NaN sizes, unencodable Meta values) fails with
// errors.ErrCodeInvalidInput.
func (in Input) Key() (string, error) {
	if in.Direction == "" {
		in.Direction = graph.DefaultDirection
	}
	if in.Nodes == nil {
		in.Nodes = []graph.Node{}
	}
	if in.Edges == nil {
		in.Edges = []graph.Edge{}
	}
	if len(in.Options) == 0 {
		in.Options = nil
	}
	key, err := cache.HashJSON(in)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "layout input")
	}
	return key, nil
}

// Graph returns the input's node-link graph.
func (in Input) Graph() graph.Graph {
	return graph.Graph{Nodes: in.Nodes, Edges: in.Edges}
}

// Clone returns a deep copy so the caller's slices can change without
// affecting a running layout.
func (in Input) Clone() Input {
	g := in.Graph().Clone()
	out := Input{
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Direction: in.Direction,
	}
	if in.Options != nil {
		out.Options = make(map[string]string, len(in.Options))
		for k, v := range in.Options {
			out.Options[k] = v
		}
	}
	return out
}

// FuncEngine adapts a function to the Engine interface.
type FuncEngine struct {
	EngineName string
	Fn         func(ctx context.Context, in Input) (*graph.Layout, error)
}

// Name implements Engine.
func (f FuncEngine) Name() string { return f.EngineName }

// Layout implements Engine.
func (f FuncEngine) Layout(ctx context.Context, in Input) (*graph.Layout, error) {
	return f.Fn(ctx, in)
}
