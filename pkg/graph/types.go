package graph

import (
	"fmt"
	"strings"
)

// =============================================================================
// Constants
// =============================================================================

// Direction is the flow direction handed to the layout engine.
type Direction string

// Layout flow directions.
const (
	DirectionDown  Direction = "DOWN"
	DirectionUp    Direction = "UP"
	DirectionLeft  Direction = "LEFT"
	DirectionRight Direction = "RIGHT"
)

// DefaultDirection is used when a graph does not specify a direction.
const DefaultDirection = DirectionDown

// Side identifies the node border a port is anchored on.
type Side string

// Port sides.
const (
	SideNorth Side = "NORTH"
	SideSouth Side = "SOUTH"
	SideEast  Side = "EAST"
	SideWest  Side = "WEST"
)

// Default node box size in points, used when a node does not specify one.
const (
	DefaultNodeWidth  = 150
	DefaultNodeHeight = 60
)

// ParseDirection converts a case-insensitive direction name to a Direction.
// An empty string yields DefaultDirection.
func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return DefaultDirection, nil
	}
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case DirectionDown, DirectionUp, DirectionLeft, DirectionRight:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction: %s (must be DOWN, UP, LEFT or RIGHT)", s)
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionDown, DirectionUp, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// OutSide returns the node side edges leave from for this flow direction.
func (d Direction) OutSide() Side {
	switch d {
	case DirectionUp:
		return SideNorth
	case DirectionLeft:
		return SideWest
	case DirectionRight:
		return SideEast
	default:
		return SideSouth
	}
}

// InSide returns the node side edges arrive at for this flow direction.
func (d Direction) InSide() Side {
	switch d {
	case DirectionUp:
		return SideSouth
	case DirectionLeft:
		return SideEast
	case DirectionRight:
		return SideWest
	default:
		return SideNorth
	}
}

// =============================================================================
// Graph - Canvas Input
// =============================================================================

// Graph is the node-link input rendered by a canvas.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges" toml:"edges"`
}

// Node is a box on the canvas. Width and Height are in points; zero values
// fall back to DefaultNodeWidth and DefaultNodeHeight.
type Node struct {
	ID     string         `json:"id" yaml:"id" toml:"id"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Width  float64        `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height float64        `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	Ports  []Port         `json:"ports,omitempty" yaml:"ports,omitempty" toml:"ports,omitempty"`
	Meta   map[string]any `json:"meta,omitempty" yaml:"meta,omitempty" toml:"meta,omitempty"`
}

// Port is a connection point on a node border.
// An empty Side lets the layout pick the side from the flow direction.
type Port struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Side Side   `json:"side,omitempty" yaml:"side,omitempty" toml:"side,omitempty"`
}

// Edge connects two nodes, optionally through specific ports.
type Edge struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	From     string `json:"from" yaml:"from" toml:"from"`
	To       string `json:"to" yaml:"to" toml:"to"`
	FromPort string `json:"from_port,omitempty" yaml:"from_port,omitempty" toml:"from_port,omitempty"`
	ToPort   string `json:"to_port,omitempty" yaml:"to_port,omitempty" toml:"to_port,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Size returns the node box size with defaults applied.
func (n *Node) Size() (w, h float64) {
	w, h = n.Width, n.Height
	if w <= 0 {
		w = DefaultNodeWidth
	}
	if h <= 0 {
		h = DefaultNodeHeight
	}
	return w, h
}

// Port returns the port with the given ID.
func (n *Node) Port(id string) (*Port, bool) {
	for i := range n.Ports {
		if n.Ports[i].ID == id {
			return &n.Ports[i], true
		}
	}
	return nil, false
}

// Key returns the edge ID, or a "from:port->to:port" key when ID is empty.
func (e *Edge) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.From + ":" + e.FromPort + "->" + e.To + ":" + e.ToPort
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Clone returns a deep copy of the graph structure. Node metadata maps are
// copied shallowly.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		n.Ports = append([]Port(nil), n.Ports...)
		n.Meta = copyMeta(n.Meta)
		out.Nodes[i] = n
	}
	copy(out.Edges, g.Edges)
	return out
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
