package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Engine Output
// =============================================================================

// Layout is the positioned result of a layout engine run.
//
// A Layout is immutable once produced: recomputation replaces it wholesale and
// never patches it in place. Width and Height are the bounding size of the
// whole diagram in canvas space.
type Layout struct {
	Direction Direction    `json:"direction"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Nodes     []NodeLayout `json:"nodes"`
	Edges     []EdgeLayout `json:"edges"`
}

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeLayout is a node box. X and Y are the top-left corner.
type NodeLayout struct {
	ID     string       `json:"id"`
	Label  string       `json:"label,omitempty"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Ports  []PortLayout `json:"ports,omitempty"`
}

// PortLayout is the absolute anchor of a port on its node border.
type PortLayout struct {
	ID   string  `json:"id"`
	Side Side    `json:"side"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// EdgeLayout is a routed edge. Points run from the source anchor to the
// target anchor and include the engine's spline control points.
type EdgeLayout struct {
	ID       string  `json:"id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	FromPort string  `json:"from_port,omitempty"`
	ToPort   string  `json:"to_port,omitempty"`
	Points   []Point `json:"points"`
}

// Node returns the positioned node with the given ID.
func (l *Layout) Node(id string) (*NodeLayout, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// Center returns the center of the node box.
func (n *NodeLayout) Center() Point {
	return Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Contains reports whether p lies inside the node box.
func (n *NodeLayout) Contains(p Point) bool {
	return p.X >= n.X && p.X <= n.X+n.Width && p.Y >= n.Y && p.Y <= n.Y+n.Height
}

// Port returns the positioned port with the given ID.
func (n *NodeLayout) Port(id string) (*PortLayout, bool) {
	for i := range n.Ports {
		if n.Ports[i].ID == id {
			return &n.Ports[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that the bounding size is not negative.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width < 0 || l.Height < 0 {
		return Layout{}, fmt.Errorf("layout has negative size %gx%g", l.Width, l.Height)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
