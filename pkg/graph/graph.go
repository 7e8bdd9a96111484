package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/linkcanvas/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a Graph to indented JSON bytes.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a Graph as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(g Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded Graph.
// The graph is not validated; integrity is checked by the layout engine.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
		}
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader.
// Use ReadGraphFile for files or pass bytes.NewReader for in-memory data.
func ReadGraph(r io.Reader) (Graph, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Structural Validation
// =============================================================================

// Validate checks the structural integrity a layout engine needs:
//   - Node, port and edge identifiers are valid and unique
//   - Edges reference existing nodes and ports
//   - No edge connects a node to itself
//
// All failures carry errors.ErrCodeInvalidGraph.
func Validate(g Graph) error {
	nodes := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if err := errors.ValidateID("node", n.ID); err != nil {
			return err
		}
		if _, dup := nodes[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node %q", n.ID)
		}
		nodes[n.ID] = n

		ports := make(map[string]bool, len(n.Ports))
		for _, p := range n.Ports {
			if err := errors.ValidateID("port", p.ID); err != nil {
				return err
			}
			if ports[p.ID] {
				return errors.New(errors.ErrCodeInvalidGraph, "duplicate port %q on node %q", p.ID, n.ID)
			}
			ports[p.ID] = true
			switch p.Side {
			case "", SideNorth, SideSouth, SideEast, SideWest:
			default:
				return errors.New(errors.ErrCodeInvalidGraph, "port %q on node %q has invalid side %q", p.ID, n.ID, p.Side)
			}
		}
	}

	edges := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		key := e.Key()
		if edges[key] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge %q", key)
		}
		edges[key] = true

		from, ok := nodes[e.From]
		if !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown node %q", key, e.From)
		}
		to, ok := nodes[e.To]
		if !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown node %q", key, e.To)
		}
		if e.From == e.To {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q is self-referential on node %q", key, e.From)
		}
		if e.FromPort != "" {
			if _, ok := from.Port(e.FromPort); !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown port %q on node %q", key, e.FromPort, e.From)
			}
		}
		if e.ToPort != "" {
			if _, ok := to.Port(e.ToPort); !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown port %q on node %q", key, e.ToPort, e.To)
			}
		}
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g Graph, w io.Writer) error {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (Graph, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return data, nil
}
