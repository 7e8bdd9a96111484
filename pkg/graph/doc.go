// Package graph provides the node-link graph and layout types shared by the
// canvas packages.
//
// This package defines the canonical wire format for linkcanvas graphs, used
// for JSON files, layout caching and the CLI's state dumps.
//
// # Core Types
//
//   - [Graph]: Node-link input (nodes with ports, edges between node/port pairs)
//   - [Layout]: Engine output (absolute node boxes, port anchors, edge routes)
//   - [Direction]: Layout flow direction (DOWN, UP, LEFT, RIGHT)
//
// Node, port and edge identifiers are opaque. The canvas forwards them to the
// layout engine and to caller callbacks without interpreting them.
//
// # Graph Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [
//	    {"id": "A", "width": 120, "height": 40, "ports": [{"id": "out", "side": "EAST"}]},
//	    {"id": "B", "ports": [{"id": "in", "side": "WEST"}]}
//	  ],
//	  "edges": [{"id": "A-B", "from": "A", "to": "B", "from_port": "out", "to_port": "in"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	data, _ := graph.MarshalGraph(g)
//	l, _ := graph.UnmarshalLayout(layoutJSON)
//
// # Coordinate Spaces
//
// Layout coordinates are canvas space: origin at the top-left corner of the
// laid-out diagram, y growing downwards, units in points, before zoom and pan.
//
// # Concurrency
//
// Graph and Layout values are treated as immutable once handed to the canvas.
// All functions are safe for concurrent reads but not concurrent writes.
package graph
