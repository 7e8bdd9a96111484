package graph

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/linkcanvas/pkg/errors"
)

func twoNodes() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "A", Ports: []Port{{ID: "out", Side: SideEast}}},
			{ID: "B", Ports: []Port{{ID: "in", Side: SideWest}}},
		},
		Edges: []Edge{{ID: "A-B", From: "A", To: "B", FromPort: "out", ToPort: "in"}},
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"", DirectionDown, false},
		{"right", DirectionRight, false},
		{" LEFT ", DirectionLeft, false},
		{"UP", DirectionUp, false},
		{"diagonal", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDirectionSides(t *testing.T) {
	tests := []struct {
		dir     Direction
		out, in Side
	}{
		{DirectionDown, SideSouth, SideNorth},
		{DirectionUp, SideNorth, SideSouth},
		{DirectionRight, SideEast, SideWest},
		{DirectionLeft, SideWest, SideEast},
	}
	for _, tt := range tests {
		if got := tt.dir.OutSide(); got != tt.out {
			t.Errorf("%s.OutSide() = %v, want %v", tt.dir, got, tt.out)
		}
		if got := tt.dir.InSide(); got != tt.in {
			t.Errorf("%s.InSide() = %v, want %v", tt.dir, got, tt.in)
		}
	}
}

func TestNodeSizeDefaults(t *testing.T) {
	n := Node{ID: "A"}
	w, h := n.Size()
	if w != DefaultNodeWidth || h != DefaultNodeHeight {
		t.Errorf("Size() = %vx%v, want %vx%v", w, h, DefaultNodeWidth, DefaultNodeHeight)
	}

	n = Node{ID: "A", Width: 10, Height: 20}
	if w, h := n.Size(); w != 10 || h != 20 {
		t.Errorf("Size() = %vx%v, want 10x20", w, h)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *Graph)
		wantErr string
	}{
		{name: "valid", mutate: func(g *Graph) {}},
		{
			name:    "duplicate node",
			mutate:  func(g *Graph) { g.Nodes = append(g.Nodes, Node{ID: "A"}) },
			wantErr: "duplicate node",
		},
		{
			name:    "unknown target node",
			mutate:  func(g *Graph) { g.Edges[0].To = "X" },
			wantErr: "unknown node",
		},
		{
			name:    "unknown port",
			mutate:  func(g *Graph) { g.Edges[0].ToPort = "nope" },
			wantErr: "unknown port",
		},
		{
			name: "self-referential edge",
			mutate: func(g *Graph) {
				g.Edges = append(g.Edges, Edge{ID: "loop", From: "A", To: "A"})
			},
			wantErr: "self-referential",
		},
		{
			name:    "invalid side",
			mutate:  func(g *Graph) { g.Nodes[0].Ports[0].Side = "UPWARDS" },
			wantErr: "invalid side",
		},
		{
			name:    "empty id",
			mutate:  func(g *Graph) { g.Nodes[1].ID = "" },
			wantErr: "cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := twoNodes()
			tt.mutate(&g)
			err := Validate(g)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
			if !errors.Is(err, errors.ErrCodeInvalidGraph) {
				t.Errorf("Validate() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidGraph)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := twoNodes()
	g.Nodes[0].Meta = map[string]any{"team": "core"}

	c := g.Clone()
	c.Nodes[0].Ports[0].ID = "changed"
	c.Nodes[0].Meta["team"] = "other"
	c.Edges[0].To = "Z"

	if g.Nodes[0].Ports[0].ID != "out" {
		t.Error("Clone shares port slices with the original")
	}
	if g.Nodes[0].Meta["team"] != "core" {
		t.Error("Clone shares metadata with the original")
	}
	if g.Edges[0].To != "B" {
		t.Error("Clone shares edges with the original")
	}
}

func TestGraphFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteGraphFile(twoNodes(), path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}

	got, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if got.NodeCount() != 2 || got.EdgeCount() != 1 {
		t.Errorf("ReadGraphFile = %d nodes, %d edges, want 2, 1", got.NodeCount(), got.EdgeCount())
	}
	if got.Edges[0].FromPort != "out" {
		t.Errorf("FromPort = %q, want out", got.Edges[0].FromPort)
	}
}

func TestReadGraphFileMissing(t *testing.T) {
	_, err := ReadGraphFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadGraphFile(missing) = %v, want %v", err, errors.ErrCodeFileNotFound)
	}
}

func TestReadGraphInvalidJSON(t *testing.T) {
	_, err := ReadGraph(strings.NewReader("{not json"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadGraph(invalid) = %v, want %v", err, errors.ErrCodeInvalidFormat)
	}
}

func TestMarshalEmptyGraph(t *testing.T) {
	data, err := MarshalGraph(Graph{})
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	if !bytes.Contains(data, []byte(`"nodes": []`)) {
		t.Errorf("MarshalGraph(empty) = %s, want empty nodes array", data)
	}
}

func TestLayoutFileRoundTrip(t *testing.T) {
	l := Layout{
		Direction: DirectionRight,
		Width:     400,
		Height:    100,
		Nodes: []NodeLayout{
			{ID: "A", X: 0, Y: 20, Width: 150, Height: 60},
		},
	}
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if got.Width != 400 || got.Direction != DirectionRight {
		t.Errorf("ReadLayoutFile = %+v", got)
	}
	n, ok := got.Node("A")
	if !ok {
		t.Fatal("Node(A) not found")
	}
	if c := n.Center(); c.X != 75 || c.Y != 50 {
		t.Errorf("Center() = %+v, want {75 50}", c)
	}
}

func TestUnmarshalLayoutRejectsNegativeSize(t *testing.T) {
	if _, err := UnmarshalLayout([]byte(`{"width": -1, "height": 10}`)); err == nil {
		t.Error("UnmarshalLayout(negative width) = nil error, want error")
	}
}
