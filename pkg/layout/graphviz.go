package layout

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/linkcanvas/pkg/errors"
	"github.com/matzehuels/linkcanvas/pkg/graph"
)

// pointsPerInch converts Graphviz inches to canvas points.
const pointsPerInch = 72.0

// plainFormat is Graphviz's line-oriented position dump.
const plainFormat = graphviz.Format("plain")

// reservedOptions are graph attributes the engine controls itself.
var reservedOptions = map[string]bool{
	"rankdir": true,
}

// GraphvizEngine lays out graphs with Graphviz dot.
//
// Nodes are fixed-size boxes so the layout honors Node.Size exactly. Ports
// are not handed to Graphviz; they are placed evenly along their node side
// after layout and edge endpoints are snapped onto them.
type GraphvizEngine struct{}

// NewGraphvizEngine creates a Graphviz dot engine.
func NewGraphvizEngine() *GraphvizEngine {
	return &GraphvizEngine{}
}

// Name implements Engine.
func (e *GraphvizEngine) Name() string { return "graphviz-dot" }

// Layout implements Engine.
func (e *GraphvizEngine) Layout(ctx context.Context, in Input) (*graph.Layout, error) {
	dir := in.Direction
	if dir == "" {
		dir = graph.DefaultDirection
	}
	if !dir.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q", dir)
	}
	if err := graph.Validate(in.Graph()); err != nil {
		return nil, err
	}
	if len(in.Nodes) == 0 {
		return &graph.Layout{Direction: dir, Nodes: []graph.NodeLayout{}, Edges: []graph.EdgeLayout{}}, nil
	}

	dot, err := ToDOT(in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := renderPlain(ctx, dot)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pg, err := parsePlain(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read graphviz output")
	}
	return buildLayout(in, dir, pg)
}

// ToDOT converts an input to Graphviz DOT. Node i is named "n<i>" and edge i
// is tagged with pen color "#<i in hex>" so both can be matched in the plain
// output regardless of the order Graphviz emits them in.
func ToDOT(in Input) (string, error) {
	dir := in.Direction
	if dir == "" {
		dir = graph.DefaultDirection
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(dir))
	for _, k := range slices.Sorted(maps.Keys(in.Options)) {
		if err := errors.ValidateLayoutOption(k); err != nil {
			return "", err
		}
		if reservedOptions[strings.ToLower(k)] {
			continue
		}
		fmt.Fprintf(&buf, "  %s=%s;\n", k, dotQuote(in.Options[k]))
	}
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	index := make(map[string]int, len(in.Nodes))
	for i := range in.Nodes {
		n := &in.Nodes[i]
		index[n.ID] = i
		w, h := n.Size()
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s];\n", i, inches(w), inches(h))
	}

	buf.WriteString("\n")
	for i, e := range in.Edges {
		fmt.Fprintf(&buf, "  n%d -> n%d [color=\"%s\"];\n", index[e.From], index[e.To], edgeColor(i))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func renderPlain(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, plainFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func buildLayout(in Input, dir graph.Direction, pg *plainGraph) (*graph.Layout, error) {
	height := pg.Height
	toCanvas := func(x, y float64) graph.Point {
		return graph.Point{X: x * pointsPerInch, Y: (height - y) * pointsPerInch}
	}

	l := &graph.Layout{
		Direction: dir,
		Width:     pg.Width * pointsPerInch,
		Height:    pg.Height * pointsPerInch,
		Nodes:     make([]graph.NodeLayout, len(in.Nodes)),
		Edges:     make([]graph.EdgeLayout, len(in.Edges)),
	}

	for i := range in.Nodes {
		n := &in.Nodes[i]
		pn, ok := pg.Nodes["n"+strconv.Itoa(i)]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "graphviz did not place node %q", n.ID)
		}
		w, h := n.Size()
		c := toCanvas(pn.X, pn.Y)
		nl := graph.NodeLayout{
			ID:     n.ID,
			Label:  n.DisplayLabel(),
			X:      c.X - w/2,
			Y:      c.Y - h/2,
			Width:  w,
			Height: h,
		}
		nl.Ports = placePorts(nl, n.Ports, portSides(in, n, dir))
		l.Nodes[i] = nl
	}

	placed := make([]bool, len(in.Edges))
	for _, pe := range pg.Edges {
		i, ok := parseEdgeColor(pe.Color)
		if !ok || i >= len(in.Edges) || placed[i] {
			continue
		}
		placed[i] = true
		e := in.Edges[i]
		el := graph.EdgeLayout{
			ID:       e.Key(),
			From:     e.From,
			To:       e.To,
			FromPort: e.FromPort,
			ToPort:   e.ToPort,
			Points:   make([]graph.Point, len(pe.Points)),
		}
		for j, p := range pe.Points {
			el.Points[j] = toCanvas(p[0], p[1])
		}
		orientRoute(l, &el)
		snapEndpoints(l, &el)
		l.Edges[i] = el
	}
	for i, ok := range placed {
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "graphviz did not route edge %q", in.Edges[i].Key())
		}
	}
	return l, nil
}

// portSides resolves the side of every port on n. Ports without an explicit
// side go to the flow direction's in-side when only incoming edges use them
// and to its out-side otherwise.
func portSides(in Input, n *graph.Node, dir graph.Direction) map[string]graph.Side {
	sides := make(map[string]graph.Side, len(n.Ports))
	incoming := make(map[string]bool)
	outgoing := make(map[string]bool)
	for _, e := range in.Edges {
		if e.To == n.ID && e.ToPort != "" {
			incoming[e.ToPort] = true
		}
		if e.From == n.ID && e.FromPort != "" {
			outgoing[e.FromPort] = true
		}
	}
	for _, p := range n.Ports {
		switch {
		case p.Side != "":
			sides[p.ID] = p.Side
		case incoming[p.ID] && !outgoing[p.ID]:
			sides[p.ID] = dir.InSide()
		default:
			sides[p.ID] = dir.OutSide()
		}
	}
	return sides
}

// placePorts spreads the ports of each side evenly along it, in declaration
// order.
func placePorts(n graph.NodeLayout, ports []graph.Port, sides map[string]graph.Side) []graph.PortLayout {
	if len(ports) == 0 {
		return nil
	}
	count := make(map[graph.Side]int)
	for _, p := range ports {
		count[sides[p.ID]]++
	}

	seen := make(map[graph.Side]int)
	out := make([]graph.PortLayout, len(ports))
	for i, p := range ports {
		side := sides[p.ID]
		seen[side]++
		f := float64(seen[side]) / float64(count[side]+1)

		pl := graph.PortLayout{ID: p.ID, Side: side}
		switch side {
		case graph.SideNorth:
			pl.X, pl.Y = n.X+f*n.Width, n.Y
		case graph.SideSouth:
			pl.X, pl.Y = n.X+f*n.Width, n.Y+n.Height
		case graph.SideEast:
			pl.X, pl.Y = n.X+n.Width, n.Y+f*n.Height
		case graph.SideWest:
			pl.X, pl.Y = n.X, n.Y+f*n.Height
		}
		out[i] = pl
	}
	return out
}

// orientRoute makes the route run from the source node to the target node.
// Graphviz may emit back edges of a cycle head first.
func orientRoute(l *graph.Layout, el *graph.EdgeLayout) {
	from, ok1 := l.Node(el.From)
	to, ok2 := l.Node(el.To)
	if !ok1 || !ok2 || len(el.Points) < 2 {
		return
	}
	first := el.Points[0]
	if dist2(first, to.Center()) < dist2(first, from.Center()) {
		slices.Reverse(el.Points)
	}
}

func dist2(a, b graph.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// snapEndpoints moves the first and last route points onto the edge's ports.
func snapEndpoints(l *graph.Layout, el *graph.EdgeLayout) {
	if len(el.Points) == 0 {
		return
	}
	if el.FromPort != "" {
		if n, ok := l.Node(el.From); ok {
			if p, ok := n.Port(el.FromPort); ok {
				el.Points[0] = graph.Point{X: p.X, Y: p.Y}
			}
		}
	}
	if el.ToPort != "" {
		if n, ok := l.Node(el.To); ok {
			if p, ok := n.Port(el.ToPort); ok {
				el.Points[len(el.Points)-1] = graph.Point{X: p.X, Y: p.Y}
			}
		}
	}
}

func rankdir(d graph.Direction) string {
	switch d {
	case graph.DirectionUp:
		return "BT"
	case graph.DirectionLeft:
		return "RL"
	case graph.DirectionRight:
		return "LR"
	default:
		return "TB"
	}
}

// dotQuote renders s as a DOT double-quoted string. DOT escapes only quote
// and backslash; any other byte, newlines included, is taken literally.
func dotQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

func edgeColor(i int) string {
	return fmt.Sprintf("#%06x", i)
}

func parseEdgeColor(s string) (int, bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, false
	}
	v, err := strconv.ParseInt(s[1:], 16, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// Ensure GraphvizEngine implements Engine.
var _ Engine = (*GraphvizEngine)(nil)
