package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkcanvas/pkg/buildinfo"
	"github.com/matzehuels/linkcanvas/pkg/canvas"
	"github.com/matzehuels/linkcanvas/pkg/config"
	"github.com/matzehuels/linkcanvas/pkg/graph"
)

// Terminal cells are mapped to canvas points at a fixed ratio; a cell is
// roughly twice as tall as it is wide.
const (
	cellWidth  = 8.0
	cellHeight = 16.0

	// panCells is how far one arrow key press moves the view.
	panCells = 4

	// chromeRows is the number of rows taken by the header and status bar.
	chromeRows = 3
)

// viewCommand creates the interactive view command.
func (c *CLI) viewCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "view [config]",
		Short: "Explore and link a graph in the terminal",
		Long: `Explore and link a graph in the terminal.

Keys:
  arrows      pan
  + / -       zoom in / out
  f           fit the diagram into the window
  c           center the diagram
  tab         focus the next node (shift+tab: previous)
  l           start a link from the focused node
  enter       link onto the focused node
  esc         cancel the link
  q           quit

New links are added to the in-memory graph and trigger a relayout. The
configuration file is not modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runView(ctx context.Context, path string, noCache bool) error {
	f, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	m, s, err := c.newView(ctx, f, noCache)
	if err != nil {
		return fmt.Errorf("initialize canvas: %w", err)
	}
	defer s.Close()
	cancel := s.canvas.Subscribe(m.notify)
	defer cancel()

	// Log lines would tear the alternate screen; errors show in the status bar.
	c.Logger.SetOutput(io.Discard)
	defer c.Logger.SetOutput(c.logOut)

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// newView opens a canvas for f whose committed links are added to its graph.
func (c *CLI) newView(ctx context.Context, f *config.File, noCache bool) (viewModel, *session, error) {
	ed := &linkEditor{ctx: ctx}
	cfg := f.CanvasConfig()
	cfg.OnLink = ed.link
	s, err := c.openCanvas(ctx, f, cfg, noCache)
	if err != nil {
		return viewModel{}, nil, err
	}
	ed.canvas = s.canvas
	return newViewModel(s.canvas, f.Path), s, nil
}

// =============================================================================
// Link Editing
// =============================================================================

// linkEditor appends committed links to the canvas graph.
type linkEditor struct {
	ctx    context.Context
	canvas *canvas.Canvas
}

// link runs as the canvas OnLink callback.
func (e *linkEditor) link(from, to graph.Node, port *graph.Port) {
	cfg := e.canvas.Config()
	edge := graph.Edge{From: from.ID, To: to.ID}
	if port != nil {
		edge.ToPort = port.ID
	}
	key := edge.Key()
	for _, existing := range cfg.Edges {
		if existing.Key() == key {
			return
		}
	}
	cfg.Edges = append(cfg.Edges, edge)
	// Keep the measured terminal size instead of the configured one.
	cfg.ContainerWidth, cfg.ContainerHeight = 0, 0
	e.canvas.Configure(e.ctx, cfg)
}

// =============================================================================
// Model
// =============================================================================

// stateMsg tells the model that a new canvas snapshot is available.
type stateMsg struct{}

var (
	viewNodeStyle     = lipgloss.NewStyle().Foreground(colorWhite)
	viewFocusStyle    = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	viewSelectedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	viewSourceStyle   = StyleWarning.Bold(true)
	viewInvalidStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	viewEdgeStyle     = lipgloss.NewStyle().Foreground(colorDim)
	viewPortStyle     = lipgloss.NewStyle().Foreground(colorBlue)
	viewStatusStyle   = lipgloss.NewStyle().Foreground(colorGray)
	viewErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// viewModel is the bubbletea model of the view command. The canvas is the
// source of truth; the model only keeps the latest snapshot and the focus.
type viewModel struct {
	canvas  *canvas.Canvas
	path    string
	state   canvas.State
	focus   int
	width   int
	height  int
	updates chan struct{}
}

func newViewModel(cv *canvas.Canvas, path string) viewModel {
	return viewModel{
		canvas:  cv,
		path:    path,
		state:   cv.State(),
		updates: make(chan struct{}, 1),
	}
}

// notify is the canvas subscriber. It never blocks: a pending wakeup already
// covers the newer snapshot.
func (m viewModel) notify(canvas.State) {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

func (m viewModel) wait() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return stateMsg{}
	}
}

func (m viewModel) Init() tea.Cmd {
	return m.wait()
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = m.canvas.State()
		m.clampFocus()
		return m, m.wait()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		rows := max(msg.Height-chromeRows, 1)
		m.canvas.SetContainerSize(float64(msg.Width)*cellWidth, float64(rows)*cellHeight)

	case tea.KeyMsg:
		if quit := m.handleKey(msg.String()); quit {
			return m, tea.Quit
		}
	}
	m.state = m.canvas.State()
	return m, nil
}

// handleKey applies one key press to the canvas and reports whether to quit.
func (m *viewModel) handleKey(key string) bool {
	cv := m.canvas
	switch key {
	case "q", "ctrl+c":
		return true
	case "left":
		cv.Pan(panCells*cellWidth, 0)
	case "right":
		cv.Pan(-panCells*cellWidth, 0)
	case "up":
		cv.Pan(0, panCells*cellHeight)
	case "down":
		cv.Pan(0, -panCells*cellHeight)
	case "+", "=":
		cv.ZoomIn()
	case "-", "_":
		cv.ZoomOut()
	case "f":
		cv.FitCanvas()
	case "c":
		cv.CenterCanvas()
	case "tab":
		m.moveFocus(1)
	case "shift+tab":
		m.moveFocus(-1)
	case "l":
		if n, ok := m.focused(); ok && cv.StartDrag(n.ID, "") {
			c := m.state.Viewport.ToScreen(n.Center(), m.state.Zoom.Zoom)
			cv.MoveDrag(c.X, c.Y)
		}
	case "enter":
		cv.EndDrag()
	case "esc":
		cv.CancelDrag()
	}
	return false
}

func (m *viewModel) moveFocus(delta int) {
	l := m.state.Layout()
	if l == nil || len(l.Nodes) == 0 {
		return
	}
	n := len(l.Nodes)
	m.focus = ((m.focus+delta)%n + n) % n

	if !m.state.Drag.Active {
		return
	}
	node := l.Nodes[m.focus]
	if node.ID == m.state.Drag.Source.NodeID() {
		m.canvas.LeaveDrag()
	} else {
		m.canvas.EnterDrag(node.ID, "")
	}
	c := m.state.Viewport.ToScreen(node.Center(), m.state.Zoom.Zoom)
	m.canvas.MoveDrag(c.X, c.Y)
}

func (m *viewModel) clampFocus() {
	l := m.state.Layout()
	if l == nil || m.focus < len(l.Nodes) {
		return
	}
	m.focus = 0
}

func (m viewModel) focused() (graph.NodeLayout, bool) {
	l := m.state.Layout()
	if l == nil || m.focus >= len(l.Nodes) {
		return graph.NodeLayout{}, false
	}
	return l.Nodes[m.focus], true
}

// =============================================================================
// Rendering
// =============================================================================

func (m viewModel) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName) + " " + StyleDim.Render(buildinfo.Short()+"  "+m.path))
	b.WriteString("\n")
	b.WriteString(m.renderCanvas(m.width, max(m.height-chromeRows, 1)))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("arrows pan  +/- zoom  f fit  c center  tab focus  l link  enter commit  esc cancel  q quit"))
	return b.String()
}

func (m viewModel) statusLine() string {
	st := m.state
	parts := []string{
		fmt.Sprintf("zoom %.0f%%", st.Zoom.Zoom*100),
		fmt.Sprintf("pan %.0f,%.0f", st.Viewport.Pan.X, st.Viewport.Pan.Y),
		fmt.Sprintf("gen %d", st.Viewport.Generation),
	}
	if st.Viewport.Pending {
		parts = append(parts, "layout...")
	}
	if st.Readonly {
		parts = append(parts, "readonly")
	}
	if n, ok := m.focused(); ok {
		parts = append(parts, "focus "+n.ID)
	}
	if d := st.Drag; d.Active {
		link := "linking " + d.Source.NodeID()
		if d.Target != nil {
			mark := "✓"
			if !d.Valid {
				mark = "✗"
			}
			link += " → " + d.Target.NodeID() + " " + mark
		}
		parts = append(parts, link)
	}
	line := viewStatusStyle.Render(strings.Join(parts, "  ·  "))
	if st.Viewport.Err != nil {
		line += "  " + viewErrorStyle.Render(st.Viewport.Err.Error())
	}
	return line
}

// cellKind selects the style of a grid cell.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellEdge
	cellPort
	cellNode
	cellSelected
	cellFocus
	cellSource
	cellInvalid
)

func (k cellKind) style() lipgloss.Style {
	switch k {
	case cellEdge:
		return viewEdgeStyle
	case cellPort:
		return viewPortStyle
	case cellSelected:
		return viewSelectedStyle
	case cellFocus:
		return viewFocusStyle
	case cellSource:
		return viewSourceStyle
	case cellInvalid:
		return viewInvalidStyle
	}
	return viewNodeStyle
}

type cell struct {
	r    rune
	kind cellKind
}

// grid is a fixed-size character canvas. Writes outside it are dropped.
type grid struct {
	w, h  int
	cells []cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	for i := range g.cells {
		g.cells[i] = cell{r: ' '}
	}
	return g
}

func (g *grid) set(x, y int, r rune, kind cellKind) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y*g.w+x] = cell{r: r, kind: kind}
}

func (g *grid) text(x, y int, s string, kind cellKind) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r, kind)
	}
}

func (g *grid) line(x0, y0, x1, y1 int, r rune, kind cellKind) {
	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		g.set(x0, y0, r, kind)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		g.set(x, y, r, kind)
	}
}

// String renders the grid, styling runs of equal kind together.
func (g *grid) String() string {
	var b strings.Builder
	for y := 0; y < g.h; y++ {
		row := g.cells[y*g.w : (y+1)*g.w]
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].kind == row[start].kind {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:x] {
				run.WriteRune(c.r)
			}
			if row[start].kind == cellEmpty {
				b.WriteString(run.String())
			} else {
				b.WriteString(row[start].kind.style().Render(run.String()))
			}
			start = x
		}
		if y < g.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m viewModel) renderCanvas(cols, rows int) string {
	g := newGrid(cols, rows)
	st := m.state
	l := st.Layout()
	if l == nil {
		g.text(1, 0, "waiting for layout...", cellEdge)
		return g.String()
	}

	z := st.Zoom.Zoom
	toCell := func(p graph.Point) (int, int) {
		s := st.Viewport.ToScreen(p, z)
		return int(math.Floor(s.X / cellWidth)), int(math.Floor(s.Y / cellHeight))
	}

	for _, e := range l.Edges {
		for i := 1; i < len(e.Points); i++ {
			x0, y0 := toCell(e.Points[i-1])
			x1, y1 := toCell(e.Points[i])
			g.line(x0, y0, x1, y1, '·', cellEdge)
		}
	}

	for i, n := range l.Nodes {
		x0, y0 := toCell(graph.Point{X: n.X, Y: n.Y})
		x1, y1 := toCell(graph.Point{X: n.X + n.Width, Y: n.Y + n.Height})
		x1 = max(x1, x0+2)
		y1 = max(y1, y0+2)
		kind := m.nodeKind(i, n.ID)

		g.line(x0, y0, x1, y0, '─', kind)
		g.line(x0, y1, x1, y1, '─', kind)
		g.line(x0, y0, x0, y1, '│', kind)
		g.line(x1, y0, x1, y1, '│', kind)
		g.set(x0, y0, '┌', kind)
		g.set(x1, y0, '┐', kind)
		g.set(x0, y1, '└', kind)
		g.set(x1, y1, '┘', kind)

		label := n.Label
		if label == "" {
			label = n.ID
		}
		inner := x1 - x0 - 1
		if r := []rune(label); len(r) > inner {
			label = string(r[:max(inner, 0)])
		}
		g.text(x0+1+(inner-len([]rune(label)))/2, (y0+y1)/2, label, kind)

		for _, p := range n.Ports {
			px, py := toCell(graph.Point{X: p.X, Y: p.Y})
			g.set(px, py, '●', cellPort)
		}
	}

	if d := st.Drag; d.Active {
		if src, ok := l.Node(d.Source.NodeID()); ok {
			x0, y0 := toCell(src.Center())
			x1, y1 := toCell(d.Pointer)
			kind := cellSource
			if d.Target != nil && !d.Valid {
				kind = cellInvalid
			}
			g.line(x0, y0, x1, y1, '•', kind)
		}
	}
	return g.String()
}

func (m viewModel) nodeKind(i int, id string) cellKind {
	d := m.state.Drag
	switch {
	case d.Active && d.Source.NodeID() == id:
		return cellSource
	case d.Active && d.Target != nil && d.Target.NodeID() == id && !d.Valid:
		return cellInvalid
	case i == m.focus:
		return cellFocus
	case m.state.Selected(id):
		return cellSelected
	}
	return cellNode
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
