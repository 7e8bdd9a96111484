package canvas

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkcanvas/pkg/errors"
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/layout"
	"github.com/matzehuels/linkcanvas/pkg/linkdrag"
)

// stubEngine places nodes in a row, 100 points apart, and rejects what the
// real engine would reject.
type stubEngine struct {
	calls atomic.Int32
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Layout(ctx context.Context, in layout.Input) (*graph.Layout, error) {
	e.calls.Add(1)
	if err := graph.Validate(in.Graph()); err != nil {
		return nil, err
	}
	l := &graph.Layout{Direction: in.Direction, Height: 60}
	for i, n := range in.Nodes {
		l.Nodes = append(l.Nodes, graph.NodeLayout{ID: n.ID, X: float64(i) * 100, Width: 80, Height: 60})
	}
	l.Width = float64(len(in.Nodes)) * 100
	return l, nil
}

func nodesAB() []graph.Node {
	return []graph.Node{
		{ID: "A", Ports: []graph.Port{{ID: "portOut", Side: graph.SideEast}}},
		{ID: "B", Ports: []graph.Port{{ID: "portIn", Side: graph.SideWest}}},
	}
}

func scenarioConfig() Config {
	cfg := DefaultConfig()
	cfg.Nodes = nodesAB()
	cfg.Direction = graph.DirectionRight
	cfg.MinZoom, cfg.MaxZoom, cfg.Zoom = 0.5, 2, 1
	return cfg
}

func newTestCanvas(t *testing.T, cfg Config) (*Canvas, *stubEngine) {
	t.Helper()
	e := &stubEngine{}
	c := New(context.Background(), cfg, WithEngine(e), WithLogger(log.New(io.Discard)))
	t.Cleanup(func() { c.Close() })
	c.WaitIdle()
	return c, e
}

func TestScenarioZoomBounds(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())

	c.SetZoom(5)
	if got := c.State().Zoom.Zoom; got != 2 {
		t.Errorf("SetZoom(5) = %v, want 2", got)
	}
	c.SetZoom(0.1)
	if got := c.State().Zoom.Zoom; got != 0.5 {
		t.Errorf("SetZoom(0.1) = %v, want 0.5", got)
	}
}

func TestZoomRoundTripThroughActions(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())
	c.SetZoom(1.3)
	s := c.State()
	s.ZoomIn()
	s.ZoomOut()
	if got := c.State().Zoom.Zoom; got != 1.3 {
		t.Errorf("ZoomIn+ZoomOut = %v, want 1.3", got)
	}
}

func TestOnZoomChangeOnlyOnChange(t *testing.T) {
	var calls []float64
	cfg := scenarioConfig()
	cfg.OnZoomChange = func(z float64) { calls = append(calls, z) }
	c, _ := newTestCanvas(t, cfg)

	c.SetZoom(1)
	c.SetZoom(5)
	c.SetZoom(3)
	c.ZoomIn()
	c.SetZoom(0.75)

	if len(calls) != 2 || calls[0] != 2 || calls[1] != 0.75 {
		t.Errorf("OnZoomChange calls = %v, want [2 0.75]", calls)
	}
}

func TestDefaultPolicyCommit(t *testing.T) {
	type call struct{ from, to, port string }
	var calls []call
	cfg := scenarioConfig()
	cfg.OnLink = func(from, to graph.Node, port *graph.Port) {
		c := call{from: from.ID, to: to.ID}
		if port != nil {
			c.port = port.ID
		}
		calls = append(calls, c)
	}
	c, _ := newTestCanvas(t, cfg)

	if !c.StartDrag("A", "portOut") {
		t.Fatal("StartDrag() = false")
	}
	c.EnterDrag("B", "portIn")
	if s := c.State().Drag; !s.Valid || s.Target.PortID() != "portIn" {
		t.Errorf("drag = %+v, want valid candidate B.portIn", s)
	}
	if !c.EndDrag() {
		t.Error("EndDrag() = false, want commit")
	}

	if len(calls) != 1 || calls[0] != (call{"A", "B", "portIn"}) {
		t.Errorf("OnLink calls = %+v, want [{A B portIn}]", calls)
	}
	if c.State().Drag.Active {
		t.Error("drag still active after commit")
	}
}

func TestPredicateFalseNeverCommits(t *testing.T) {
	committed := 0
	cfg := scenarioConfig()
	cfg.LinkCheck = func(from, to graph.Node, port *graph.Port) linkdrag.Verdict { return linkdrag.Deny }
	cfg.OnLink = func(graph.Node, graph.Node, *graph.Port) { committed++ }
	c, _ := newTestCanvas(t, cfg)

	c.StartDrag("A", "portOut")
	c.EnterDrag("B", "portIn")
	if c.EndDrag() || committed != 0 {
		t.Errorf("denied link committed (%d calls)", committed)
	}
}

func TestSecondDragRejected(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())

	c.StartDrag("A", "portOut")
	c.EnterDrag("B", "portIn")
	before := c.State().Drag

	if c.StartDrag("B", "portIn") {
		t.Error("second StartDrag() = true")
	}
	after := c.State().Drag
	if after.ID != before.ID || after.Source.NodeID() != "A" || after.Source.PortID() != "portOut" ||
		after.Target == nil || after.Target.NodeID() != "B" {
		t.Errorf("second gesture changed drag: %+v -> %+v", before, after)
	}
}

func TestUnknownDragTargetsIgnored(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())

	if c.StartDrag("missing", "") || c.StartDrag("A", "nope") {
		t.Error("StartDrag on unknown node or port succeeded")
	}
	c.StartDrag("A", "")
	c.EnterDrag("ghost", "")
	if c.State().Drag.Target != nil {
		t.Error("unknown candidate was recorded")
	}
}

func TestReadonlyPolicy(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Readonly = true
	cfg.Pannable = false
	cfg.Zoomable = false
	c, _ := newTestCanvas(t, cfg)

	before := c.State()
	if c.StartDrag("A", "portOut") {
		t.Error("StartDrag() in readonly = true")
	}
	c.EnterDrag("B", "portIn")
	c.EndDrag()
	c.SetZoom(1.5)
	c.ZoomIn()
	c.ZoomOut()
	c.Pan(10, 10)
	c.SetPan(50, 50)

	after := c.State()
	if after.Drag.Active {
		t.Error("drag left Idle in readonly mode")
	}
	if after.Zoom.Zoom != before.Zoom.Zoom || after.Viewport.Pan != before.Viewport.Pan {
		t.Errorf("zoom/pan changed: %v/%v -> %v/%v", before.Zoom.Zoom, before.Viewport.Pan, after.Zoom.Zoom, after.Viewport.Pan)
	}
	if after.Version != before.Version {
		t.Errorf("Version = %d, want %d (no observable change)", after.Version, before.Version)
	}
	if !after.Readonly || after.Pannable {
		t.Errorf("pass-through flags = readonly %v pannable %v", after.Readonly, after.Pannable)
	}
}

func TestPanWhenPannable(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())
	c.SetPan(10, 20)
	c.Pan(5, 5)
	if got, want := c.State().Viewport.Pan, (graph.Point{X: 15, Y: 25}); got != want {
		t.Errorf("Pan = %+v, want %+v", got, want)
	}
}

func TestSelfLoopKeepsPriorLayout(t *testing.T) {
	var errs []error
	cfg := scenarioConfig()
	cfg.OnLayoutError = func(err error) { errs = append(errs, err) }
	c, _ := newTestCanvas(t, cfg)

	good := c.State().Layout()
	if good == nil {
		t.Fatal("no initial layout")
	}

	bad := cfg
	bad.Edges = []graph.Edge{{ID: "loop", From: "A", To: "A"}}
	c.Configure(context.Background(), bad)
	c.WaitIdle()

	s := c.State()
	if s.Layout() != good {
		t.Error("layout error replaced the previous layout")
	}
	if !errors.Is(s.Viewport.Err, errors.ErrCodeLayout) {
		t.Errorf("Viewport.Err = %v, want LAYOUT_ERROR", s.Viewport.Err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], errors.ErrCodeInvalidGraph) {
		t.Errorf("OnLayoutError = %v, want one INVALID_GRAPH", errs)
	}
}

func TestConfigureSkipsUnchangedGraph(t *testing.T) {
	var changes int
	cfg := scenarioConfig()
	cfg.OnLayoutChange = func(*graph.Layout) { changes++ }
	c, e := newTestCanvas(t, cfg)

	same := cfg
	same.Nodes = nodesAB()
	same.Selections = []string{"A"}
	c.Configure(context.Background(), same)
	c.WaitIdle()

	if got := e.calls.Load(); got != 1 {
		t.Errorf("engine calls = %d, want 1", got)
	}
	if changes != 1 {
		t.Errorf("OnLayoutChange calls = %d, want 1", changes)
	}
	if s := c.State(); !s.Selected("A") || s.Selected("B") {
		t.Errorf("Selections = %v, want [A]", s.Selections)
	}
}

func TestFitCanvasProperty(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MinZoom, cfg.MaxZoom = 0.01, 10
	cfg.ContainerWidth, cfg.ContainerHeight = 150, 400
	c, _ := newTestCanvas(t, cfg)

	c.FitCanvas()
	s := c.State()
	l := s.Layout()
	z := s.Zoom.Zoom
	if l.Width*z > s.Viewport.ContainerWidth+1e-9 || l.Height*z > s.Viewport.ContainerHeight+1e-9 {
		t.Errorf("fit zoom %v: %vx%v does not fit %vx%v", z, l.Width*z, l.Height*z, s.Viewport.ContainerWidth, s.Viewport.ContainerHeight)
	}
	if s.Viewport.CanvasWidth != l.Width*z {
		t.Errorf("CanvasWidth = %v, want %v", s.Viewport.CanvasWidth, l.Width*z)
	}
}

func TestFitOnLayout(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Fit = true
	cfg.ContainerWidth, cfg.ContainerHeight = 300, 300
	c, _ := newTestCanvas(t, cfg)

	// 200x60 layout in 300x300 fits at 1.5.
	s := c.State()
	if s.Zoom.Zoom != 1.5 {
		t.Errorf("zoom = %v, want 1.5", s.Zoom.Zoom)
	}
	if want := (graph.Point{X: 0, Y: 105}); s.Viewport.Pan != want {
		t.Errorf("Pan = %+v, want %+v", s.Viewport.Pan, want)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())

	var mu sync.Mutex
	var versions []uint64
	var zooms []float64
	cancel := c.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, s.Version)
		zooms = append(zooms, s.Zoom.Zoom)
	})

	c.SetZoom(1.5)
	c.SetZoom(1.5) // no change, no snapshot
	c.SetZoom(2)
	cancel()
	c.SetZoom(1)

	mu.Lock()
	defer mu.Unlock()
	if len(zooms) != 2 || zooms[0] != 1.5 || zooms[1] != 2 {
		t.Errorf("snapshots zoom = %v, want [1.5 2]", zooms)
	}
	if len(versions) == 2 && versions[1] <= versions[0] {
		t.Errorf("versions not increasing: %v", versions)
	}
}

func TestCallbacksMayReenter(t *testing.T) {
	var c *Canvas
	cfg := scenarioConfig()
	cfg.OnLink = func(from, to graph.Node, port *graph.Port) {
		next := c.Config()
		next.Edges = append(next.Edges, graph.Edge{From: from.ID, To: to.ID, ToPort: port.ID})
		c.Configure(context.Background(), next)
	}
	c, e := newTestCanvas(t, cfg)

	c.StartDrag("A", "portOut")
	c.EnterDrag("B", "portIn")
	c.EndDrag()
	c.WaitIdle()

	if got := len(c.Config().Edges); got != 1 {
		t.Errorf("edges after link = %d, want 1", got)
	}
	if got := e.calls.Load(); got != 2 {
		t.Errorf("engine calls = %d, want 2", got)
	}
}

func TestMoveDragConvertsToCanvas(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())
	c.SetZoom(2)
	c.SetPan(10, 10)
	c.StartDrag("A", "")
	c.MoveDrag(30, 50)

	if got, want := c.State().Drag.Pointer, (graph.Point{X: 10, Y: 20}); got != want {
		t.Errorf("drag pointer = %+v, want %+v", got, want)
	}
	if got := c.PointerMove(12, 14); got != (graph.Point{X: 1, Y: 2}) {
		t.Errorf("PointerMove = %+v, want {1 2}", got)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())
	got := 0
	c.Subscribe(func(State) { got++ })

	c.Close()
	c.SetZoom(2)
	c.Configure(context.Background(), scenarioConfig())
	if got != 0 {
		t.Errorf("subscriber called %d times after Close", got)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestStateJSON(t *testing.T) {
	c, _ := newTestCanvas(t, scenarioConfig())
	data, err := json.Marshal(c.State())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"zoom":{"zoom":1`, `"viewport":`, `"drag":{"active":false`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("state JSON missing %s: %s", want, data)
		}
	}
	if strings.Contains(string(data), "Actions") {
		t.Error("state JSON contains Actions")
	}
}

func TestWaitLayoutFromCallbacks(t *testing.T) {
	ready := make(chan struct{})
	changed := make(chan struct{}, 1)
	failed := make(chan struct{}, 1)
	published := make(chan struct{}, 1)
	signal := func(ch chan struct{}) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	var c *Canvas
	cfg := scenarioConfig()
	cfg.OnLayoutChange = func(*graph.Layout) {
		<-ready
		c.WaitLayout()
		signal(changed)
	}
	cfg.OnLayoutError = func(error) {
		c.WaitLayout()
		signal(failed)
	}
	c = New(context.Background(), cfg, WithEngine(&stubEngine{}), WithLogger(log.New(io.Discard)))
	t.Cleanup(func() { c.Close() })
	close(ready)
	waitFor(t, changed, "OnLayoutChange")

	c.Subscribe(func(State) {
		c.WaitLayout()
		signal(published)
	})
	bad := cfg
	bad.Edges = []graph.Edge{{ID: "loop", From: "B", To: "B"}}
	c.Configure(context.Background(), bad)
	waitFor(t, failed, "OnLayoutError")
	waitFor(t, published, "subscriber")
	c.WaitIdle()
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s did not return from WaitLayout", what)
	}
}

func TestUnencodableMetaFailsLayout(t *testing.T) {
	var errs []error
	cfg := scenarioConfig()
	cfg.Nodes = nodesAB()
	cfg.Nodes[0].Meta = map[string]any{"weight": math.NaN()}
	cfg.OnLayoutError = func(err error) { errs = append(errs, err) }
	c, e := newTestCanvas(t, cfg)

	s := c.State()
	if !errors.Is(s.Viewport.Err, errors.ErrCodeLayout) || !errors.Is(s.Viewport.Err, errors.ErrCodeInvalidInput) {
		t.Errorf("Viewport.Err = %v, want LAYOUT_ERROR caused by INVALID_INPUT", s.Viewport.Err)
	}
	if len(errs) != 1 {
		t.Errorf("OnLayoutError calls = %d, want 1", len(errs))
	}
	if got := e.calls.Load(); got != 0 {
		t.Errorf("engine calls = %d, want 0", got)
	}
	if s.Layout() != nil {
		t.Error("layout applied for an unencodable input")
	}
}

func TestMaxSizeBoundsPan(t *testing.T) {
	cfg := scenarioConfig()
	cfg.ContainerWidth, cfg.ContainerHeight = 400, 300
	cfg.MaxWidth, cfg.MaxHeight = 600, 500
	c, _ := newTestCanvas(t, cfg)

	// 200x60 layout on a 600x500 surface spanning [-100, 500]x[-100, 400].
	vp := c.State().Viewport
	if vp.MaxWidth != 600 || vp.MaxHeight != 500 {
		t.Errorf("max size = %vx%v, want 600x500", vp.MaxWidth, vp.MaxHeight)
	}
	if want := (graph.Point{X: 100, Y: 100}); vp.Scroll != want {
		t.Errorf("Scroll = %+v, want %+v", vp.Scroll, want)
	}

	tests := []struct {
		name string
		act  func()
		want graph.Point
	}{
		{"set past edges", func() { c.SetPan(1000, -1000) }, graph.Point{X: 300, Y: -100}},
		{"pan inside", func() { c.Pan(-50, 20) }, graph.Point{X: 250, Y: -80}},
		{"zoom shrinks room", func() { c.SetZoom(2) }, graph.Point{X: 100, Y: -80}},
	}
	for _, tt := range tests {
		tt.act()
		if got := c.State().Viewport.Pan; got != tt.want {
			t.Errorf("%s: Pan = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
