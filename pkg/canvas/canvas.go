package canvas

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/layout"
	"github.com/matzehuels/linkcanvas/pkg/linkdrag"
	"github.com/matzehuels/linkcanvas/pkg/observability"
	"github.com/matzehuels/linkcanvas/pkg/zoom"
)

// Canvas is the orchestrator. It is safe for concurrent use.
type Canvas struct {
	mu     sync.Mutex
	logger *log.Logger
	ctx    context.Context

	cfg   Config
	zoom  *zoom.Controller
	coord *layout.Coordinator
	drag  *linkdrag.Controller

	state   State
	version uint64
	subs    []subscriber
	nextSub int
	queue   []func()
	closed  bool

	// delivering counts notification batches being run outside the lock.
	delivering int
	idle       *sync.Cond
}

type subscriber struct {
	id int
	fn func(State)
}

// New builds a canvas from cfg and starts the initial layout. ctx scopes
// hook calls and layout runs.
func New(ctx context.Context, cfg Config, opts ...Option) *Canvas {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	engine := o.engine
	if engine == nil {
		engine = layout.NewGraphvizEngine()
	}
	if o.cache != nil {
		engine = layout.NewCachedEngine(engine, o.cache, o.keyer, o.logger)
	}

	c := &Canvas{
		logger: o.logger,
		ctx:    ctx,
		cfg:    cfg.clone(),
	}
	c.idle = sync.NewCond(&c.mu)
	c.zoom = zoom.New(zoom.Options{
		Zoom:     cfg.Zoom,
		Min:      cfg.MinZoom,
		Max:      cfg.MaxZoom,
		Disabled: !cfg.Zoomable,
		OnChange: c.zoomChanged,
	})
	c.coord = layout.NewCoordinator(engine, c.zoom,
		layout.WithLogger(o.logger),
		layout.WithDispatcher(c.dispatch),
		layout.WithFit(cfg.Fit),
		layout.WithCenter(cfg.Center),
		layout.WithBounds(cfg.MaxWidth, cfg.MaxHeight),
		layout.WithCallbacks(c.layoutChanged, c.layoutFailed),
	)
	c.drag = linkdrag.New(linkdrag.Options{
		Readonly: cfg.Readonly,
		Check:    cfg.LinkCheck,
		OnLink:   c.linked,
	})

	c.mu.Lock()
	c.coord.SetContainerSize(cfg.ContainerWidth, cfg.ContainerHeight)
	c.coord.Update(ctx, c.cfg.Input())
	c.recompose()
	c.queue = nil
	c.mu.Unlock()
	return c
}

// =============================================================================
// Lifecycle
// =============================================================================

// Configure applies a new configuration. The layout is recomputed only when
// nodes, edges, direction or layout options changed structurally. Zoom bounds
// are replaced and the current zoom re-clamped; the zoom factor itself is set
// only when cfg.Zoom differs from the previously configured value.
func (c *Canvas) Configure(ctx context.Context, cfg Config) {
	c.do(func() bool {
		prev := c.cfg
		c.cfg = cfg.clone()

		c.zoom.SetDisabled(false)
		c.zoom.Reconfigure(cfg.MinZoom, cfg.MaxZoom)
		if cfg.Zoom != prev.Zoom && cfg.Zoom > 0 {
			c.zoom.SetZoom(cfg.Zoom)
		}
		c.zoom.SetDisabled(!cfg.Zoomable)

		if cfg.Readonly != prev.Readonly {
			c.drag.SetReadonly(cfg.Readonly)
		}
		c.drag.SetCallbacks(cfg.LinkCheck, c.linked)

		c.coord.SetFlags(cfg.Fit, cfg.Center)
		if cfg.ContainerWidth > 0 || cfg.ContainerHeight > 0 {
			c.coord.SetContainerSize(cfg.ContainerWidth, cfg.ContainerHeight)
		}
		c.coord.SetBounds(cfg.MaxWidth, cfg.MaxHeight)
		if c.coord.Update(ctx, c.cfg.Input()) {
			c.logger.Debug("graph changed, relayout", "nodes", len(cfg.Nodes), "edges", len(cfg.Edges))
		}
		return true
	})
}

// Close ends the canvas lifetime. The in-flight layout is cancelled,
// subscribers are dropped and the ambient accessor starts failing.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.coord.Close()
	c.drag.Cancel()
	c.subs = nil
	c.queue = nil
	return nil
}

// WaitLayout blocks until every requested layout has been applied to the
// state. Notifications about it may still be running on another goroutine.
// It may be called from callbacks and subscribers.
func (c *Canvas) WaitLayout() {
	c.coord.Wait()
}

// WaitIdle blocks until no layout is in flight and every queued notification
// has been delivered, including layouts requested by those notifications.
// It must not be called from a callback or subscriber.
func (c *Canvas) WaitIdle() {
	for {
		c.coord.Wait()
		c.mu.Lock()
		for c.delivering > 0 {
			c.idle.Wait()
		}
		pending := !c.closed && c.coord.Viewport().Pending
		c.mu.Unlock()
		if !pending {
			return
		}
	}
}

// =============================================================================
// Reading
// =============================================================================

// State returns the latest snapshot.
func (c *Canvas) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns a copy of the current configuration.
func (c *Canvas) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.clone()
}

// Subscribe registers fn for every new snapshot and returns a function that
// removes it. Snapshots are delivered in order, outside the canvas lock.
func (c *Canvas) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// snapshot returns the latest state and whether the canvas is still open.
func (c *Canvas) snapshot() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, !c.closed
}

// =============================================================================
// Actions
// =============================================================================

// SetContainerSize reports the measured container size.
func (c *Canvas) SetContainerSize(w, h float64) {
	c.mutate(func() { c.coord.SetContainerSize(w, h) })
}

// SetZoom clamps factor into the zoom bounds and applies it.
func (c *Canvas) SetZoom(factor float64) {
	c.mutate(func() {
		c.zoom.SetZoom(factor)
		c.coord.ClampPan()
	})
}

// ZoomIn increases the zoom by one step.
func (c *Canvas) ZoomIn() {
	c.mutate(func() {
		c.zoom.ZoomIn()
		c.coord.ClampPan()
	})
}

// ZoomOut decreases the zoom by one step.
func (c *Canvas) ZoomOut() {
	c.mutate(func() {
		c.zoom.ZoomOut()
		c.coord.ClampPan()
	})
}

// CenterCanvas centers the layout in the container at the current zoom.
func (c *Canvas) CenterCanvas() {
	c.mutate(func() { c.coord.Center() })
}

// FitCanvas zooms the layout to fit the container and centers it.
func (c *Canvas) FitCanvas() {
	c.mutate(func() { c.coord.Fit() })
}

// Pan moves the canvas by a screen-space delta.
func (c *Canvas) Pan(dx, dy float64) {
	c.mutate(func() {
		if c.cfg.Pannable {
			c.coord.Pan(dx, dy)
		}
	})
}

// SetPan sets the screen-space pan offset.
func (c *Canvas) SetPan(x, y float64) {
	c.mutate(func() {
		if c.cfg.Pannable {
			c.coord.SetPan(x, y)
		}
	})
}

// PointerMove records the pointer position and returns it in canvas
// coordinates.
func (c *Canvas) PointerMove(sx, sy float64) graph.Point {
	var p graph.Point
	c.mutate(func() { p = c.coord.PointerMove(sx, sy) })
	return p
}

// StartDrag begins a drag-to-link gesture on a node or one of its ports. It
// returns false when the canvas is readonly, a gesture is already active or
// the node or port is unknown.
func (c *Canvas) StartDrag(nodeID, portID string) bool {
	var started bool
	c.do(func() bool {
		n, p, ok := c.lookup(nodeID, portID)
		if !ok {
			return false
		}
		started = c.drag.Start(n, p)
		if started {
			c.logger.Debug("link drag started", "gesture", c.drag.State().ID, "node", nodeID, "port", portID)
		}
		return started
	})
	return started
}

// EnterDrag makes a node or port the drag candidate.
func (c *Canvas) EnterDrag(nodeID, portID string) {
	c.do(func() bool {
		n, p, ok := c.lookup(nodeID, portID)
		if !ok || !c.drag.Dragging() {
			return false
		}
		c.drag.Enter(n, p)
		return true
	})
}

// LeaveDrag clears the drag candidate.
func (c *Canvas) LeaveDrag() {
	c.do(func() bool {
		if !c.drag.Dragging() {
			return false
		}
		c.drag.Leave()
		return true
	})
}

// MoveDrag records the drag cursor, given in screen coordinates.
func (c *Canvas) MoveDrag(sx, sy float64) {
	c.do(func() bool {
		if !c.drag.Dragging() {
			return false
		}
		p := layout.ScreenToCanvas(graph.Point{X: sx, Y: sy}, c.coord.Viewport().Pan, c.zoom.Zoom())
		c.drag.Move(p)
		return true
	})
}

// EndDrag releases the gesture, committing it over a valid candidate. It
// reports whether a link was committed.
func (c *Canvas) EndDrag() bool {
	var committed bool
	c.do(func() bool {
		if !c.drag.Dragging() {
			return false
		}
		id := c.drag.State().ID
		committed = c.drag.End()
		c.logger.Debug("link drag ended", "gesture", id, "committed", committed)
		return true
	})
	return committed
}

// CancelDrag abandons the gesture.
func (c *Canvas) CancelDrag() {
	c.do(func() bool {
		if !c.drag.Dragging() {
			return false
		}
		c.drag.Cancel()
		return true
	})
}

// Ensure Canvas implements Actions.
var _ Actions = (*Canvas)(nil)

// =============================================================================
// Event Loop
// =============================================================================

// do runs fn under the lock, recomposes when it reports a change and then
// flushes queued notifications outside the lock.
func (c *Canvas) do(fn func() bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if fn() {
		c.recompose()
	}
	queue := c.queue
	c.queue = nil
	if len(queue) == 0 {
		c.mu.Unlock()
		return
	}
	c.delivering++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.delivering--
		if c.delivering == 0 {
			c.idle.Broadcast()
		}
		c.mu.Unlock()
	}()
	for _, f := range queue {
		f()
	}
}

// mutate runs fn and recomposes only if the viewport or zoom slice moved.
func (c *Canvas) mutate(fn func()) {
	c.do(func() bool {
		vp, zs := c.coord.Viewport(), c.zoom.State()
		fn()
		return vp != c.coord.Viewport() || zs != c.zoom.State()
	})
}

// dispatch is the coordinator's way back onto the event loop.
func (c *Canvas) dispatch(fn func()) {
	c.mutate(fn)
}

func (c *Canvas) enqueue(fn func()) {
	c.queue = append(c.queue, fn)
}

// recompose builds a new snapshot and queues its broadcast.
func (c *Canvas) recompose() {
	c.version++
	s := State{
		Selections: append([]string(nil), c.cfg.Selections...),
		Readonly:   c.cfg.Readonly,
		Pannable:   c.cfg.Pannable,
	}
	s.Viewport = c.coord.Viewport()
	s.Zoom = c.zoom.State()
	s.Drag = c.drag.State()
	s.Version = c.version
	s.Actions = c
	c.state = s

	if len(c.subs) == 0 {
		return
	}
	subs := append([]subscriber(nil), c.subs...)
	c.enqueue(func() {
		for _, sub := range subs {
			sub.fn(s)
		}
	})
}

func (c *Canvas) lookup(nodeID, portID string) (graph.Node, *graph.Port, bool) {
	g := c.cfg.Graph()
	n, ok := g.Node(nodeID)
	if !ok {
		return graph.Node{}, nil, false
	}
	if portID == "" {
		return *n, nil, true
	}
	p, ok := n.Port(portID)
	if !ok {
		return graph.Node{}, nil, false
	}
	return *n, p, true
}

// =============================================================================
// Controller Callbacks
// =============================================================================
//
// These run while the lock is held. User callbacks are queued.

func (c *Canvas) zoomChanged(z float64) {
	observability.Canvas().OnZoomChange(c.ctx, z)
	if fn := c.cfg.OnZoomChange; fn != nil {
		c.enqueue(func() { fn(z) })
	}
}

func (c *Canvas) layoutChanged(l *graph.Layout) {
	c.logger.Debug("layout changed", "nodes", len(l.Nodes), "width", l.Width, "height", l.Height)
	if fn := c.cfg.OnLayoutChange; fn != nil {
		c.enqueue(func() { fn(l) })
	}
}

func (c *Canvas) layoutFailed(err error) {
	if fn := c.cfg.OnLayoutError; fn != nil {
		c.enqueue(func() { fn(err) })
	}
}

func (c *Canvas) linked(from, to graph.Node, port *graph.Port) {
	observability.Canvas().OnLinkCommit(c.ctx, from.ID, to.ID)
	c.logger.Info("link committed", "from", from.ID, "to", to.ID)
	if fn := c.cfg.OnLink; fn != nil {
		c.enqueue(func() { fn(from, to, port) })
	}
}
