package layout

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkcanvas/pkg/errors"
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/observability"
)

// Zoomer is the live zoom the coordinator reads for centering and writes
// when fitting. *zoom.Controller satisfies it.
type Zoomer interface {
	Zoom() float64
	SetZoom(factor float64)
}

// Dispatcher runs fn on the owner's event loop. The coordinator hands every
// engine result to it; fn must run serialized with all other calls on the
// Coordinator.
type Dispatcher func(fn func())

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDispatcher sets the event-loop dispatcher. The default runs fn
// directly on the engine goroutine, which is only safe when the caller does
// not touch the coordinator until Wait returns.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Coordinator) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// WithFit makes every new layout zoom to fit the container.
func WithFit(fit bool) Option {
	return func(c *Coordinator) { c.fit = fit }
}

// WithCenter makes every new layout center in the container.
func WithCenter(center bool) Option {
	return func(c *Coordinator) { c.center = center }
}

// WithBounds bounds the drawing surface to maxW×maxH points, centered on the
// container. Zero leaves an axis unbounded.
func WithBounds(maxW, maxH float64) Option {
	return func(c *Coordinator) { c.maxW, c.maxH = max(maxW, 0), max(maxH, 0) }
}

// WithCallbacks sets the layout-changed and layout-failed notifications.
func WithCallbacks(onChange func(*graph.Layout), onError func(error)) Option {
	return func(c *Coordinator) {
		c.onChange = onChange
		c.onError = onError
	}
}

// Coordinator drives an Engine and owns the viewport.
//
// A Coordinator is not safe for concurrent use. All methods, and every
// function passed to the Dispatcher, must be serialized by the owner. Wait
// is the exception and may be called from any goroutine.
type Coordinator struct {
	engine   Engine
	zoom     Zoomer
	logger   *log.Logger
	dispatch Dispatcher

	fit, center bool
	onChange    func(*graph.Layout)
	onError     func(error)

	containerW, containerH float64
	pan, pointer           graph.Point
	layout                 *graph.Layout
	err                    error

	maxW, maxH float64

	lastKey   string
	requested bool
	gen       uint64
	pending   bool
	cancel    context.CancelFunc
	closed    bool

	inflight inflight
}

// NewCoordinator creates a coordinator for engine, reading and writing zoom
// through z.
func NewCoordinator(engine Engine, z Zoomer, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:   engine,
		zoom:     z,
		logger:   log.Default(),
		dispatch: func(fn func()) { fn() },
	}
	c.inflight.cond = sync.NewCond(&c.inflight.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Layout Requests
// =============================================================================

// Update requests a layout for in. It returns false without doing anything
// when in is structurally equal to the previous request or the coordinator
// is closed. Otherwise the previous request is superseded: its context is
// cancelled and its result will be discarded.
//
// An input without a structural key is never equal to anything. It fails
// like an engine error, asynchronously and through onError.
func (c *Coordinator) Update(ctx context.Context, in Input) bool {
	if c.closed {
		return false
	}
	key, keyErr := in.Key()
	if keyErr == nil && c.requested && key == c.lastKey {
		return false
	}
	c.lastKey, c.requested = key, keyErr == nil

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.pending = true

	in = in.Clone()
	engine := c.engine
	c.logger.Debug("layout requested",
		"engine", engine.Name(),
		"generation", gen,
		"nodes", len(in.Nodes),
		"edges", len(in.Edges))
	observability.Canvas().OnLayoutStart(ctx, engine.Name(), len(in.Nodes))

	// The in-flight count drops as soon as the result is applied, before the
	// owner flushes its notifications, so they may call Wait.
	c.inflight.add()
	release := sync.OnceFunc(c.inflight.done)
	go func() {
		defer release()
		defer cancel()

		start := time.Now()
		var l *graph.Layout
		err := keyErr
		if err == nil {
			l, err = engine.Layout(runCtx, in)
		}
		duration := time.Since(start)
		observability.Canvas().OnLayoutComplete(runCtx, engine.Name(), duration, err)

		c.dispatch(func() {
			c.complete(gen, l, err, duration)
			release()
		})
	}()
	return true
}

// SetFlags changes the fit and center behavior applied to new layouts.
func (c *Coordinator) SetFlags(fit, center bool) {
	c.fit, c.center = fit, center
}

// Wait blocks until every requested layout has been applied or discarded.
// It must not be called from onChange or onError, which run before the
// request counts as done.
func (c *Coordinator) Wait() {
	c.inflight.wait()
}

// Close cancels the in-flight request and turns further updates into no-ops.
// A result that arrives after Close is dropped.
func (c *Coordinator) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.pending = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) complete(gen uint64, l *graph.Layout, err error, duration time.Duration) {
	if gen != c.gen {
		if !c.closed {
			c.logger.Debug("discarding stale layout", "generation", gen, "current", c.gen)
			observability.Canvas().OnLayoutDiscarded(context.Background(), c.engine.Name(), gen)
		}
		return
	}
	c.pending = false
	c.cancel = nil

	if err == nil && l == nil {
		err = errors.New(errors.ErrCodeInternal, "engine %s returned no layout", c.engine.Name())
	}
	if err != nil {
		if errors.IsCanceled(err) {
			c.requested = false
		}
		lerr := errors.Wrap(errors.ErrCodeLayout, err, "layout generation %d", gen)
		c.err = lerr
		c.logger.Warn("layout failed, keeping previous layout", "generation", gen, "error", err)
		if c.onError != nil {
			c.onError(lerr)
		}
		return
	}

	c.layout = l
	c.err = nil
	c.logger.Debug("layout applied",
		"generation", gen,
		"width", l.Width,
		"height", l.Height,
		"duration", duration)

	if c.fit {
		c.Fit()
	} else if c.center {
		c.Center()
	}
	if c.onChange != nil {
		c.onChange(l)
	}
}

// =============================================================================
// Viewport
// =============================================================================

// Layout returns the current layout, nil before the first success.
func (c *Coordinator) Layout() *graph.Layout { return c.layout }

// Err returns the failure of the latest request, or nil.
func (c *Coordinator) Err() error { return c.err }

// Viewport returns the layout slice for composition.
func (c *Coordinator) Viewport() Viewport {
	z := c.zoom.Zoom()
	v := Viewport{
		ContainerWidth:  c.containerW,
		ContainerHeight: c.containerH,
		Pan:             c.pan,
		Pointer:         c.pointer,
		Layout:          c.layout,
		Generation:      c.gen,
		Pending:         c.pending,
		Err:             c.err,
		MaxWidth:        c.maxW,
		MaxHeight:       c.maxH,
	}
	if c.layout != nil {
		v.CanvasWidth = c.layout.Width * z
		v.CanvasHeight = c.layout.Height * z
	}
	if c.maxW > 0 {
		v.Scroll.X = (c.maxW - c.containerW) / 2
	}
	if c.maxH > 0 {
		v.Scroll.Y = (c.maxH - c.containerH) / 2
	}
	if c.err != nil {
		v.Error = c.err.Error()
	}
	return v
}

// SetContainerSize records the measured container size and re-applies fit or
// center when they are enabled.
func (c *Coordinator) SetContainerSize(w, h float64) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if w == c.containerW && h == c.containerH {
		return
	}
	c.containerW, c.containerH = w, h
	if c.fit {
		c.Fit()
	} else if c.center {
		c.Center()
	}
}

// Fit zooms so the whole layout fits the container, then centers it. The
// zoom goes through the Zoomer, so it is clamped to the zoom bounds and a
// disabled zoom leaves it unchanged. It returns false when there is no
// layout or no container size yet.
func (c *Coordinator) Fit() bool {
	if c.layout == nil {
		return false
	}
	z, ok := FitZoom(c.layout.Width, c.layout.Height, c.containerW, c.containerH)
	if !ok {
		return false
	}
	c.zoom.SetZoom(z)
	c.Center()
	return true
}

// Center pans so the layout's bounding box is centered in the container at
// the current zoom. It returns false when there is no layout or no container
// size yet.
func (c *Coordinator) Center() bool {
	if c.layout == nil || c.containerW <= 0 || c.containerH <= 0 {
		return false
	}
	c.pan = CenterPan(c.layout.Width, c.layout.Height, c.zoom.Zoom(), c.containerW, c.containerH)
	return true
}

// Pan moves the canvas by a screen-space delta, within the surface bounds.
func (c *Coordinator) Pan(dx, dy float64) {
	c.SetPan(c.pan.X+dx, c.pan.Y+dy)
}

// SetPan sets the screen-space pan offset, within the surface bounds.
func (c *Coordinator) SetPan(x, y float64) {
	c.pan = graph.Point{X: x, Y: y}
	c.ClampPan()
}

// SetBounds replaces the surface bounds and clamps the pan into them.
func (c *Coordinator) SetBounds(maxW, maxH float64) {
	c.maxW, c.maxH = max(maxW, 0), max(maxH, 0)
	c.ClampPan()
}

// ClampPan moves the pan so the scaled layout lies inside the bounded
// surface. A layout larger than the surface on an axis is centered on it.
// Unbounded axes and a missing layout leave the pan alone.
func (c *Coordinator) ClampPan() {
	if c.layout == nil {
		return
	}
	z := c.zoom.Zoom()
	c.pan.X = BoundPan(c.pan.X, c.layout.Width*z, c.maxW, c.containerW)
	c.pan.Y = BoundPan(c.pan.Y, c.layout.Height*z, c.maxH, c.containerH)
}

// PointerMove records a pointer position given in screen coordinates and
// returns it in canvas coordinates.
func (c *Coordinator) PointerMove(sx, sy float64) graph.Point {
	c.pointer = ScreenToCanvas(graph.Point{X: sx, Y: sy}, c.pan, c.zoom.Zoom())
	return c.pointer
}

// =============================================================================
// In-flight Tracking
// =============================================================================

// inflight counts running engine goroutines. Unlike sync.WaitGroup it allows
// new work to be added while another goroutine is waiting.
type inflight struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func (f *inflight) add() {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.n--
	if f.n == 0 {
		f.cond.Broadcast()
	}
	f.mu.Unlock()
}

func (f *inflight) wait() {
	f.mu.Lock()
	for f.n > 0 {
		f.cond.Wait()
	}
	f.mu.Unlock()
}
