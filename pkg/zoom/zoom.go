// Package zoom implements the canvas zoom controller.
//
// A [Controller] owns the current zoom factor and keeps it inside a
// configured [Min, Max] range. Out-of-range requests are clamped, never
// rejected, and the change callback fires only when the stored value actually
// moves.
//
//	z := zoom.New(zoom.Options{Zoom: 1, Min: 0.5, Max: 2})
//	z.SetZoom(5)  // zoom is now 2
//	z.ZoomOut()   // zoom is now 1.9
//
// Controllers are not safe for concurrent use. The canvas serializes all
// calls through its own event loop.
package zoom

import (
	"math"
)

// Defaults applied when Options leave a field unset.
const (
	DefaultMin  = 0.1
	DefaultMax  = 4.0
	DefaultStep = 0.1
)

// Options configures a Controller.
type Options struct {
	Zoom     float64 // initial factor; 0 means 1
	Min      float64 // lower bound; <= 0 means DefaultMin
	Max      float64 // upper bound; <= 0 means DefaultMax
	Step     float64 // ZoomIn/ZoomOut increment; <= 0 means DefaultStep
	Disabled bool    // turns SetZoom, ZoomIn and ZoomOut into no-ops

	// OnChange is called with the new factor after every effective change.
	OnChange func(zoom float64)
}

// State is the zoom slice of the canvas state.
type State struct {
	Zoom     float64 `json:"zoom"`
	Min      float64 `json:"min_zoom"`
	Max      float64 `json:"max_zoom"`
	Disabled bool    `json:"zoom_disabled,omitempty"`
}

// Controller owns the current zoom factor.
type Controller struct {
	zoom     float64
	min, max float64

	// zoom is base + steps*step while stepping, so ZoomIn then ZoomOut lands
	// exactly on base. SetZoom and clamping start a new base.
	base  float64
	steps int


	step     float64
	disabled bool
	onChange func(float64)
}

// New creates a controller. Bounds are normalized (see Reconfigure) and the
// initial factor is clamped into them without notifying.
func New(opts Options) *Controller {
	c := &Controller{
		step:     opts.Step,
		disabled: opts.Disabled,
		onChange: opts.OnChange,
	}
	if c.step <= 0 {
		c.step = DefaultStep
	}
	c.min, c.max = normalizeBounds(opts.Min, opts.Max)

	z := opts.Zoom
	if z == 0 || math.IsNaN(z) {
		z = 1
	}
	c.zoom = Clamp(z, c.min, c.max)
	c.base = c.zoom
	return c
}

// Zoom returns the current factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// Bounds returns the configured range.
func (c *Controller) Bounds() (min, max float64) { return c.min, c.max }

// Disabled reports whether zoom operations are turned off.
func (c *Controller) Disabled() bool { return c.disabled }

// State returns the zoom slice for composition.
func (c *Controller) State() State {
	return State{Zoom: c.zoom, Min: c.min, Max: c.max, Disabled: c.disabled}
}

// SetZoom clamps factor into bounds and stores it. OnChange fires only when
// the stored value changes. NaN is ignored.
func (c *Controller) SetZoom(factor float64) {
	if c.disabled || math.IsNaN(factor) {
		return
	}
	c.rebase(Clamp(factor, c.min, c.max))
}

// ZoomIn increases the factor by one step.
func (c *Controller) ZoomIn() { c.stepBy(1) }

// ZoomOut decreases the factor by one step.
func (c *Controller) ZoomOut() { c.stepBy(-1) }

func (c *Controller) stepBy(n int) {
	if c.disabled {
		return
	}
	steps := c.steps + n
	z := c.base + float64(steps)*c.step
	if z < c.min || z > c.max {
		c.rebase(Clamp(z, c.min, c.max))
		return
	}
	c.steps = steps
	c.set(z)
}

func (c *Controller) rebase(z float64) {
	c.base, c.steps = z, 0
	c.set(z)
}

// SetDisabled toggles the disabled flag.
func (c *Controller) SetDisabled(disabled bool) { c.disabled = disabled }

// SetOnChange replaces the change callback.
func (c *Controller) SetOnChange(fn func(float64)) { c.onChange = fn }

// Reconfigure replaces the bounds and re-clamps the current factor, notifying
// if the factor moves. Bounds <= 0 take the defaults and a swapped pair is
// put back in order.
func (c *Controller) Reconfigure(min, max float64) {
	c.min, c.max = normalizeBounds(min, max)
	if z := Clamp(c.zoom, c.min, c.max); z != c.zoom {
		c.rebase(z)
	}
}

func (c *Controller) set(z float64) {
	if z == c.zoom {
		return
	}
	c.zoom = z
	if c.onChange != nil {
		c.onChange(z)
	}
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

func normalizeBounds(min, max float64) (float64, float64) {
	if min <= 0 || math.IsNaN(min) {
		min = DefaultMin
	}
	if max <= 0 || math.IsNaN(max) {
		max = DefaultMax
	}
	if min > max {
		min, max = max, min
	}
	return min, max
}
