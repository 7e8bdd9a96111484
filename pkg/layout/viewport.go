package layout

import (
	"math"

	"github.com/matzehuels/linkcanvas/pkg/graph"
)

// Viewport is the layout slice of the canvas state.
type Viewport struct {
	ContainerWidth  float64 `json:"container_width"`
	ContainerHeight float64 `json:"container_height"`

	// CanvasWidth and CanvasHeight are the layout size scaled by zoom.
	CanvasWidth  float64 `json:"canvas_width"`
	CanvasHeight float64 `json:"canvas_height"`

	// Pan is the screen-space offset of the canvas origin.
	Pan graph.Point `json:"pan"`

	// MaxWidth and MaxHeight bound the drawing surface, which is centered on
	// the container; zero leaves an axis unbounded. Scroll is the offset of
	// the container into the surface on bounded axes.
	MaxWidth  float64     `json:"max_width,omitempty"`
	MaxHeight float64     `json:"max_height,omitempty"`
	Scroll    graph.Point `json:"scroll"`

	// Pointer is the last reported pointer position in canvas coordinates.
	Pointer graph.Point `json:"pointer"`

	// Layout is the current layout, nil until the first success. It is
	// shared between snapshots and must not be modified.
	Layout *graph.Layout `json:"layout,omitempty"`

	// Generation counts layout requests. Pending is true while the latest
	// one is still running.
	Generation uint64 `json:"generation"`
	Pending    bool   `json:"pending"`

	// Err is the failure of the latest request, if any. Layout still holds
	// the last good result.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// ToCanvas converts a screen point to canvas coordinates.
func (v Viewport) ToCanvas(p graph.Point, zoom float64) graph.Point {
	return ScreenToCanvas(p, v.Pan, zoom)
}

// ToScreen converts a canvas point to screen coordinates.
func (v Viewport) ToScreen(p graph.Point, zoom float64) graph.Point {
	return CanvasToScreen(p, v.Pan, zoom)
}

// FitZoom returns the largest zoom at which a w×h layout fits inside a
// cw×ch container. It reports false when any dimension is not positive.
func FitZoom(w, h, cw, ch float64) (float64, bool) {
	if w <= 0 || h <= 0 || cw <= 0 || ch <= 0 {
		return 0, false
	}
	return math.Min(cw/w, ch/h), true
}

// CenterPan returns the pan that centers a w×h layout drawn at zoom inside a
// cw×ch container. The result is negative on an axis where the scaled layout
// overflows the container.
func CenterPan(w, h, zoom, cw, ch float64) graph.Point {
	return graph.Point{
		X: (cw - w*zoom) / 2,
		Y: (ch - h*zoom) / 2,
	}
}

// BoundPan clamps one pan axis so the scaled content stays on a surface
// centered in the container. Content larger than the surface is centered. A
// surface <= 0 is unbounded.
func BoundPan(pan, size, surface, container float64) float64 {
	if surface <= 0 {
		return pan
	}
	origin := (container - surface) / 2
	if size >= surface {
		return (container - size) / 2
	}
	return math.Max(origin, math.Min(pan, origin+surface-size))
}

// ScreenToCanvas maps a screen point into canvas space.
func ScreenToCanvas(p, pan graph.Point, zoom float64) graph.Point {
	if zoom == 0 {
		return graph.Point{}
	}
	return graph.Point{X: (p.X - pan.X) / zoom, Y: (p.Y - pan.Y) / zoom}
}

// CanvasToScreen maps a canvas point into screen space.
func CanvasToScreen(p, pan graph.Point, zoom float64) graph.Point {
	return graph.Point{X: p.X*zoom + pan.X, Y: p.Y*zoom + pan.Y}
}
