package canvas

import (
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/layout"
	"github.com/matzehuels/linkcanvas/pkg/linkdrag"
	"github.com/matzehuels/linkcanvas/pkg/zoom"
)

// Actions are the operations a consumer may invoke on the canvas. Every
// State carries them, so a renderer holding only a snapshot can still act.
type Actions interface {
	// Zoom
	SetZoom(factor float64)
	ZoomIn()
	ZoomOut()

	// Viewport
	CenterCanvas()
	FitCanvas()
	Pan(dx, dy float64)
	SetPan(x, y float64)
	PointerMove(sx, sy float64) graph.Point

	// Drag-to-link, addressed by node and port identifiers. An empty port
	// means the node itself.
	StartDrag(nodeID, portID string) bool
	EnterDrag(nodeID, portID string)
	LeaveDrag()
	MoveDrag(sx, sy float64)
	EndDrag() bool
	CancelDrag()
}

// State is one immutable snapshot of the whole canvas.
//
// Fields are filled in a fixed order: pass-through first, then the layout
// slice, then zoom, then drag. The slices have disjoint fields, so none
// shadows another.
type State struct {
	// Pass-through
	Selections []string `json:"selections"`
	Readonly   bool     `json:"readonly"`
	Pannable   bool     `json:"pannable"`

	Viewport layout.Viewport `json:"viewport"`
	Zoom     zoom.State      `json:"zoom"`
	Drag     linkdrag.State  `json:"drag"`

	// Version increases with every recomposition.
	Version uint64 `json:"version"`

	Actions `json:"-"`
}

// Layout returns the current layout, nil before the first success.
func (s State) Layout() *graph.Layout { return s.Viewport.Layout }

// Selected reports whether id is in the selection set.
func (s State) Selected(id string) bool {
	for _, sel := range s.Selections {
		if sel == id {
			return true
		}
	}
	return false
}
