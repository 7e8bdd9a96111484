// Package canvas composes layout, zoom and drag-to-link state into one view
// model for a node-link diagram renderer.
//
// # Overview
//
// A [Canvas] owns three controllers:
//
//   - a [zoom.Controller] holding the zoom factor inside its bounds
//   - a [layout.Coordinator] running the layout engine and owning pan and
//     container size
//   - a [linkdrag.Controller] tracking the drag-to-link gesture
//
// After every mutation the canvas merges their slices, plus the pass-through
// fields Selections, Readonly and Pannable, into a fresh [State] snapshot and
// hands it to subscribers. Snapshots are values: consumers never mutate them
// and act on the canvas only through the [Actions] embedded in every
// snapshot.
//
// # Event Loop
//
// All mutations, including layout results arriving from the engine
// goroutine, are serialized by one mutex. User callbacks (OnLink,
// OnLayoutChange, OnLayoutError, OnZoomChange) and subscriber broadcasts are
// queued while the lock is held and run after it is released, so they may
// call back into the canvas.
//
// # Ambient Access
//
// Renderers deeper in a call tree read the canvas through a context:
//
//	ctx = canvas.NewContext(ctx, c)
//	...
//	state := canvas.Use(ctx) // panics outside a canvas scope
//
// [Use] treats a missing canvas as a programmer error and panics with a
// CONFIGURATION_ERROR. [Lookup] returns the same error instead.
//
// # Policy
//
//   - Readonly: drag gestures never start
//   - Pannable false: Pan and SetPan do nothing
//   - Zoomable false: SetZoom, ZoomIn and ZoomOut do nothing
//
// Out-of-range zoom values are clamped silently and an invalid drag target
// simply cancels the gesture. A layout failure keeps the previous layout and
// is reported through OnLayoutError and State.Viewport.Err.
package canvas
