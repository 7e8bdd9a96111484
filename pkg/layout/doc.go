// Package layout drives an external layout engine and owns the canvas
// viewport.
//
// # Engines
//
// An [Engine] turns an [Input] (nodes, edges, direction and pass-through
// options) into a positioned [graph.Layout]. Engines are stateless between
// calls: identical input produces an identical layout.
//
//   - [GraphvizEngine] runs Graphviz dot through go-graphviz and reads its
//     plain output back into canvas coordinates.
//   - [CachedEngine] wraps any engine with a [cache.Cache] keyed by
//     [Input.Key].
//
// # Coordinator
//
// A [Coordinator] decides when to recompute and what the viewport looks like
// afterwards:
//
//	c := layout.NewCoordinator(engine, zoomController,
//	    layout.WithFit(true),
//	    layout.WithDispatcher(loop.Do),
//	)
//	c.SetContainerSize(800, 600)
//	c.Update(ctx, in)
//	c.Wait()
//
// Update is a no-op when the input is structurally unchanged. Otherwise the
// engine runs on its own goroutine and the result re-enters through the
// dispatcher. Each request carries a generation number; a result whose
// generation is no longer current is discarded, so a slow superseded run can
// never overwrite a newer layout.
//
// When the engine fails, the previous layout stays in effect and the failure
// is reported through the error callback as a LAYOUT_ERROR.
//
// # Coordinates
//
// Layout (canvas) space is the engine's coordinate system in points. Screen
// space is the container. The mapping is
//
//	screen = canvas*zoom + pan
//
// [Fit] picks the zoom that makes the whole layout visible, [Center] picks
// the pan that centers it.
package layout
