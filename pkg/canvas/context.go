package canvas

import (
	"context"

	"github.com/matzehuels/linkcanvas/pkg/errors"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying c. Everything called with the
// returned context is inside the canvas scope.
func NewContext(ctx context.Context, c *Canvas) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the canvas carried by ctx.
func FromContext(ctx context.Context) (*Canvas, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(contextKey{}).(*Canvas)
	return c, ok && c != nil
}

// Lookup returns the current state of the canvas carried by ctx. It fails
// with a CONFIGURATION_ERROR when ctx carries no canvas or the canvas is
// closed.
func Lookup(ctx context.Context) (State, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return State{}, errors.New(errors.ErrCodeConfiguration,
			"canvas state requested outside of a Canvas; wrap the context with canvas.NewContext")
	}
	s, open := c.snapshot()
	if !open {
		return State{}, errors.New(errors.ErrCodeConfiguration,
			"canvas state requested after the enclosing Canvas was closed")
	}
	return s, nil
}

// Use returns the current state of the canvas carried by ctx. Calling it
// outside a canvas scope is a programmer error: it panics with the
// CONFIGURATION_ERROR from Lookup.
func Use(ctx context.Context) State {
	s, err := Lookup(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
