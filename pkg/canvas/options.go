package canvas

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkcanvas/pkg/cache"
	"github.com/matzehuels/linkcanvas/pkg/layout"
)

// Option configures a Canvas.
type Option func(*options)

type options struct {
	logger *log.Logger
	engine layout.Engine
	cache  cache.Cache
	keyer  cache.Keyer
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEngine sets the layout engine. The default is a Graphviz dot engine.
func WithEngine(engine layout.Engine) Option {
	return func(o *options) {
		if engine != nil {
			o.engine = engine
		}
	}
}

// WithCache caches layouts in c. A nil keyer uses cache.DefaultKeyer.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(o *options) {
		o.cache = c
		o.keyer = keyer
	}
}
