package layout

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkcanvas/pkg/cache"
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/observability"
)

// CachedEngine wraps an engine with a layout cache.
//
// Cache failures never fail a layout: a read error or an undecodable entry
// is logged and treated as a miss, and a write error is logged and ignored.
// Engine errors are not cached.
type CachedEngine struct {
	Inner  Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCachedEngine wraps inner. A nil cache disables caching, a nil keyer uses
// cache.DefaultKeyer and a nil logger uses log.Default().
func NewCachedEngine(inner Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedEngine {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedEngine{
		Inner:  inner,
		Cache:  c,
		Keyer:  keyer,
		TTL:    cache.TTLLayout,
		Logger: logger,
	}
}

// Name implements Engine.
func (e *CachedEngine) Name() string { return e.Inner.Name() }

// Layout implements Engine.
func (e *CachedEngine) Layout(ctx context.Context, in Input) (*graph.Layout, error) {
	if !cache.Enabled(e.Cache) {
		return e.Inner.Layout(ctx, in)
	}
	hash, err := in.Key()
	if err != nil {
		return nil, err
	}
	key := e.Keyer.Key(cache.LayoutKey{Engine: e.Inner.Name(), Input: hash})
	hooks := observability.Cache()

	data, hit, err := e.Cache.Get(ctx, key)
	switch {
	case err != nil:
		e.Logger.Warn("layout cache read failed", "key", key, "error", err)
	case hit:
		l, err := graph.UnmarshalLayout(data)
		if err == nil {
			hooks.OnCacheHit(ctx, "layout")
			e.Logger.Debug("layout cache hit", "key", key)
			return &l, nil
		}
		e.Logger.Warn("dropping cached layout", "key", key, "error", cache.ErrCorrupt, "cause", err)
		_ = e.Cache.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, "layout")

	l, err := e.Inner.Layout(ctx, in)
	if err != nil {
		return nil, err
	}

	if data, err := graph.MarshalLayout(*l); err == nil {
		if err := e.Cache.Set(ctx, key, data, e.TTL); err != nil {
			e.Logger.Warn("layout cache write failed", "key", key, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, nil
}

// Ensure CachedEngine implements Engine.
var _ Engine = (*CachedEngine)(nil)
