package pipeline

import (
	"context"

	"github.com/plotdeck/plotdeck/pkg/cache"
	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/observability"
	"github.com/plotdeck/plotdeck/pkg/render/depviz"
)

// DepsWithCacheInfo renders the store's dataset dependency diagram in
// the given format, from cache when an equal store state was rendered
// before.
func (r *Runner) DepsWithCacheInfo(ctx context.Context, s *dataset.Store, format string) ([]byte, bool, error) {
	if err := ValidateDepsFormat(format); err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.DepsKey(s.Fingerprint(), cache.DepsKeyOpts{Format: format})
	cacheHooks := observability.Cache()

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		cacheHooks.OnCacheHit(ctx, "deps")
		return data, true, nil
	}
	cacheHooks.OnCacheMiss(ctx, "deps")

	dot := depviz.ToDOT(s, depviz.Options{})
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = depviz.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = depviz.RenderPNG(ctx, dot, DefaultScale)
	case FormatPDF:
		data, err = depviz.RenderPDF(ctx, dot)
	}
	if err != nil {
		return nil, false, err
	}

	if r.Cache.Set(ctx, cacheKey, data, cache.TTLDeps) == nil {
		cacheHooks.OnCacheSet(ctx, "deps", len(data))
	}
	return data, false, nil
}

// Deps is a convenience wrapper that calls DepsWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Deps(ctx context.Context, s *dataset.Store, format string) ([]byte, error) {
	data, _, err := r.DepsWithCacheInfo(ctx, s, format)
	return data, err
}
