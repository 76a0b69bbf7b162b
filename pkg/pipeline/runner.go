package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/cache"
	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
	pio "github.com/plotdeck/plotdeck/pkg/io"
	"github.com/plotdeck/plotdeck/pkg/layout"
	"github.com/plotdeck/plotdeck/pkg/observability"
	"github.com/plotdeck/plotdeck/pkg/render"
	"github.com/plotdeck/plotdeck/pkg/widget"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it does
// not store pipeline results. Multiple goroutines can safely share a
// Runner as long as each document is exported from one goroutine at a
// time.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Painters render.Painters
	Logger   *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If painters is nil, the built-in widget painters are used.
func NewRunner(c cache.Cache, keyer cache.Keyer, painters render.Painters, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if painters == nil {
		painters = widget.Painters()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Painters: painters,
		Logger:   logger,
	}
}

// Execute runs the complete settle → layout → render pipeline for one
// document. The document stays readable throughout and unblocks for
// mutation as soon as the canvas walk finishes; artifact encoding
// happens outside the snapshot.
func (r *Runner) Execute(ctx context.Context, d *document.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}
	hooks := observability.Pipeline()

	var (
		pending     []pageRecording
		renderStart time.Time
	)
	err := d.Snapshot(func() error {
		// Stage 1: Settle. Fingerprinting settles as a side effect,
		// so this stage runs first to keep the recompute count
		// meaningful.
		settleStart := time.Now()
		hooks.OnSettleStart(ctx, d.Store().DirtyCount())
		recomputed, err := d.Store().Settle(ctx)
		result.Stats.SettleTime = time.Since(settleStart)
		result.Stats.Recomputed = recomputed
		hooks.OnSettleComplete(ctx, recomputed, result.Stats.SettleTime, err)
		if err != nil {
			return errors.Wrap(errors.ErrCodeCancelled, err, "settling datasets")
		}
		result.Fingerprint = d.Fingerprint()

		r.Logger.Info("settled datasets",
			"recomputed", recomputed,
			"duration", result.Stats.SettleTime)

		// Stage 2: Layout
		layoutStart := time.Now()
		hooks.OnLayoutStart(ctx, opts.Page, d.NodeCount())
		lay, layoutHit, err := r.SolveWithCacheInfo(ctx, d, opts)
		result.Stats.LayoutTime = time.Since(layoutStart)
		hooks.OnLayoutComplete(ctx, opts.Page, result.Stats.LayoutTime, err)
		if err != nil {
			return err
		}
		result.Stats.Widgets = len(lay.Rects)
		result.CacheInfo.LayoutHit = layoutHit

		r.Logger.Info("solved layout",
			"widgets", result.Stats.Widgets,
			"cached", layoutHit,
			"duration", result.Stats.LayoutTime)

		// Stage 3: Render. Recording walks the live tree and must
		// stay inside the snapshot.
		renderStart = time.Now()
		hooks.OnRenderStart(ctx, opts.Formats)
		pending, err = r.recordArtifacts(ctx, d, lay, opts, result)
		return err
	})

	if err == nil {
		err = r.encodeArtifacts(ctx, pending, opts, result)
	}
	if !renderStart.IsZero() {
		result.Stats.RenderTime = time.Since(renderStart)
		hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	}
	if err != nil {
		return nil, err
	}

	r.Logger.Info("rendered artifacts",
		"pages", len(result.Pages),
		"formats", opts.Formats,
		"cached", result.CacheInfo.RenderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ExecuteScript loads the script file at path and runs the pipeline
// on the loaded document.
func (r *Runner) ExecuteScript(ctx context.Context, path string, opts Options) (*Result, error) {
	d, err := pio.ImportScript(path, r.Logger)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, d, opts)
}

// SolveWithCacheInfo returns the solved document layout and whether
// it came from cache. Equal document states share a layout entry, so
// repeated exports of an unchanged document skip the solve.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, d *document.Document, opts Options) (*layout.Layout, bool, error) {
	cacheKey := r.Keyer.LayoutKey(d.Fingerprint(), opts.LayoutKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, "layout")
				return &cached, true, nil
			}
			// Undecodable entries fall through to a fresh solve.
		}
	}
	cacheHooks.OnCacheMiss(ctx, "layout")

	lay, err := layout.Solve(ctx, d)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(lay); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
			cacheHooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return lay, false, nil
}

// Solve is a convenience wrapper that calls SolveWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Solve(ctx context.Context, d *document.Document, opts Options) (*layout.Layout, error) {
	lay, _, err := r.SolveWithCacheInfo(ctx, d, opts)
	return lay, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
