package pipeline

import (
	"bytes"
	"context"
	"slices"

	"github.com/plotdeck/plotdeck/pkg/cache"
	"github.com/plotdeck/plotdeck/pkg/canvas/pngcanvas"
	"github.com/plotdeck/plotdeck/pkg/canvas/svgcanvas"
	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/layout"
	"github.com/plotdeck/plotdeck/pkg/observability"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// pageRecording carries one page's recorded canvases from the
// snapshot to encoding. Formats already served from cache do not
// appear in need.
type pageRecording struct {
	page string
	need []string
	svg  *svgcanvas.Canvas
	png  *pngcanvas.Canvas
}

// recordArtifacts probes the artifact cache and walks every page that
// still needs rendering onto its canvases. It fills result.Pages and
// the cached entries of result.Artifacts; recorded canvases come back
// for encoding outside the snapshot.
func (r *Runner) recordArtifacts(ctx context.Context, d *document.Document, lay *layout.Layout, opts Options, result *Result) ([]pageRecording, error) {
	pages, err := selectPages(d, lay, opts.Page)
	if err != nil {
		return nil, err
	}
	cacheHooks := observability.Cache()

	allHit := true
	var pending []pageRecording
	for _, page := range pages {
		name := page.Name()
		result.Pages = append(result.Pages, name)

		var need []string
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(lay.Fingerprint, opts.ArtifactKeyOpts(name, format))
			if !opts.Refresh {
				if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
					cacheHooks.OnCacheHit(ctx, "artifact")
					result.Artifacts[artifactName(name, format)] = data
					continue
				}
			}
			cacheHooks.OnCacheMiss(ctx, "artifact")
			need = append(need, format)
		}
		if len(need) == 0 {
			continue
		}
		allHit = false

		rec := pageRecording{page: name, need: need}
		w, h := pageSize(d, page)
		if needsSVG(need) {
			rec.svg = svgcanvas.New(w, h)
			if err := render.WalkPage(ctx, d, lay, rec.svg, r.Painters, page); err != nil {
				return nil, err
			}
		}
		if slices.Contains(need, FormatPNG) {
			rec.png = pngcanvas.New(w, h, pngcanvas.WithPixelsPerPoint(opts.Scale))
			if err := render.WalkPage(ctx, d, lay, rec.png, r.Painters, page); err != nil {
				return nil, err
			}
		}
		pending = append(pending, rec)
	}

	result.CacheInfo.RenderHit = allHit
	return pending, nil
}

// encodeArtifacts turns recorded canvases into bytes, fills the rest
// of result.Artifacts and caches each artifact.
func (r *Runner) encodeArtifacts(ctx context.Context, pending []pageRecording, opts Options, result *Result) error {
	cacheHooks := observability.Cache()

	for _, rec := range pending {
		var svg []byte
		if rec.svg != nil {
			svg = rec.svg.Bytes()
		}
		for _, format := range rec.need {
			var data []byte
			switch format {
			case FormatSVG:
				data = svg
			case FormatPNG:
				var buf bytes.Buffer
				if err := rec.png.WritePNG(&buf); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err,
						"encoding %s png", rec.page)
				}
				data = buf.Bytes()
			case FormatPDF, FormatEPS:
				converted, err := render.ConvertSVG(svg, format, opts.Scale)
				if err != nil {
					return errors.Wrap(errors.GetCode(err), err,
						"converting %s", rec.page)
				}
				data = converted
			}
			result.Artifacts[artifactName(rec.page, format)] = data

			key := r.Keyer.ArtifactKey(result.Fingerprint, opts.ArtifactKeyOpts(rec.page, format))
			if r.Cache.Set(ctx, key, data, cache.TTLArtifact) == nil {
				cacheHooks.OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}
	return nil
}

// selectPages resolves the pages one run renders. An empty name
// selects every page the layout placed, so hidden pages drop out. A
// named page must exist but may be hidden.
func selectPages(d *document.Document, lay *layout.Layout, name string) ([]*document.Node, error) {
	if name != "" {
		page, err := d.Page(name)
		if err != nil {
			return nil, err
		}
		return []*document.Node{page}, nil
	}
	var pages []*document.Node
	for _, page := range d.Pages() {
		if lay.Visible(page.Path()) {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

// pageSize returns a page's canvas size in points.
func pageSize(d *document.Document, page *document.Node) (float64, float64) {
	set := d.ResolvedSettings(page)
	return set.Float("width"), set.Float("height")
}

// needsSVG reports whether any format derives from the SVG recording.
func needsSVG(formats []string) bool {
	for _, f := range formats {
		if f != FormatPNG {
			return true
		}
	}
	return false
}
