// Package widget paints the built-in widget types. Each painter
// implements render.Painter for one type, turning resolved settings
// and solved layout geometry into canvas operations; Painters builds
// the registry render.Walk dispatches through.
//
// Painters are stateless and set every piece of canvas paint state
// they depend on. They draw only inside the rects the layout
// assigned, so a painter called with stale or missing geometry draws
// nothing rather than failing the walk.
package widget

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/geom"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// Painters returns the painter registry covering every built-in
// widget type, ready to pass to render.Walk.
func Painters() render.Painters {
	return render.Painters{
		document.TypePage:      pagePainter{},
		document.TypeGraph:     graphPainter{},
		document.TypeAxis:      axisPainter{},
		document.TypeXY:        xyPainter{},
		document.TypeFunction:  functionPainter{},
		document.TypeHistogram: histogramPainter{},
		document.TypeLabel:     labelPainter{},
		document.TypeRect:      rectPainter{},
	}
}

// rectPath traces r as a closed subpath.
func rectPath(c canvas.Canvas, r geom.Rect) {
	c.MoveTo(geom.Point{X: r.X, Y: r.Y})
	c.LineTo(geom.Point{X: r.MaxX(), Y: r.Y})
	c.LineTo(geom.Point{X: r.MaxX(), Y: r.MaxY()})
	c.LineTo(geom.Point{X: r.X, Y: r.MaxY()})
	c.ClosePath()
}

// paintBox fills and strokes r. A none colour (or zero stroke width)
// drops that half; with neither the box is not drawn at all.
func paintBox(c canvas.Canvas, r geom.Rect, fill, stroke string, width float64) {
	doFill := !canvas.None(fill)
	doStroke := !canvas.None(stroke) && width > 0
	if !doFill && !doStroke {
		return
	}
	if doFill {
		c.SetFill(fill)
	}
	if doStroke {
		c.SetStroke(stroke, width, nil)
	}
	rectPath(c, r)
	switch {
	case doFill && doStroke:
		c.FillStroke()
	case doFill:
		c.Fill()
	default:
		c.Stroke()
	}
}

// strokeRuns strokes pts as polyline runs, splitting where a
// coordinate is not finite. Runs shorter than two points are dropped.
func strokeRuns(c canvas.Canvas, pts []geom.Point) {
	flush := func(run []geom.Point) {
		if len(run) >= 2 {
			c.Polyline(run)
		}
	}
	start := 0
	for i, p := range pts {
		if finitePoint(p) {
			continue
		}
		flush(pts[start:i])
		start = i + 1
	}
	flush(pts[start:])
}

// strokeSegment strokes one segment, or nothing if an endpoint is not
// finite.
func strokeSegment(c canvas.Canvas, a, b geom.Point) {
	if finitePoint(a) && finitePoint(b) {
		c.Polyline([]geom.Point{a, b})
	}
}

func finitePoint(p geom.Point) bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
