package widget

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/geom"
	"github.com/plotdeck/plotdeck/pkg/layout"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// markerBorder is the stroke width around filled marker shapes.
const markerBorder = 0.5

// plotAxes resolves the sibling axes a plotter maps through. The
// layout leaves plotters without both axes unplaced, so a nil here
// means stale geometry and the painter draws nothing.
func plotAxes(w render.Widget) (xa, ya *layout.Axis) {
	return w.Axis(w.Settings.Str("xAxis")), w.Axis(w.Settings.Str("yAxis"))
}

// xyPainter draws point data: error bars first, then the connecting
// line, then markers on top. A dataset that cannot be resolved draws
// nothing; the store keeps the error for inspection.
type xyPainter struct{}

func (xyPainter) Paint(c canvas.Canvas, w render.Widget) error {
	xa, ya := plotAxes(w)
	if xa == nil || ya == nil {
		return nil
	}
	store := w.Doc.Store()
	xc, err := store.Columns(w.Settings.Str("xData"))
	if err != nil {
		return nil
	}
	yc, err := store.Columns(w.Settings.Str("yData"))
	if err != nil {
		return nil
	}
	n := min(xc.Len(), yc.Len())
	if n == 0 {
		return nil
	}

	pts := make([]geom.Point, n)
	for i := range pts {
		pts[i] = geom.Point{X: xa.DataToDevice(xc.Data[i]), Y: ya.DataToDevice(yc.Data[i])}
	}

	color := w.Settings.Str("color")
	lineWidth := w.Settings.Float("lineWidth")
	if canvas.None(color) {
		return nil
	}

	if w.Settings.Str("errorStyle") == "bar" && lineWidth > 0 && (hasErrors(xc) || hasErrors(yc)) {
		c.SetStroke(color, lineWidth, nil)
		drawErrorBars(c, xa, ya, xc, yc, n)
	}
	if style := w.Settings.Str("lineStyle"); style != "none" && lineWidth > 0 {
		c.SetStroke(color, lineWidth, render.Dash(style, lineWidth))
		strokeRuns(c, pts)
	}
	if shape := w.Settings.Str("marker"); shape != "none" && w.Settings.Float("markerSize") > 0 {
		c.SetFill(color)
		c.SetStroke(color, markerBorder, nil)
		size := w.Settings.Float("markerSize")
		for _, p := range pts {
			if finitePoint(p) {
				render.DrawMarker(c, p, shape, size)
			}
		}
	}
	return nil
}

func hasErrors(col dataset.Columns) bool {
	return col.Serr != nil || col.Perr != nil || col.Nerr != nil
}

// drawErrorBars strokes a bar through each point spanning its error
// extent, horizontal for x errors and vertical for y errors.
func drawErrorBars(c canvas.Canvas, xa, ya *layout.Axis, xc, yc dataset.Columns, n int) {
	for i := 0; i < n; i++ {
		if !xc.Finite(i) || !yc.Finite(i) {
			continue
		}
		x := xa.DataToDevice(xc.Data[i])
		y := ya.DataToDevice(yc.Data[i])
		if lo, hi, ok := errSpan(xc, i); ok {
			strokeSegment(c,
				geom.Point{X: xa.DataToDevice(lo), Y: y},
				geom.Point{X: xa.DataToDevice(hi), Y: y})
		}
		if lo, hi, ok := errSpan(yc, i); ok {
			strokeSegment(c,
				geom.Point{X: x, Y: ya.DataToDevice(lo)},
				geom.Point{X: x, Y: ya.DataToDevice(hi)})
		}
	}
}

// errSpan returns the error extent of point i, or ok false when the
// column carries no error parts. Symmetric and asymmetric parts
// combine to their union, matching how ranges include error extents.
func errSpan(col dataset.Columns, i int) (lo, hi float64, ok bool) {
	v := col.Data[i]
	lo, hi = v, v
	if col.Serr != nil {
		lo, hi = v-col.Serr[i], v+col.Serr[i]
		ok = true
	}
	if col.Nerr != nil {
		lo = min(lo, v+col.Nerr[i])
		ok = true
	}
	if col.Perr != nil {
		hi = max(hi, v+col.Perr[i])
		ok = true
	}
	return lo, hi, ok
}

// functionPainter draws a formula in x sampled across the x axis
// range, narrowed by the widget's own min/max bounds.
type functionPainter struct{}

func (functionPainter) Paint(c canvas.Canvas, w render.Widget) error {
	xa, ya := plotAxes(w)
	if xa == nil || ya == nil {
		return nil
	}
	color := w.Settings.Str("color")
	lineWidth := w.Settings.Float("lineWidth")
	if canvas.None(color) || lineWidth <= 0 {
		return nil
	}

	xr := xa.Range
	if v, ok := w.Settings.FloatOrAuto("min"); ok {
		xr.Lo = v
	}
	if v, ok := w.Settings.FloatOrAuto("max"); ok {
		xr.Hi = v
	}
	if xr.Lo >= xr.Hi {
		return nil
	}
	xs, ys, err := layout.SampleFunction(w.Settings.Str("function"), xr, w.Settings.Int("steps"), xa.Log)
	if err != nil {
		return nil
	}

	pts := make([]geom.Point, len(xs))
	for i := range pts {
		pts[i] = geom.Point{X: xa.DataToDevice(xs[i]), Y: ya.DataToDevice(ys[i])}
	}
	c.SetStroke(color, lineWidth, render.Dash(w.Settings.Str("lineStyle"), lineWidth))
	strokeRuns(c, pts)
	return nil
}

// histogramPainter draws binned counts as bars rising from a zero
// baseline, or from the bottom of the range on a log axis.
type histogramPainter struct{}

func (histogramPainter) Paint(c canvas.Canvas, w render.Widget) error {
	xa, ya := plotAxes(w)
	if xa == nil || ya == nil {
		return nil
	}
	vals, err := w.Doc.Store().Values(w.Settings.Str("data"))
	if err != nil {
		return nil
	}
	edges, counts := layout.HistogramBins(vals, w.Settings.Int("bins"))
	if len(counts) == 0 {
		return nil
	}

	base := 0.0
	if ya.Log {
		base = ya.Range.Lo
	}
	y0 := ya.DataToDevice(base)
	fill := w.Settings.Str("fillColor")
	stroke := w.Settings.Str("color")
	lineWidth := w.Settings.Float("lineWidth")
	for i, count := range counts {
		if count == 0 {
			continue
		}
		x0 := xa.DataToDevice(edges[i])
		x1 := xa.DataToDevice(edges[i+1])
		y1 := ya.DataToDevice(count)
		if !isFinite(x0) || !isFinite(x1) || !isFinite(y0) || !isFinite(y1) {
			continue
		}
		bar := geom.NewRect(min(x0, x1), min(y0, y1), math.Abs(x1-x0), math.Abs(y1-y0))
		paintBox(c, bar, fill, stroke, lineWidth)
	}
	return nil
}
