package widget

import (
	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/geom"
	"github.com/plotdeck/plotdeck/pkg/layout"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// gridColor strokes major grid lines.
const gridColor = "grey"

// axisPainter draws the axis line with tick marks, tick numbers and
// the axis label in the band pkg/layout reserved, plus grid lines
// across the plot area when enabled. Tick marks point away from the
// plot into the band.
type axisPainter struct{}

func (axisPainter) Paint(c canvas.Canvas, w render.Widget) error {
	ax := w.Layout.Axes[w.Node.Path()]
	if ax == nil {
		return nil
	}

	color := w.Settings.Str("color")
	width := w.Settings.Float("width")
	tickLen := w.Settings.Float("tickLength")
	plot := ax.PlotArea
	horiz := ax.Dir == layout.Horizontal

	// dir points from the axis line into the band: +1 below for a
	// horizontal axis in the lower half of the plot, -1 above in the
	// upper half, and mirrored to -1 left / +1 right for vertical.
	dir := 1.0
	if w.Settings.Float("otherPosition") >= 0.5 {
		dir = -1
	}
	if !horiz {
		dir = -dir
	}

	// at maps a data value and an offset into the band to a device
	// point on or beside the axis line.
	at := func(v, off float64) geom.Point {
		a := ax.DataToDevice(v)
		if horiz {
			return geom.Point{X: a, Y: ax.Line + dir*off}
		}
		return geom.Point{X: ax.Line + dir*off, Y: a}
	}

	if w.Settings.Bool("grid") && width > 0 {
		c.SetStroke(gridColor, width/2, nil)
		for _, v := range ax.Ticks.Major {
			a := ax.DataToDevice(v)
			if horiz {
				c.Polyline([]geom.Point{{X: a, Y: plot.Y}, {X: a, Y: plot.MaxY()}})
			} else {
				c.Polyline([]geom.Point{{X: plot.X, Y: a}, {X: plot.MaxX(), Y: a}})
			}
		}
	}

	if !canvas.None(color) && width > 0 {
		c.SetStroke(color, width, nil)
		if horiz {
			c.Polyline([]geom.Point{{X: plot.X, Y: ax.Line}, {X: plot.MaxX(), Y: ax.Line}})
		} else {
			c.Polyline([]geom.Point{{X: ax.Line, Y: plot.Y}, {X: ax.Line, Y: plot.MaxY()}})
		}
		for _, v := range ax.Ticks.Minor {
			c.Polyline([]geom.Point{at(v, 0), at(v, tickLen/2)})
		}
		for _, v := range ax.Ticks.Major {
			c.Polyline([]geom.Point{at(v, 0), at(v, tickLen)})
		}
	}

	if canvas.None(color) {
		return nil
	}
	c.SetFill(color)

	if numberSize := w.Settings.Float("numberSize"); numberSize > 0 {
		c.SetFont(numberSize)
		hx, hy := tickTextAnchor(horiz, dir)
		for _, v := range ax.Ticks.Major {
			c.DrawText(at(v, tickLen+layout.LabelGap), ax.Ticks.Label(v), hx, hy, 0)
		}
	}

	label := w.Settings.Str("label")
	labelSize := w.Settings.Float("labelSize")
	if label == "" || labelSize <= 0 {
		return nil
	}
	c.SetFont(labelSize)
	band := w.Rect
	switch {
	case horiz && dir > 0:
		c.DrawText(geom.Point{X: plot.CenterX(), Y: band.MaxY()}, label, 0.5, 1, 0)
	case horiz:
		c.DrawText(geom.Point{X: plot.CenterX(), Y: band.Y}, label, 0.5, 0, 0)
	case dir < 0:
		// Left band: rotate a quarter turn so the label reads upward
		// along the outer band edge.
		c.DrawText(geom.Point{X: band.X, Y: plot.CenterY()}, label, 0.5, 0, -90)
	default:
		c.DrawText(geom.Point{X: band.MaxX(), Y: plot.CenterY()}, label, 0.5, 0, 90)
	}
	return nil
}

// tickTextAnchor picks the DrawText alignment that keeps tick numbers
// clear of the axis line on the band side.
func tickTextAnchor(horiz bool, dir float64) (ax, ay float64) {
	if horiz {
		if dir > 0 {
			return 0.5, 0
		}
		return 0.5, 1
	}
	if dir > 0 {
		return 0, 0.5
	}
	return 1, 0.5
}
