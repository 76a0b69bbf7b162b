package render

import (
	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

// MarkerShapes lists the point marker shapes DrawMarker understands,
// in settings-enum order.
var MarkerShapes = []string{"none", "circle", "square", "diamond", "cross", "plus"}

// DrawMarker draws one point marker centred at p. size is the
// half-extent in points. Closed shapes fill then stroke with the
// current paint state; cross and plus only stroke. "none" and unknown
// shapes draw nothing.
func DrawMarker(c canvas.Canvas, p geom.Point, shape string, size float64) {
	s := size
	switch shape {
	case "circle":
		c.Circle(p, s)
		c.FillStroke()
	case "square":
		c.MoveTo(geom.Point{X: p.X - s, Y: p.Y - s})
		c.LineTo(geom.Point{X: p.X + s, Y: p.Y - s})
		c.LineTo(geom.Point{X: p.X + s, Y: p.Y + s})
		c.LineTo(geom.Point{X: p.X - s, Y: p.Y + s})
		c.ClosePath()
		c.FillStroke()
	case "diamond":
		c.MoveTo(geom.Point{X: p.X, Y: p.Y - s})
		c.LineTo(geom.Point{X: p.X + s, Y: p.Y})
		c.LineTo(geom.Point{X: p.X, Y: p.Y + s})
		c.LineTo(geom.Point{X: p.X - s, Y: p.Y})
		c.ClosePath()
		c.FillStroke()
	case "cross":
		c.MoveTo(geom.Point{X: p.X - s, Y: p.Y - s})
		c.LineTo(geom.Point{X: p.X + s, Y: p.Y + s})
		c.MoveTo(geom.Point{X: p.X - s, Y: p.Y + s})
		c.LineTo(geom.Point{X: p.X + s, Y: p.Y - s})
		c.Stroke()
	case "plus":
		c.MoveTo(geom.Point{X: p.X - s, Y: p.Y})
		c.LineTo(geom.Point{X: p.X + s, Y: p.Y})
		c.MoveTo(geom.Point{X: p.X, Y: p.Y - s})
		c.LineTo(geom.Point{X: p.X, Y: p.Y + s})
		c.Stroke()
	}
}

// Dash returns the stroke dash pattern for a named line style, scaled
// by the line width. Solid and unknown styles return nil.
func Dash(style string, width float64) []float64 {
	if width <= 0 {
		width = 1
	}
	switch style {
	case "dashed":
		return []float64{4 * width, 2 * width}
	case "dotted":
		return []float64{width, 2 * width}
	}
	return nil
}
