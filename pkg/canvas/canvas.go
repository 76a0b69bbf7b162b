// Package canvas defines the drawing surface widgets paint on. A
// Canvas is a thin immediate-mode API over an output backend: the
// recorder in this package for tests, SVG in svgcanvas, raster PNG in
// pngcanvas. Coordinates are points with the origin at the top-left
// and y growing downward, as in pkg/geom.
package canvas

import "github.com/plotdeck/plotdeck/pkg/geom"

// Canvas receives draw operations during a render walk.
//
// The paint state (stroke, fill, font) is explicit: Set calls change
// it, Save pushes a copy and Restore pops it. The clip stack is
// separate from the paint state and must be balanced by the caller.
// A colour for which None reports true disables the affected
// operations instead of painting.
//
// Backends replay the same operations in the same order, so a given
// operation stream produces identical output on every call.
type Canvas interface {
	// Save pushes the current paint state. Restore pops it.
	Save()
	Restore()

	// SetStroke sets the line colour, width in points and dash
	// pattern. A nil or empty dash draws solid lines.
	SetStroke(color string, width float64, dash []float64)
	// SetFill sets the colour used by Fill and DrawText.
	SetFill(color string)
	// SetFont sets the text size in points.
	SetFont(size float64)

	// MoveTo starts a new subpath. LineTo extends the current one and
	// ClosePath joins it back to its start. Circle adds a closed
	// circular subpath. Stroke, Fill and FillStroke consume the
	// accumulated path.
	MoveTo(p geom.Point)
	LineTo(p geom.Point)
	ClosePath()
	Circle(center geom.Point, r float64)
	Stroke()
	Fill()
	FillStroke()

	// Polyline strokes an open line through pts with the current
	// stroke state. Fewer than two points draw nothing.
	Polyline(pts []geom.Point)

	// DrawText paints s with the current fill colour and font size.
	// ax and ay place the text box relative to p: ax 0 puts the left
	// edge at p, 0.5 the centre, 1 the right edge; ay 0 the top, 0.5
	// the middle, 1 the bottom. angle rotates clockwise about p in
	// degrees, applied after alignment.
	DrawText(p geom.Point, s string, ax, ay, angle float64)

	// PushClip intersects the clip region with r until the matching
	// PopClip.
	PushClip(r geom.Rect)
	PopClip()

	// BeginWidget and EndWidget bracket the operations of one widget,
	// identified by its tree path. Backends may use the brackets for
	// grouping or ignore them.
	BeginWidget(path string)
	EndWidget()
}

// None reports whether a colour value disables painting. Settings use
// "none" (or "transparent") to switch off a fill or stroke without a
// separate hide flag.
func None(color string) bool {
	return color == "" || color == "none" || color == "transparent"
}
