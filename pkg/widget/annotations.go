package widget

import (
	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/geom"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// labelPainter draws free text. The layout already aligned the rect
// around the fractional anchor, so the anchor is recovered from the
// rect and the alignment settings; rotation spins the text about it.
type labelPainter struct{}

func (labelPainter) Paint(c canvas.Canvas, w render.Widget) error {
	text := w.Settings.Str("text")
	color := w.Settings.Str("color")
	size := w.Settings.Float("size")
	if text == "" || canvas.None(color) || size <= 0 {
		return nil
	}
	fh := hFrac(w.Settings.Str("alignHorz"))
	fv := vFrac(w.Settings.Str("alignVert"))
	anchor := geom.Point{X: w.Rect.X + fh*w.Rect.W, Y: w.Rect.Y + fv*w.Rect.H}
	// The angle setting counts counterclockwise; the canvas rotates
	// clockwise. Keep zero positive so backends see a canonical op.
	angle := 0.0
	if a := w.Settings.Float("angle"); a != 0 {
		angle = -a
	}
	c.SetFill(color)
	c.SetFont(size)
	c.DrawText(anchor, text, fh, fv, angle)
	return nil
}

// rectPainter draws a plain filled and stroked rectangle.
type rectPainter struct{}

func (rectPainter) Paint(c canvas.Canvas, w render.Widget) error {
	paintBox(c, w.Rect, w.Settings.Str("fillColor"), w.Settings.Str("color"), w.Settings.Float("lineWidth"))
	return nil
}

func hFrac(align string) float64 {
	switch align {
	case "centre":
		return 0.5
	case "right":
		return 1
	}
	return 0
}

func vFrac(align string) float64 {
	switch align {
	case "top":
		return 0
	case "centre":
		return 0.5
	}
	return 1
}
