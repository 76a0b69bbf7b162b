package widget

import (
	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// pagePainter fills the page background.
type pagePainter struct{}

func (pagePainter) Paint(c canvas.Canvas, w render.Widget) error {
	paintBox(c, w.Rect, w.Settings.Str("background"), "", 0)
	return nil
}

// graphPainter fills the plot area background and frames it with the
// border. Children paint on top, so the frame sits under the data.
type graphPainter struct{}

func (graphPainter) Paint(c canvas.Canvas, w render.Widget) error {
	plot, ok := w.Layout.PlotAreas[w.Node.Path()]
	if !ok || plot.Empty() {
		return nil
	}
	border := ""
	if w.Settings.Bool("border") {
		border = w.Settings.Str("borderColor")
	}
	paintBox(c, plot, w.Settings.Str("background"), border, w.Settings.Float("borderWidth"))
	return nil
}
