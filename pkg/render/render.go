package render

import (
	"context"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/geom"
	"github.com/plotdeck/plotdeck/pkg/layout"
)

// Painter draws one widget type. Implementations set every piece of
// paint state they rely on; the walk carries no state between
// widgets.
type Painter interface {
	Paint(c canvas.Canvas, w Widget) error
}

// Painters maps widget types to their painter. Types without an entry
// draw nothing but their children still walk.
type Painters map[document.Type]Painter

// Widget hands a painter one placed widget: the node, its resolved
// settings and rect, and the document and layout for painters that
// read datasets or sibling axis geometry.
type Widget struct {
	Node     *document.Node
	Settings document.Settings
	Rect     geom.Rect
	Doc      *document.Document
	Layout   *layout.Layout
}

// Axis returns the solved geometry of the axis named among the
// widget's siblings, or nil.
func (w Widget) Axis(name string) *layout.Axis {
	parent := w.Node.Parent()
	if parent == nil || name == "" {
		return nil
	}
	for _, sib := range parent.Children() {
		if sib.Type() == document.TypeAxis && sib.Name() == name {
			return w.Layout.Axes[sib.Path()]
		}
	}
	return nil
}

// Walk paints the document in depth-first document order onto c.
// Widgets without drawable geometry are skipped together with their
// subtrees. Graphs push a clip of the plot area around their plotter
// children; axes, labels and rects paint after, unclipped. The
// context is checked between widgets; on cancellation the walk stops
// with a CANCELLED error and the canvas contents are undefined.
func Walk(ctx context.Context, d *document.Document, lay *layout.Layout, c canvas.Canvas, painters Painters) error {
	for _, page := range d.Root().Children() {
		if err := WalkPage(ctx, d, lay, c, painters, page); err != nil {
			return err
		}
	}
	return nil
}

// WalkPage paints a single page subtree onto c. Pages share device
// origin, so exporting them to separate canvases goes through here.
func WalkPage(ctx context.Context, d *document.Document, lay *layout.Layout, c canvas.Canvas, painters Painters, page *document.Node) error {
	w := walker{doc: d, lay: lay, canvas: c, painters: painters}
	return w.walk(ctx, page)
}

type walker struct {
	doc      *document.Document
	lay      *layout.Layout
	canvas   canvas.Canvas
	painters Painters
}

func (w *walker) walk(ctx context.Context, n *document.Node) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "rendering %s", n.Path())
	}
	path := n.Path()
	rect, ok := w.lay.Rects[path]
	if !ok || rect.Empty() {
		return nil
	}

	w.canvas.BeginWidget(path)
	defer w.canvas.EndWidget()

	if err := w.paint(n, rect); err != nil {
		return err
	}
	if n.Type() == document.TypeGraph {
		return w.walkGraph(ctx, n)
	}
	for _, child := range n.Children() {
		if err := w.walk(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// walkGraph splits a graph's children into the clipped plotter pass
// and the unclipped overlay pass.
func (w *walker) walkGraph(ctx context.Context, g *document.Node) error {
	plot, ok := w.lay.PlotAreas[g.Path()]
	if !ok || plot.Empty() {
		return nil
	}

	w.canvas.PushClip(plot)
	err := w.walkChildren(ctx, g, true)
	w.canvas.PopClip()
	if err != nil {
		return err
	}
	return w.walkChildren(ctx, g, false)
}

func (w *walker) walkChildren(ctx context.Context, n *document.Node, plotters bool) error {
	for _, child := range n.Children() {
		if isPlotter(child.Type()) != plotters {
			continue
		}
		if err := w.walk(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) paint(n *document.Node, rect geom.Rect) error {
	p, ok := w.painters[n.Type()]
	if !ok {
		return nil
	}
	return p.Paint(w.canvas, Widget{
		Node:     n,
		Settings: w.doc.ResolvedSettings(n),
		Rect:     rect,
		Doc:      w.doc,
		Layout:   w.lay,
	})
}

func isPlotter(t document.Type) bool {
	return t == document.TypeXY || t == document.TypeFunction || t == document.TypeHistogram
}
