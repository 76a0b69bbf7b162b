// Package render walks a laid-out document and paints it onto a
// canvas.
//
// # Walk
//
// [Walk] visits the widget tree in depth-first document order, which
// is the paint order: each widget draws before its children, and
// graphs clip their plotter children to the plot area while axes and
// annotations draw on top unclipped. The walk itself knows nothing
// about widget appearance; it dispatches to [Painter] implementations
// registered per widget type (see pkg/widget).
//
//	lay, err := layout.Solve(ctx, doc)
//	c := svgcanvas.New(w, h)
//	err = render.Walk(ctx, doc, lay, c, widget.Painters())
//
// # Output formats
//
// SVG and PNG come from the canvas backends directly. [ConvertSVG]
// turns SVG bytes into PDF, EPS or PNG using the external
// rsvg-convert tool when a librsvg install is available.
//
// The [depviz] subpackage renders the dataset dependency graph as a
// node-link diagram through Graphviz.
//
// [depviz]: github.com/plotdeck/plotdeck/pkg/render/depviz
package render
