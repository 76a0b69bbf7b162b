// Package layout computes document geometry: the two-pass solve that
// turns widget settings and dataset extents into device rects, axis
// ranges and tick positions. The result is a pure function of
// document state; painting happens elsewhere, against the solved
// geometry.
package layout

import (
	"context"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

const (
	// minPlotSize is the smallest plot area worth drawing into.
	minPlotSize = 8.0
	// LabelGap separates tick marks, tick numbers and axis labels
	// inside an axis band. Axis painting spaces text the same way, so
	// bands measured here fit what pkg/widget draws.
	LabelGap = 2.0
)

// SizeReq is the minimum size a widget reports during the measure
// pass.
type SizeReq struct {
	W, H float64
}

// Layout is the solved geometry of a document. Rects and Axes are
// keyed by widget tree path; widgets skipped as hidden have no entry,
// widgets whose geometry degenerated hold an empty rect. Fingerprint
// is the document fingerprint the solve was computed from, usable as
// a cache key.
type Layout struct {
	Rects       map[string]geom.Rect
	PlotAreas   map[string]geom.Rect
	Axes        map[string]*Axis
	Fingerprint string
}

// Visible reports whether a widget was laid out with drawable
// geometry.
func (l *Layout) Visible(path string) bool {
	r, ok := l.Rects[path]
	return ok && !r.Empty()
}

// Solve settles the dataset store, resolves every axis range and
// places the widget tree. Identical document state yields an
// identical layout. Cancellation is honoured between datasets during
// the settle.
func Solve(ctx context.Context, d *document.Document) (*Layout, error) {
	if _, err := d.Store().Settle(ctx); err != nil {
		return nil, err
	}
	s := &solver{
		doc: d,
		req: map[string]SizeReq{},
		lay: &Layout{
			Rects:     map[string]geom.Rect{},
			PlotAreas: map[string]geom.Rect{},
			Axes:      map[string]*Axis{},
		},
	}
	s.resolveAxes()
	s.measure(d.Root())
	for _, page := range d.Root().Children() {
		s.placePage(page)
	}
	s.lay.Fingerprint = d.Fingerprint()
	return s.lay, nil
}

type solver struct {
	doc *document.Document
	req map[string]SizeReq
	lay *Layout
}

func (s *solver) settings(n *document.Node) document.Settings {
	return s.doc.ResolvedSettings(n)
}

func (s *solver) hidden(n *document.Node) bool {
	if n.Type() == document.TypeDocument {
		return false
	}
	return s.settings(n).Bool("hide")
}

// eachGraph visits every visible graph in document order.
func (s *solver) eachGraph(fn func(graph *document.Node)) {
	for _, page := range s.doc.Root().Children() {
		if s.hidden(page) {
			continue
		}
		for _, g := range page.Children() {
			if g.Type() != document.TypeGraph || s.hidden(g) {
				continue
			}
			fn(g)
		}
	}
}

// ===== Axis resolution =====

type axisState struct {
	node     *document.Node
	axis     *Axis
	spec     rangeSpec
	log      bool
	link     string
	ticks    int
	data     geom.Interval
	resolved bool
}

// resolveAxes fixes the range and ticks of every axis before
// placement. Link groups may span pages, so ranges cannot settle
// graph by graph: data extents come first, then function curves
// extend their y axes, then link groups union their members, with
// explicit bounds from the latest-defined member winning.
func (s *solver) resolveAxes() {
	var states []*axisState
	byPath := map[string]*axisState{}

	s.eachGraph(func(g *document.Node) {
		for _, a := range g.Children() {
			if a.Type() != document.TypeAxis || s.hidden(a) {
				continue
			}
			set := s.settings(a)
			st := &axisState{
				node:  a,
				log:   set.Bool("log"),
				link:  set.Str("link"),
				ticks: set.Int("ticks"),
				data:  geom.EmptyInterval(),
			}
			if v, ok := set.FloatOrAuto("min"); ok {
				st.spec.lo, st.spec.loSet = v, true
			}
			if v, ok := set.FloatOrAuto("max"); ok {
				st.spec.hi, st.spec.hiSet = v, true
			}
			dir := Horizontal
			if set.Str("direction") == "vertical" {
				dir = Vertical
			}
			st.axis = &Axis{Path: a.Path(), Dir: dir, Log: st.log}
			states = append(states, st)
			byPath[st.axis.Path] = st
		}
	})

	// stateFor finds the axis a plotter names among its siblings.
	stateFor := func(plotter *document.Node, name string) *axisState {
		parent := plotter.Parent()
		if parent == nil || name == "" {
			return nil
		}
		for _, sib := range parent.Children() {
			if sib.Type() == document.TypeAxis && sib.Name() == name {
				return byPath[sib.Path()]
			}
		}
		return nil
	}

	s.eachGraph(func(g *document.Node) {
		for _, p := range g.Children() {
			if s.hidden(p) {
				continue
			}
			set := s.settings(p)
			switch p.Type() {
			case document.TypeXY:
				if st := stateFor(p, set.Str("xAxis")); st != nil {
					st.data = st.data.Merge(s.columnRange(set.Str("xData"), st.log))
				}
				if st := stateFor(p, set.Str("yAxis")); st != nil {
					st.data = st.data.Merge(s.columnRange(set.Str("yData"), st.log))
				}
			case document.TypeHistogram:
				vals, err := s.doc.Store().Values(set.Str("data"))
				if err != nil {
					continue
				}
				edges, counts := HistogramBins(vals, set.Int("bins"))
				if len(edges) == 0 {
					continue
				}
				if st := stateFor(p, set.Str("xAxis")); st != nil {
					st.data = st.data.Extend(edges[0]).Extend(edges[len(edges)-1])
				}
				if st := stateFor(p, set.Str("yAxis")); st != nil {
					top := 0.0
					for _, c := range counts {
						if c > top {
							top = c
						}
					}
					if !st.log {
						st.data = st.data.Extend(0)
					}
					st.data = st.data.Extend(top)
				}
			}
		}
	})

	// Function curves adapt to their x axis, so they extend ranges
	// only after the data plotters have spoken.
	s.eachGraph(func(g *document.Node) {
		for _, f := range g.Children() {
			if f.Type() != document.TypeFunction || s.hidden(f) {
				continue
			}
			set := s.settings(f)
			xst := stateFor(f, set.Str("xAxis"))
			yst := stateFor(f, set.Str("yAxis"))
			if xst == nil || yst == nil {
				continue
			}
			xr := resolveRange(xst.data, xst.spec, xst.log)
			if v, ok := set.FloatOrAuto("min"); ok {
				xr.Lo = v
			}
			if v, ok := set.FloatOrAuto("max"); ok {
				xr.Hi = v
			}
			if xr.Lo >= xr.Hi {
				continue
			}
			_, ys, err := SampleFunction(set.Str("function"), xr, set.Int("steps"), xst.log)
			if err != nil {
				continue
			}
			for _, y := range ys {
				if yst.log && y <= 0 {
					continue
				}
				yst.data = yst.data.Extend(y)
			}
		}
	})

	// Link groups, in order of first appearance.
	groups := map[string][]*axisState{}
	var groupNames []string
	for _, st := range states {
		if st.link == "" {
			continue
		}
		if _, ok := groups[st.link]; !ok {
			groupNames = append(groupNames, st.link)
		}
		groups[st.link] = append(groups[st.link], st)
	}
	for _, name := range groupNames {
		members := groups[name]
		data := geom.EmptyInterval()
		var spec rangeSpec
		log := false
		for _, st := range members {
			data = data.Merge(st.data)
			if st.spec.loSet {
				spec.lo, spec.loSet = st.spec.lo, true
			}
			if st.spec.hiSet {
				spec.hi, spec.hiSet = st.spec.hi, true
			}
			log = log || st.log
		}
		shared := resolveRange(data, spec, log)
		for _, st := range members {
			st.axis.Range = shared
			st.resolved = true
		}
	}

	for _, st := range states {
		if !st.resolved {
			st.axis.Range = resolveRange(st.data, st.spec, st.log)
		}
		st.axis.Ticks = ticksFor(st.axis.Range, st.ticks, st.log)
		s.lay.Axes[st.axis.Path] = st.axis
	}
}

// columnRange returns the extent of a dataset including error bars,
// restricted to positive values for log axes. Missing or text
// datasets contribute nothing.
func (s *solver) columnRange(name string, log bool) geom.Interval {
	cols, err := s.doc.Store().Columns(name)
	if err != nil {
		return geom.EmptyInterval()
	}
	if log {
		return cols.PositiveRange()
	}
	return cols.Range()
}

// ===== Measure pass =====

// measure walks bottom-up collecting minimum sizes. Axis bands come
// from real tick label metrics, which is why axis ranges resolve
// before this pass.
func (s *solver) measure(n *document.Node) SizeReq {
	if s.hidden(n) {
		return SizeReq{}
	}
	for _, c := range n.Children() {
		s.measure(c)
	}

	var req SizeReq
	switch n.Type() {
	case document.TypeDocument:
		// the root has no geometry of its own
	case document.TypePage:
		set := s.settings(n)
		req = SizeReq{W: set.Float("width"), H: set.Float("height")}
	case document.TypeGraph:
		set := s.settings(n)
		req = SizeReq{
			W: set.Float("leftMargin") + set.Float("rightMargin") + minPlotSize,
			H: set.Float("topMargin") + set.Float("bottomMargin") + minPlotSize,
		}
	case document.TypeAxis:
		req = s.axisBand(n)
	case document.TypeXY, document.TypeFunction, document.TypeHistogram:
		req = SizeReq{W: minPlotSize, H: minPlotSize}
	case document.TypeLabel:
		set := s.settings(n)
		m := canvas.MeasureText(set.Str("text"), set.Float("size"))
		req = SizeReq{W: m.W, H: m.H}
	}
	s.req[n.Path()] = req
	return req
}

// axisBand estimates the space the axis needs beside the plot area:
// tick marks, the widest tick number and the axis label, if any.
func (s *solver) axisBand(n *document.Node) SizeReq {
	set := s.settings(n)
	ax := s.lay.Axes[n.Path()]

	numberSize := set.Float("numberSize")
	band := set.Float("tickLength") + LabelGap

	widest := canvas.MeasureText("0.00", numberSize)
	numberW, numberH := widest.W, widest.H
	if ax != nil && len(ax.Ticks.Major) > 0 {
		numberW = 0
		for _, v := range ax.Ticks.Major {
			if m := canvas.MeasureText(ax.Ticks.Label(v), numberSize); m.W > numberW {
				numberW = m.W
			}
		}
	}

	var labelExtra float64
	if label := set.Str("label"); label != "" {
		labelExtra = LabelGap + canvas.MeasureText(label, set.Float("labelSize")).H
	}

	if set.Str("direction") == "vertical" {
		return SizeReq{W: band + numberW + labelExtra}
	}
	return SizeReq{H: band + numberH + labelExtra}
}

// ===== Place pass =====

func (s *solver) placePage(page *document.Node) {
	if page.Type() != document.TypePage || s.hidden(page) {
		return
	}
	set := s.settings(page)
	w, h := set.Float("width"), set.Float("height")
	path := page.Path()
	if w <= 0 || h <= 0 {
		s.lay.Rects[path] = geom.Rect{}
		return
	}
	rect := geom.NewRect(0, 0, w, h)
	s.lay.Rects[path] = rect

	var graphs []*document.Node
	for _, c := range page.Children() {
		if c.Type() == document.TypeGraph && !s.hidden(c) {
			graphs = append(graphs, c)
		}
	}

	rows, cols := set.Int("rows"), set.Int("cols")
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	// overflowing graphs extend the grid downward rather than vanish
	if need := (len(graphs) + cols - 1) / cols; need > rows {
		rows = need
	}
	cw, ch := w/float64(cols), h/float64(rows)
	for i, g := range graphs {
		cell := geom.NewRect(float64(i%cols)*cw, float64(i/cols)*ch, cw, ch)
		s.placeGraph(g, cell)
	}

	for _, c := range page.Children() {
		switch c.Type() {
		case document.TypeLabel:
			s.placeLabel(c, rect)
		case document.TypeRect:
			s.placeRect(c, rect)
		}
	}
}

func (s *solver) placeGraph(g *document.Node, cell geom.Rect) {
	set := s.settings(g)
	path := g.Path()
	s.lay.Rects[path] = cell

	plot := cell.Inset(
		set.Float("leftMargin"),
		set.Float("topMargin"),
		set.Float("rightMargin"),
		set.Float("bottomMargin"),
	)
	if plot.W < minPlotSize || plot.H < minPlotSize {
		s.lay.PlotAreas[path] = geom.Rect{}
		return
	}
	s.lay.PlotAreas[path] = plot

	for _, c := range g.Children() {
		if s.hidden(c) {
			continue
		}
		switch c.Type() {
		case document.TypeAxis:
			s.placeAxis(c, plot)
		case document.TypeXY, document.TypeFunction, document.TypeHistogram:
			s.placePlotter(c, plot)
		case document.TypeLabel:
			s.placeLabel(c, plot)
		case document.TypeRect:
			s.placeRect(c, plot)
		}
	}
}

func (s *solver) placeAxis(a *document.Node, plot geom.Rect) {
	ax := s.lay.Axes[a.Path()]
	if ax == nil {
		return
	}
	set := s.settings(a)
	req := s.req[a.Path()]
	ax.PlotArea = plot
	pos := set.Float("otherPosition")

	// The band sits on the outward side of the axis line.
	var band geom.Rect
	if ax.Dir == Horizontal {
		ax.Line = plot.MaxY() - pos*plot.H
		if pos < 0.5 {
			band = geom.NewRect(plot.X, ax.Line, plot.W, req.H)
		} else {
			band = geom.NewRect(plot.X, ax.Line-req.H, plot.W, req.H)
		}
	} else {
		ax.Line = plot.X + pos*plot.W
		if pos < 0.5 {
			band = geom.NewRect(ax.Line-req.W, plot.Y, req.W, plot.H)
		} else {
			band = geom.NewRect(ax.Line, plot.Y, req.W, plot.H)
		}
	}
	s.lay.Rects[a.Path()] = band
}

// placePlotter gives a plotter the whole plot area, or an empty rect
// when either named axis is missing so painting skips it.
func (s *solver) placePlotter(p *document.Node, plot geom.Rect) {
	set := s.settings(p)
	if s.axisSibling(p, set.Str("xAxis")) == nil || s.axisSibling(p, set.Str("yAxis")) == nil {
		s.lay.Rects[p.Path()] = geom.Rect{}
		return
	}
	s.lay.Rects[p.Path()] = plot
}

// axisSibling returns the resolved axis a plotter names, nil when the
// sibling does not exist or is hidden.
func (s *solver) axisSibling(p *document.Node, name string) *Axis {
	parent := p.Parent()
	if parent == nil || name == "" {
		return nil
	}
	for _, sib := range parent.Children() {
		if sib.Type() == document.TypeAxis && sib.Name() == name {
			return s.lay.Axes[sib.Path()]
		}
	}
	return nil
}

func (s *solver) placeLabel(n *document.Node, arena geom.Rect) {
	if s.hidden(n) {
		return
	}
	set := s.settings(n)
	req := s.req[n.Path()]
	x := arena.X + set.Float("xPos")*arena.W
	y := arena.Y + set.Float("yPos")*arena.H

	switch set.Str("alignHorz") {
	case "centre":
		x -= req.W / 2
	case "right":
		x -= req.W
	}
	switch set.Str("alignVert") {
	case "centre":
		y -= req.H / 2
	case "bottom":
		y -= req.H
	}
	s.lay.Rects[n.Path()] = geom.NewRect(x, y, req.W, req.H)
}

func (s *solver) placeRect(n *document.Node, arena geom.Rect) {
	if s.hidden(n) {
		return
	}
	set := s.settings(n)
	w := set.Float("width") * arena.W
	h := set.Float("height") * arena.H
	if w <= 0 || h <= 0 {
		s.lay.Rects[n.Path()] = geom.Rect{}
		return
	}
	cx := arena.X + set.Float("xPos")*arena.W
	cy := arena.Y + set.Float("yPos")*arena.H
	s.lay.Rects[n.Path()] = geom.NewRect(cx-w/2, cy-h/2, w, h)
}
