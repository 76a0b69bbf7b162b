// Package depviz renders the dataset dependency graph as a node-link
// diagram: datasets as boxes, formula references as arrows from the
// dataset read to the dataset computed. Output is Graphviz DOT, with
// SVG and further formats rendered through the graphviz engine.
package depviz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/render"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds point counts, formulas and tags to node labels.
	// When false, only the dataset name is shown.
	Detailed bool
}

// ToDOT converts the store's dependency graph to Graphviz DOT. Raw
// numeric datasets draw as white boxes, derived ones grey, text
// datasets dashed; a dataset whose last evaluation failed gets a red
// outline. Output is stable for a given store state.
func ToDOT(s *dataset.Store, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph datasets {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("\n")

	for _, info := range s.List() {
		label := fmtLabel(info, opts.Detailed)
		attrs := fmtAttrs(info, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", info.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(info dataset.Info, detailed bool) string {
	if !detailed {
		return info.Name
	}
	parts := []string{fmt.Sprintf("%d points", info.Points)}
	if info.Def != nil {
		parts = append(parts, "= "+info.Def.Data)
	}
	if len(info.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(info.Tags, " #"))
	}
	return info.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(info dataset.Info, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case info.Kind == dataset.KindText:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	case info.Derived:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if info.EvalErr != "" {
		attrs = append(attrs, "color=red", "fontcolor=red")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz. The bytes are
// ready for display or conversion with [render.ConvertSVG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPDF renders a DOT graph as PDF via SVG conversion. Requires
// librsvg like [render.ConvertSVG].
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ConvertSVG(svg, "pdf", 0)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the
// given scale. Requires librsvg like [render.ConvertSVG].
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ConvertSVG(svg, "png", scale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the graphviz svg element so the viewBox
// starts at the origin and width/height are plain pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
