// Package svgcanvas renders draw operations to hand-written SVG 1.1.
// The output is plain elements with no scripting, suitable both for
// viewing directly and as the source format for external conversion
// to PDF or EPS.
package svgcanvas

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

// Canvas accumulates operations in a body buffer and assembles the
// final document in Bytes, when every clip rect referenced by the
// body is known and can be emitted into <defs>.
type Canvas struct {
	w, h  float64
	body  bytes.Buffer
	clips []geom.Rect
	path  strings.Builder
	state paintState
	stack []paintState
}

type paintState struct {
	stroke string
	width  float64
	dash   []float64
	fill   string
	font   float64
}

// New returns a canvas for a page of the given size in points.
func New(width, height float64) *Canvas {
	return &Canvas{
		w:     width,
		h:     height,
		state: paintState{stroke: "black", width: 1, fill: "black", font: 12},
	}
}

// Bytes assembles and returns the SVG document.
func (c *Canvas) Bytes() []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%spt\" height=\"%spt\" viewBox=\"0 0 %s %s\">\n",
		ftoa(c.w), ftoa(c.h), ftoa(c.w), ftoa(c.h))
	if len(c.clips) > 0 {
		out.WriteString("<defs>\n")
		for i, r := range c.clips {
			fmt.Fprintf(&out, "<clipPath id=\"clip%d\"><rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\"/></clipPath>\n",
				i+1, ftoa(r.X), ftoa(r.Y), ftoa(r.W), ftoa(r.H))
		}
		out.WriteString("</defs>\n")
	}
	out.Write(c.body.Bytes())
	out.WriteString("</svg>\n")
	return out.Bytes()
}

// ===== Paint state =====

func (c *Canvas) Save() { c.stack = append(c.stack, c.state) }

func (c *Canvas) Restore() {
	if n := len(c.stack); n > 0 {
		c.state = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
}

func (c *Canvas) SetStroke(color string, width float64, dash []float64) {
	c.state.stroke = color
	c.state.width = width
	c.state.dash = dash
}

func (c *Canvas) SetFill(color string) { c.state.fill = color }
func (c *Canvas) SetFont(size float64) { c.state.font = size }

// ===== Paths =====

func (c *Canvas) MoveTo(p geom.Point) { c.pathCmd('M', p) }
func (c *Canvas) LineTo(p geom.Point) { c.pathCmd('L', p) }

func (c *Canvas) ClosePath() {
	if c.path.Len() > 0 {
		c.path.WriteString(" Z")
	}
}

// Circle appends a closed circular subpath as two half arcs.
func (c *Canvas) Circle(center geom.Point, r float64) {
	x0, x1 := ftoa(center.X+r), ftoa(center.X-r)
	y, rs := ftoa(center.Y), ftoa(r)
	if c.path.Len() > 0 {
		c.path.WriteByte(' ')
	}
	fmt.Fprintf(&c.path, "M %s %s A %s %s 0 1 0 %s %s A %s %s 0 1 0 %s %s Z",
		x0, y, rs, rs, x1, y, rs, rs, x0, y)
}

func (c *Canvas) pathCmd(cmd byte, p geom.Point) {
	if c.path.Len() > 0 {
		c.path.WriteByte(' ')
	}
	c.path.WriteByte(cmd)
	c.path.WriteByte(' ')
	c.path.WriteString(ftoa(p.X))
	c.path.WriteByte(' ')
	c.path.WriteString(ftoa(p.Y))
}

func (c *Canvas) takePath() string {
	d := c.path.String()
	c.path.Reset()
	return d
}

func (c *Canvas) Stroke() {
	d := c.takePath()
	if d == "" || canvas.None(c.state.stroke) {
		return
	}
	fmt.Fprintf(&c.body, "<path d=\"%s\" fill=\"none\"%s/>\n", d, c.strokeAttrs())
}

func (c *Canvas) Fill() {
	d := c.takePath()
	if d == "" || canvas.None(c.state.fill) {
		return
	}
	fmt.Fprintf(&c.body, "<path d=\"%s\" fill=\"%s\"/>\n", d, escape(c.state.fill))
}

func (c *Canvas) FillStroke() {
	d := c.takePath()
	noFill := canvas.None(c.state.fill)
	noStroke := canvas.None(c.state.stroke)
	if d == "" || (noFill && noStroke) {
		return
	}
	fill := "none"
	if !noFill {
		fill = escape(c.state.fill)
	}
	attrs := ""
	if !noStroke {
		attrs = c.strokeAttrs()
	}
	fmt.Fprintf(&c.body, "<path d=\"%s\" fill=\"%s\"%s/>\n", d, fill, attrs)
}

func (c *Canvas) Polyline(pts []geom.Point) {
	if len(pts) < 2 || canvas.None(c.state.stroke) {
		return
	}
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ftoa(p.X))
		b.WriteByte(',')
		b.WriteString(ftoa(p.Y))
	}
	fmt.Fprintf(&c.body, "<polyline points=\"%s\" fill=\"none\"%s/>\n", b.String(), c.strokeAttrs())
}

// ===== Text =====

// DrawText aligns with metrics from the embedded font, except
// horizontally, where text-anchor lets the viewer centre or
// right-align with the metrics of the font it actually uses.
func (c *Canvas) DrawText(p geom.Point, s string, ax, ay, angle float64) {
	if s == "" || canvas.None(c.state.fill) {
		return
	}
	m := canvas.MeasureText(s, c.state.font)
	baseline := p.Y - ay*m.H + m.Ascent
	anchor := ""
	switch {
	case ax >= 0.75:
		anchor = ` text-anchor="end"`
	case ax >= 0.25:
		anchor = ` text-anchor="middle"`
	}
	rot := ""
	if angle != 0 {
		rot = fmt.Sprintf(` transform="rotate(%s %s %s)"`, ftoa(angle), ftoa(p.X), ftoa(p.Y))
	}
	fmt.Fprintf(&c.body,
		"<text x=\"%s\" y=\"%s\" font-family=\"sans-serif\" font-size=\"%s\" fill=\"%s\"%s%s>%s</text>\n",
		ftoa(p.X), ftoa(baseline), ftoa(c.state.font), escape(c.state.fill), anchor, rot, escape(s))
}

// ===== Clipping and grouping =====

func (c *Canvas) PushClip(r geom.Rect) {
	c.clips = append(c.clips, r)
	fmt.Fprintf(&c.body, "<g clip-path=\"url(#clip%d)\">\n", len(c.clips))
}

func (c *Canvas) PopClip() { c.body.WriteString("</g>\n") }

func (c *Canvas) BeginWidget(path string) {
	fmt.Fprintf(&c.body, "<g id=\"%s\">\n", widgetID(path))
}

func (c *Canvas) EndWidget() { c.body.WriteString("</g>\n") }

// widgetID turns a widget tree path into an XML-safe id value.
func widgetID(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return "document"
	}
	return strings.ReplaceAll(p, "/", ".")
}

// ===== Helpers =====

func (c *Canvas) strokeAttrs() string {
	var b strings.Builder
	fmt.Fprintf(&b, " stroke=\"%s\" stroke-width=\"%s\"", escape(c.state.stroke), ftoa(c.state.width))
	if len(c.state.dash) > 0 {
		b.WriteString(` stroke-dasharray="`)
		for i, d := range c.state.dash {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(ftoa(d))
		}
		b.WriteByte('"')
	}
	return b.String()
}

// ftoa formats a coordinate with at most three decimals and trailing
// zeros trimmed, keeping output compact and byte-stable.
func ftoa(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

var _ canvas.Canvas = (*Canvas)(nil)
