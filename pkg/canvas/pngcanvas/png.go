// Package pngcanvas rasterizes draw operations to PNG through
// fogleman/gg. Rendering happens at a supersampling multiple of the
// page size and downsamples to the target, which keeps thin lines and
// small text readable.
package pngcanvas

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

type Option func(*Canvas)

// WithScale sets the supersampling factor. The default of 2 renders
// at twice the output resolution before downsampling.
func WithScale(n int) Option {
	return func(c *Canvas) {
		if n >= 1 {
			c.super = float64(n)
		}
	}
}

// WithPixelsPerPoint sets the output resolution. The default of 1
// writes one output pixel per page point.
func WithPixelsPerPoint(s float64) Option {
	return func(c *Canvas) {
		if s > 0 {
			c.out = s
		}
	}
}

// Canvas draws into a gg raster context. All coordinates and widths
// multiply by the combined scale factor on the way in; WritePNG
// downsamples the supersampled raster to the output resolution.
type Canvas struct {
	dc    *gg.Context
	w, h  float64
	out   float64 // output pixels per point
	super float64 // supersampling factor while drawing
	scale float64 // out * super
	state paintState
	stack []paintState
	clips []geom.Rect
	faces map[float64]font.Face
}

type paintState struct {
	stroke string
	width  float64
	dash   []float64
	fill   string
	font   float64
}

// New returns a canvas for a page of the given size in points.
func New(width, height float64, opts ...Option) *Canvas {
	c := &Canvas{
		w:     width,
		h:     height,
		out:   1,
		super: 2,
		state: paintState{stroke: "black", width: 1, fill: "black", font: 12},
		faces: map[float64]font.Face{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scale = c.out * c.super
	c.dc = gg.NewContext(int(width*c.scale+0.5), int(height*c.scale+0.5))
	return c
}

// WritePNG encodes the rendered image at the output resolution. With
// supersampling above 1 the raster is first downsampled.
func (c *Canvas) WritePNG(w io.Writer) error {
	img := c.dc.Image()
	if c.super > 1 {
		out := image.NewRGBA(image.Rect(0, 0, int(c.w*c.out+0.5), int(c.h*c.out+0.5)))
		draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
		return png.Encode(w, out)
	}
	return png.Encode(w, img)
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

func (c *Canvas) MoveTo(p geom.Point) { c.dc.MoveTo(p.X*c.scale, p.Y*c.scale) }
func (c *Canvas) LineTo(p geom.Point) { c.dc.LineTo(p.X*c.scale, p.Y*c.scale) }
func (c *Canvas) ClosePath()          { c.dc.ClosePath() }

func (c *Canvas) Circle(center geom.Point, r float64) {
	c.dc.DrawCircle(center.X*c.scale, center.Y*c.scale, r*c.scale)
}

func (c *Canvas) Stroke() {
	if canvas.None(c.state.stroke) {
		c.dc.ClearPath()
		return
	}
	c.applyStroke()
	c.dc.Stroke()
}

func (c *Canvas) Fill() {
	if canvas.None(c.state.fill) {
		c.dc.ClearPath()
		return
	}
	c.dc.SetColor(parse(c.state.fill))
	c.dc.Fill()
}

func (c *Canvas) FillStroke() {
	noFill := canvas.None(c.state.fill)
	noStroke := canvas.None(c.state.stroke)
	switch {
	case noFill && noStroke:
		c.dc.ClearPath()
	case noFill:
		c.applyStroke()
		c.dc.Stroke()
	case noStroke:
		c.dc.SetColor(parse(c.state.fill))
		c.dc.Fill()
	default:
		c.dc.SetColor(parse(c.state.fill))
		c.dc.FillPreserve()
		c.applyStroke()
		c.dc.Stroke()
	}
}

func (c *Canvas) Polyline(pts []geom.Point) {
	if len(pts) < 2 || canvas.None(c.state.stroke) {
		return
	}
	c.dc.MoveTo(pts[0].X*c.scale, pts[0].Y*c.scale)
	for _, p := range pts[1:] {
		c.dc.LineTo(p.X*c.scale, p.Y*c.scale)
	}
	c.applyStroke()
	c.dc.Stroke()
}

func (c *Canvas) applyStroke() {
	c.dc.SetColor(parse(c.state.stroke))
	c.dc.SetLineWidth(c.state.width * c.scale)
	if len(c.state.dash) > 0 {
		scaled := make([]float64, len(c.state.dash))
		for i, d := range c.state.dash {
			scaled[i] = d * c.scale
		}
		c.dc.SetDash(scaled...)
	} else {
		c.dc.SetDash()
	}
}

// ===== Text =====

func (c *Canvas) DrawText(p geom.Point, s string, ax, ay, angle float64) {
	if s == "" || canvas.None(c.state.fill) {
		return
	}
	// Alignment uses metrics at the logical size; the face itself is
	// sized for the supersampled raster.
	m := canvas.MeasureText(s, c.state.font)
	left := (p.X - ax*m.W) * c.scale
	baseline := (p.Y - ay*m.H + m.Ascent) * c.scale
	c.dc.SetFontFace(c.face(c.state.font * c.scale))
	c.dc.SetColor(parse(c.state.fill))
	if angle != 0 {
		c.dc.Push()
		c.dc.RotateAbout(gg.Radians(angle), p.X*c.scale, p.Y*c.scale)
		c.dc.DrawString(s, left, baseline)
		c.dc.Pop()
		return
	}
	c.dc.DrawString(s, left, baseline)
}

func (c *Canvas) face(size float64) font.Face {
	if f, ok := c.faces[size]; ok {
		return f
	}
	f := canvas.FontFace(size)
	c.faces[size] = f
	return f
}

// ===== Clipping and grouping =====

// Clip application consumes the gg path, so clip changes must not
// interleave with an open path.
func (c *Canvas) PushClip(r geom.Rect) {
	c.clips = append(c.clips, r)
	c.applyClip(r)
}

func (c *Canvas) PopClip() {
	if len(c.clips) == 0 {
		return
	}
	c.clips = c.clips[:len(c.clips)-1]
	c.dc.ResetClip()
	for _, r := range c.clips {
		c.applyClip(r)
	}
}

func (c *Canvas) applyClip(r geom.Rect) {
	c.dc.DrawRectangle(r.X*c.scale, r.Y*c.scale, r.W*c.scale, r.H*c.scale)
	c.dc.Clip()
}

func (c *Canvas) BeginWidget(string) {}
func (c *Canvas) EndWidget()        {}

func parse(s string) color.RGBA {
	if c, ok := canvas.ParseColor(s); ok {
		return c
	}
	return color.RGBA{A: 0xff}
}

var _ canvas.Canvas = (*Canvas)(nil)
