package canvas

import (
	"fmt"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/geom"
)

// Recorder is a Canvas that keeps every operation as a printable
// string instead of drawing. Render tests compare recorded streams to
// pin paint order and to check that repeated renders are identical.
type Recorder struct {
	ops []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Ops returns a copy of the recorded operations in order.
func (r *Recorder) Ops() []string {
	out := make([]string, len(r.ops))
	copy(out, r.ops)
	return out
}

// String joins the recorded operations with newlines.
func (r *Recorder) String() string { return strings.Join(r.ops, "\n") }

// Reset discards all recorded operations.
func (r *Recorder) Reset() { r.ops = nil }

func (r *Recorder) op(format string, args ...any) {
	r.ops = append(r.ops, fmt.Sprintf(format, args...))
}

func (r *Recorder) Save()    { r.op("save") }
func (r *Recorder) Restore() { r.op("restore") }

func (r *Recorder) SetStroke(color string, width float64, dash []float64) {
	r.op("setStroke %s w=%g dash=%v", color, width, dash)
}

func (r *Recorder) SetFill(color string) { r.op("setFill %s", color) }
func (r *Recorder) SetFont(size float64) { r.op("setFont %g", size) }

func (r *Recorder) MoveTo(p geom.Point) { r.op("moveTo %g,%g", p.X, p.Y) }
func (r *Recorder) LineTo(p geom.Point) { r.op("lineTo %g,%g", p.X, p.Y) }
func (r *Recorder) ClosePath()          { r.op("closePath") }

func (r *Recorder) Circle(center geom.Point, rad float64) {
	r.op("circle %g,%g r=%g", center.X, center.Y, rad)
}

func (r *Recorder) Stroke()     { r.op("stroke") }
func (r *Recorder) Fill()       { r.op("fill") }
func (r *Recorder) FillStroke() { r.op("fillStroke") }

func (r *Recorder) Polyline(pts []geom.Point) {
	var b strings.Builder
	b.WriteString("polyline")
	for _, p := range pts {
		fmt.Fprintf(&b, " %g,%g", p.X, p.Y)
	}
	r.ops = append(r.ops, b.String())
}

func (r *Recorder) DrawText(p geom.Point, s string, ax, ay, angle float64) {
	r.op("text %q at %g,%g align=%g,%g angle=%g", s, p.X, p.Y, ax, ay, angle)
}

func (r *Recorder) PushClip(rc geom.Rect) {
	r.op("pushClip %g,%g %gx%g", rc.X, rc.Y, rc.W, rc.H)
}

func (r *Recorder) PopClip() { r.op("popClip") }

func (r *Recorder) BeginWidget(path string) { r.op("begin %s", path) }
func (r *Recorder) EndWidget()              { r.op("end") }

var _ Canvas = (*Recorder)(nil)
