package svgcanvas

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/plotdeck/plotdeck/pkg/canvas"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

func TestFtoa(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"Integer", 12, "12"},
		{"TrailingZeros", 12.5, "12.5"},
		{"ThreeDecimals", 1.234, "1.234"},
		{"RoundsFourth", 1.23456, "1.235"},
		{"NegativeZero", -0.0001, "0"},
		{"Zero", 0, "0"},
		{"Negative", -3.25, "-3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ftoa(tt.in); got != tt.want {
				t.Errorf("ftoa(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWidgetID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Nested", "/page1/graph1/xy1", "page1.graph1.xy1"},
		{"TopLevel", "/page1", "page1"},
		{"Root", "/", "document"},
		{"Empty", "", "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := widgetID(tt.in); got != tt.want {
				t.Errorf("widgetID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func buildScene(c *Canvas) {
	c.BeginWidget("/page1")
	c.SetFill("white")
	c.MoveTo(geom.Point{X: 0, Y: 0})
	c.LineTo(geom.Point{X: 100, Y: 0})
	c.LineTo(geom.Point{X: 100, Y: 80})
	c.LineTo(geom.Point{X: 0, Y: 80})
	c.ClosePath()
	c.Fill()
	c.PushClip(geom.NewRect(10, 10, 80, 60))
	c.SetStroke("red", 0.5, nil)
	c.Polyline([]geom.Point{{X: 10, Y: 70}, {X: 50, Y: 20}, {X: 90, Y: 40}})
	c.PopClip()
	c.EndWidget()
}

func TestSVGDocument(t *testing.T) {
	c := New(100, 80)
	buildScene(c)
	out := string(c.Bytes())

	wantParts := []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="100pt" height="80pt" viewBox="0 0 100 80">`,
		`<clipPath id="clip1"><rect x="10" y="10" width="80" height="60"/></clipPath>`,
		`<g id="page1">`,
		`<path d="M 0 0 L 100 0 L 100 80 L 0 80 Z" fill="white"/>`,
		`<g clip-path="url(#clip1)">`,
		`<polyline points="10,70 50,20 90,40" fill="none" stroke="red" stroke-width="0.5"/>`,
	}
	for _, part := range wantParts {
		if !strings.Contains(out, part) {
			t.Errorf("output missing %q\n%s", part, out)
		}
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("output does not end with closing tag")
	}
	if strings.Index(out, "</defs>") > strings.Index(out, `<g id="page1">`) {
		t.Errorf("defs should precede the body")
	}
}

func TestSVGDeterministic(t *testing.T) {
	a := New(100, 80)
	b := New(100, 80)
	buildScene(a)
	buildScene(b)
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Errorf("same scene produced different bytes")
	}
}

func TestSVGText(t *testing.T) {
	c := New(50, 50)
	c.SetFont(10)
	c.DrawText(geom.Point{X: 5, Y: 9}, "a<b>&c", 0, 1, 0)
	c.DrawText(geom.Point{X: 25, Y: 9}, "mid", 0.5, 0, 0)
	c.DrawText(geom.Point{X: 45, Y: 9}, "up", 1, 0.5, -90)
	out := string(c.Bytes())

	if !strings.Contains(out, "a&lt;b&gt;&amp;c</text>") {
		t.Errorf("text content not escaped:\n%s", out)
	}
	m := canvas.MeasureText("a<b>&c", 10)
	if want := fmt.Sprintf(`y="%s"`, ftoa(9-m.H+m.Ascent)); !strings.Contains(out, want) {
		t.Errorf("bottom-anchored baseline %s missing:\n%s", want, out)
	}
	if !strings.Contains(out, `text-anchor="middle"`) {
		t.Errorf("centre alignment not mapped to text-anchor")
	}
	if !strings.Contains(out, `text-anchor="end"`) {
		t.Errorf("right alignment not mapped to text-anchor")
	}
	if !strings.Contains(out, `transform="rotate(-90 45 9)"`) {
		t.Errorf("rotation transform missing:\n%s", out)
	}
	if n := strings.Count(out, "text-anchor"); n != 2 {
		t.Errorf("left alignment should omit text-anchor, found %d attributes", n)
	}
}

func TestSVGNoneSkipsPainting(t *testing.T) {
	tests := []struct {
		name string
		draw func(c *Canvas)
	}{
		{"FillNone", func(c *Canvas) {
			c.SetFill("none")
			c.MoveTo(geom.Point{X: 0, Y: 0})
			c.LineTo(geom.Point{X: 1, Y: 1})
			c.Fill()
		}},
		{"StrokeNone", func(c *Canvas) {
			c.SetStroke("none", 1, nil)
			c.MoveTo(geom.Point{X: 0, Y: 0})
			c.LineTo(geom.Point{X: 1, Y: 1})
			c.Stroke()
		}},
		{"PolylineStrokeNone", func(c *Canvas) {
			c.SetStroke("", 1, nil)
			c.Polyline([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
		}},
		{"TextFillNone", func(c *Canvas) {
			c.SetFill("transparent")
			c.DrawText(geom.Point{X: 1, Y: 1}, "hidden", 0, 0, 0)
		}},
		{"EmptyPath", func(c *Canvas) {
			c.Stroke()
			c.Fill()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10, 10)
			tt.draw(c)
			out := string(c.Bytes())
			if strings.Contains(out, "<path") || strings.Contains(out, "<polyline") || strings.Contains(out, "<text") {
				t.Errorf("expected no painted elements:\n%s", out)
			}
		})
	}
}

func TestSVGFillStroke(t *testing.T) {
	c := New(10, 10)
	c.SetFill("yellow")
	c.SetStroke("black", 2, []float64{4, 2})
	c.MoveTo(geom.Point{X: 1, Y: 1})
	c.LineTo(geom.Point{X: 9, Y: 1})
	c.LineTo(geom.Point{X: 9, Y: 9})
	c.ClosePath()
	c.FillStroke()
	out := string(c.Bytes())

	want := `<path d="M 1 1 L 9 1 L 9 9 Z" fill="yellow" stroke="black" stroke-width="2" stroke-dasharray="4 2"/>`
	if !strings.Contains(out, want) {
		t.Errorf("missing combined fill and stroke path:\n%s", out)
	}
}

func TestSVGCircle(t *testing.T) {
	c := New(20, 20)
	c.SetFill("red")
	c.Circle(geom.Point{X: 10, Y: 10}, 3)
	c.Fill()
	out := string(c.Bytes())

	want := `d="M 13 10 A 3 3 0 1 0 7 10 A 3 3 0 1 0 13 10 Z" fill="red"`
	if !strings.Contains(out, want) {
		t.Errorf("missing circle path:\n%s", out)
	}
}

func TestSVGSaveRestore(t *testing.T) {
	c := New(10, 10)
	c.Save()
	c.SetFill("red")
	c.Restore()
	c.MoveTo(geom.Point{X: 0, Y: 0})
	c.LineTo(geom.Point{X: 1, Y: 0})
	c.LineTo(geom.Point{X: 1, Y: 1})
	c.Fill()
	out := string(c.Bytes())

	if !strings.Contains(out, `fill="black"`) {
		t.Errorf("restore did not bring back the default fill:\n%s", out)
	}
}
