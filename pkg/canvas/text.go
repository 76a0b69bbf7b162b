package canvas

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// All text measures and renders with the embedded Go Regular font, so
// layout decisions hold on machines with no fonts installed. SVG
// output names a generic family instead and accepts the small metric
// drift of whatever the viewer substitutes.

var (
	fontOnce sync.Once
	fontReg  *sfnt.Font
)

func regularFont() *sfnt.Font {
	fontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("parsing embedded font: %v", err))
		}
		fontReg = f
	})
	return fontReg
}

// FontFace returns a face for the embedded font at the given point
// size. Each call returns a fresh face; a face is not safe for
// concurrent use.
func FontFace(size float64) font.Face {
	face, err := opentype.NewFace(regularFont(), &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		panic(fmt.Sprintf("sizing embedded font: %v", err))
	}
	return face
}

// TextSize is the extent of a rendered string in points.
type TextSize struct {
	W      float64
	H      float64
	Ascent float64
}

// MeasureText reports the extent of s at the given font size. H spans
// ascent plus descent; the baseline sits Ascent below the top of the
// box.
func MeasureText(s string, size float64) TextSize {
	face := FontFace(size)
	m := face.Metrics()
	ascent := fixedToPt(m.Ascent)
	descent := fixedToPt(m.Descent)
	return TextSize{
		W:      fixedToPt(font.MeasureString(face, s)),
		H:      ascent + descent,
		Ascent: ascent,
	}
}

func fixedToPt(v fixed.Int26_6) float64 { return float64(v) / 64 }
