package render

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// ConvertFormats lists the formats ConvertSVG can produce.
var ConvertFormats = []string{"pdf", "eps", "png"}

// ConvertSVG converts SVG bytes to pdf, eps or png using the external
// rsvg-convert tool. scale applies to png only; values below 1 mean
// the default of 1. Requires librsvg (apt install librsvg2-bin,
// brew install librsvg); without it the call fails with UNAVAILABLE.
func ConvertSVG(svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case "pdf", "eps":
	case "png":
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "cannot convert SVG to %q", format)
	}
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeUnavailable,
			"%s export requires librsvg (install rsvg-convert and retry)", format)
	}

	args := []string{"-f", format}
	if format == "png" {
		if scale < 1 {
			scale = 1
		}
		args = append(args, "-z", fmt.Sprintf("%.2f", scale))
	}
	cmd := exec.Command("rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err,
			"rsvg-convert failed: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
