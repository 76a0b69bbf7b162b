package canvas

import (
	"image/color"
	"strconv"
	"strings"
)

// colorNames maps the colour keywords accepted in settings to their
// CSS values, so SVG viewers and the raster backend agree on every
// name.
var colorNames = map[string]color.RGBA{
	"black":     {0x00, 0x00, 0x00, 0xff},
	"white":     {0xff, 0xff, 0xff, 0xff},
	"red":       {0xff, 0x00, 0x00, 0xff},
	"lime":      {0x00, 0xff, 0x00, 0xff},
	"green":     {0x00, 0x80, 0x00, 0xff},
	"blue":      {0x00, 0x00, 0xff, 0xff},
	"yellow":    {0xff, 0xff, 0x00, 0xff},
	"cyan":      {0x00, 0xff, 0xff, 0xff},
	"magenta":   {0xff, 0x00, 0xff, 0xff},
	"gray":      {0x80, 0x80, 0x80, 0xff},
	"grey":      {0x80, 0x80, 0x80, 0xff},
	"darkgray":  {0xa9, 0xa9, 0xa9, 0xff},
	"darkgrey":  {0xa9, 0xa9, 0xa9, 0xff},
	"lightgray": {0xd3, 0xd3, 0xd3, 0xff},
	"lightgrey": {0xd3, 0xd3, 0xd3, 0xff},
	"darkred":   {0x8b, 0x00, 0x00, 0xff},
	"darkgreen": {0x00, 0x64, 0x00, 0xff},
	"darkblue":  {0x00, 0x00, 0x8b, 0xff},
	"orange":    {0xff, 0xa5, 0x00, 0xff},
	"purple":    {0x80, 0x00, 0x80, 0xff},
	"brown":     {0xa5, 0x2a, 0x2a, 0xff},
	"pink":      {0xff, 0xc0, 0xcb, 0xff},
	"navy":      {0x00, 0x00, 0x80, 0xff},
	"teal":      {0x00, 0x80, 0x80, 0xff},
	"olive":     {0x80, 0x80, 0x00, 0xff},
	"maroon":    {0x80, 0x00, 0x00, 0xff},
	"silver":    {0xc0, 0xc0, 0xc0, 0xff},
}

// ParseColor interprets a colour setting value: a keyword from the
// name table or a #rgb, #rrggbb or #rrggbbaa hex form, matched case
// insensitively. ok is false for anything else, including values for
// which None is true; callers wanting a visible fallback should use
// black.
func ParseColor(s string) (c color.RGBA, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colorNames[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	switch len(hex) {
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, true
}
