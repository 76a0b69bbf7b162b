// Package geom provides the small geometric types shared by layout and
// rendering. All coordinates are in points (1/72 inch) with the origin
// at the top-left and y growing downward, matching SVG conventions.
package geom

import "math"

// Point is a position in device coordinates.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. X, Y locate the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// NewRect constructs a rectangle from a corner and extents.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge of the rectangle.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Empty reports whether the rectangle has no area. Layout produces
// empty rectangles for widgets squeezed out of their container;
// rendering skips them.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Inset shrinks the rectangle by the given margins. The result may be
// empty if the margins exceed the extents.
func (r Rect) Inset(left, top, right, bottom float64) Rect {
	return Rect{
		X: r.X + left,
		Y: r.Y + top,
		W: r.W - left - right,
		H: r.H - top - bottom,
	}
}

// Contains reports whether the point lies inside the rectangle.
// Points on the edges count as inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Intersect returns the overlap of two rectangles. A disjoint pair
// yields an empty rectangle.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rectangle covering both. Empty inputs are
// ignored; the union of two empty rectangles is the zero Rect.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.MaxX(), o.MaxX())
	y1 := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Interval is a closed numeric range, used for axis data ranges.
type Interval struct {
	Lo, Hi float64
}

// Valid reports whether the interval is ordered and finite.
func (iv Interval) Valid() bool {
	return iv.Lo <= iv.Hi &&
		!math.IsNaN(iv.Lo) && !math.IsInf(iv.Lo, 0) &&
		!math.IsNaN(iv.Hi) && !math.IsInf(iv.Hi, 0)
}

// Span returns Hi - Lo.
func (iv Interval) Span() float64 { return iv.Hi - iv.Lo }

// Extend grows the interval to include v. NaN and infinite values are
// ignored so invalid data points never poison a range.
func (iv Interval) Extend(v float64) Interval {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return iv
	}
	if v < iv.Lo {
		iv.Lo = v
	}
	if v > iv.Hi {
		iv.Hi = v
	}
	return iv
}

// EmptyInterval returns the identity for Extend/Merge: an inverted
// interval that any real value replaces.
func EmptyInterval() Interval {
	return Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
}

// Merge returns the union of two intervals, treating inverted
// intervals as empty.
func (iv Interval) Merge(o Interval) Interval {
	if o.Lo < iv.Lo {
		iv.Lo = o.Lo
	}
	if o.Hi > iv.Hi {
		iv.Hi = o.Hi
	}
	return iv
}

// IsEmpty reports whether the interval contains no values.
func (iv Interval) IsEmpty() bool { return iv.Lo > iv.Hi }
