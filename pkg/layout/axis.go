package layout

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/geom"
)

// Direction is the screen orientation of an axis.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Axis is the resolved geometry of one axis widget: its final data
// range and ticks, and the plot area it maps into.
type Axis struct {
	Path string
	Dir  Direction
	Log  bool

	// Range is the resolved interval. Lo < Hi always holds, and Lo is
	// positive for log axes.
	Range geom.Interval
	Ticks Ticks

	// PlotArea is the graph interior the axis maps into; Line is the
	// device coordinate of the axis line, a y for horizontal axes and
	// an x for vertical ones.
	PlotArea geom.Rect
	Line     float64
}

// DataToDevice maps a data value to the device coordinate along the
// axis direction. Vertical axes grow upward while device y grows
// downward. Values outside the range map outside the plot area; log
// axes map non-positive values to NaN.
func (a *Axis) DataToDevice(v float64) float64 {
	t := a.fraction(v)
	if a.Dir == Horizontal {
		return a.PlotArea.X + t*a.PlotArea.W
	}
	return a.PlotArea.MaxY() - t*a.PlotArea.H
}

func (a *Axis) fraction(v float64) float64 {
	lo, hi := a.Range.Lo, a.Range.Hi
	if a.Log {
		if v <= 0 {
			return math.NaN()
		}
		lo, hi, v = math.Log10(lo), math.Log10(hi), math.Log10(v)
	}
	return (v - lo) / (hi - lo)
}

// rangeSpec carries the explicit min/max bounds of an axis; unset
// sides resolve from data.
type rangeSpec struct {
	lo, hi       float64
	loSet, hiSet bool
}

// resolveRange produces the final axis interval from the union of
// data extents and the explicit bounds. Ranges are exact: no padding
// is added, but empty and degenerate results widen into something
// drawable, and log ranges are forced positive.
func resolveRange(data geom.Interval, spec rangeSpec, log bool) geom.Interval {
	lo, hi := math.NaN(), math.NaN()
	if !data.IsEmpty() {
		lo, hi = data.Lo, data.Hi
	}
	if spec.loSet {
		lo = spec.lo
	}
	if spec.hiSet {
		hi = spec.hi
	}

	switch {
	case math.IsNaN(lo) && math.IsNaN(hi):
		if log {
			return geom.Interval{Lo: 0.1, Hi: 1}
		}
		return geom.Interval{Lo: 0, Hi: 1}
	case math.IsNaN(lo):
		if log {
			lo = hi / 10
		} else {
			lo = hi - 1
		}
	case math.IsNaN(hi):
		if log {
			hi = lo * 10
		} else {
			hi = lo + 1
		}
	}

	if log {
		if hi <= 0 {
			lo, hi = 0.1, 1
		} else if lo <= 0 {
			lo = hi / 10
		}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		if log {
			lo, hi = lo/2, hi*2
		} else {
			lo, hi = lo-0.5, hi+0.5
		}
	}
	return geom.Interval{Lo: lo, Hi: hi}
}
