package layout

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/expr"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

// SampleFunction evaluates a formula in the variable x at n points
// spread across xr, spaced geometrically when logx is set. Points
// where the formula has no finite value come back NaN, which splits
// the drawn curve. The formula sees only x; dataset references are an
// error here.
func SampleFunction(formula string, xr geom.Interval, n int, logx bool) (xs, ys []float64, err error) {
	if n < 2 {
		n = 2
	}
	prog, err := expr.Compile(formula)
	if err != nil {
		return nil, nil, err
	}

	xs = make([]float64, n)
	for i := range xs {
		t := float64(i) / float64(n-1)
		if logx {
			xs[i] = xr.Lo * math.Pow(xr.Hi/xr.Lo, t)
		} else {
			xs[i] = xr.Lo + t*xr.Span()
		}
	}

	val, err := prog.Eval(expr.ResolverFunc(func(ref expr.Ref) ([]float64, error) {
		if ref.Dataset == "x" && ref.Part == expr.PartData {
			return xs, nil
		}
		return nil, errors.New(errors.ErrCodeInvalidReference,
			"function formulas know only the variable x, not %q", ref.Dataset)
	}))
	if err != nil {
		return nil, nil, err
	}
	ys, err = val.Floats(n)
	if err != nil {
		return nil, nil, err
	}
	for i, y := range ys {
		if math.IsInf(y, 0) {
			ys[i] = math.NaN()
		}
	}
	return xs, ys, nil
}

// HistogramBins counts values into equal-width bins across the finite
// data range. Edges has one more entry than counts; an all-invalid or
// empty input returns nil slices.
func HistogramBins(vals []float64, bins int) (edges, counts []float64) {
	if bins < 1 {
		bins = 1
	}
	iv := geom.EmptyInterval()
	for _, v := range vals {
		iv = iv.Extend(v)
	}
	if iv.IsEmpty() {
		return nil, nil
	}
	lo, hi := iv.Lo, iv.Hi
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	edges = make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + width*float64(i)
	}
	edges[bins] = hi

	counts = make([]float64, bins)
	for _, v := range vals {
		if !isFinite(v) || v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return edges, counts
}
