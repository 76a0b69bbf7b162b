// Package dataset implements the document's dataset store: named
// columns of numbers or text, raw or derived from formulas, plus the
// dependency graph that keeps derived data current.
//
// # Datasets
//
// A numeric dataset holds a data column and optional error columns:
// serr (symmetric), perr (positive offsets) and nerr (negative
// offsets, stored as negative values). All present columns have the
// data column's length. Text datasets hold strings and cannot be
// referenced from formulas.
//
// A dataset is either raw (values stored directly) or derived (one
// formula per column, evaluated against the other datasets). Derived
// values are recomputed lazily: mutating a dataset marks its
// transitive dependents dirty, and the next read settles exactly the
// dirty datasets in dependency order.
//
// # Failure containment
//
// A derived dataset whose evaluation fails keeps its definition but
// yields empty columns; the failure is logged and retrievable via
// [Store.LastError]. Bad data degrades a plot, it never takes the
// document down.
package dataset

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/expr"
	"github.com/plotdeck/plotdeck/pkg/geom"
)

// Kind discriminates dataset content types.
type Kind int

const (
	// KindNumeric is a float column set with optional error columns.
	KindNumeric Kind = iota
	// KindText is a string column.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Columns holds the numeric columns of a dataset.
type Columns struct {
	Data []float64
	Serr []float64
	Perr []float64
	Nerr []float64
}

// Validate checks the shape invariant: every present error column
// matches the data column's length.
func (c Columns) Validate() error {
	n := len(c.Data)
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{"serr", c.Serr},
		{"perr", c.Perr},
		{"nerr", c.Nerr},
	} {
		if col.vals != nil && len(col.vals) != n {
			return errors.New(errors.ErrCodeShapeMismatch,
				"%s column has length %d, data has length %d", col.name, len(col.vals), n)
		}
	}
	return nil
}

// Len returns the number of points.
func (c Columns) Len() int { return len(c.Data) }

// Column returns the column for a part, or nil if absent.
func (c Columns) Column(part expr.Part) []float64 {
	switch part {
	case expr.PartData:
		return c.Data
	case expr.PartSerr:
		return c.Serr
	case expr.PartPerr:
		return c.Perr
	case expr.PartNerr:
		return c.Nerr
	default:
		return nil
	}
}

// Clone deep-copies all columns.
func (c Columns) Clone() Columns {
	return Columns{
		Data: cloneFloats(c.Data),
		Serr: cloneFloats(c.Serr),
		Perr: cloneFloats(c.Perr),
		Nerr: cloneFloats(c.Nerr),
	}
}

func cloneFloats(vs []float64) []float64 {
	if vs == nil {
		return nil
	}
	out := make([]float64, len(vs))
	copy(out, vs)
	return out
}

// Finite reports whether point i is valid: its data value and every
// present error value are finite.
func (c Columns) Finite(i int) bool {
	if i < 0 || i >= len(c.Data) {
		return false
	}
	if !isFinite(c.Data[i]) {
		return false
	}
	for _, col := range [][]float64{c.Serr, c.Perr, c.Nerr} {
		if col != nil && !isFinite(col[i]) {
			return false
		}
	}
	return true
}

// Range returns the interval covered by the data including error bar
// extents. Invalid points are skipped.
func (c Columns) Range() geom.Interval {
	iv := geom.EmptyInterval()
	for i, v := range c.Data {
		if !c.Finite(i) {
			continue
		}
		iv = iv.Extend(v)
		if c.Serr != nil {
			iv = iv.Extend(v + c.Serr[i])
			iv = iv.Extend(v - c.Serr[i])
		}
		if c.Perr != nil {
			iv = iv.Extend(v + c.Perr[i])
		}
		if c.Nerr != nil {
			iv = iv.Extend(v + c.Nerr[i])
		}
	}
	return iv
}

// PositiveRange returns the interval covered by the strictly positive
// data values including error extents, for log axes.
func (c Columns) PositiveRange() geom.Interval {
	iv := geom.EmptyInterval()
	extend := func(v float64) {
		if v > 0 {
			iv = iv.Extend(v)
		}
	}
	for i, v := range c.Data {
		if !c.Finite(i) {
			continue
		}
		extend(v)
		if c.Serr != nil {
			extend(v + c.Serr[i])
			extend(v - c.Serr[i])
		}
		if c.Perr != nil {
			extend(v + c.Perr[i])
		}
		if c.Nerr != nil {
			extend(v + c.Nerr[i])
		}
	}
	return iv
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Definition holds the formulas of a derived dataset, one per column.
// Data is required; the error formulas may be empty.
type Definition struct {
	Data string
	Serr string
	Perr string
	Nerr string

	progs map[expr.Part]*expr.Program
}

// Formula returns the formula text for a part, empty if undefined.
func (d *Definition) Formula(part expr.Part) string {
	switch part {
	case expr.PartData:
		return d.Data
	case expr.PartSerr:
		return d.Serr
	case expr.PartPerr:
		return d.Perr
	case expr.PartNerr:
		return d.Nerr
	default:
		return ""
	}
}

// compile parses all non-empty formulas. Compilation failures carry
// the part name.
func (d *Definition) compile() error {
	if d.Data == "" {
		return errors.New(errors.ErrCodeInvalidInput, "derived dataset needs a data formula")
	}
	d.progs = make(map[expr.Part]*expr.Program)
	for _, part := range expr.Parts {
		src := d.Formula(part)
		if src == "" {
			continue
		}
		p, err := expr.Compile(src)
		if err != nil {
			return errors.Wrap(errors.ErrCodeParse, err, "%s formula", part)
		}
		d.progs[part] = p
	}
	return nil
}

// datasets returns the distinct dataset names read by any part,
// sorted.
func (d *Definition) datasets() []string {
	set := make(map[string]struct{})
	for _, p := range d.progs {
		for _, name := range p.Datasets() {
			set[name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// rewrite returns a copy with dataset references renamed. The copy is
// compiled and ready to use.
func (d *Definition) rewrite(rename func(string) string) (*Definition, error) {
	out := &Definition{}
	for _, pair := range []struct {
		src string
		dst *string
	}{
		{d.Data, &out.Data},
		{d.Serr, &out.Serr},
		{d.Perr, &out.Perr},
		{d.Nerr, &out.Nerr},
	} {
		if pair.src == "" {
			continue
		}
		rewritten, err := expr.RewriteRefs(pair.src, rename)
		if err != nil {
			return nil, err
		}
		*pair.dst = rewritten
	}
	if err := out.compile(); err != nil {
		return nil, err
	}
	return out, nil
}
