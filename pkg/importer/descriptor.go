package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// role says which column of a dataset a file column feeds.
type role int

const (
	roleData role = iota
	roleSerr
	rolePerr
	roleNerr
	roleCount
)

var markerRoles = map[string]role{
	"+-": roleSerr,
	"+":  rolePerr,
	"-":  roleNerr,
}

// header is the parsed column layout of a file.
type header struct {
	names []string // dataset names in order of appearance
	specs []spec   // one per file column
}

type spec struct {
	dataset int
	role    role
}

// parseHeader resolves each header cell to a dataset column or an
// error marker attached to the dataset named before it.
func parseHeader(fields []string) (*header, error) {
	h := &header{}
	seen := make(map[string]bool)
	var taken [][roleCount]bool
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if r, ok := markerRoles[f]; ok {
			if len(h.names) == 0 {
				return nil, errors.New(errors.ErrCodeParse,
					"column %d: error marker %q before any dataset column", i+1, f)
			}
			ds := len(h.names) - 1
			if taken[ds][r] {
				return nil, errors.New(errors.ErrCodeParse,
					"column %d: duplicate %q column for dataset %q", i+1, f, h.names[ds])
			}
			taken[ds][r] = true
			h.specs = append(h.specs, spec{dataset: ds, role: r})
			continue
		}
		if f == "" {
			f = "col" + strconv.Itoa(i+1)
		}
		if seen[f] {
			return nil, errors.New(errors.ErrCodeParse,
				"column %d: duplicate dataset name %q", i+1, f)
		}
		seen[f] = true
		h.names = append(h.names, f)
		taken = append(taken, [roleCount]bool{})
		h.specs = append(h.specs, spec{dataset: len(h.names) - 1, role: roleData})
	}
	if len(h.names) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "header names no dataset columns")
	}
	return h, nil
}

// autoNames numbers the columns of a headerless file.
func autoNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "col" + strconv.Itoa(i+1)
	}
	return names
}

// numericRow reports whether every non-blank field parses as a
// number. Such a row is data, not a header.
func numericRow(fields []string) bool {
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return false
		}
	}
	return true
}

// parseCell converts one cell. Blank cells are NaN.
func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// build accumulates the columns of one dataset while rows are
// distributed.
type build struct {
	text bool
	raw  []string // data cells verbatim, used when text
	data []float64
	serr []float64
	perr []float64
	nerr []float64
}

// assemble distributes the collected rows over the header's columns
// and emits one definition command per dataset. A data column with a
// non-numeric cell becomes a text dataset; error columns must always
// be numeric and cannot attach to a text dataset.
func (h *header) assemble(rows [][]string, lines []int, opts Options) (*Result, error) {
	builds := make([]*build, len(h.names))
	for i := range builds {
		builds[i] = &build{}
	}

	for col, sp := range h.specs {
		b := builds[sp.dataset]
		if sp.role == roleData {
			b.raw = make([]string, len(rows))
			b.data = make([]float64, len(rows))
			for ri, row := range rows {
				b.raw[ri] = strings.TrimSpace(row[col])
				if b.text {
					continue
				}
				v, ok := parseCell(row[col])
				if !ok {
					b.text = true
					continue
				}
				b.data[ri] = v
			}
			continue
		}

		// Markers follow their dataset column, so b.text is final
		// here.
		if b.text {
			return nil, errors.New(errors.ErrCodeParse,
				"column %d: error column for text dataset %q", col+1, h.names[sp.dataset])
		}
		vals := make([]float64, len(rows))
		for ri, row := range rows {
			v, ok := parseCell(row[col])
			if !ok {
				return nil, errors.New(errors.ErrCodeParse,
					"line %d, column %d: %q is not a number", lines[ri], col+1, strings.TrimSpace(row[col]))
			}
			vals[ri] = v
		}
		switch sp.role {
		case roleSerr:
			b.serr = vals
		case rolePerr:
			b.perr = vals
		case roleNerr:
			b.nerr = vals
		}
	}

	res := &Result{Rows: len(rows)}
	for i, b := range builds {
		name := opts.Prefix + h.names[i] + opts.Suffix
		if err := errors.ValidateDatasetName(name); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "dataset %q", name)
		}
		var cmd document.Command
		if b.text {
			cmd = &document.DefineTextData{Name: name, Values: b.raw}
		} else {
			cmd = &document.DefineData{
				Name: name, Data: b.data,
				Serr: b.serr, Perr: b.perr, Nerr: b.nerr,
			}
		}
		res.Commands = append(res.Commands, cmd)
		res.Datasets = append(res.Datasets, name)
	}
	return res, nil
}
