// Package importer reads delimited text files into dataset definition
// commands.
//
// # File format
//
// Files are comma separated by default; tab separated files are
// recognized by their .tsv or .tab extension. Lines starting with '#'
// and blank lines are skipped. The first remaining row names the
// columns unless every cell in it parses as a number, in which case
// the file is headerless and columns are auto-named col1, col2, ...
//
// A header cell is either a dataset name or an error marker that
// attaches the column to the dataset named immediately before it:
//
//	x, y, +-          y with symmetric errors
//	x, y, +, -        y with asymmetric errors
//
// The '-' column holds negative offsets, so its values are usually
// negative. A column whose cells do not all parse as numbers becomes
// a text dataset; blank cells become NaN in numeric columns and empty
// strings in text columns.
//
// # Usage
//
//	res, err := importer.ImportFile("points.csv", importer.Options{})
//	if err != nil {
//		return err
//	}
//	if err := doc.Apply(res.Command("import points.csv")); err != nil {
//		return err
//	}
package importer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// ============================================================================
// Options and result
// ============================================================================

// Options configures an import.
type Options struct {
	// Delimiter is the field separator. Zero picks by file extension
	// in [ImportFile] and means comma in [Read].
	Delimiter rune `json:"delimiter,omitempty"`

	// Columns names the columns explicitly, in the header grammar.
	// When set, the file's first row is data, not a header.
	Columns []string `json:"columns,omitempty"`

	// Prefix and Suffix decorate every imported dataset name.
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Result holds the outcome of a parse: one definition command per
// dataset column, in file order.
type Result struct {
	Commands []document.Command
	Datasets []string // decorated names, same order as Commands
	Rows     int      // data rows read
}

// Command wraps the definitions in a single atomic history entry, so
// one undo removes the whole import.
func (r *Result) Command(label string) document.Command {
	return &document.Composite{Label: label, Ops: r.Commands}
}

// ============================================================================
// Reading
// ============================================================================

// Read parses delimited text from rd. The reader is consumed to EOF
// but not closed. Grammar violations and unparseable cells fail with
// PARSE_ERROR naming the offending line.
func Read(rd io.Reader, opts Options) (*Result, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(rd)
	cr.Comma = delim
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		h     *header
		rows  [][]string
		lines []int
	)
	if len(opts.Columns) > 0 {
		parsed, err := parseHeader(opts.Columns)
		if err != nil {
			return nil, err
		}
		h = parsed
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "reading delimited text")
		}
		line, _ := cr.FieldPos(0)

		if h == nil {
			if !numericRow(rec) {
				h, err = parseHeader(rec)
				if err != nil {
					return nil, err
				}
				continue
			}
			// Headerless file: the first row is already data.
			h, err = parseHeader(autoNames(len(rec)))
			if err != nil {
				return nil, err
			}
		}

		if len(rec) > len(h.specs) {
			return nil, errors.New(errors.ErrCodeParse,
				"line %d: %d fields for %d columns", line, len(rec), len(h.specs))
		}
		row := make([]string, len(h.specs))
		copy(row, rec)
		rows = append(rows, row)
		lines = append(lines, line)
	}

	if h == nil {
		return nil, errors.New(errors.ErrCodeParse, "no columns found")
	}
	return h.assemble(rows, lines, opts)
}

// ImportFile reads the delimited file at path. Unless Options sets a
// delimiter, .tsv and .tab files split on tabs and everything else on
// commas. A missing file fails with FILE_NOT_FOUND.
func ImportFile(path string, opts Options) (*Result, error) {
	if opts.Delimiter == 0 {
		switch filepath.Ext(path) {
		case ".tsv", ".tab":
			opts.Delimiter = '\t'
		default:
			opts.Delimiter = ','
		}
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "data file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "opening %s", path)
	}
	defer f.Close()

	res, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "importing %s", path)
	}
	return res, nil
}
