// Package expr implements the formula language for derived datasets.
//
// A formula is an arithmetic expression over named datasets evaluated
// elementwise:
//
//	2 * x + 1
//	sqrt(x^2 + y^2)
//	(counts - mean(counts)) / sum(counts)
//
// # References
//
// A bare identifier refers to the data column of the dataset with that
// name. The suffixes _data, _serr, _perr and _nerr select a specific
// column ("y_serr" is the symmetric error of "y"). Names that are not
// valid identifiers are backquoted: `time (s)`. Backquoted names
// always refer to the data column. The identifiers pi and e are
// reserved constants; a dataset of that name must be backquoted.
//
// # Semantics
//
// Operators are + - * / ^ with conventional precedence and a
// right-associative power. Binary operations broadcast scalars over
// vectors; two vectors must have equal length or evaluation fails
// with EVAL_ERROR. Division by zero and domain errors produce Inf or
// NaN per IEEE rather than failing; NaN marks an invalid point and is
// skipped by downstream consumers.
//
// # Compilation
//
// [Compile] parses a formula into a [Program]. The program declares
// the dataset columns it reads via [Program.References]; the dataset
// store builds its dependency graph from these declarations instead
// of rescanning source text. Unknown functions and wrong arities are
// compile errors (PARSE_ERROR); missing datasets surface at
// evaluation through the [Resolver].
package expr

import (
	"cmp"
	"slices"
	"strings"
)

// Part identifies one column of a dataset.
type Part string

// Dataset columns addressable from formulas.
const (
	PartData Part = "data"
	PartSerr Part = "serr"
	PartPerr Part = "perr"
	PartNerr Part = "nerr"
)

// Parts lists all columns in canonical order.
var Parts = []Part{PartData, PartSerr, PartPerr, PartNerr}

// ValidPart reports whether p names a dataset column.
func ValidPart(p Part) bool {
	return p == PartData || p == PartSerr || p == PartPerr || p == PartNerr
}

// Ref is a reference to one column of a named dataset.
type Ref struct {
	Dataset string
	Part    Part
}

// Resolver supplies dataset values during evaluation. Returning an
// error aborts evaluation; the dataset store returns
// INVALID_REFERENCE for names it does not hold.
type Resolver interface {
	Resolve(ref Ref) ([]float64, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref Ref) ([]float64, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(ref Ref) ([]float64, error) {
	return f(ref)
}

// Program is a compiled formula.
type Program struct {
	src  string
	root node
	refs []Ref
}

// Compile parses src into a Program. Errors carry PARSE_ERROR with
// the byte offset of the failure.
func Compile(src string) (*Program, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{
		src:  src,
		root: root,
		refs: collectRefs(root),
	}, nil
}

// Source returns the formula text the program was compiled from.
func (p *Program) Source() string {
	return p.src
}

// References returns the dataset columns the program reads, sorted
// and deduplicated. The slice is shared; callers must not modify it.
func (p *Program) References() []Ref {
	return p.refs
}

// Datasets returns the distinct dataset names the program reads.
func (p *Program) Datasets() []string {
	var names []string
	for _, ref := range p.refs {
		names = append(names, ref.Dataset)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Eval evaluates the program against the resolver.
func (p *Program) Eval(r Resolver) (Value, error) {
	return p.root.eval(r)
}

// collectRefs walks the tree gathering dataset references.
func collectRefs(root node) []Ref {
	var refs []Ref
	var walk func(n node)
	walk = func(n node) {
		switch n := n.(type) {
		case refNode:
			refs = append(refs, Ref(n))
		case *unaryNode:
			walk(n.operand)
		case *binaryNode:
			walk(n.left)
			walk(n.right)
		case *callNode:
			for _, arg := range n.args {
				walk(arg)
			}
		}
	}
	walk(root)

	slices.SortFunc(refs, func(a, b Ref) int {
		if c := cmp.Compare(a.Dataset, b.Dataset); c != 0 {
			return c
		}
		return cmp.Compare(string(a.Part), string(b.Part))
	})
	return slices.Compact(refs)
}

// splitPartSuffix interprets an unquoted identifier as a dataset
// reference: a recognized part suffix selects that column, otherwise
// the whole identifier names the dataset's data column.
func splitPartSuffix(ident string) Ref {
	if i := strings.LastIndexByte(ident, '_'); i > 0 {
		part := Part(ident[i+1:])
		if ValidPart(part) {
			return Ref{Dataset: ident[:i], Part: part}
		}
	}
	return Ref{Dataset: ident, Part: PartData}
}

// QuoteName formats a dataset name for use in formula text,
// backquoting it when a bare identifier would not round-trip.
func QuoteName(name string) string {
	if needsQuoting(name) {
		return "`" + name + "`"
	}
	return name
}

func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if _, ok := constants[name]; ok {
		return true
	}
	if _, ok := builtins[name]; ok {
		return true
	}
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return true
		}
		if i > 0 && !isIdentPart(r) {
			return true
		}
	}
	// A bare identifier ending in a part suffix would be read as a
	// column reference of the prefix.
	return splitPartSuffix(name).Dataset != name
}
