package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/expr"
	"github.com/plotdeck/plotdeck/pkg/observability"
)

// entry is the stored state of one dataset. Column slices are never
// mutated in place, only swapped whole, so values handed to the
// evaluator stay stable across mutations.
type entry struct {
	kind    Kind
	cols    Columns
	text    []string
	def     *Definition // nil for raw datasets
	dirty   bool
	lastErr error
	tags    map[string]struct{}
}

func (e *entry) derived() bool { return e.def != nil }

// Store holds the datasets of one document together with their
// dependency graph. Derived datasets recompute lazily: reads settle
// the dirty part of the graph first.
//
// The zero value is not usable - use NewStore. A Store is not safe
// for concurrent use; the owning document serializes access.
type Store struct {
	entries map[string]*entry
	graph   *depGraph
	logger  *log.Logger
}

// NewStore creates an empty store. A nil logger falls back to the
// default charmbracelet logger.
func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		entries: make(map[string]*entry),
		graph:   newDepGraph(),
		logger:  logger,
	}
}

// Info describes one dataset without exposing store internals.
type Info struct {
	Name    string
	Kind    Kind
	Derived bool
	Def     *Definition // formulas of a derived dataset, nil for raw
	Tags    []string
	Points  int
	EvalErr string // last evaluation failure, empty when healthy
}

// Edge is one dependency edge: dataset To's formulas read dataset
// From.
type Edge struct {
	From string
	To   string
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "dataset %q not found", name)
}

// ===== Definition operations =====

// DefineRaw creates a raw numeric dataset from the given columns.
// It fails with a DUPLICATE_NAME error if the name is taken and a
// SHAPE_MISMATCH error if the error columns do not match the data
// column's length.
func (s *Store) DefineRaw(name string, cols Columns) error {
	if err := errors.ValidateDatasetName(name); err != nil {
		return err
	}
	if _, ok := s.entries[name]; ok {
		return errors.New(errors.ErrCodeDuplicateName, "dataset %q already exists", name)
	}
	if err := cols.Validate(); err != nil {
		return err
	}
	s.entries[name] = &entry{kind: KindNumeric, cols: cols.Clone()}
	return nil
}

// DefineText creates a raw text dataset. Text datasets cannot be
// referenced from formulas.
func (s *Store) DefineText(name string, values []string) error {
	if err := errors.ValidateDatasetName(name); err != nil {
		return err
	}
	if _, ok := s.entries[name]; ok {
		return errors.New(errors.ErrCodeDuplicateName, "dataset %q already exists", name)
	}
	s.entries[name] = &entry{kind: KindText, text: slices.Clone(values)}
	return nil
}

// DefineDerived creates a formula dataset. Every referenced dataset
// must already exist (INVALID_REFERENCE otherwise) and the new edges
// must not close a dependency cycle (CYCLE_DETECTED). On failure the
// store is unchanged.
func (s *Store) DefineDerived(name string, def Definition) error {
	if err := errors.ValidateDatasetName(name); err != nil {
		return err
	}
	if _, ok := s.entries[name]; ok {
		return errors.New(errors.ErrCodeDuplicateName, "dataset %q already exists", name)
	}
	d := def
	if err := d.compile(); err != nil {
		return err
	}
	refs := d.datasets()
	if err := s.checkRefs(name, refs); err != nil {
		return err
	}
	s.entries[name] = &entry{kind: KindNumeric, def: &d, dirty: true}
	s.graph.setPrecedents(name, refs)
	return nil
}

// Redefine replaces the formulas of an existing derived dataset and
// marks it and its dependents dirty. It fails with a NOT_DERIVED
// error on raw datasets.
func (s *Store) Redefine(name string, def Definition) error {
	e, ok := s.entries[name]
	if !ok {
		return notFound(name)
	}
	if !e.derived() {
		return errors.New(errors.ErrCodeNotDerived, "dataset %q is not derived", name)
	}
	d := def
	if err := d.compile(); err != nil {
		return err
	}
	refs := d.datasets()
	if err := s.checkRefs(name, refs); err != nil {
		return err
	}
	e.def = &d
	e.lastErr = nil
	s.graph.setPrecedents(name, refs)
	s.markDirty(name)
	return nil
}

// checkRefs validates the precedent list of a (re)definition.
func (s *Store) checkRefs(name string, refs []string) error {
	for _, r := range refs {
		if _, ok := s.entries[r]; !ok {
			return errors.New(errors.ErrCodeInvalidReference,
				"dataset %q references unknown dataset %q", name, r)
		}
	}
	if s.graph.wouldCycle(name, refs) {
		return errors.New(errors.ErrCodeCycleDetected,
			"defining %q in terms of itself would create a dependency cycle", name)
	}
	return nil
}

// ===== Value mutation =====

// SetValues replaces the columns of a raw numeric dataset and marks
// its dependents dirty. Derived datasets fail with a NOT_RAW error.
func (s *Store) SetValues(name string, cols Columns) error {
	e, ok := s.entries[name]
	if !ok {
		return notFound(name)
	}
	if e.derived() {
		return errors.New(errors.ErrCodeNotRaw, "dataset %q is derived; redefine its formula instead", name)
	}
	if e.kind != KindNumeric {
		return errors.New(errors.ErrCodeInvalidInput, "dataset %q holds text", name)
	}
	if err := cols.Validate(); err != nil {
		return err
	}
	e.cols = cols.Clone()
	s.markDirty(name)
	return nil
}

// SetText replaces the strings of a text dataset.
func (s *Store) SetText(name string, values []string) error {
	e, ok := s.entries[name]
	if !ok {
		return notFound(name)
	}
	if e.kind != KindText {
		return errors.New(errors.ErrCodeInvalidInput, "dataset %q holds numbers", name)
	}
	e.text = slices.Clone(values)
	s.markDirty(name)
	return nil
}

// Delete removes a dataset. Without cascade the call fails with an
// IN_USE error naming the direct dependents if any formula still
// reads the dataset. With cascade every transitive dependent is
// removed as well.
//
// The returned names are in dependency order, each dataset before the
// datasets that read it, so replaying definitions in that order
// restores a valid store.
func (s *Store) Delete(name string, cascade bool) ([]string, error) {
	if _, ok := s.entries[name]; !ok {
		return nil, notFound(name)
	}
	if deps := s.graph.dependentsOf(name); len(deps) > 0 && !cascade {
		return nil, errors.Wrap(errors.ErrCodeInUse,
			&InUseError{Name: name, Dependents: deps},
			"cannot delete dataset %q", name)
	}

	set := map[string]struct{}{name: {}}
	for _, d := range s.graph.transitiveDependents(name) {
		set[d] = struct{}{}
	}
	removed := s.graph.calcOrder(set)
	for i := len(removed) - 1; i >= 0; i-- {
		s.graph.remove(removed[i])
		delete(s.entries, removed[i])
	}
	return removed, nil
}

// Rename gives a dataset a new name and rewrites every formula that
// references the old one. Values do not change, so nothing is marked
// dirty. If any dependent formula cannot express the new name the
// rename fails with the store unchanged.
func (s *Store) Rename(oldName, newName string) error {
	e, ok := s.entries[oldName]
	if !ok {
		return notFound(oldName)
	}
	if err := errors.ValidateDatasetName(newName); err != nil {
		return err
	}
	if newName == oldName {
		return nil
	}
	if _, ok := s.entries[newName]; ok {
		return errors.New(errors.ErrCodeDuplicateName, "dataset %q already exists", newName)
	}

	rename := func(n string) string {
		if n == oldName {
			return newName
		}
		return n
	}
	rewritten := make(map[string]*Definition)
	for _, d := range s.graph.dependentsOf(oldName) {
		nd, err := s.entries[d].def.rewrite(rename)
		if err != nil {
			return errors.Wrap(errors.GetCode(err), err, "rewriting formula of %q", d)
		}
		rewritten[d] = nd
	}
	for d, nd := range rewritten {
		s.entries[d].def = nd
	}
	s.graph.rename(oldName, newName)
	delete(s.entries, oldName)
	s.entries[newName] = e
	return nil
}

// ===== Reads =====

// Columns returns a copy of a numeric dataset's settled columns.
func (s *Store) Columns(name string) (Columns, error) {
	e, ok := s.entries[name]
	if !ok {
		return Columns{}, notFound(name)
	}
	if e.kind != KindNumeric {
		return Columns{}, errors.New(errors.ErrCodeInvalidInput, "dataset %q holds text", name)
	}
	s.settleFor(name)
	return e.cols.Clone(), nil
}

// Values returns a copy of a numeric dataset's settled data column.
func (s *Store) Values(name string) ([]float64, error) {
	cols, err := s.Columns(name)
	if err != nil {
		return nil, err
	}
	return cols.Data, nil
}

// Text returns a copy of a text dataset's strings.
func (s *Store) Text(name string) ([]string, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, notFound(name)
	}
	if e.kind != KindText {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset %q holds numbers", name)
	}
	return slices.Clone(e.text), nil
}

// Info returns a descriptive snapshot of one dataset, settled first
// so Points and EvalErr are current.
func (s *Store) Info(name string) (Info, error) {
	e, ok := s.entries[name]
	if !ok {
		return Info{}, notFound(name)
	}
	s.settleFor(name)
	info := Info{
		Name:    name,
		Kind:    e.kind,
		Derived: e.derived(),
		Tags:    sortedKeys(e.tags),
	}
	if e.kind == KindText {
		info.Points = len(e.text)
	} else {
		info.Points = len(e.cols.Data)
	}
	if e.def != nil {
		info.Def = &Definition{Data: e.def.Data, Serr: e.def.Serr, Perr: e.def.Perr, Nerr: e.def.Nerr}
	}
	if e.lastErr != nil {
		info.EvalErr = e.lastErr.Error()
	}
	return info, nil
}

// List returns Info for every dataset, sorted by name.
func (s *Store) List() []Info {
	names := s.Names()
	out := make([]Info, 0, len(names))
	for _, n := range names {
		info, _ := s.Info(n)
		out = append(out, info)
	}
	return out
}

// Names returns every dataset name, sorted.
func (s *Store) Names() []string {
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// DefinitionOrder returns every dataset name in an order safe to
// re-define from scratch: raw and text datasets sorted by name, then
// derived datasets with each after the derived datasets it reads.
func (s *Store) DefinitionOrder() []string {
	plain := make([]string, 0, len(s.entries))
	derived := make(map[string]struct{})
	for name, e := range s.entries {
		if e.derived() {
			derived[name] = struct{}{}
		} else {
			plain = append(plain, name)
		}
	}
	slices.Sort(plain)
	return append(plain, s.graph.calcOrder(derived)...)
}

// Has reports whether a dataset exists.
func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Len returns the number of datasets.
func (s *Store) Len() int { return len(s.entries) }

// LastError returns the evaluation failure that degraded name, or
// nil when the dataset is healthy or unknown.
func (s *Store) LastError(name string) error {
	if _, ok := s.entries[name]; !ok {
		return nil
	}
	s.settleFor(name)
	return s.entries[name].lastErr
}

// ===== Tags =====

// Tag attaches a tag to a dataset. Tagging is idempotent.
func (s *Store) Tag(name, tag string) error {
	e, ok := s.entries[name]
	if !ok {
		return notFound(name)
	}
	if err := errors.ValidateTag(tag); err != nil {
		return err
	}
	if e.tags == nil {
		e.tags = make(map[string]struct{})
	}
	e.tags[tag] = struct{}{}
	return nil
}

// Untag removes a tag from a dataset. Removing an absent tag is not
// an error.
func (s *Store) Untag(name, tag string) error {
	e, ok := s.entries[name]
	if !ok {
		return notFound(name)
	}
	delete(e.tags, tag)
	return nil
}

// TagsOf returns a dataset's tags, sorted.
func (s *Store) TagsOf(name string) ([]string, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, notFound(name)
	}
	return sortedKeys(e.tags), nil
}

// NamesByTag returns the names of datasets carrying tag, sorted.
func (s *Store) NamesByTag(tag string) []string {
	var out []string
	for name, e := range s.entries {
		if _, ok := e.tags[tag]; ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// ===== Dependency queries =====

// DependsOn returns the datasets name's formulas read directly,
// sorted.
func (s *Store) DependsOn(name string) []string {
	return s.graph.precedentsOf(name)
}

// Dependents returns the datasets whose formulas read name directly,
// sorted.
func (s *Store) Dependents(name string) []string {
	return s.graph.dependentsOf(name)
}

// TransitiveDependents returns every dataset that transitively reads
// name, sorted.
func (s *Store) TransitiveDependents(name string) []string {
	return s.graph.transitiveDependents(name)
}

// Edges lists every dependency edge, ordered by reading dataset then
// read dataset.
func (s *Store) Edges() []Edge {
	var out []Edge
	for _, name := range s.Names() {
		for _, p := range s.graph.precedentsOf(name) {
			out = append(out, Edge{From: p, To: name})
		}
	}
	return out
}

// ===== Recomputation =====

// markDirty marks the derived datasets among name and its transitive
// dependents as needing recomputation.
func (s *Store) markDirty(name string) {
	if e, ok := s.entries[name]; ok && e.derived() {
		e.dirty = true
	}
	for _, d := range s.graph.transitiveDependents(name) {
		if e, ok := s.entries[d]; ok && e.derived() {
			e.dirty = true
		}
	}
}

// DirtyCount returns how many datasets currently await
// recomputation.
func (s *Store) DirtyCount() int {
	n := 0
	for _, e := range s.entries {
		if e.dirty {
			n++
		}
	}
	return n
}

// Settle recomputes every dirty derived dataset in dependency order
// and reports how many were recomputed. Evaluation failures degrade
// the affected dataset and do not abort the pass; only cancellation
// does.
func (s *Store) Settle(ctx context.Context) (int, error) {
	set := make(map[string]struct{})
	for name, e := range s.entries {
		if e.dirty {
			set[name] = struct{}{}
		}
	}
	n := 0
	for _, name := range s.graph.calcOrder(set) {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		s.recompute(name)
		n++
	}
	return n, nil
}

// settleFor recomputes the dirty datasets that name's value depends
// on, including name itself.
func (s *Store) settleFor(name string) {
	set := make(map[string]struct{})
	add := func(n string) {
		if e, ok := s.entries[n]; ok && e.dirty {
			set[n] = struct{}{}
		}
	}
	add(name)
	for _, p := range s.graph.transitivePrecedents(name) {
		add(p)
	}
	if len(set) == 0 {
		return
	}
	for _, n := range s.graph.calcOrder(set) {
		s.recompute(n)
	}
}

// recompute evaluates one derived dataset. On failure the dataset
// degrades to empty columns and keeps the error for LastError; the
// surrounding pass continues.
func (s *Store) recompute(name string) {
	e := s.entries[name]
	if e == nil || !e.derived() {
		return
	}
	start := time.Now()
	cols, err := s.evaluate(e.def)
	e.dirty = false
	if err != nil {
		e.cols = Columns{}
		e.lastErr = err
		s.logger.Warn("dataset evaluation failed", "dataset", name, "err", err)
	} else {
		e.cols = cols
		e.lastErr = nil
	}
	observability.Document().OnRecompute(name, time.Since(start), err)
}

// evaluate runs a definition's formulas against the current store
// state. The data column is evaluated first; error columns broadcast
// scalars to the data length and must otherwise match it.
func (s *Store) evaluate(def *Definition) (Columns, error) {
	resolver := expr.ResolverFunc(s.resolve)

	val, err := def.progs[expr.PartData].Eval(resolver)
	if err != nil {
		return Columns{}, errors.Wrap(errors.ErrCodeEval, err, "data formula")
	}
	var cols Columns
	if val.IsVector() {
		data, _ := val.Floats(val.Len())
		cols.Data = cloneFloats(data)
	} else {
		v, _ := val.ScalarValue()
		cols.Data = []float64{v}
	}

	for _, part := range []expr.Part{expr.PartSerr, expr.PartPerr, expr.PartNerr} {
		prog := def.progs[part]
		if prog == nil {
			continue
		}
		val, err := prog.Eval(resolver)
		if err != nil {
			return Columns{}, errors.Wrap(errors.ErrCodeEval, err, "%s formula", part)
		}
		out, err := val.Floats(len(cols.Data))
		if err != nil {
			return Columns{}, errors.Wrap(errors.ErrCodeEval, err, "%s formula", part)
		}
		col := cloneFloats(out)
		switch part {
		case expr.PartSerr:
			cols.Serr = col
		case expr.PartPerr:
			cols.Perr = col
		case expr.PartNerr:
			cols.Nerr = col
		}
	}
	return cols, nil
}

// resolve looks up a dataset column for the expression evaluator. A
// missing data column counts as an empty dataset; a missing error
// column is an evaluation failure.
func (s *Store) resolve(ref expr.Ref) (expr.Value, error) {
	e, ok := s.entries[ref.Dataset]
	if !ok {
		return expr.Value{}, errors.New(errors.ErrCodeInvalidReference,
			"unknown dataset %q", ref.Dataset)
	}
	if e.kind != KindNumeric {
		return expr.Value{}, errors.New(errors.ErrCodeEval,
			"dataset %q holds text, not numbers", ref.Dataset)
	}
	col := e.cols.Column(ref.Part)
	if col == nil && ref.Part != expr.PartData {
		return expr.Value{}, errors.New(errors.ErrCodeEval,
			"dataset %q has no %s column", ref.Dataset, ref.Part)
	}
	return expr.Vector(col), nil
}

// ===== Fingerprinting =====

// Fingerprint returns a stable hash of the settled dataset state.
// Stores with equal names, kinds, formulas and values share a
// fingerprint; tags do not contribute because rendered output does
// not depend on them.
func (s *Store) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	writeUint := func(n uint64) {
		binary.LittleEndian.PutUint64(buf[:], n)
		h.Write(buf[:])
	}
	writeStr := func(str string) {
		writeUint(uint64(len(str)))
		h.Write([]byte(str))
	}
	writeFloats := func(vs []float64) {
		writeUint(uint64(len(vs)))
		for _, v := range vs {
			writeUint(math.Float64bits(v))
		}
	}

	for _, name := range s.Names() {
		s.settleFor(name)
		e := s.entries[name]
		writeStr(name)
		writeStr(e.kind.String())
		if e.derived() {
			writeStr("derived")
			writeStr(e.def.Data)
			writeStr(e.def.Serr)
			writeStr(e.def.Perr)
			writeStr(e.def.Nerr)
		} else {
			writeStr("raw")
		}
		writeFloats(e.cols.Data)
		writeFloats(e.cols.Serr)
		writeFloats(e.cols.Perr)
		writeFloats(e.cols.Nerr)
		writeUint(uint64(len(e.text)))
		for _, t := range e.text {
			writeStr(t)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
