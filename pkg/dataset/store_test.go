package dataset

import (
	"context"
	"io"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/observability"
)

func newTestStore() *Store {
	return NewStore(log.New(io.Discard))
}

func mustDefineRaw(t *testing.T, s *Store, name string, data []float64) {
	t.Helper()
	if err := s.DefineRaw(name, Columns{Data: data}); err != nil {
		t.Fatalf("DefineRaw(%q): %v", name, err)
	}
}

func mustDefineDerived(t *testing.T, s *Store, name, formula string) {
	t.Helper()
	if err := s.DefineDerived(name, Definition{Data: formula}); err != nil {
		t.Fatalf("DefineDerived(%q, %q): %v", name, formula, err)
	}
}

func TestDefineRaw(t *testing.T) {
	tests := []struct {
		name     string
		dataset  string
		cols     Columns
		wantCode errors.Code
	}{
		{"Valid", "x", Columns{Data: []float64{1, 2, 3}}, ""},
		{"WithErrors", "y", Columns{Data: []float64{1, 2}, Serr: []float64{0.1, 0.2}}, ""},
		{"Empty", "z", Columns{}, ""},
		{"EmptyName", "", Columns{Data: []float64{1}}, errors.ErrCodeInvalidName},
		{"BackquoteInName", "a`b", Columns{Data: []float64{1}}, errors.ErrCodeInvalidName},
		{"ShapeMismatch", "w", Columns{Data: []float64{1, 2, 3}, Serr: []float64{0.1}}, errors.ErrCodeShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			err := s.DefineRaw(tt.dataset, tt.cols)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("DefineRaw: %v", err)
				}
				if !s.Has(tt.dataset) {
					t.Errorf("Has(%q) = false after define", tt.dataset)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("DefineRaw error = %v, want code %s", err, tt.wantCode)
			}
			if s.Has(tt.dataset) {
				t.Errorf("store contains %q after failed define", tt.dataset)
			}
		})
	}
}

func TestDefineRawDuplicate(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1})
	err := s.DefineRaw("x", Columns{Data: []float64{2}})
	if !errors.Is(err, errors.ErrCodeDuplicateName) {
		t.Errorf("error = %v, want DUPLICATE_NAME", err)
	}
	// The original values survive the rejected define.
	vals, _ := s.Values("x")
	if !slices.Equal(vals, []float64{1}) {
		t.Errorf("Values(x) = %v, want [1]", vals)
	}
}

func TestDefineDerived(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")

	vals, err := s.Values("y")
	if err != nil {
		t.Fatalf("Values(y): %v", err)
	}
	if !slices.Equal(vals, []float64{2, 4, 6}) {
		t.Errorf("Values(y) = %v, want [2 4 6]", vals)
	}
	if got := s.DependsOn("y"); !slices.Equal(got, []string{"x"}) {
		t.Errorf("DependsOn(y) = %v, want [x]", got)
	}
}

func TestDefineDerivedErrors(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		wantCode errors.Code
	}{
		{"UnknownReference", "nope * 2", errors.ErrCodeInvalidReference},
		{"SelfReference", "y + 1", errors.ErrCodeInvalidReference},
		{"ParseError", "x +", errors.ErrCodeParse},
		{"UnknownFunction", "frob(x)", errors.ErrCodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			mustDefineRaw(t, s, "x", []float64{1, 2, 3})
			err := s.DefineDerived("y", Definition{Data: tt.formula})
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
			if s.Has("y") {
				t.Error("store contains y after failed define")
			}
		})
	}
}

func TestDerivedChain(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")
	mustDefineDerived(t, s, "z", "y + 1")

	vals, err := s.Values("z")
	if err != nil {
		t.Fatalf("Values(z): %v", err)
	}
	if !slices.Equal(vals, []float64{3, 5, 7}) {
		t.Errorf("Values(z) = %v, want [3 5 7]", vals)
	}

	// A raw mutation propagates through the whole chain.
	if err := s.SetValues("x", Columns{Data: []float64{10, 20, 30}}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	vals, _ = s.Values("z")
	if !slices.Equal(vals, []float64{21, 41, 61}) {
		t.Errorf("Values(z) after SetValues = %v, want [21 41 61]", vals)
	}
}

func TestDerivedErrorColumns(t *testing.T) {
	s := newTestStore()
	if err := s.DefineRaw("x", Columns{
		Data: []float64{1, 2, 3},
		Serr: []float64{0.1, 0.2, 0.3},
	}); err != nil {
		t.Fatalf("DefineRaw: %v", err)
	}
	if err := s.DefineDerived("y", Definition{
		Data: "x*10",
		Serr: "x_serr * 10",
		Perr: "0.5",
	}); err != nil {
		t.Fatalf("DefineDerived: %v", err)
	}

	cols, err := s.Columns("y")
	if err != nil {
		t.Fatalf("Columns(y): %v", err)
	}
	if !slices.Equal(cols.Data, []float64{10, 20, 30}) {
		t.Errorf("Data = %v, want [10 20 30]", cols.Data)
	}
	if !slices.Equal(cols.Serr, []float64{1, 2, 3}) {
		t.Errorf("Serr = %v, want [1 2 3]", cols.Serr)
	}
	// A scalar error formula broadcasts to the data length.
	if !slices.Equal(cols.Perr, []float64{0.5, 0.5, 0.5}) {
		t.Errorf("Perr = %v, want [0.5 0.5 0.5]", cols.Perr)
	}
	if cols.Nerr != nil {
		t.Errorf("Nerr = %v, want nil", cols.Nerr)
	}
}

func TestScalarFormula(t *testing.T) {
	s := newTestStore()
	mustDefineDerived(t, s, "c", "2*3 + 1")
	vals, err := s.Values("c")
	if err != nil {
		t.Fatalf("Values(c): %v", err)
	}
	if !slices.Equal(vals, []float64{7}) {
		t.Errorf("Values(c) = %v, want [7]", vals)
	}
}

func TestGeneratorFormula(t *testing.T) {
	s := newTestStore()
	mustDefineDerived(t, s, "ramp", "linspace(0, 1, 3)")
	vals, err := s.Values("ramp")
	if err != nil {
		t.Fatalf("Values(ramp): %v", err)
	}
	if !slices.Equal(vals, []float64{0, 0.5, 1}) {
		t.Errorf("Values(ramp) = %v, want [0 0.5 1]", vals)
	}
}

func TestRedefine(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")

	if err := s.Redefine("y", Definition{Data: "x*3"}); err != nil {
		t.Fatalf("Redefine: %v", err)
	}
	vals, _ := s.Values("y")
	if !slices.Equal(vals, []float64{3, 6, 9}) {
		t.Errorf("Values(y) = %v, want [3 6 9]", vals)
	}

	if err := s.Redefine("x", Definition{Data: "y"}); !errors.Is(err, errors.ErrCodeNotDerived) {
		t.Errorf("Redefine on raw dataset: error = %v, want NOT_DERIVED", err)
	}
}

func TestCycleRejected(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")
	mustDefineDerived(t, s, "z", "y + 1")

	tests := []struct {
		name    string
		dataset string
		formula string
	}{
		{"SelfReference", "y", "y + 1"},
		{"DirectBackEdge", "y", "z * 2"},
		{"TransitiveBackEdge", "y", "sqrt(z) + x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Redefine(tt.dataset, Definition{Data: tt.formula})
			if !errors.Is(err, errors.ErrCodeCycleDetected) {
				t.Errorf("error = %v, want CYCLE_DETECTED", err)
			}
			// The store keeps evaluating the old definition.
			vals, _ := s.Values("z")
			if !slices.Equal(vals, []float64{3, 5, 7}) {
				t.Errorf("Values(z) = %v, want [3 5 7]", vals)
			}
		})
	}
}

func TestSetValues(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")

	if err := s.SetValues("y", Columns{Data: []float64{1}}); !errors.Is(err, errors.ErrCodeNotRaw) {
		t.Errorf("SetValues on derived: error = %v, want NOT_RAW", err)
	}
	err := s.SetValues("x", Columns{Data: []float64{1, 2}, Serr: []float64{0.1}})
	if !errors.Is(err, errors.ErrCodeShapeMismatch) {
		t.Errorf("SetValues shape mismatch: error = %v, want SHAPE_MISMATCH", err)
	}
	vals, _ := s.Values("x")
	if !slices.Equal(vals, []float64{1, 2, 3}) {
		t.Errorf("Values(x) after failed SetValues = %v, want [1 2 3]", vals)
	}
	if err := s.SetValues("missing", Columns{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("SetValues on missing: error = %v, want NOT_FOUND", err)
	}
}

func TestEvalDegrade(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineRaw(t, s, "w", []float64{1, 2})
	mustDefineDerived(t, s, "y", "x + w")

	// Mismatched operand lengths degrade y to no data instead of
	// failing the read.
	vals, err := s.Values("y")
	if err != nil {
		t.Fatalf("Values(y): %v", err)
	}
	if len(vals) != 0 {
		t.Errorf("Values(y) = %v, want empty", vals)
	}
	if lastErr := s.LastError("y"); !errors.Is(lastErr, errors.ErrCodeEval) {
		t.Errorf("LastError(y) = %v, want EVAL_ERROR", lastErr)
	}

	// Fixing the input heals the dataset on the next read.
	if err := s.SetValues("w", Columns{Data: []float64{10, 20, 30}}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	vals, _ = s.Values("y")
	if !slices.Equal(vals, []float64{11, 22, 33}) {
		t.Errorf("Values(y) = %v, want [11 22 33]", vals)
	}
	if lastErr := s.LastError("y"); lastErr != nil {
		t.Errorf("LastError(y) = %v, want nil", lastErr)
	}
}

func TestDegradeDoesNotBlockSiblings(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineRaw(t, s, "w", []float64{1, 2})
	mustDefineDerived(t, s, "bad", "x + w")
	mustDefineDerived(t, s, "good", "x * 2")

	n, err := s.Settle(context.Background())
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if n != 2 {
		t.Errorf("Settle recomputed %d datasets, want 2", n)
	}
	vals, _ := s.Values("good")
	if !slices.Equal(vals, []float64{2, 4, 6}) {
		t.Errorf("Values(good) = %v, want [2 4 6]", vals)
	}
}

func TestMissingErrorColumnDegrades(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x_serr * 2")

	vals, err := s.Values("y")
	if err != nil {
		t.Fatalf("Values(y): %v", err)
	}
	if len(vals) != 0 {
		t.Errorf("Values(y) = %v, want empty", vals)
	}
	if lastErr := s.LastError("y"); !errors.Is(lastErr, errors.ErrCodeEval) {
		t.Errorf("LastError(y) = %v, want EVAL_ERROR", lastErr)
	}
}

func TestDeleteInUse(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")
	mustDefineDerived(t, s, "z", "y + x")

	_, err := s.Delete("x", false)
	if !errors.Is(err, errors.ErrCodeInUse) {
		t.Fatalf("Delete error = %v, want IN_USE", err)
	}
	var inUse *errors.InUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("error %v does not carry InUseError", err)
	}
	if !slices.Equal(inUse.Dependents, []string{"y", "z"}) {
		t.Errorf("Dependents = %v, want [y z]", inUse.Dependents)
	}
	if !s.Has("x") {
		t.Error("x removed by refused delete")
	}
}

func TestDeleteCascade(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")
	mustDefineDerived(t, s, "z", "y + 1")
	mustDefineRaw(t, s, "other", []float64{9})

	removed, err := s.Delete("x", true)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !slices.Equal(removed, []string{"x", "y", "z"}) {
		t.Errorf("removed = %v, want [x y z]", removed)
	}
	if got := s.Names(); !slices.Equal(got, []string{"other"}) {
		t.Errorf("Names = %v, want [other]", got)
	}
}

func TestDeleteLeaf(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1})

	removed, err := s.Delete("x", false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !slices.Equal(removed, []string{"x"}) {
		t.Errorf("removed = %v, want [x]", removed)
	}
	if _, err := s.Delete("x", false); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second delete error = %v, want NOT_FOUND", err)
	}
}

func TestRename(t *testing.T) {
	s := newTestStore()
	if err := s.DefineRaw("x", Columns{
		Data: []float64{1, 2, 3},
		Serr: []float64{0.1, 0.2, 0.3},
	}); err != nil {
		t.Fatalf("DefineRaw: %v", err)
	}
	mustDefineDerived(t, s, "y", "x + x_serr")
	if _, err := s.Values("y"); err != nil {
		t.Fatalf("Values(y): %v", err)
	}

	if err := s.Rename("x", "temp"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if s.Has("x") || !s.Has("temp") {
		t.Fatalf("rename did not move the entry: Names = %v", s.Names())
	}
	info, err := s.Info("y")
	if err != nil {
		t.Fatalf("Info(y): %v", err)
	}
	if got := info.Def.Data; got != "temp + temp_serr" {
		t.Errorf("rewritten formula = %q, want %q", got, "temp + temp_serr")
	}
	if got := s.DependsOn("y"); !slices.Equal(got, []string{"temp"}) {
		t.Errorf("DependsOn(y) = %v, want [temp]", got)
	}

	// Values were already settled and stay valid without a recompute.
	if got := s.DirtyCount(); got != 0 {
		t.Errorf("DirtyCount = %d, want 0", got)
	}
	vals, _ := s.Values("y")
	if !slices.Equal(vals, []float64{1.1, 2.2, 3.3}) {
		t.Errorf("Values(y) = %v, want [1.1 2.2 3.3]", vals)
	}
}

func TestRenameErrors(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1})
	mustDefineRaw(t, s, "y", []float64{2})

	if err := s.Rename("x", "y"); !errors.Is(err, errors.ErrCodeDuplicateName) {
		t.Errorf("rename to taken name: error = %v, want DUPLICATE_NAME", err)
	}
	if err := s.Rename("missing", "z"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("rename missing: error = %v, want NOT_FOUND", err)
	}
	if err := s.Rename("x", "bad`name"); !errors.Is(err, errors.ErrCodeInvalidName) {
		t.Errorf("rename to invalid name: error = %v, want INVALID_NAME", err)
	}
}

func TestRenameQuotesAwkwardNames(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2})
	mustDefineDerived(t, s, "y", "x * 2")

	if err := s.Rename("x", "time (s)"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	info, _ := s.Info("y")
	if got := info.Def.Data; got != "`time (s)` * 2" {
		t.Errorf("rewritten formula = %q, want quoted reference", got)
	}
	vals, err := s.Values("y")
	if err != nil {
		t.Fatalf("Values(y): %v", err)
	}
	if !slices.Equal(vals, []float64{2, 4}) {
		t.Errorf("Values(y) = %v, want [2 4]", vals)
	}
}

func TestRecomputeMinimality(t *testing.T) {
	rec := &recomputeRecorder{}
	observability.SetDocumentHooks(rec)
	defer observability.Reset()

	s := newTestStore()
	mustDefineRaw(t, s, "x1", []float64{1, 2})
	mustDefineRaw(t, s, "x2", []float64{3, 4})
	mustDefineDerived(t, s, "y1", "x1 * 2")
	mustDefineDerived(t, s, "y2", "x2 * 2")

	if _, err := s.Settle(context.Background()); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	rec.names = nil

	if err := s.SetValues("x1", Columns{Data: []float64{5, 6}}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	n, err := s.Settle(context.Background())
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if n != 1 {
		t.Errorf("Settle recomputed %d datasets, want 1", n)
	}
	if !slices.Equal(rec.names, []string{"y1"}) {
		t.Errorf("recomputed = %v, want [y1]", rec.names)
	}
}

type recomputeRecorder struct {
	observability.NoopDocumentHooks
	names []string
}

func (r *recomputeRecorder) OnRecompute(name string, _ time.Duration, _ error) {
	r.names = append(r.names, name)
}

func TestLazySettle(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x1", []float64{1, 2})
	mustDefineRaw(t, s, "x2", []float64{3, 4})
	mustDefineDerived(t, s, "y1", "x1 * 2")
	mustDefineDerived(t, s, "y2", "x2 * 2")

	// Reading y1 settles only y1's dependency closure.
	if _, err := s.Values("y1"); err != nil {
		t.Fatalf("Values(y1): %v", err)
	}
	if got := s.DirtyCount(); got != 1 {
		t.Errorf("DirtyCount = %d, want 1 (y2 still pending)", got)
	}
}

func TestSettleCancellation(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1})
	mustDefineDerived(t, s, "y", "x*2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := s.Settle(ctx)
	if err == nil {
		t.Fatal("Settle with cancelled context returned nil error")
	}
	if n != 0 {
		t.Errorf("Settle recomputed %d datasets, want 0", n)
	}
	if got := s.DirtyCount(); got != 1 {
		t.Errorf("DirtyCount = %d, want 1", got)
	}
}

func TestText(t *testing.T) {
	s := newTestStore()
	if err := s.DefineText("labels", []string{"run 1", "run 2"}); err != nil {
		t.Fatalf("DefineText: %v", err)
	}
	got, err := s.Text("labels")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !slices.Equal(got, []string{"run 1", "run 2"}) {
		t.Errorf("Text = %v", got)
	}
	if err := s.SetText("labels", []string{"a"}); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	got, _ = s.Text("labels")
	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("Text after SetText = %v", got)
	}

	if _, err := s.Values("labels"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Values on text dataset: error = %v, want INVALID_INPUT", err)
	}
	if _, err := s.Text("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Text on missing: error = %v, want NOT_FOUND", err)
	}
}

func TestFormulaOverTextDegrades(t *testing.T) {
	s := newTestStore()
	if err := s.DefineText("labels", []string{"a"}); err != nil {
		t.Fatalf("DefineText: %v", err)
	}
	mustDefineDerived(t, s, "y", "labels * 2")

	vals, err := s.Values("y")
	if err != nil {
		t.Fatalf("Values(y): %v", err)
	}
	if len(vals) != 0 {
		t.Errorf("Values(y) = %v, want empty", vals)
	}
	if lastErr := s.LastError("y"); !errors.Is(lastErr, errors.ErrCodeEval) {
		t.Errorf("LastError(y) = %v, want EVAL_ERROR", lastErr)
	}
}

func TestTags(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1})
	mustDefineRaw(t, s, "y", []float64{2})

	if err := s.Tag("x", "imported"); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := s.Tag("y", "imported"); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := s.Tag("x", "run1"); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	tags, _ := s.TagsOf("x")
	if !slices.Equal(tags, []string{"imported", "run1"}) {
		t.Errorf("TagsOf(x) = %v, want [imported run1]", tags)
	}
	if got := s.NamesByTag("imported"); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("NamesByTag(imported) = %v, want [x y]", got)
	}

	if err := s.Untag("x", "imported"); err != nil {
		t.Fatalf("Untag: %v", err)
	}
	if got := s.NamesByTag("imported"); !slices.Equal(got, []string{"y"}) {
		t.Errorf("NamesByTag(imported) = %v, want [y]", got)
	}
	if err := s.Tag("x", "has space"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Tag with space: error = %v, want INVALID_INPUT", err)
	}
}

func TestInfo(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})
	mustDefineDerived(t, s, "y", "x*2")

	info, err := s.Info("y")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !info.Derived || info.Kind != KindNumeric {
		t.Errorf("Info = %+v, want derived numeric", info)
	}
	if info.Points != 3 {
		t.Errorf("Points = %d, want 3", info.Points)
	}
	if info.Def == nil || info.Def.Data != "x*2" {
		t.Errorf("Def = %+v, want data formula x*2", info.Def)
	}
	if info.EvalErr != "" {
		t.Errorf("EvalErr = %q, want empty", info.EvalErr)
	}

	list := s.List()
	if len(list) != 2 || list[0].Name != "x" || list[1].Name != "y" {
		t.Errorf("List = %+v, want [x y]", list)
	}
}

func TestEdges(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1})
	mustDefineDerived(t, s, "y", "x*2")
	mustDefineDerived(t, s, "z", "y + x")

	want := []Edge{{From: "x", To: "y"}, {From: "x", To: "z"}, {From: "y", To: "z"}}
	if got := s.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges = %v, want %v", got, want)
	}
}

func TestFingerprint(t *testing.T) {
	build := func() *Store {
		s := newTestStore()
		s.DefineRaw("x", Columns{Data: []float64{1, 2, 3}})
		s.DefineDerived("y", Definition{Data: "x*2"})
		return s
	}

	a, b := build(), build()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical stores have different fingerprints")
	}

	// Tags do not contribute.
	b.Tag("x", "imported")
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("tagging changed the fingerprint")
	}

	// Values do.
	b.SetValues("x", Columns{Data: []float64{1, 2, 4}})
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("value change kept the fingerprint")
	}

	// So do formulas, even when the result matches.
	c := newTestStore()
	c.DefineRaw("x", Columns{Data: []float64{1, 2, 3}})
	c.DefineDerived("y", Definition{Data: "x + x"})
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("formula change kept the fingerprint")
	}
}

func TestColumnsCopySemantics(t *testing.T) {
	s := newTestStore()
	mustDefineRaw(t, s, "x", []float64{1, 2, 3})

	cols, _ := s.Columns("x")
	cols.Data[0] = 99

	vals, _ := s.Values("x")
	if vals[0] != 1 {
		t.Error("mutating a returned column changed stored data")
	}
}

func TestRangeWithErrors(t *testing.T) {
	cols := Columns{
		Data: []float64{1, 5, math.NaN()},
		Serr: []float64{0.5, 2, 1},
	}
	iv := cols.Range()
	if iv.Lo != 0.5 || iv.Hi != 7 {
		t.Errorf("Range = [%v, %v], want [0.5, 7]", iv.Lo, iv.Hi)
	}

	pos := Columns{Data: []float64{-1, 0.1, 10}}.PositiveRange()
	if pos.Lo != 0.1 || pos.Hi != 10 {
		t.Errorf("PositiveRange = [%v, %v], want [0.1, 10]", pos.Lo, pos.Hi)
	}
}
