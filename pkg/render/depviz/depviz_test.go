package depviz

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/dataset"
)

func newStore(t *testing.T) *dataset.Store {
	t.Helper()
	return dataset.NewStore(log.New(io.Discard))
}

func TestToDOT(t *testing.T) {
	s := newStore(t)
	if err := s.DefineRaw("a", dataset.Columns{Data: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("define a: %v", err)
	}
	if err := s.DefineDerived("b", dataset.Definition{Data: "a*2"}); err != nil {
		t.Fatalf("define b: %v", err)
	}
	if err := s.DefineText("labels", []string{"p", "q"}); err != nil {
		t.Fatalf("define labels: %v", err)
	}

	dot := ToDOT(s, Options{})

	for _, want := range []string{
		"digraph datasets {",
		`"a" [label="a"];`,
		`"b" [label="b", fillcolor=lightgrey];`,
		`"labels" [label="labels", style="rounded,filled,dashed"];`,
		`"a" -> "b";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Errorf("DOT not closed:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	s := newStore(t)
	if err := s.DefineRaw("a", dataset.Columns{Data: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("define a: %v", err)
	}
	if err := s.DefineDerived("b", dataset.Definition{Data: "a*2"}); err != nil {
		t.Fatalf("define b: %v", err)
	}
	if err := s.Tag("a", "input"); err != nil {
		t.Fatalf("tag: %v", err)
	}

	dot := ToDOT(s, Options{Detailed: true})

	for _, want := range []string{
		`label="a\n3 points\n#input"`,
		`label="b\n3 points\n= a*2"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTMarksEvalFailures(t *testing.T) {
	s := newStore(t)
	if err := s.DefineRaw("a", dataset.Columns{Data: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("define a: %v", err)
	}
	if err := s.DefineRaw("c", dataset.Columns{Data: []float64{1, 2}}); err != nil {
		t.Fatalf("define c: %v", err)
	}
	if err := s.DefineDerived("bad", dataset.Definition{Data: "a + c"}); err != nil {
		t.Fatalf("define bad: %v", err)
	}

	dot := ToDOT(s, Options{})

	if !strings.Contains(dot, "color=red") {
		t.Errorf("DOT missing red outline for degraded dataset:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.DefineRaw(name, dataset.Columns{Data: []float64{1}}); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	if err := s.DefineDerived("sumz", dataset.Definition{Data: "alpha + zeta"}); err != nil {
		t.Fatalf("define sumz: %v", err)
	}

	a, b := ToDOT(s, Options{Detailed: true}), ToDOT(s, Options{Detailed: true})
	if a != b {
		t.Fatal("DOT output changed between calls")
	}
	if strings.Index(a, `"alpha"`) > strings.Index(a, `"zeta"`) {
		t.Errorf("nodes not in name order:\n%s", a)
	}
}
