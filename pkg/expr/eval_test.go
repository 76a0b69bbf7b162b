package expr

import (
	"math"
	"testing"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// mapResolver resolves dataset references from a fixed map.
type mapResolver map[Ref][]float64

func (m mapResolver) Resolve(ref Ref) ([]float64, error) {
	vs, ok := m[ref]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidReference, "unknown dataset %q", ref.Dataset)
	}
	return vs, nil
}

func evalScalar(t *testing.T, src string) float64 {
	t.Helper()
	p, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	v, err := p.Eval(nil)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", src, err)
	}
	s, ok := v.ScalarValue()
	if !ok {
		t.Fatalf("Eval(%q) is not a scalar", src)
	}
	return s
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2", 3},
		{"2 + 3*4", 14},
		{"(2 + 3)*4", 20},
		{"10 - 2 - 3", 5},
		{"12 / 4 / 3", 1},
		{"2^10", 1024},
		{"2^3^2", 512}, // right-associative
		{"-2^2", -4},   // unary binds looser than power
		{"(-2)^2", 4},
		{"-3 * 4", -12},
		{"+5", 5},
		{"1.5e2", 150},
		{".5 + .25", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := evalScalar(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestConstants(t *testing.T) {
	if got := evalScalar(t, "pi"); got != math.Pi {
		t.Errorf("pi = %v, want %v", got, math.Pi)
	}
	if got := evalScalar(t, "e"); got != math.E {
		t.Errorf("e = %v, want %v", got, math.E)
	}

	// A quoted name resolves as a dataset even when it collides with
	// a constant.
	p, err := Compile("`pi`")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	env := mapResolver{{Dataset: "pi", Part: PartData}: {1, 2}}
	v, err := p.Eval(env)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if !v.IsVector() || v.Len() != 2 {
		t.Errorf("quoted pi should resolve to the dataset, got %v", v)
	}
}

func TestBroadcasting(t *testing.T) {
	env := mapResolver{
		{Dataset: "x", Part: PartData}: {1, 2, 3},
		{Dataset: "y", Part: PartData}: {10, 20, 30},
		{Dataset: "z", Part: PartData}: {1, 2},
	}

	tests := []struct {
		src     string
		want    []float64
		wantErr bool
	}{
		{src: "x + 1", want: []float64{2, 3, 4}},
		{src: "2 * x", want: []float64{2, 4, 6}},
		{src: "1 - x", want: []float64{0, -1, -2}},
		{src: "x + y", want: []float64{11, 22, 33}},
		{src: "y / x", want: []float64{10, 10, 10}},
		{src: "-x", want: []float64{-1, -2, -3}},
		{src: "x^2", want: []float64{1, 4, 9}},
		{src: "x + z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("Compile error: %v", err)
			}
			v, err := p.Eval(env)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Eval succeeded, want error")
				}
				if !errors.Is(err, errors.ErrCodeEval) {
					t.Errorf("code = %v, want EVAL_ERROR", errors.GetCode(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Eval error: %v", err)
			}
			got, err := v.Floats(len(tt.want))
			if err != nil {
				t.Fatalf("Floats error: %v", err)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Eval(%q)[%d] = %v, want %v", tt.src, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFunctions(t *testing.T) {
	env := mapResolver{
		{Dataset: "x", Part: PartData}: {4, 9, 16},
		{Dataset: "g", Part: PartData}: {1, 2, math.NaN(), 3},
	}

	t.Run("elementwise sqrt", func(t *testing.T) {
		p, _ := Compile("sqrt(x)")
		v, err := p.Eval(env)
		if err != nil {
			t.Fatalf("Eval error: %v", err)
		}
		got, _ := v.Floats(3)
		want := []float64{2, 3, 4}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sqrt[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("reductions skip NaN", func(t *testing.T) {
		tests := []struct {
			src  string
			want float64
		}{
			{"sum(g)", 6},
			{"mean(g)", 2},
			{"min(g)", 1},
			{"max(g)", 3},
		}
		for _, tt := range tests {
			p, _ := Compile(tt.src)
			v, err := p.Eval(env)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.src, err)
			}
			got, _ := v.ScalarValue()
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		}
	})

	t.Run("length", func(t *testing.T) {
		p, _ := Compile("length(g)")
		v, _ := p.Eval(env)
		if got, _ := v.ScalarValue(); got != 4 {
			t.Errorf("length(g) = %v, want 4", got)
		}
	})

	t.Run("cumsum", func(t *testing.T) {
		p, _ := Compile("cumsum(x)")
		v, err := p.Eval(env)
		if err != nil {
			t.Fatalf("Eval error: %v", err)
		}
		got, _ := v.Floats(3)
		want := []float64{4, 13, 29}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("cumsum[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("diff", func(t *testing.T) {
		p, _ := Compile("diff(x)")
		v, err := p.Eval(env)
		if err != nil {
			t.Fatalf("Eval error: %v", err)
		}
		got, _ := v.Floats(2)
		want := []float64{5, 7}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("diff[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("clip", func(t *testing.T) {
		p, _ := Compile("clip(x, 5, 10)")
		v, err := p.Eval(env)
		if err != nil {
			t.Fatalf("Eval error: %v", err)
		}
		got, _ := v.Floats(3)
		want := []float64{5, 9, 10}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("clip[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("linspace", func(t *testing.T) {
		p, _ := Compile("linspace(0, 1, 5)")
		v, err := p.Eval(nil)
		if err != nil {
			t.Fatalf("Eval error: %v", err)
		}
		got, _ := v.Floats(5)
		want := []float64{0, 0.25, 0.5, 0.75, 1}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("linspace[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("linspace bad count", func(t *testing.T) {
		p, _ := Compile("linspace(0, 1, 1)")
		if _, err := p.Eval(nil); !errors.Is(err, errors.ErrCodeEval) {
			t.Errorf("expected EVAL_ERROR, got %v", err)
		}
	})
}

func TestIEEESemantics(t *testing.T) {
	// Division by zero and domain errors yield Inf/NaN, not errors.
	if got := evalScalar(t, "1/0"); !math.IsInf(got, 1) {
		t.Errorf("1/0 = %v, want +Inf", got)
	}
	if got := evalScalar(t, "0/0"); !math.IsNaN(got) {
		t.Errorf("0/0 = %v, want NaN", got)
	}
	if got := evalScalar(t, "sqrt(0-1)"); !math.IsNaN(got) {
		t.Errorf("sqrt(-1) = %v, want NaN", got)
	}
	if got := evalScalar(t, "ln(0)"); !math.IsInf(got, -1) {
		t.Errorf("ln(0) = %v, want -Inf", got)
	}
}

func TestMissingDataset(t *testing.T) {
	p, err := Compile("nope + 1")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	_, err = p.Eval(mapResolver{})
	if !errors.Is(err, errors.ErrCodeInvalidReference) {
		t.Errorf("code = %v, want INVALID_REFERENCE", errors.GetCode(err))
	}
}

func TestErrorColumnReference(t *testing.T) {
	env := mapResolver{
		{Dataset: "y", Part: PartData}: {10, 20},
		{Dataset: "y", Part: PartSerr}: {1, 2},
	}

	p, err := Compile("2 * y_serr")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	v, err := p.Eval(env)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	got, _ := v.Floats(2)
	want := []float64{2, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("y_serr[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestValueFloats(t *testing.T) {
	// Scalars broadcast to any length.
	vs, err := Scalar(7).Floats(3)
	if err != nil {
		t.Fatalf("Floats error: %v", err)
	}
	for _, v := range vs {
		if v != 7 {
			t.Errorf("broadcast value = %v, want 7", v)
		}
	}

	// Vectors must match exactly.
	if _, err := Vector([]float64{1, 2}).Floats(3); !errors.Is(err, errors.ErrCodeShapeMismatch) {
		t.Errorf("expected SHAPE_MISMATCH, got %v", err)
	}
}
