package layout

import (
	"math"
	"testing"

	"github.com/plotdeck/plotdeck/pkg/geom"
)

func closeTo(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-9*scale
}

func sameValues(t *testing.T, what string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
	for i := range got {
		if !closeTo(got[i], want[i]) {
			t.Fatalf("%s[%d] = %v, want %v (all: %v)", what, i, got[i], want[i], got)
		}
	}
}

func TestLinearTicks(t *testing.T) {
	tests := []struct {
		name       string
		lo, hi     float64
		target     int
		wantMajor  []float64
		wantMinors int
	}{
		{
			name: "UnitRange", lo: 0, hi: 1, target: 5,
			wantMajor:  []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
			wantMinors: 15,
		},
		{
			name: "ZeroToTen", lo: 0, hi: 10, target: 5,
			wantMajor:  []float64{0, 2, 4, 6, 8, 10},
			wantMinors: 15,
		},
		{
			name: "SymmetricAboutZero", lo: -5, hi: 5, target: 5,
			wantMajor: []float64{-4, -2, 0, 2, 4},
		},
		{
			name: "TinyValues", lo: 1.3e-5, hi: 5.7e-5, target: 5,
			wantMajor: []float64{2e-5, 3e-5, 4e-5, 5e-5},
		},
		{
			name: "OffsetRange", lo: 17, hi: 93, target: 5,
			wantMajor: []float64{20, 40, 60, 80},
		},
		{
			name: "SingleIntervalTarget", lo: 0, hi: 100, target: 1,
			wantMajor: []float64{0, 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := linearTicks(tt.lo, tt.hi, tt.target)
			sameValues(t, "major", got.Major, tt.wantMajor)
			if tt.wantMinors > 0 && len(got.Minor) != tt.wantMinors {
				t.Fatalf("minor count = %d, want %d (%v)", len(got.Minor), tt.wantMinors, got.Minor)
			}
			for _, m := range got.Minor {
				for _, mj := range got.Major {
					if closeTo(m, mj) {
						t.Fatalf("minor %v coincides with major %v", m, mj)
					}
				}
			}
		})
	}
}

func TestLinearTicksDegenerate(t *testing.T) {
	for _, tt := range []struct {
		name   string
		lo, hi float64
	}{
		{"EmptySpan", 3, 3},
		{"Inverted", 5, 1},
		{"NaNBound", math.NaN(), 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := linearTicks(tt.lo, tt.hi, 5)
			if len(got.Major) != 0 {
				t.Fatalf("major = %v, want none", got.Major)
			}
		})
	}
}

// Tick positions are integer multiples of the step, and the label
// precision matches the step, so 3*0.1 prints as 0.3 rather than
// 0.30000000000000004.
func TestTickLabelPrecision(t *testing.T) {
	got := linearTicks(0, 0.5, 5)
	sameValues(t, "major", got.Major, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5})

	want := []string{"0.0", "0.1", "0.2", "0.3", "0.4", "0.5"}
	for i, v := range got.Major {
		if lbl := got.Label(v); lbl != want[i] {
			t.Fatalf("label(%v) = %q, want %q", v, lbl, want[i])
		}
	}
}

func TestTickLabelWholeSteps(t *testing.T) {
	got := linearTicks(0, 10, 5)
	for i, want := range []string{"0", "2", "4", "6", "8", "10"} {
		if lbl := got.Label(got.Major[i]); lbl != want {
			t.Fatalf("label[%d] = %q, want %q", i, lbl, want)
		}
	}
}

func TestLogTicks(t *testing.T) {
	t.Run("WholeDecades", func(t *testing.T) {
		got := logTicks(1, 1000, 5)
		sameValues(t, "major", got.Major, []float64{1, 10, 100, 1000})
		if len(got.Minor) != 24 {
			t.Fatalf("minor count = %d, want 24", len(got.Minor))
		}
	})
	t.Run("PartialDecades", func(t *testing.T) {
		got := logTicks(0.5, 80, 5)
		sameValues(t, "major", got.Major, []float64{1, 10})
		for _, m := range got.Minor {
			if m < 0.5 || m > 80 {
				t.Fatalf("minor %v outside [0.5, 80]", m)
			}
		}
	})
	t.Run("NoDecadeInsideFallsBackToLinear", func(t *testing.T) {
		got := logTicks(2, 8, 5)
		sameValues(t, "major", got.Major, []float64{2, 4, 6, 8})
	})
	t.Run("ManyDecadesThinOut", func(t *testing.T) {
		got := logTicks(1e-8, 1e8, 5)
		sameValues(t, "major", got.Major, []float64{1e-5, 1, 1e5})
	})
	t.Run("DecadeLabels", func(t *testing.T) {
		got := logTicks(1, 1000, 5)
		for i, want := range []string{"1", "10", "100", "1000"} {
			if lbl := got.Label(got.Major[i]); lbl != want {
				t.Fatalf("label[%d] = %q, want %q", i, lbl, want)
			}
		}
	})
}

func TestTicksFor(t *testing.T) {
	lin := ticksFor(geom.Interval{Lo: 0, Hi: 10}, 5, false)
	if len(lin.Major) == 0 {
		t.Fatal("linear ticks empty")
	}
	log := ticksFor(geom.Interval{Lo: 1, Hi: 100}, 5, true)
	sameValues(t, "log major", log.Major, []float64{1, 10, 100})
}
