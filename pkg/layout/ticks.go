package layout

import (
	"math"
	"strconv"

	"github.com/plotdeck/plotdeck/pkg/geom"
)

// Ticks holds the tick positions of an axis in data space. Major
// positions carry the print precision of the chosen step so labels
// come out exact.
type Ticks struct {
	Major []float64
	Minor []float64

	// Decimals is the fraction digit count that prints a major
	// position exactly; -1 asks for the shortest %g form.
	Decimals int
}

// Label formats a major tick value for display.
func (t Ticks) Label(v float64) string {
	if t.Decimals < 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', t.Decimals, 64)
}

// tickLadder is the 1-2-5 step ladder with the minor subdivision
// count of each mantissa.
var tickLadder = []struct {
	mant   float64
	subdiv int
}{
	{1, 5},
	{2, 4},
	{5, 5},
}

// tickEdge absorbs float noise when a bound sits exactly on a tick.
const tickEdge = 1e-9

// linearTicks picks the step m*10^e from the ladder giving at most
// about target major intervals over [lo, hi]. Positions are integer
// multiples of the step, never a running sum, so long axes accumulate
// no float error.
func linearTicks(lo, hi float64, target int) Ticks {
	span := hi - lo
	if span <= 0 || !isFinite(span) {
		return Ticks{Decimals: -1}
	}
	if target < 1 {
		target = 1
	}
	exp := int(math.Floor(math.Log10(span / float64(target))))
	for e := exp; e <= exp+3; e++ {
		scale := math.Pow(10, float64(e))
		for _, c := range tickLadder {
			step := c.mant * scale
			if span/step <= float64(target) {
				return ticksForStep(lo, hi, step, c.subdiv, e)
			}
		}
	}
	return Ticks{Major: []float64{lo, hi}, Decimals: -1}
}

func ticksForStep(lo, hi, step float64, subdiv, exp int) Ticks {
	t := Ticks{}
	if exp < 0 {
		t.Decimals = -exp
	}

	i0 := int(math.Ceil(lo/step - tickEdge))
	i1 := int(math.Floor(hi/step + tickEdge))
	for i := i0; i <= i1; i++ {
		t.Major = append(t.Major, float64(i)*step)
	}

	sub := step / float64(subdiv)
	j0 := int(math.Ceil(lo/sub - tickEdge))
	j1 := int(math.Floor(hi/sub + tickEdge))
	for j := j0; j <= j1; j++ {
		if j%subdiv == 0 {
			continue
		}
		t.Minor = append(t.Minor, float64(j)*sub)
	}
	return t
}

// logTicks places majors at powers of ten inside [lo, hi] with minors
// at the 2..9 multiples. Spans beyond ten decades fall back to the
// linear ladder over exponents; spans without a whole decade fall
// back to plain linear ticks over the raw values.
func logTicks(lo, hi float64, target int) Ticks {
	elo := int(math.Ceil(math.Log10(lo) - tickEdge))
	ehi := int(math.Floor(math.Log10(hi) + tickEdge))

	switch {
	case ehi < elo:
		return linearTicks(lo, hi, target)
	case ehi-elo > 10:
		lt := linearTicks(math.Log10(lo), math.Log10(hi), target)
		t := Ticks{Decimals: -1}
		for _, e := range lt.Major {
			t.Major = append(t.Major, math.Pow(10, e))
		}
		return t
	}

	t := Ticks{Decimals: -1}
	for e := elo; e <= ehi; e++ {
		t.Major = append(t.Major, math.Pow(10, float64(e)))
	}
	for e := elo - 1; e <= ehi; e++ {
		scale := math.Pow(10, float64(e))
		for m := 2; m <= 9; m++ {
			v := float64(m) * scale
			if v >= lo*(1-tickEdge) && v <= hi*(1+tickEdge) {
				t.Minor = append(t.Minor, v)
			}
		}
	}
	return t
}

func ticksFor(r geom.Interval, target int, log bool) Ticks {
	if log {
		return logTicks(r.Lo, r.Hi, target)
	}
	return linearTicks(r.Lo, r.Hi, target)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
