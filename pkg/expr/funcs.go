package expr

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// builtin is a named function callable from formulas. Arity is fixed
// and checked at compile time.
type builtin struct {
	name  string
	arity int
	fn    func(args []Value) (Value, error)
}

// elementwise lifts a float function to a one-argument builtin.
func elementwise(name string, fn func(float64) float64) *builtin {
	return &builtin{
		name:  name,
		arity: 1,
		fn: func(args []Value) (Value, error) {
			return unary(args[0], fn), nil
		},
	}
}

// reduction lifts a slice aggregate to a one-argument builtin.
// Reductions skip non-finite elements so that a few invalid points do
// not wipe out a summary; with no finite elements the result is NaN.
func reduction(name string, fn func(finite []float64) float64) *builtin {
	return &builtin{
		name:  name,
		arity: 1,
		fn: func(args []Value) (Value, error) {
			vs, _ := args[0].Floats(args[0].Len())
			finite := make([]float64, 0, len(vs))
			for _, v := range vs {
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					finite = append(finite, v)
				}
			}
			if len(finite) == 0 {
				return Scalar(math.NaN()), nil
			}
			return Scalar(fn(finite)), nil
		},
	}
}

// builtins is the function table of the formula language.
var builtins = map[string]*builtin{
	"sin":   elementwise("sin", math.Sin),
	"cos":   elementwise("cos", math.Cos),
	"tan":   elementwise("tan", math.Tan),
	"asin":  elementwise("asin", math.Asin),
	"acos":  elementwise("acos", math.Acos),
	"atan":  elementwise("atan", math.Atan),
	"exp":   elementwise("exp", math.Exp),
	"ln":    elementwise("ln", math.Log),
	"log10": elementwise("log10", math.Log10),
	"sqrt":  elementwise("sqrt", math.Sqrt),
	"abs":   elementwise("abs", math.Abs),
	"floor": elementwise("floor", math.Floor),
	"ceil":  elementwise("ceil", math.Ceil),

	"min": reduction("min", func(vs []float64) float64 {
		m := vs[0]
		for _, v := range vs[1:] {
			if v < m {
				m = v
			}
		}
		return m
	}),
	"max": reduction("max", func(vs []float64) float64 {
		m := vs[0]
		for _, v := range vs[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}),
	"sum": reduction("sum", func(vs []float64) float64 {
		var s float64
		for _, v := range vs {
			s += v
		}
		return s
	}),
	"mean": reduction("mean", func(vs []float64) float64 {
		var s float64
		for _, v := range vs {
			s += v
		}
		return s / float64(len(vs))
	}),

	"length": {
		name:  "length",
		arity: 1,
		fn: func(args []Value) (Value, error) {
			return Scalar(float64(args[0].Len())), nil
		},
	},

	// cumsum and diff follow IEEE semantics: NaN propagates.
	"cumsum": {
		name:  "cumsum",
		arity: 1,
		fn: func(args []Value) (Value, error) {
			vs, _ := args[0].Floats(args[0].Len())
			out := make([]float64, len(vs))
			var s float64
			for i, v := range vs {
				s += v
				out[i] = s
			}
			return Vector(out), nil
		},
	},
	"diff": {
		name:  "diff",
		arity: 1,
		fn: func(args []Value) (Value, error) {
			vs, _ := args[0].Floats(args[0].Len())
			if len(vs) == 0 {
				return Vector(nil), nil
			}
			out := make([]float64, len(vs)-1)
			for i := range out {
				out[i] = vs[i+1] - vs[i]
			}
			return Vector(out), nil
		},
	},

	"clip": {
		name:  "clip",
		arity: 3,
		fn: func(args []Value) (Value, error) {
			lo, ok := args[1].ScalarValue()
			if !ok {
				return Value{}, errors.New(errors.ErrCodeEval, "clip: lower bound must be a scalar")
			}
			hi, ok := args[2].ScalarValue()
			if !ok {
				return Value{}, errors.New(errors.ErrCodeEval, "clip: upper bound must be a scalar")
			}
			return unary(args[0], func(v float64) float64 {
				if v < lo {
					return lo
				}
				if v > hi {
					return hi
				}
				return v
			}), nil
		},
	},

	"linspace": {
		name:  "linspace",
		arity: 3,
		fn: func(args []Value) (Value, error) {
			lo, ok := args[0].ScalarValue()
			if !ok {
				return Value{}, errors.New(errors.ErrCodeEval, "linspace: start must be a scalar")
			}
			hi, ok := args[1].ScalarValue()
			if !ok {
				return Value{}, errors.New(errors.ErrCodeEval, "linspace: stop must be a scalar")
			}
			nf, ok := args[2].ScalarValue()
			if !ok || nf != math.Trunc(nf) || nf < 2 || nf > 1e7 {
				return Value{}, errors.New(errors.ErrCodeEval, "linspace: count must be an integer >= 2")
			}
			n := int(nf)
			out := make([]float64, n)
			step := (hi - lo) / float64(n-1)
			for i := range out {
				out[i] = lo + float64(i)*step
			}
			out[n-1] = hi
			return Vector(out), nil
		},
	},
}

// constants resolvable as bare identifiers. A dataset with one of
// these names must be backquoted to be referenced.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}
