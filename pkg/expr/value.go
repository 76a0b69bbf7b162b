package expr

import (
	"math"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// Value is the result of evaluating an expression: either a scalar or
// a vector. Arithmetic between a scalar and a vector broadcasts the
// scalar; arithmetic between two vectors requires equal lengths.
type Value struct {
	scalar float64
	vec    []float64
	isVec  bool
}

// Scalar wraps a float as a scalar Value.
func Scalar(v float64) Value {
	return Value{scalar: v}
}

// Vector wraps a slice as a vector Value. The slice is not copied.
func Vector(vs []float64) Value {
	return Value{vec: vs, isVec: true}
}

// IsVector reports whether the value is a vector.
func (v Value) IsVector() bool { return v.isVec }

// Len returns the element count: 1 for scalars.
func (v Value) Len() int {
	if v.isVec {
		return len(v.vec)
	}
	return 1
}

// ScalarValue returns the scalar. For vectors of length 1 it returns
// the single element; longer vectors return false.
func (v Value) ScalarValue() (float64, bool) {
	if !v.isVec {
		return v.scalar, true
	}
	if len(v.vec) == 1 {
		return v.vec[0], true
	}
	return 0, false
}

// Floats materializes the value as a slice of length n, broadcasting
// scalars. A vector value must already have length n.
func (v Value) Floats(n int) ([]float64, error) {
	if v.isVec {
		if len(v.vec) != n {
			return nil, errors.New(errors.ErrCodeShapeMismatch,
				"vector length %d, want %d", len(v.vec), n)
		}
		return v.vec, nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v.scalar
	}
	return out, nil
}

// binary applies fn elementwise with scalar broadcasting.
func binary(a, b Value, fn func(x, y float64) float64) (Value, error) {
	switch {
	case !a.isVec && !b.isVec:
		return Scalar(fn(a.scalar, b.scalar)), nil

	case a.isVec && !b.isVec:
		out := make([]float64, len(a.vec))
		for i, x := range a.vec {
			out[i] = fn(x, b.scalar)
		}
		return Vector(out), nil

	case !a.isVec && b.isVec:
		out := make([]float64, len(b.vec))
		for i, y := range b.vec {
			out[i] = fn(a.scalar, y)
		}
		return Vector(out), nil

	default:
		if len(a.vec) != len(b.vec) {
			return Value{}, errors.New(errors.ErrCodeEval,
				"vector length mismatch: %d vs %d", len(a.vec), len(b.vec))
		}
		out := make([]float64, len(a.vec))
		for i := range a.vec {
			out[i] = fn(a.vec[i], b.vec[i])
		}
		return Vector(out), nil
	}
}

// unary applies fn elementwise.
func unary(a Value, fn func(x float64) float64) Value {
	if !a.isVec {
		return Scalar(fn(a.scalar))
	}
	out := make([]float64, len(a.vec))
	for i, x := range a.vec {
		out[i] = fn(x)
	}
	return Vector(out)
}

// applyOp dispatches a binary operator token. Division by zero and
// domain errors follow IEEE semantics (Inf, NaN) rather than failing;
// NaN marks invalid points downstream.
func applyOp(op tokenKind, a, b Value) (Value, error) {
	switch op {
	case tokenPlus:
		return binary(a, b, func(x, y float64) float64 { return x + y })
	case tokenMinus:
		return binary(a, b, func(x, y float64) float64 { return x - y })
	case tokenStar:
		return binary(a, b, func(x, y float64) float64 { return x * y })
	case tokenSlash:
		return binary(a, b, func(x, y float64) float64 { return x / y })
	case tokenCaret:
		return binary(a, b, math.Pow)
	default:
		return Value{}, errors.New(errors.ErrCodeInternal, "unknown operator %v", op)
	}
}
