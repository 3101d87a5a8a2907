package framework

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultTolerance is the absolute tolerance used when reading oracle values as integers.
const DefaultTolerance = 1e-6

// Bounds is an outer interval for the value of an objective over all 0/1 assignments.
type Bounds struct {
	L float64
	H float64
}

// Boundary returns the sum of the negative coefficients as lower bound and the sum of
// the positive coefficients as upper bound.
func Boundary(row Row) Bounds {
	var b Bounds
	for _, coeff := range row {
		if coeff > 0 {
			b.H += coeff
		} else {
			b.L += coeff
		}
	}
	return b
}

// Boundaries returns the boundary of every objective of the problem.
func Boundaries(p *Problem) []Bounds {
	out := make([]Bounds, len(p.Objectives))
	for i, obj := range p.Objectives {
		out[i] = Boundary(obj)
	}
	return out
}

// Rounding converts oracle values to integer right-hand sides. Both enumerators go
// through the same Rounding so their fronts agree.
type Rounding struct {
	Tolerance float64
}

// NewRounding returns a Rounding with the given tolerance, or DefaultTolerance if tol <= 0.
func NewRounding(tol float64) Rounding {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return Rounding{Tolerance: tol}
}

// Floor is the largest integer not above v + tolerance.
func (r Rounding) Floor(v float64) int64 {
	return int64(math.Floor(v + r.Tolerance))
}

// Ceil is the smallest integer not below v - tolerance.
func (r Rounding) Ceil(v float64) int64 {
	return int64(math.Ceil(v - r.Tolerance))
}

// Round is the nearest integer, halves rounding up. The tolerance does not apply: values
// passed here are sums of integral coefficients, so they never sit near a half.
func (r Rounding) Round(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// IsIntegral reports whether v is within tolerance of an integer.
func (r Rounding) IsIntegral(v float64) bool {
	return scalar.EqualWithinAbs(v, math.Round(v), r.Tolerance)
}
