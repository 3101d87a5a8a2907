package oracle

import (
	"context"
	"fmt"
	"math"
)

// DefaultMaxVariables bounds the search space of the exhaustive backend.
const DefaultMaxVariables = 24

// Exhaustive enumerates every assignment. It is the reference backend for small models.
type Exhaustive struct {
	model
	tol     float64
	maxVars int
}

var _ Oracle = &Exhaustive{}

func NewExhaustive(opts Options) *Exhaustive {
	maxVars := opts.MaxVariables
	if maxVars <= 0 {
		maxVars = DefaultMaxVariables
	}
	return &Exhaustive{model: newModel(), tol: opts.Tolerance, maxVars: maxVars}
}

func (o *Exhaustive) Solve(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(o.vars)
	if n > o.maxVars {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVariables, n, o.maxVars)
	}

	index := make(map[int]int, n)
	for i, id := range o.vars {
		index[id] = i
	}
	dense := func(coeffs map[int]float64) []float64 {
		out := make([]float64, n)
		for id, c := range coeffs {
			out[index[id]] = c
		}
		return out
	}
	rows := o.rows()
	a := make([][]float64, len(rows))
	for r, row := range rows {
		a[r] = dense(row.coeffs)
	}
	c := dense(o.costs())

	best := math.Inf(1)
	var bestMask uint64
	found := false
	for mask := uint64(0); mask < 1<<n; mask++ {
		if !feasibleMask(a, rows, mask, o.tol) {
			continue
		}
		v := dot(c, mask)
		if !found || v < best-1e-9 {
			best, bestMask, found = v, mask, true
		}
	}
	if !found {
		return &Result{Status: Infeasible}, nil
	}
	assignment := make([]bool, n)
	for i := range assignment {
		assignment[i] = bestMask&(1<<i) != 0
	}
	return &Result{Status: Optimal, Values: o.values(assignment)}, nil
}

func feasibleMask(a [][]float64, rows []linear, mask uint64, tol float64) bool {
	for r := range rows {
		if dot(a[r], mask) > rows[r].rhs+tol {
			return false
		}
	}
	return true
}

func dot(coeffs []float64, mask uint64) float64 {
	total := 0.0
	for i, c := range coeffs {
		if mask&(1<<i) != 0 {
			total += c
		}
	}
	return total
}
