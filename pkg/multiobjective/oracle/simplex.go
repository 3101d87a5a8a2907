package oracle

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Simplex solves the model by branch and bound over gonum's LP relaxation.
type Simplex struct {
	model
	tol float64
}

var _ Oracle = &Simplex{}

func NewSimplex(opts Options) *Simplex {
	return &Simplex{model: newModel(), tol: opts.Tolerance}
}

func (o *Simplex) Solve(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(o.vars)
	index := make(map[int]int, n)
	for i, id := range o.vars {
		index[id] = i
	}
	rows := o.rows()
	bb := &branchAndBound{
		a:    make([][]float64, len(rows)),
		b:    make([]float64, len(rows)),
		c:    make([]float64, n),
		tol:  o.tol,
		best: math.Inf(1),
	}
	for r, row := range rows {
		bb.a[r] = make([]float64, n)
		for id, coeff := range row.coeffs {
			bb.a[r][index[id]] = coeff
		}
		bb.b[r] = row.rhs
	}
	for id, coeff := range o.costs() {
		bb.c[index[id]] = coeff
	}

	fixed := make([]int8, n)
	for i := range fixed {
		fixed[i] = -1
	}
	bb.search(fixed)
	if bb.incumbent == nil {
		return &Result{Status: Infeasible}, nil
	}
	return &Result{Status: Optimal, Values: o.values(bb.incumbent)}, nil
}

type branchAndBound struct {
	a   [][]float64
	b   []float64
	c   []float64
	tol float64

	best      float64
	incumbent []bool
}

// search explores the node where fixed[j] is 0 or 1 for decided variables and -1 otherwise.
func (bb *branchAndBound) search(fixed []int8) {
	var free []int
	constant := 0.0
	residual := make([]float64, len(bb.b))
	copy(residual, bb.b)
	for j, f := range fixed {
		switch f {
		case -1:
			free = append(free, j)
		case 1:
			constant += bb.c[j]
			for r := range bb.a {
				residual[r] -= bb.a[r][j]
			}
		}
	}

	if len(free) == 0 {
		for r := range residual {
			if residual[r] < -bb.tol {
				return
			}
		}
		bb.offer(fixed, constant)
		return
	}

	x, bound, err := bb.relax(free, residual)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return
	case err != nil:
		// No usable relaxation, branch without pruning.
		bb.branch(fixed, free[0], 1)
		return
	}
	if bound+constant >= bb.best-1e-9 {
		return
	}

	pick, frac, pickX := -1, 0.0, 0.0
	for k, j := range free {
		d := math.Abs(x[k] - math.Round(x[k]))
		if d > bb.tol && d > frac {
			pick, frac, pickX = j, d, x[k]
		}
	}
	if pick == -1 {
		candidate := make([]int8, len(fixed))
		copy(candidate, fixed)
		for k, j := range free {
			candidate[j] = int8(math.Round(x[k]))
		}
		if bb.feasible(candidate) {
			bb.offer(candidate, bb.value(candidate))
			return
		}
		bb.branch(fixed, free[0], 1)
		return
	}
	var first int8
	if pickX >= 0.5 {
		first = 1
	}
	bb.branch(fixed, pick, first)
}

func (bb *branchAndBound) branch(fixed []int8, j int, first int8) {
	for _, v := range []int8{first, 1 - first} {
		child := make([]int8, len(fixed))
		copy(child, fixed)
		child[j] = v
		bb.search(child)
	}
}

// relax solves min c_F x s.t. A_F x <= residual, 0 <= x <= 1 in standard form with one
// slack per row and one per upper bound.
func (bb *branchAndBound) relax(free []int, residual []float64) ([]float64, float64, error) {
	m := len(free)
	nr := len(residual)
	rows := nr + m
	cols := 2*m + nr
	data := make([]float64, rows*cols)
	rhs := make([]float64, rows)
	cost := make([]float64, cols)
	for k, j := range free {
		cost[k] = bb.c[j]
	}
	for r := 0; r < nr; r++ {
		if residual[r] < 0 && residual[r] >= -bb.tol {
			residual[r] = 0
		}
		sign := 1.0
		if residual[r] < 0 {
			sign = -1
		}
		for k, j := range free {
			data[r*cols+k] = sign * bb.a[r][j]
		}
		data[r*cols+m+r] = sign
		rhs[r] = sign * residual[r]
	}
	for k := 0; k < m; k++ {
		r := nr + k
		data[r*cols+k] = 1
		data[r*cols+m+nr+k] = 1
		rhs[r] = 1
	}
	opt, x, err := lp.Simplex(cost, mat.NewDense(rows, cols, data), rhs, 1e-10, nil)
	if err != nil {
		return nil, 0, err
	}
	return x[:m], opt, nil
}

func (bb *branchAndBound) feasible(assign []int8) bool {
	for r := range bb.a {
		lhs := 0.0
		for j, v := range assign {
			if v == 1 {
				lhs += bb.a[r][j]
			}
		}
		if lhs > bb.b[r]+bb.tol {
			return false
		}
	}
	return true
}

func (bb *branchAndBound) value(assign []int8) float64 {
	total := 0.0
	for j, v := range assign {
		if v == 1 {
			total += bb.c[j]
		}
	}
	return total
}

func (bb *branchAndBound) offer(assign []int8, value float64) {
	if bb.incumbent != nil && value >= bb.best-1e-9 {
		return
	}
	bb.best = value
	bb.incumbent = make([]bool, len(assign))
	for j, v := range assign {
		bb.incumbent[j] = v == 1
	}
}
