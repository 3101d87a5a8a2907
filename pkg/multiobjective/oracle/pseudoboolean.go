package oracle

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/crillab/gophersat/maxsat"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// PseudoBoolean translates the model into a weighted MAXSAT problem solved by gophersat.
// Constraint and objective coefficients must be integral.
type PseudoBoolean struct {
	model
	rounding framework.Rounding
}

var _ Oracle = &PseudoBoolean{}

func NewPseudoBoolean(opts Options) *PseudoBoolean {
	return &PseudoBoolean{model: newModel(), rounding: framework.NewRounding(opts.Tolerance)}
}

func (o *PseudoBoolean) Solve(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var constrs []maxsat.Constr
	for _, row := range o.rows() {
		var lits []maxsat.Lit
		var coeffs []int
		for _, id := range row.coeffs.IDs() {
			c, err := o.integral(row.coeffs[id])
			if err != nil {
				return nil, fmt.Errorf("constraint coefficient of variable %d: %w", id, err)
			}
			if c == 0 {
				continue
			}
			lits = append(lits, maxsat.Var(varName(id)))
			coeffs = append(coeffs, -c)
		}
		// sum(a x) <= b with integral a reads sum(-a x) >= -floor(b).
		bound := int(o.rounding.Floor(row.rhs))
		if len(lits) == 0 {
			if bound < 0 {
				return &Result{Status: Infeasible}, nil
			}
			continue
		}
		constrs = append(constrs, maxsat.HardPBConstr(lits, coeffs, -bound))
	}

	costs := o.costs()
	for _, id := range costs.IDs() {
		c, err := o.integral(costs[id])
		if err != nil {
			return nil, fmt.Errorf("objective coefficient of variable %d: %w", id, err)
		}
		// A positive cost is paid when the variable is true, a negative one when it is false.
		switch {
		case c > 0:
			constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{maxsat.Not(varName(id))}, c))
		case c < 0:
			constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{maxsat.Var(varName(id))}, -c))
		}
	}

	assignment := make([]bool, len(o.vars))
	if len(constrs) == 0 {
		return &Result{Status: Optimal, Values: o.values(assignment)}, nil
	}
	m, _ := maxsat.New(constrs...).Solve()
	if m == nil {
		return &Result{Status: Infeasible}, nil
	}
	for i, id := range o.vars {
		assignment[i] = m[varName(id)]
	}
	return &Result{Status: Optimal, Values: o.values(assignment)}, nil
}

func (o *PseudoBoolean) integral(v float64) (int, error) {
	if !o.rounding.IsIntegral(v) {
		return 0, fmt.Errorf("%w: %v", ErrNonIntegral, v)
	}
	r := math.Round(v)
	if math.Abs(r) > 1<<40 {
		return 0, fmt.Errorf("coefficient %v out of range", v)
	}
	return int(r), nil
}

func varName(id int) string {
	return "x" + strconv.Itoa(id)
}
