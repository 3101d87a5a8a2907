package algorithms

import (
	"fmt"
	"math/big"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// maxExact is the largest integer every float64 represents exactly.
const maxExact = 1 << 53

// weightSchedule returns exact weights for every objective: 1 for objective 0 and
// w[l] = w[l+1] / range[l] going down from the last objective, with w[k] = 1 and
// range[l] = ceil(ub) - floor(lb) + 1. The secondary terms then span less than one unit,
// so the combined objective orders solutions by objective 0 first, then by the last
// objective down to objective 1.
func weightSchedule(bounds []framework.Bounds, r framework.Rounding) ([]*big.Rat, error) {
	k := len(bounds)
	w := make([]*big.Rat, k)
	w[0] = big.NewRat(1, 1)
	next := big.NewRat(1, 1)
	for l := k - 1; l >= 1; l-- {
		width := r.Ceil(bounds[l].H) - r.Floor(bounds[l].L) + 1
		if width <= 0 {
			return nil, fmt.Errorf("%w: objective %d spans [%v, %v]", ErrDegenerateRange, l, bounds[l].L, bounds[l].H)
		}
		next = new(big.Rat).Quo(next, big.NewRat(width, 1))
		w[l] = next
	}
	return w, nil
}

// combinedObjective returns sum(w[l] * objective l) multiplied by the least common
// denominator of the weights, so every coefficient is an exact integer.
func combinedObjective(p *framework.Problem, w []*big.Rat) (framework.Row, *big.Int, error) {
	scale := big.NewInt(1)
	for _, wl := range w {
		d := wl.Denom()
		g := new(big.Int).GCD(nil, nil, scale, d)
		scale.Mul(scale, new(big.Int).Quo(d, g))
	}
	scaleRat := new(big.Rat).SetInt(scale)

	sums := map[int]*big.Rat{}
	for l, obj := range p.Objectives {
		for id, coeff := range obj {
			c := new(big.Rat)
			if c.SetFloat64(coeff) == nil {
				return nil, nil, fmt.Errorf("objective %d: coefficient %v of variable %d is not finite", l, coeff, id)
			}
			if sums[id] == nil {
				sums[id] = new(big.Rat)
			}
			sums[id].Add(sums[id], c.Mul(c, w[l]))
		}
	}

	row := framework.Row{}
	for id, sum := range sums {
		v := new(big.Rat).Mul(sum, scaleRat)
		if !v.IsInt() {
			return nil, nil, fmt.Errorf("combined coefficient of variable %d is %s, objective coefficients must be integral", id, v.RatString())
		}
		n := v.Num()
		if !n.IsInt64() || n.Int64() > maxExact || n.Int64() < -maxExact {
			return nil, nil, fmt.Errorf("%w: variable %d has coefficient %s", ErrWeightOverflow, id, n)
		}
		if n.Sign() != 0 {
			row[id] = float64(n.Int64())
		}
	}
	return row, scale, nil
}
