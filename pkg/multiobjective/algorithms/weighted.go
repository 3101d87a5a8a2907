package algorithms

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
	"github.com/nrp-moip/moip/pkg/multiobjective/session"
)

// WeightedEnumerator minimises a combined objective whose exact weights make it
// lexicographic, and tightens the bound on each secondary objective just below the
// worst value found at the level underneath. Its oracle calls grow with the front size
// instead of the bound grid.
type WeightedEnumerator struct {
	cfg Config
}

var _ Enumerator = &WeightedEnumerator{}

func (e *WeightedEnumerator) Name() string {
	return Weighted.String()
}

func (e *WeightedEnumerator) Method() Method {
	return Weighted
}

func (e *WeightedEnumerator) Enumerate(ctx context.Context, p *framework.Problem) (*Result, error) {
	logger := klog.FromContext(ctx)
	s, err := e.cfg.session(ctx, p, Weighted)
	if err != nil {
		return nil, err
	}

	r := framework.NewRounding(e.cfg.Tolerance)
	bounds := framework.Boundaries(p)
	w, err := weightSchedule(bounds, r)
	if err != nil {
		return nil, err
	}
	combined, scale, err := combinedObjective(p, w)
	if err != nil {
		return nil, err
	}
	if err := s.SetObjective(combined, oracle.Minimize); err != nil {
		return nil, err
	}
	logger.V(4).Info("Starting weighted enumeration", "problem", p.Name, "bounds", bounds, "scale", scale.String())

	var recurse func(level int) ([]*framework.Solution, error)
	recurse = func(level int) ([]*framework.Solution, error) {
		if level == 0 {
			sol, err := s.Solve(ctx)
			if err != nil || sol == nil {
				return nil, err
			}
			return []*framework.Solution{sol}, nil
		}

		rhs := r.Ceil(bounds[level].H)
		g, err := s.Guard(session.ObjectiveName(level), p.Objectives[level], float64(rhs))
		if err != nil {
			return nil, err
		}
		defer g.Release()

		var acc []*framework.Solution
		for {
			found, err := recurse(level - 1)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				break
			}
			acc = append(acc, found...)
			worst := found[0].Objectives[level]
			for _, sol := range found[1:] {
				worst = max(worst, sol.Objectives[level])
			}
			next := r.Round(worst) - 1
			if next >= rhs {
				return nil, fmt.Errorf("%w: objective %d from %d to %d", ErrStalled, level, rhs, next)
			}
			rhs = next
			if err := g.SetRHS(float64(rhs)); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}
	raw, err := recurse(len(p.Objectives) - 1)
	if err != nil {
		return nil, err
	}
	return finish(ctx, e, e.cfg, p, raw, s.Calls()), nil
}
