package algorithms

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
	"github.com/nrp-moip/moip/pkg/multiobjective/session"
)

// EpsilonEnumerator minimises objective 0 for every integer bound vector on the other
// objectives. It makes one oracle call per point of the bound grid.
type EpsilonEnumerator struct {
	cfg Config
}

var _ Enumerator = &EpsilonEnumerator{}

func (e *EpsilonEnumerator) Name() string {
	return Epsilon.String()
}

func (e *EpsilonEnumerator) Method() Method {
	return Epsilon
}

func (e *EpsilonEnumerator) Enumerate(ctx context.Context, p *framework.Problem) (*Result, error) {
	logger := klog.FromContext(ctx)
	s, err := e.cfg.session(ctx, p, Epsilon)
	if err != nil {
		return nil, err
	}
	if err := s.SetObjective(p.Objectives[0], oracle.Minimize); err != nil {
		return nil, err
	}

	r := framework.NewRounding(e.cfg.Tolerance)
	bounds := framework.Boundaries(p)
	guards := make([]*session.ConstraintGuard, len(p.Objectives))
	for l := 1; l < len(p.Objectives); l++ {
		g, err := s.Guard(session.ObjectiveName(l), p.Objectives[l], float64(r.Ceil(bounds[l].H)))
		if err != nil {
			return nil, err
		}
		defer g.Release()
		guards[l] = g
	}
	logger.V(4).Info("Starting epsilon-constraint enumeration", "problem", p.Name, "bounds", bounds)

	var raw []*framework.Solution
	var recurse func(level int) error
	recurse = func(level int) error {
		if level == 0 {
			sol, err := s.Solve(ctx)
			if err != nil {
				return err
			}
			if sol != nil {
				raw = append(raw, sol)
			}
			return nil
		}
		for rhs := r.Ceil(bounds[level].H); rhs >= r.Floor(bounds[level].L); rhs-- {
			if err := guards[level].SetRHS(float64(rhs)); err != nil {
				return err
			}
			if err := recurse(level - 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := recurse(len(p.Objectives) - 1); err != nil {
		return nil, err
	}
	return finish(ctx, e, e.cfg, p, raw, s.Calls()), nil
}
