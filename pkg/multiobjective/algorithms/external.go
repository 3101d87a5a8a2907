package algorithms

import (
	"context"
	"fmt"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// ExternalRunner produces solutions for the methods implemented outside this module,
// such as heuristic or quantum samplers.
type ExternalRunner interface {
	Run(ctx context.Context, m Method, p *framework.Problem) ([]*framework.Solution, error)
}

// ExternalRunnerFunc adapts a function to ExternalRunner.
type ExternalRunnerFunc func(ctx context.Context, m Method, p *framework.Problem) ([]*framework.Solution, error)

func (f ExternalRunnerFunc) Run(ctx context.Context, m Method, p *framework.Problem) ([]*framework.Solution, error) {
	return f(ctx, m, p)
}

// ExternalEnumerator archives whatever the configured runner returns. Objective values
// are recomputed from each assignment and infeasible assignments are dropped.
type ExternalEnumerator struct {
	method Method
	cfg    Config
}

var _ Enumerator = &ExternalEnumerator{}

func (e *ExternalEnumerator) Name() string {
	return e.method.String()
}

func (e *ExternalEnumerator) Method() Method {
	return e.method
}

func (e *ExternalEnumerator) Enumerate(ctx context.Context, p *framework.Problem) (*Result, error) {
	if e.cfg.External == nil {
		return nil, fmt.Errorf("%w for method %s", ErrNoExternalRunner, e.method)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem %q: %w", p.Name, err)
	}
	sols, err := e.cfg.External.Run(ctx, e.method, p)
	if err != nil {
		return nil, fmt.Errorf("external %s run: %w", e.method, err)
	}
	raw := make([]*framework.Solution, 0, len(sols))
	for _, sol := range sols {
		checked := framework.NewSolution(p, sol.Assignment(p))
		if checked.Feasible(e.cfg.Tolerance) {
			raw = append(raw, checked)
		}
	}
	return finish(ctx, e, e.cfg, p, raw, 0), nil
}
