package session

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/metrics"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
)

// ErrOracleViolation is returned when the oracle hands back an assignment that breaks a
// constraint of the session.
var ErrOracleViolation = errors.New("oracle returned an assignment violating a constraint")

// InequationName is the oracle name of the i-th problem inequation.
func InequationName(i int) string {
	return fmt.Sprintf("c%d", i)
}

// ObjectiveName is the oracle name of the constraint bounding objective i.
func ObjectiveName(i int) string {
	return fmt.Sprintf("obj_%d", i)
}

type bound struct {
	row framework.Row
	rhs float64
}

// Session owns one oracle loaded with a problem. Extra constraints can be added and
// removed around solves. A Session is not safe for concurrent use.
type Session struct {
	problem  *framework.Problem
	oracle   oracle.Oracle
	rounding framework.Rounding
	metrics  *metrics.Metrics
	method   string
	clock    clock.PassiveClock

	extra map[string]*bound
	calls int
}

type Option func(*Session)

// WithMetrics records every solve on m under the given method label.
func WithMetrics(m *metrics.Metrics, method string) Option {
	return func(s *Session) {
		s.metrics = m
		s.method = method
	}
}

// WithTolerance sets the tolerance used to check oracle assignments.
func WithTolerance(tol float64) Option {
	return func(s *Session) {
		s.rounding = framework.NewRounding(tol)
	}
}

func WithClock(c clock.PassiveClock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// New registers the problem variables and inequations on the oracle.
func New(ctx context.Context, p *framework.Problem, o oracle.Oracle, opts ...Option) (*Session, error) {
	s := &Session{
		problem:  p,
		oracle:   o,
		rounding: framework.NewRounding(framework.DefaultTolerance),
		clock:    clock.RealClock{},
		extra:    map[string]*bound{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := o.AddVariables(p.Variables...); err != nil {
		return nil, fmt.Errorf("adding variables: %w", err)
	}
	for i := range p.Inequations {
		row, rhs := p.Inequation(i)
		if err := o.AddConstraint(InequationName(i), row, oracle.LessEqual, rhs); err != nil {
			return nil, fmt.Errorf("adding inequation %d: %w", i, err)
		}
	}
	klog.FromContext(ctx).V(5).Info("Solver session ready", "problem", p.Name,
		"variables", len(p.Variables), "inequations", len(p.Inequations))
	return s, nil
}

func (s *Session) Problem() *framework.Problem {
	return s.problem
}

// Calls is the number of oracle calls made so far.
func (s *Session) Calls() int {
	return s.calls
}

// AddConstraint adds sum(row) <= rhs under name.
func (s *Session) AddConstraint(name string, row framework.Row, rhs float64) error {
	if err := s.oracle.AddConstraint(name, row, oracle.LessEqual, rhs); err != nil {
		return err
	}
	s.extra[name] = &bound{row: row.Clone(), rhs: rhs}
	return nil
}

func (s *Session) DeleteConstraint(name string) error {
	if err := s.oracle.DeleteConstraint(name); err != nil {
		return err
	}
	delete(s.extra, name)
	return nil
}

func (s *Session) SetRHS(name string, rhs float64) error {
	if err := s.oracle.SetRHS(name, rhs); err != nil {
		return err
	}
	if b, ok := s.extra[name]; ok {
		b.rhs = rhs
	}
	return nil
}

func (s *Session) SetObjective(row framework.Row, sense oracle.Sense) error {
	return s.oracle.SetObjective(row, sense)
}

// Solve runs the oracle once. A nil Solution without error means infeasible. Objective
// values are recomputed from the assignment.
func (s *Session) Solve(ctx context.Context) (*framework.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := klog.FromContext(ctx)
	start := s.clock.Now()
	res, err := s.oracle.Solve(ctx)
	s.calls++
	if err != nil {
		s.metrics.ObserveSolve(s.method, metrics.StatusError, s.clock.Since(start))
		return nil, fmt.Errorf("oracle call %d: %w", s.calls, err)
	}
	s.metrics.ObserveSolve(s.method, res.Status.String(), s.clock.Since(start))
	if res.Status != oracle.Optimal {
		logger.V(5).Info("Oracle call infeasible", "call", s.calls)
		return nil, nil
	}

	sol := framework.NewSolution(s.problem, res.Values)
	if !sol.Feasible(s.rounding.Tolerance) {
		return nil, fmt.Errorf("%w: slacks %v", ErrOracleViolation, sol.Constraints)
	}
	for name, b := range s.extra {
		if lhs := b.row.Evaluate(res.Values, -1); lhs > b.rhs+s.rounding.Tolerance {
			return nil, fmt.Errorf("%w: %s has %v > %v", ErrOracleViolation, name, lhs, b.rhs)
		}
	}
	logger.V(5).Info("Oracle call optimal", "call", s.calls, "objectives", sol.Objectives)
	return sol, nil
}

// Guard adds a constraint that lives until Release.
func (s *Session) Guard(name string, row framework.Row, rhs float64) (*ConstraintGuard, error) {
	if err := s.AddConstraint(name, row, rhs); err != nil {
		return nil, err
	}
	return &ConstraintGuard{session: s, name: name}, nil
}

// ConstraintGuard scopes a session constraint. Release is safe to call more than once,
// so it can be deferred right after acquisition.
type ConstraintGuard struct {
	session  *Session
	name     string
	released bool
}

func (g *ConstraintGuard) Name() string {
	return g.name
}

func (g *ConstraintGuard) SetRHS(rhs float64) error {
	if g.released {
		return fmt.Errorf("constraint %q already released", g.name)
	}
	return g.session.SetRHS(g.name, rhs)
}

func (g *ConstraintGuard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	return g.session.DeleteConstraint(g.name)
}
