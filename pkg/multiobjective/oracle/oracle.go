package oracle

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// Sense is the optimisation direction of the objective.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// ConstraintSense relates the left-hand side of a constraint to its right-hand side.
type ConstraintSense int

const (
	LessEqual ConstraintSense = iota
	GreaterEqual
	Equal
)

func (s ConstraintSense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	}
	return fmt.Sprintf("ConstraintSense(%d)", int(s))
}

// Status is the outcome of a solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
)

func (s Status) String() string {
	if s == Optimal {
		return "optimal"
	}
	return "infeasible"
}

// Result holds the optimal 0/1 values when Status is Optimal.
type Result struct {
	Status Status
	Values map[int]bool
}

var (
	ErrUnknownVariable     = errors.New("unknown variable")
	ErrUnknownConstraint   = errors.New("unknown constraint")
	ErrDuplicateConstraint = errors.New("constraint already exists")
	ErrNonIntegral         = errors.New("coefficient is not integral")
	ErrTooManyVariables    = errors.New("too many variables")
	ErrUnknownBackend      = errors.New("unknown oracle backend")
)

// Oracle is an exact 0/1 integer linear programming solver holding a mutable model.
type Oracle interface {
	AddVariables(ids ...int) error
	AddConstraint(name string, coeffs framework.Row, sense ConstraintSense, rhs float64) error
	DeleteConstraint(name string) error
	SetRHS(name string, rhs float64) error
	SetObjective(coeffs framework.Row, sense Sense) error
	Solve(ctx context.Context) (*Result, error)
}

const (
	BackendPseudoBoolean = "pbsat"
	BackendSimplex       = "simplex"
	BackendExhaustive    = "exhaustive"
)

// Options tune the backends.
type Options struct {
	// Tolerance used when comparing floating point values.
	Tolerance float64
	// MaxVariables caps the exhaustive backend.
	MaxVariables int
}

// Factory creates a fresh oracle for one session.
type Factory func() Oracle

// NewFactory returns a Factory for the named backend.
func NewFactory(backend string, opts Options) (Factory, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = framework.DefaultTolerance
	}
	switch backend {
	case BackendPseudoBoolean:
		return func() Oracle { return NewPseudoBoolean(opts) }, nil
	case BackendSimplex:
		return func() Oracle { return NewSimplex(opts) }, nil
	case BackendExhaustive:
		return func() Oracle { return NewExhaustive(opts) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// Backends lists the available backend names.
func Backends() []string {
	return []string{BackendPseudoBoolean, BackendSimplex, BackendExhaustive}
}

type constraint struct {
	coeffs framework.Row
	sense  ConstraintSense
	rhs    float64
}

// linear is sum(coeffs) <= rhs.
type linear struct {
	coeffs framework.Row
	rhs    float64
}

// model is the bookkeeping shared by every backend.
type model struct {
	vars        []int
	varSet      sets.Set[int]
	names       []string
	constraints map[string]*constraint
	objective   framework.Row
	sense       Sense
}

func newModel() model {
	return model{
		varSet:      sets.New[int](),
		constraints: map[string]*constraint{},
		objective:   framework.Row{},
	}
}

func (m *model) AddVariables(ids ...int) error {
	for _, id := range ids {
		if m.varSet.Has(id) {
			continue
		}
		m.varSet.Insert(id)
		m.vars = append(m.vars, id)
	}
	slices.Sort(m.vars)
	return nil
}

func (m *model) checkRow(coeffs framework.Row) error {
	for id := range coeffs {
		if !m.varSet.Has(id) {
			return fmt.Errorf("%w: %d", ErrUnknownVariable, id)
		}
	}
	return nil
}

func (m *model) AddConstraint(name string, coeffs framework.Row, sense ConstraintSense, rhs float64) error {
	if _, ok := m.constraints[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateConstraint, name)
	}
	if err := m.checkRow(coeffs); err != nil {
		return fmt.Errorf("constraint %q: %w", name, err)
	}
	m.constraints[name] = &constraint{coeffs: coeffs.Clone(), sense: sense, rhs: rhs}
	m.names = append(m.names, name)
	return nil
}

func (m *model) DeleteConstraint(name string) error {
	if _, ok := m.constraints[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConstraint, name)
	}
	delete(m.constraints, name)
	m.names = slices.DeleteFunc(m.names, func(n string) bool { return n == name })
	return nil
}

func (m *model) SetRHS(name string, rhs float64) error {
	c, ok := m.constraints[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConstraint, name)
	}
	c.rhs = rhs
	return nil
}

func (m *model) SetObjective(coeffs framework.Row, sense Sense) error {
	if err := m.checkRow(coeffs); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = coeffs.Clone()
	m.sense = sense
	return nil
}

// rows returns every constraint in the sum <= rhs form, in insertion order.
func (m *model) rows() []linear {
	out := make([]linear, 0, len(m.names))
	for _, name := range m.names {
		c := m.constraints[name]
		switch c.sense {
		case LessEqual:
			out = append(out, linear{coeffs: c.coeffs, rhs: c.rhs})
		case GreaterEqual:
			out = append(out, linear{coeffs: negate(c.coeffs), rhs: -c.rhs})
		case Equal:
			out = append(out,
				linear{coeffs: c.coeffs, rhs: c.rhs},
				linear{coeffs: negate(c.coeffs), rhs: -c.rhs})
		}
	}
	return out
}

// costs returns the objective as minimisation coefficients.
func (m *model) costs() framework.Row {
	if m.sense == Maximize {
		return negate(m.objective)
	}
	return m.objective
}

func (m *model) values(assignment []bool) map[int]bool {
	out := make(map[int]bool, len(m.vars))
	for i, id := range m.vars {
		out[id] = assignment[i]
	}
	return out
}

func negate(r framework.Row) framework.Row {
	out := make(framework.Row, len(r))
	for id, coeff := range r {
		out[id] = -coeff
	}
	return out
}
