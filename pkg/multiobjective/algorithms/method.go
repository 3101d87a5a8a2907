package algorithms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/metrics"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
	"github.com/nrp-moip/moip/pkg/multiobjective/session"
)

// Method selects a front enumeration strategy.
type Method int

const (
	Epsilon Method = iota
	Weighted
	Approx
	Quantum
)

var methodNames = map[Method]string{
	Epsilon:  "epsilon",
	Weighted: "cwmoip",
	Approx:   "approx",
	Quantum:  "quantum",
}

var methodAliases = map[string]Method{
	"epsilon":            Epsilon,
	"econstraint":        Epsilon,
	"epsilon-constraint": Epsilon,
	"cwmoip":             Weighted,
	"weighted":           Weighted,
	"approx":             Approx,
	"quantum":            Quantum,
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Exact reports whether the method enumerates the complete front.
func (m Method) Exact() bool {
	return m == Epsilon || m == Weighted
}

// ParseMethod maps a method name, case-insensitively, to a Method.
func ParseMethod(s string) (Method, error) {
	if m, ok := methodAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Methods lists every method.
func Methods() []Method {
	return []Method{Epsilon, Weighted, Approx, Quantum}
}

var (
	ErrUnknownMethod    = errors.New("unknown method")
	ErrDegenerateRange  = errors.New("objective range has zero width")
	ErrWeightOverflow   = errors.New("scaled weighted objective does not fit in an int64")
	ErrStalled          = errors.New("right-hand side did not decrease")
	ErrNoExternalRunner = errors.New("no external runner configured")
)

// Config is passed explicitly to every enumerator.
type Config struct {
	// Oracle creates the oracle of each enumeration. Nil means the pseudo-boolean backend.
	Oracle oracle.Factory
	// Tolerance used when turning objective values into right-hand sides.
	Tolerance float64
	// Precision of the archive keys. Zero means archive.DefaultPrecision.
	Precision int
	// Metrics, if set, receives oracle call observations.
	Metrics *metrics.Metrics
	// External runs the Approx and Quantum methods.
	External ExternalRunner
}

func (c Config) withDefaults() Config {
	if c.Oracle == nil {
		c.Oracle, _ = oracle.NewFactory(oracle.BackendPseudoBoolean, oracle.Options{Tolerance: c.Tolerance})
	}
	if c.Tolerance <= 0 {
		c.Tolerance = framework.DefaultTolerance
	}
	if c.Precision <= 0 {
		c.Precision = archive.DefaultPrecision
	}
	return c
}

func (c Config) archive(solutions []*framework.Solution) *archive.Archive {
	return archive.FromSolutions(solutions, archive.WithPrecision(c.Precision))
}

func (c Config) session(ctx context.Context, p *framework.Problem, m Method) (*session.Session, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem %q: %w", p.Name, err)
	}
	return session.New(ctx, p, c.Oracle(),
		session.WithTolerance(c.Tolerance),
		session.WithMetrics(c.Metrics, m.String()))
}

// Result is the outcome of one enumeration.
type Result struct {
	Archive *archive.Archive
	// Raw is the number of solutions returned before archiving.
	Raw int
	// OracleCalls made by the enumeration.
	OracleCalls int
}

// Enumerator computes the Pareto front of a problem.
type Enumerator interface {
	framework.Algorithm
	Method() Method
	Enumerate(ctx context.Context, p *framework.Problem) (*Result, error)
}

// New returns the enumerator of the given method.
func New(m Method, cfg Config) (Enumerator, error) {
	cfg = cfg.withDefaults()
	switch m {
	case Epsilon:
		return &EpsilonEnumerator{cfg: cfg}, nil
	case Weighted:
		return &WeightedEnumerator{cfg: cfg}, nil
	case Approx, Quantum:
		return &ExternalEnumerator{method: m, cfg: cfg}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, m)
}

func finish(ctx context.Context, e Enumerator, cfg Config, p *framework.Problem, raw []*framework.Solution, calls int) *Result {
	res := &Result{Archive: cfg.archive(raw), Raw: len(raw), OracleCalls: calls}
	klog.FromContext(ctx).V(2).Info("Enumeration finished", "method", e.Name(), "problem", p.Name,
		"oracleCalls", calls, "raw", res.Raw, "front", res.Archive.Len())
	return res
}
