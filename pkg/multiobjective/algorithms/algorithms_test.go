package algorithms

import (
	"context"
	"fmt"
	"math/big"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrp-moip/moip/pkg/multiobjective/benchmarks"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/nrp"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
)

const solveTimeout = 10 * time.Second

// timedOracle turns a Solve that does not return within solveTimeout into an error.
type timedOracle struct {
	oracle.Oracle
}

func (o timedOracle) Solve(ctx context.Context) (*oracle.Result, error) {
	type answer struct {
		res *oracle.Result
		err error
	}
	done := make(chan answer, 1)
	go func() {
		res, err := o.Oracle.Solve(ctx)
		done <- answer{res, err}
	}()
	select {
	case a := <-done:
		return a.res, a.err
	case <-time.After(solveTimeout):
		return nil, fmt.Errorf("solve did not return within %v", solveTimeout)
	}
}

func factory(t *testing.T, backend string) oracle.Factory {
	t.Helper()
	f, err := oracle.NewFactory(backend, oracle.Options{})
	require.NoError(t, err)
	return func() oracle.Oracle {
		return timedOracle{f()}
	}
}

func enumerate(t *testing.T, m Method, backend string, p *framework.Problem) *Result {
	t.Helper()
	e, err := New(m, Config{Oracle: factory(t, backend)})
	require.NoError(t, err)
	res, err := e.Enumerate(context.Background(), p)
	require.NoError(t, err)
	return res
}

func TestToyScenario(t *testing.T) {
	toy := benchmarks.NewToy()
	tests := []struct {
		method    Method
		wantCalls int
		wantRaw   int
	}{
		{method: Epsilon, wantCalls: 9, wantRaw: 9},
		{method: Weighted, wantCalls: 6, wantRaw: 5},
	}
	for _, tt := range tests {
		for _, backend := range oracle.Backends() {
			t.Run(fmt.Sprintf("%s/%s", tt.method, backend), func(t *testing.T) {
				res := enumerate(t, tt.method, backend, toy.Problem())
				if diff := cmp.Diff(toy.TrueParetoFront(), res.Archive.Points()); diff != "" {
					t.Errorf("front mismatch (-want +got):\n%s", diff)
				}
				assert.Equal(t, tt.wantCalls, res.OracleCalls)
				assert.Equal(t, tt.wantRaw, res.Raw)
			})
		}
	}
}

// modelled is a release planning model with its brute force front.
type modelled struct {
	name    string
	problem *framework.Problem
}

func (m modelled) Name() string                { return m.name }
func (m modelled) Problem() *framework.Problem { return m.problem }
func (m modelled) TrueParetoFront() []framework.ObjectiveSpacePoint {
	return benchmarks.BruteForceFront(m.problem)
}

// randomInstance has requirements 0..n-1 and customers from 100 on.
func randomInstance(rng *rand.Rand) *nrp.Instance {
	in := &nrp.Instance{Profit: map[int]int{}, Cost: map[int]int{}}
	requirements := 3 + rng.IntN(4)
	for r := 0; r < requirements; r++ {
		in.Cost[r] = 1 + rng.IntN(6)
	}
	customers := 2 + rng.IntN(2)
	for c := 0; c < customers; c++ {
		id := 100 + c
		in.Profit[id] = 1 + rng.IntN(9)
		in.Requests = append(in.Requests, [2]int{id, rng.IntN(requirements)})
		for r := 0; r < requirements; r++ {
			if rng.IntN(3) == 0 {
				in.Requests = append(in.Requests, [2]int{id, r})
			}
		}
	}
	for r := 1; r < requirements; r++ {
		if rng.IntN(2) == 0 {
			in.Dependencies = append(in.Dependencies, [2]int{rng.IntN(r), r})
		}
	}
	return in
}

func releasePlanningBenchmarks(t *testing.T) []benchmarks.Benchmark {
	t.Helper()
	instances := []*nrp.Instance{{
		Profit:       map[int]int{10: 5, 11: 3},
		Cost:         map[int]int{1: 2, 2: 4, 3: 1},
		Requests:     [][2]int{{10, 2}, {11, 3}},
		Dependencies: [][2]int{{1, 2}},
	}}
	rng := rand.New(rand.NewPCG(17, 4))
	for i := 0; i < 3; i++ {
		instances = append(instances, randomInstance(rng))
	}
	forms := []struct {
		form nrp.Form
		opts nrp.Options
	}{
		{form: nrp.Binary},
		{form: nrp.BinaryConstrained, opts: nrp.Options{
			MaxCost:   &nrp.Limit{Value: 0.7, Ratio: true},
			MinProfit: &nrp.Limit{Value: 0.2, Ratio: true},
		}},
		{form: nrp.SingleCustomers, opts: nrp.Options{Budget: 0.5}},
	}
	var out []benchmarks.Benchmark
	for i, in := range instances {
		for _, f := range forms {
			p, _, err := nrp.Model(in, f.form, f.opts)
			require.NoError(t, err)
			out = append(out, modelled{name: fmt.Sprintf("nrp%d-%s", i, f.form), problem: p})
		}
	}
	return out
}

func TestEnumeratorsAreComplete(t *testing.T) {
	instances := releasePlanningBenchmarks(t)
	for seed := uint64(1); seed <= 6; seed++ {
		instances = append(instances,
			benchmarks.NewRandom(benchmarks.RandomOptions{
				Seed: seed, NumVars: 6 + int(seed%4), NumObjectives: 2, NumKnapsacks: 1, NumPrecedence: 2, Spread: 4,
			}),
			benchmarks.NewRandom(benchmarks.RandomOptions{
				Seed: seed, NumVars: 5 + int(seed%3), NumObjectives: 3, NumKnapsacks: 1, NumPrecedence: 1, Spread: 2,
			}),
		)
	}
	for _, b := range instances {
		want := b.TrueParetoFront()
		backends := []string{oracle.BackendExhaustive, oracle.BackendPseudoBoolean}
		if _, ok := b.(modelled); ok {
			backends = oracle.Backends()
		}
		for _, m := range []Method{Epsilon, Weighted} {
			for _, backend := range backends {
				t.Run(fmt.Sprintf("%s/%s/%s", b.Name(), m, backend), func(t *testing.T) {
					res := enumerate(t, m, backend, b.Problem())
					if diff := cmp.Diff(want, res.Archive.Points(), cmpopts.EquateEmpty()); diff != "" {
						t.Errorf("front mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestSimplexBackendFront(t *testing.T) {
	b := benchmarks.NewRandom(benchmarks.RandomOptions{
		Seed: 11, NumVars: 7, NumObjectives: 2, NumKnapsacks: 2, NumPrecedence: 2, Spread: 3,
	})
	for _, m := range []Method{Epsilon, Weighted} {
		res := enumerate(t, m, oracle.BackendSimplex, b.Problem())
		if diff := cmp.Diff(b.TrueParetoFront(), res.Archive.Points()); diff != "" {
			t.Errorf("%s front mismatch (-want +got):\n%s", m, diff)
		}
	}
}

func TestWeightedNeedsFewerCalls(t *testing.T) {
	b := benchmarks.NewRandom(benchmarks.RandomOptions{
		Seed: 3, NumVars: 8, NumObjectives: 3, NumKnapsacks: 1, NumPrecedence: 2, Spread: 3,
	})
	eps := enumerate(t, Epsilon, oracle.BackendExhaustive, b.Problem())
	wtd := enumerate(t, Weighted, oracle.BackendExhaustive, b.Problem())
	require.True(t, eps.Archive.Keys().Equal(wtd.Archive.Keys()))
	assert.Less(t, wtd.OracleCalls, eps.OracleCalls)
}

func TestGuardsReleasedAfterEnumeration(t *testing.T) {
	for _, m := range []Method{Epsilon, Weighted} {
		var last oracle.Oracle
		cfg := Config{Oracle: func() oracle.Oracle {
			last = oracle.NewExhaustive(oracle.Options{})
			return last
		}}
		e, err := New(m, cfg)
		require.NoError(t, err)
		p := benchmarks.NewToy().Problem()
		_, err = e.Enumerate(context.Background(), p)
		require.NoError(t, err)
		assert.ErrorIs(t, last.DeleteConstraint("obj_1"), oracle.ErrUnknownConstraint, "method %s", m)
	}
}

func TestWeightSchedule(t *testing.T) {
	r := framework.NewRounding(0)
	w, err := weightSchedule([]framework.Bounds{{L: -21, H: 0}, {L: 0, H: 8}}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1/9"}, ratStrings(w))

	w, err = weightSchedule([]framework.Bounds{{L: -9, H: 0}, {L: 0, H: 4}, {L: -2, H: 3}}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1/30", "1/6"}, ratStrings(w))

	// Bounds read through the tolerance.
	w, err = weightSchedule([]framework.Bounds{{}, {L: -0.0000001, H: 2.0000001}}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1/3"}, ratStrings(w))

	_, err = weightSchedule([]framework.Bounds{{}, {L: 5, H: 2}}, r)
	require.ErrorIs(t, err, ErrDegenerateRange)
}

func ratStrings(w []*big.Rat) []string {
	out := make([]string, len(w))
	for i, x := range w {
		out[i] = x.RatString()
	}
	return out
}

func TestCombinedObjective(t *testing.T) {
	p := benchmarks.NewToy().Problem()
	w, err := weightSchedule(framework.Boundaries(p), framework.NewRounding(0))
	require.NoError(t, err)
	row, scale, err := combinedObjective(p, w)
	require.NoError(t, err)
	assert.Equal(t, "9", scale.String())
	assert.Equal(t, framework.Row{0: -87, 1: -43, 2: -6, 3: -45}, row)

	huge := &framework.Problem{
		Variables:  []int{0},
		Objectives: []framework.Row{{0: 1e15}, {0: 1e15}},
	}
	w, err = weightSchedule(framework.Boundaries(huge), framework.NewRounding(0))
	require.NoError(t, err)
	_, _, err = combinedObjective(huge, w)
	require.ErrorIs(t, err, ErrWeightOverflow)
}

func TestMalformedProblem(t *testing.T) {
	p := benchmarks.NewToy().Problem()
	p.Objectives[1][9] = 1
	for _, m := range []Method{Epsilon, Weighted} {
		e, err := New(m, Config{})
		require.NoError(t, err)
		_, err = e.Enumerate(context.Background(), p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "objectives[1][9]")
	}
}

func TestExternalEnumerator(t *testing.T) {
	p := benchmarks.NewToy().Problem()
	p.Inequations = []framework.Row{{0: 1, 1: 1, 4: 1}}

	e, err := New(Approx, Config{})
	require.NoError(t, err)
	_, err = e.Enumerate(context.Background(), p)
	require.ErrorIs(t, err, ErrNoExternalRunner)

	runner := ExternalRunnerFunc(func(_ context.Context, m Method, p *framework.Problem) ([]*framework.Solution, error) {
		assert.Equal(t, Quantum, m)
		return []*framework.Solution{
			{Variables: []bool{true, false, false, true}},
			{Variables: []bool{false, true, false, true}},
			{Variables: []bool{true, true, false, false}},
		}, nil
	})
	e, err = New(Quantum, Config{External: runner})
	require.NoError(t, err)
	res, err := e.Enumerate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Raw, "the third assignment breaks the inequation")
	assert.Equal(t, []framework.ObjectiveSpacePoint{{-15, 3}, {-10, 2}}, res.Archive.Points())
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods() {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseMethod(" Epsilon-Constraint ")
	require.NoError(t, err)
	assert.Equal(t, Epsilon, got)
	_, err = ParseMethod("nsga2")
	require.ErrorIs(t, err, ErrUnknownMethod)
	assert.True(t, Weighted.Exact())
	assert.False(t, Quantum.Exact())
}
