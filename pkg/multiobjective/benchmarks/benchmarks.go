package benchmarks

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// Benchmark is a problem with a known Pareto front, used to test the correctness
// of the enumerators.
type Benchmark interface {
	Name() string
	Problem() *framework.Problem
	TrueParetoFront() []framework.ObjectiveSpacePoint
}

const (
	ToyName = "ToyNRP"
)

// Toy is a four-requirement release planning instance: objective 0 is the negated profit
// and objective 1 the cost.
type Toy struct{}

func NewToy() *Toy {
	return &Toy{}
}

func (b *Toy) Name() string {
	return ToyName
}

func (b *Toy) Problem() *framework.Problem {
	return &framework.Problem{
		Name:      ToyName,
		Variables: []int{0, 1, 2, 3},
		Objectives: []framework.Row{
			{0: -10, 1: -5, 2: -1, 3: -5},
			{0: 3, 1: 2, 2: 3, 3: 0},
		},
	}
}

// TrueParetoFront of the toy instance. The free requirement 3 is in every efficient
// release and requirement 2 in none but the full one.
func (b *Toy) TrueParetoFront() []framework.ObjectiveSpacePoint {
	return []framework.ObjectiveSpacePoint{
		{-21, 8},
		{-20, 5},
		{-15, 3},
		{-10, 2},
		{-5, 0},
	}
}

// Random is a seeded instance with integral coefficients in [-Spread, Spread], knapsack
// rows and precedence rows between variables.
type Random struct {
	name    string
	problem *framework.Problem
}

// RandomOptions shape a Random instance.
type RandomOptions struct {
	Seed          uint64
	NumVars       int
	NumObjectives int
	NumKnapsacks  int
	NumPrecedence int
	Spread        int
}

func NewRandom(opts RandomOptions) *Random {
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(opts.NumVars)))
	spread := max(opts.Spread, 1)
	p := &framework.Problem{
		Name:      fmt.Sprintf("random-%d-%dx%d", opts.Seed, opts.NumVars, opts.NumObjectives),
		Variables: make([]int, opts.NumVars),
	}
	for i := range p.Variables {
		p.Variables[i] = i
	}
	constID := p.ConstantID()
	for k := 0; k < opts.NumObjectives; k++ {
		row := framework.Row{}
		for _, id := range p.Variables {
			if c := rng.IntN(2*spread+1) - spread; c != 0 {
				row[id] = float64(c)
			}
		}
		p.Objectives = append(p.Objectives, row)
	}
	for k := 0; k < opts.NumKnapsacks; k++ {
		row := framework.Row{}
		total := 0
		for _, id := range p.Variables {
			c := rng.IntN(spread + 1)
			if c != 0 {
				row[id] = float64(c)
				total += c
			}
		}
		row[constID] = float64(total / 2)
		p.Inequations = append(p.Inequations, row)
	}
	for k := 0; k < opts.NumPrecedence && opts.NumVars > 1; k++ {
		a := rng.IntN(opts.NumVars)
		b := (a + 1 + rng.IntN(opts.NumVars-1)) % opts.NumVars
		// a requires b
		p.Inequations = append(p.Inequations, framework.Row{a: 1, b: -1})
	}
	return &Random{name: p.Name, problem: p}
}

func (b *Random) Name() string {
	return b.name
}

func (b *Random) Problem() *framework.Problem {
	return b.problem
}

func (b *Random) TrueParetoFront() []framework.ObjectiveSpacePoint {
	return BruteForceFront(b.problem)
}

// BruteForceFront enumerates every assignment of p and returns the non-dominated objective
// vectors in lexicographic order. Only usable for small problems.
func BruteForceFront(p *framework.Problem) []framework.ObjectiveSpacePoint {
	n := len(p.Variables)
	var points []framework.ObjectiveSpacePoint
	for mask := 0; mask < 1<<n; mask++ {
		values := make(map[int]bool, n)
		for i, id := range p.Variables {
			values[id] = mask&(1<<i) != 0
		}
		sol := framework.NewSolution(p, values)
		if sol.Feasible(framework.DefaultTolerance) {
			points = append(points, sol.Objectives)
		}
	}
	front := framework.ParetoFront(points)
	SortPoints(front)
	return front
}

// SortPoints orders points lexicographically.
func SortPoints(points []framework.ObjectiveSpacePoint) {
	slices.SortFunc(points, func(x, y framework.ObjectiveSpacePoint) int {
		return slices.CompareFunc(x, y, cmp.Compare[float64])
	})
}
