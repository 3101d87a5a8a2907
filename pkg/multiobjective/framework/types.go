package framework

import (
	"slices"
)

// Row is a sparse linear combination keyed by variable id.
type Row map[int]float64

// Evaluate substitutes the 0/1 values into the row. Keys missing from values count as 0,
// and the skip key (usually the constant id) is ignored.
func (r Row) Evaluate(values map[int]bool, skip int) float64 {
	total := 0.0
	for id, coeff := range r {
		if id != skip && values[id] {
			total += coeff
		}
	}
	return total
}

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for id, coeff := range r {
		out[id] = coeff
	}
	return out
}

// IDs returns the row keys in ascending order.
func (r Row) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objective functions f1 and f2, a point
// in the objective space could be [f1(x'), f2(x')], for the input of x'.
type ObjectiveSpacePoint []float64

// Problem is a multi-objective 0/1 integer program. Every objective is minimised;
// objective 0 is the primary one. Each inequation reads
// sum(coeff * var) <= row[ConstantID()], with a missing constant meaning 0.
type Problem struct {
	Name        string `json:"name,omitempty"`
	Variables   []int  `json:"variables"`
	Objectives  []Row  `json:"objectives"`
	Inequations []Row  `json:"inequations"`
}

// ConstantID is the synthetic key holding the constant term of an inequation.
func (p *Problem) ConstantID() int {
	return len(p.Variables)
}

// Inequation returns the coefficients of the i-th inequation without its constant,
// together with the constant itself.
func (p *Problem) Inequation(i int) (Row, float64) {
	constID := p.ConstantID()
	row := make(Row, len(p.Inequations[i]))
	for id, coeff := range p.Inequations[i] {
		if id != constID {
			row[id] = coeff
		}
	}
	return row, p.Inequations[i][constID]
}

// Solution is a feasible 0/1 assignment with its objective values and the slack
// (constant - lhs) of every inequation. Solutions are not modified after creation.
type Solution struct {
	Variables   []bool
	Objectives  ObjectiveSpacePoint
	Constraints []float64
}

// NewSolution builds a Solution for the problem, recomputing objectives and slacks from
// the assignment.
func NewSolution(p *Problem, values map[int]bool) *Solution {
	constID := p.ConstantID()
	sol := &Solution{
		Variables:   make([]bool, len(p.Variables)),
		Objectives:  make(ObjectiveSpacePoint, len(p.Objectives)),
		Constraints: make([]float64, len(p.Inequations)),
	}
	for i, id := range p.Variables {
		sol.Variables[i] = values[id]
	}
	for i, obj := range p.Objectives {
		sol.Objectives[i] = obj.Evaluate(values, constID)
	}
	for i, ineq := range p.Inequations {
		sol.Constraints[i] = ineq[constID] - ineq.Evaluate(values, constID)
	}
	return sol
}

// Assignment maps the solution back to variable ids.
func (s *Solution) Assignment(p *Problem) map[int]bool {
	values := make(map[int]bool, len(p.Variables))
	for i, id := range p.Variables {
		if i < len(s.Variables) {
			values[id] = s.Variables[i]
		}
	}
	return values
}

// Feasible reports whether every slack is non-negative within tol.
func (s *Solution) Feasible(tol float64) bool {
	for _, slack := range s.Constraints {
		if slack < -tol {
			return false
		}
	}
	return true
}

// Algorithm describes the contract that a front enumeration algorithm implements.
type Algorithm interface {
	Name() string
}
