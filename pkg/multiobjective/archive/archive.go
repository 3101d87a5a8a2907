package archive

import (
	"cmp"
	"errors"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// DefaultPrecision is the number of decimals kept in canonical keys.
const DefaultPrecision = 6

// ErrDimension is returned when an objective vector does not have the length of the
// vectors already archived.
var ErrDimension = errors.New("objective vector length mismatch")

// Archive keeps mutually non-dominated solutions keyed by their rounded objective vector.
// The zero value is not usable, call New.
type Archive struct {
	precision int
	// dims is the objective count, fixed by the first insert.
	dims    int
	entries map[string]*framework.Solution
}

type Option func(*Archive)

func WithPrecision(precision int) Option {
	return func(a *Archive) {
		if precision >= 0 {
			a.precision = precision
		}
	}
}

func New(opts ...Option) *Archive {
	a := &Archive{
		precision: DefaultPrecision,
		entries:   map[string]*framework.Solution{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromSolutions archives every solution in order.
func FromSolutions(solutions []*framework.Solution, opts ...Option) *Archive {
	a := New(opts...)
	for _, sol := range solutions {
		a.Add(sol)
	}
	return a
}

func (a *Archive) Precision() int {
	return a.precision
}

// Key is the canonical key of an objective vector: every value rounded to the archive
// precision, joined with "_".
func (a *Archive) Key(p framework.ObjectiveSpacePoint) string {
	parts := make([]string, len(p))
	for i, v := range p {
		r := scalar.Round(v, a.precision)
		if r == 0 {
			r = 0 // drop the sign of -0
		}
		parts[i] = strconv.FormatFloat(r, 'f', a.precision, 64)
	}
	return strings.Join(parts, "_")
}

// Add inserts sol unless an entry has the same key or dominates it, and evicts the entries
// sol dominates. It reports whether sol was inserted. A vector whose length differs from
// the archived ones is never inserted.
func (a *Archive) Add(sol *framework.Solution) bool {
	if a.dims > 0 && len(sol.Objectives) != a.dims {
		return false
	}
	key := a.Key(sol.Objectives)
	if _, ok := a.entries[key]; ok {
		return false
	}
	for _, e := range a.entries {
		if framework.Dominates(e.Objectives, sol.Objectives) {
			return false
		}
	}
	for k, e := range a.entries {
		if framework.Dominates(sol.Objectives, e.Objectives) {
			delete(a.entries, k)
		}
	}
	a.entries[key] = sol
	a.dims = len(sol.Objectives)
	return true
}

// Merge adds every solution of other and returns how many were inserted.
func (a *Archive) Merge(other *Archive) int {
	added := 0
	for _, sol := range other.Solutions() {
		if a.Add(sol) {
			added++
		}
	}
	return added
}

// Dims is the objective count of the archived vectors, 0 while the archive is empty.
func (a *Archive) Dims() int {
	return a.dims
}

func (a *Archive) Len() int {
	return len(a.entries)
}

// Has reports whether an entry has the same key as p.
func (a *Archive) Has(p framework.ObjectiveSpacePoint) bool {
	_, ok := a.entries[a.Key(p)]
	return ok
}

func (a *Archive) Keys() sets.Set[string] {
	return sets.KeySet(a.entries)
}

// Solutions returns the entries ordered lexicographically by objective vector.
func (a *Archive) Solutions() []*framework.Solution {
	out := make([]*framework.Solution, 0, len(a.entries))
	for _, sol := range a.entries {
		out = append(out, sol)
	}
	slices.SortFunc(out, func(x, y *framework.Solution) int {
		return slices.CompareFunc(x.Objectives, y.Objectives, cmp.Compare[float64])
	})
	return out
}

// Points returns the objective vectors in Solutions order.
func (a *Archive) Points() []framework.ObjectiveSpacePoint {
	sols := a.Solutions()
	out := make([]framework.ObjectiveSpacePoint, len(sols))
	for i, sol := range sols {
		out[i] = sol.Objectives
	}
	return out
}
