package nrp

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// Instance is a raw Next Release Problem: customers with a profit, requirements with a
// cost, customer requests and requirement dependencies.
type Instance struct {
	Profit map[int]int `json:"profit"`
	Cost   map[int]int `json:"cost"`
	// Requests holds (customer, requirement) pairs.
	Requests [][2]int `json:"requests"`
	// Dependencies holds (pre, post) pairs: post needs pre.
	Dependencies [][2]int `json:"dependencies,omitempty"`
}

// Load decodes a JSON or YAML instance and validates it.
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in := &Instance{}
	if err := yaml.UnmarshalStrict(data, in); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Validate checks that requests and dependencies reference known ids.
func (in *Instance) Validate() error {
	var allErrs field.ErrorList
	for i, r := range in.Requests {
		path := field.NewPath("requests").Index(i)
		if _, ok := in.Profit[r[0]]; !ok {
			allErrs = append(allErrs, field.NotFound(path.Index(0), r[0]))
		}
		if _, ok := in.Cost[r[1]]; !ok {
			allErrs = append(allErrs, field.NotFound(path.Index(1), r[1]))
		}
	}
	for i, d := range in.Dependencies {
		path := field.NewPath("dependencies").Index(i)
		for j, id := range d {
			if _, ok := in.Cost[id]; !ok {
				allErrs = append(allErrs, field.NotFound(path.Index(j), id))
			}
		}
	}
	for id := range in.Profit {
		if _, ok := in.Cost[id]; ok {
			allErrs = append(allErrs, field.Duplicate(field.NewPath("profit").Key(strconv.Itoa(id)), id))
		}
	}
	if len(allErrs) > 0 {
		return allErrs.ToAggregate()
	}
	return nil
}

// Flatten folds the dependencies into the requests: a customer requesting a requirement
// also requests every transitive precursor of it.
func (in *Instance) Flatten() *Instance {
	pre := map[int][]int{}
	for _, d := range in.Dependencies {
		pre[d[1]] = append(pre[d[1]], d[0])
	}
	precursors := func(req int) sets.Set[int] {
		seen := sets.New[int]()
		stack := []int{req}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, p := range pre[cur] {
				if !seen.Has(p) {
					seen.Insert(p)
					stack = append(stack, p)
				}
			}
		}
		seen.Delete(req)
		return seen
	}

	out := &Instance{Profit: in.Profit, Cost: in.Cost}
	have := sets.New[[2]int]()
	add := func(r [2]int) {
		if !have.Has(r) {
			have.Insert(r)
			out.Requests = append(out.Requests, r)
		}
	}
	for _, r := range in.Requests {
		add(r)
	}
	for _, r := range in.Requests {
		for _, p := range sets.List(precursors(r[1])) {
			add([2]int{r[0], p})
		}
	}
	return out
}

// Encoding maps original ids to variable ids: requirements first, then customers, both
// in ascending original id.
type Encoding struct {
	Requirements map[int]int
	Customers    map[int]int
}

func encode(in *Instance) Encoding {
	enc := Encoding{Requirements: map[int]int{}, Customers: map[int]int{}}
	next := 0
	for _, id := range sets.List(sets.KeySet(in.Cost)) {
		enc.Requirements[id] = next
		next++
	}
	for _, id := range sets.List(sets.KeySet(in.Profit)) {
		enc.Customers[id] = next
		next++
	}
	return enc
}

// Form names a modelling of the instance.
type Form string

const (
	// Binary minimises negated profit and cost.
	Binary Form = "binary"
	// BinaryConstrained is Binary with the optional limits of Options.
	BinaryConstrained Form = "bincst"
	// Single maximises profit under a budget.
	Single Form = "single"
	// SingleCustomers is Single where a requirement is only delivered to a requesting customer.
	SingleCustomers Form = "sincus"
)

// Limit is either an absolute value or, when Ratio is set, a fraction of the total.
type Limit struct {
	Value float64 `json:"value"`
	Ratio bool    `json:"ratio,omitempty"`
}

// Options parameterise the forms.
type Options struct {
	MaxCost         *Limit `json:"maxCost,omitempty"`
	MinProfit       *Limit `json:"minProfit,omitempty"`
	MinRequirements *Limit `json:"minRequirements,omitempty"`
	MinCustomers    *Limit `json:"minCustomers,omitempty"`
	// Budget is the fraction of the total cost available to the single forms.
	Budget float64 `json:"budget,omitempty"`
}

// Forms lists every form.
func Forms() []Form {
	return []Form{Binary, BinaryConstrained, Single, SingleCustomers}
}

var ErrUnknownForm = errors.New("unknown form")

// Model flattens and encodes the instance and builds the requested problem.
func Model(in *Instance, form Form, opts Options) (*framework.Problem, Encoding, error) {
	if err := in.Validate(); err != nil {
		return nil, Encoding{}, err
	}
	flat := in.Flatten()
	enc := encode(flat)
	n := len(enc.Requirements) + len(enc.Customers)
	p := &framework.Problem{Name: string(form), Variables: make([]int, n)}
	for i := range p.Variables {
		p.Variables[i] = i
	}
	constID := p.ConstantID()

	profit := framework.Row{}
	totalProfit := 0
	for id, v := range flat.Profit {
		profit[enc.Customers[id]] = -float64(v)
		totalProfit += v
	}
	cost := framework.Row{}
	totalCost := 0
	for id, v := range flat.Cost {
		cost[enc.Requirements[id]] = float64(v)
		totalCost += v
	}
	// A customer is satisfied only if every requested requirement is delivered.
	for _, r := range flat.Requests {
		p.Inequations = append(p.Inequations, framework.Row{enc.Customers[r[0]]: 1, enc.Requirements[r[1]]: -1})
	}

	switch form {
	case Binary, BinaryConstrained:
		p.Objectives = []framework.Row{profit, cost}
		if form == Binary {
			break
		}
		if l := opts.MaxCost; l != nil {
			row := cost.Clone()
			row[constID] = math.Ceil(l.resolve(totalCost))
			p.Inequations = append(p.Inequations, row)
		}
		if l := opts.MinProfit; l != nil {
			row := profit.Clone()
			row[constID] = -math.Floor(l.resolve(totalProfit))
			p.Inequations = append(p.Inequations, row)
		}
		if l := opts.MinRequirements; l != nil {
			p.Inequations = append(p.Inequations, atLeast(enc.Requirements, l.resolve(len(enc.Requirements)), constID))
		}
		if l := opts.MinCustomers; l != nil {
			p.Inequations = append(p.Inequations, atLeast(enc.Customers, l.resolve(len(enc.Customers)), constID))
		}
	case Single, SingleCustomers:
		if opts.Budget <= 0 || opts.Budget > 1 {
			return nil, Encoding{}, fmt.Errorf("form %s needs a budget in (0, 1], got %v", form, opts.Budget)
		}
		p.Objectives = []framework.Row{profit}
		if form == SingleCustomers {
			// A requirement is only delivered if some customer requests it.
			demands := map[int][]int{}
			for _, r := range flat.Requests {
				demands[r[1]] = append(demands[r[1]], r[0])
			}
			for _, req := range sets.List(sets.KeySet(demands)) {
				row := framework.Row{enc.Requirements[req]: 1}
				for _, c := range demands[req] {
					row[enc.Customers[c]] = -1
				}
				p.Inequations = append(p.Inequations, row)
			}
		}
		row := cost.Clone()
		row[constID] = float64(totalCost) * opts.Budget
		p.Inequations = append(p.Inequations, row)
	default:
		return nil, Encoding{}, fmt.Errorf("%w: %q", ErrUnknownForm, form)
	}
	return p, enc, nil
}

func (l *Limit) resolve(total int) float64 {
	if l.Ratio {
		return l.Value * float64(total)
	}
	return l.Value
}

func atLeast(ids map[int]int, count float64, constID int) framework.Row {
	row := framework.Row{}
	vars := make([]int, 0, len(ids))
	for _, v := range ids {
		vars = append(vars, v)
	}
	slices.Sort(vars)
	for _, v := range vars {
		row[v] = -1
	}
	row[constID] = -math.Floor(count)
	return row
}
