package multiobjective

import (
	"fmt"

	"k8s.io/utils/ptr"

	"github.com/nrp-moip/moip/apis/config/v1alpha1"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/nrp"
)

// LoadTaskProblem reads the problem of a task. A task with model args names a raw NRP
// instance, which is modelled with the requested form.
func LoadTaskProblem(task v1alpha1.Task) (*framework.Problem, error) {
	if task.Model == nil {
		return framework.LoadProblem(task.Problem)
	}
	in, err := nrp.Load(task.Problem)
	if err != nil {
		return nil, err
	}
	p, _, err := nrp.Model(in, nrp.Form(task.Model.Form), ModelOptions(task.Model))
	if err != nil {
		return nil, fmt.Errorf("modelling %s: %w", task.Problem, err)
	}
	p.Name = task.Project
	return p, nil
}

// ModelOptions converts the config model args into nrp options.
func ModelOptions(args *v1alpha1.ModelArgs) nrp.Options {
	return nrp.Options{
		MaxCost:         limit(args.MaxCost),
		MinProfit:       limit(args.MinProfit),
		MinRequirements: limit(args.MinRequirements),
		MinCustomers:    limit(args.MinCustomers),
		Budget:          ptr.Deref(args.Budget, 0),
	}
}

func limit(l *v1alpha1.Limit) *nrp.Limit {
	if l == nil {
		return nil
	}
	return &nrp.Limit{Value: l.Value, Ratio: l.Ratio}
}
