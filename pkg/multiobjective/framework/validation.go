package framework

import (
	"fmt"
	"math"
	"strconv"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidateProblem checks the structural invariants of a problem. Each error names the
// offending path, e.g. objectives[1][7].
func ValidateProblem(p *Problem) field.ErrorList {
	var allErrs field.ErrorList
	constID := p.ConstantID()
	rounding := NewRounding(DefaultTolerance)

	varsPath := field.NewPath("variables")
	declared := sets.New[int]()
	for i, id := range p.Variables {
		if declared.Has(id) {
			allErrs = append(allErrs, field.Duplicate(varsPath.Index(i), id))
		}
		if id == constID {
			allErrs = append(allErrs, field.Invalid(varsPath.Index(i), id,
				fmt.Sprintf("collides with the constant id %d", constID)))
		}
		declared.Insert(id)
	}

	objPath := field.NewPath("objectives")
	if len(p.Objectives) == 0 {
		allErrs = append(allErrs, field.Required(objPath, "at least one objective is needed"))
	}
	for i, obj := range p.Objectives {
		for _, id := range obj.IDs() {
			path := objPath.Index(i).Key(strconv.Itoa(id))
			coeff := obj[id]
			switch {
			case id == constID:
				allErrs = append(allErrs, field.Invalid(path, coeff, "objectives have no constant term"))
			case !declared.Has(id):
				allErrs = append(allErrs, field.NotFound(path, id))
			case math.IsNaN(coeff) || math.IsInf(coeff, 0):
				allErrs = append(allErrs, field.Invalid(path, coeff, "must be finite"))
			case !rounding.IsIntegral(coeff):
				allErrs = append(allErrs, field.Invalid(path, coeff, "objective coefficients must be integral"))
			}
		}
	}

	ineqPath := field.NewPath("inequations")
	for i, ineq := range p.Inequations {
		for _, id := range ineq.IDs() {
			path := ineqPath.Index(i).Key(strconv.Itoa(id))
			coeff := ineq[id]
			if id != constID && !declared.Has(id) {
				allErrs = append(allErrs, field.NotFound(path, id))
				continue
			}
			if math.IsNaN(coeff) || math.IsInf(coeff, 0) {
				allErrs = append(allErrs, field.Invalid(path, coeff, "must be finite"))
			}
		}
	}
	return allErrs
}

// Validate returns the aggregated validation errors of the problem, or nil.
func (p *Problem) Validate() error {
	if errs := ValidateProblem(p); len(errs) > 0 {
		return errs.ToAggregate()
	}
	return nil
}
