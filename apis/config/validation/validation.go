/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package validation

import (
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"

	"github.com/nrp-moip/moip/apis/config/v1alpha1"
	"github.com/nrp-moip/moip/pkg/multiobjective/algorithms"
	"github.com/nrp-moip/moip/pkg/multiobjective/nrp"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
)

const (
	maxPrecision       = 15
	maxTolerance       = 0.5
	maxExhaustiveLimit = 30
)

// ValidateRunArgs validates defaulted RunArgs.
func ValidateRunArgs(path *field.Path, args *v1alpha1.RunArgs) field.ErrorList {
	var allErrs field.ErrorList

	if args.APIVersion != v1alpha1.SchemeGroupVersion.String() {
		allErrs = append(allErrs, field.NotSupported(path.Child("apiVersion"), args.APIVersion, []string{v1alpha1.SchemeGroupVersion.String()}))
	}
	if args.Kind != v1alpha1.Kind {
		allErrs = append(allErrs, field.NotSupported(path.Child("kind"), args.Kind, []string{v1alpha1.Kind}))
	}
	if !sets.New(oracle.Backends()...).Has(args.Oracle) {
		allErrs = append(allErrs, field.NotSupported(path.Child("oracle"), args.Oracle, oracle.Backends()))
	}
	allErrs = append(allErrs, validateMethods(path.Child("methods"), args.Methods)...)

	if args.Precision == nil || *args.Precision < 0 || *args.Precision > maxPrecision {
		allErrs = append(allErrs, field.Invalid(path.Child("precision"), ptr.Deref(args.Precision, 0), "must be between 0 and 15"))
	}
	if args.Tolerance == nil || *args.Tolerance <= 0 || *args.Tolerance >= maxTolerance {
		allErrs = append(allErrs, field.Invalid(path.Child("tolerance"), ptr.Deref(args.Tolerance, 0), "must be in (0, 0.5)"))
	}
	if args.ResultsRoot == "" {
		allErrs = append(allErrs, field.Required(path.Child("resultsRoot"), ""))
	}
	if args.Iterations == nil || *args.Iterations < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("iterations"), ptr.Deref(args.Iterations, 0), "must be at least 1"))
	}
	if args.Parallelism == nil || *args.Parallelism < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("parallelism"), ptr.Deref(args.Parallelism, 0), "must be at least 1"))
	}
	if v := args.MaxExhaustiveVariables; v == nil || *v < 1 || *v > maxExhaustiveLimit {
		allErrs = append(allErrs, field.Invalid(path.Child("maxExhaustiveVariables"), ptr.Deref(v, 0), "must be between 1 and 30"))
	}

	tasksPath := path.Child("tasks")
	if len(args.Tasks) == 0 {
		allErrs = append(allErrs, field.Required(tasksPath, "at least one task"))
	}
	projects := sets.New[string]()
	for i, task := range args.Tasks {
		taskPath := tasksPath.Index(i)
		if task.Problem == "" {
			allErrs = append(allErrs, field.Required(taskPath.Child("problem"), ""))
		}
		if task.Project == "" {
			allErrs = append(allErrs, field.Required(taskPath.Child("project"), ""))
		} else if projects.Has(task.Project) {
			allErrs = append(allErrs, field.Duplicate(taskPath.Child("project"), task.Project))
		}
		projects.Insert(task.Project)
		allErrs = append(allErrs, validateMethods(taskPath.Child("methods"), task.Methods)...)
		if task.Model != nil {
			allErrs = append(allErrs, validateModel(taskPath.Child("model"), task.Model)...)
		}
	}
	return allErrs
}

func validateModel(path *field.Path, args *v1alpha1.ModelArgs) field.ErrorList {
	var allErrs field.ErrorList
	var forms []string
	for _, f := range nrp.Forms() {
		forms = append(forms, string(f))
	}
	form := nrp.Form(args.Form)
	if !sets.New(forms...).Has(args.Form) {
		allErrs = append(allErrs, field.NotSupported(path.Child("form"), args.Form, forms))
	}
	if form == nrp.Single || form == nrp.SingleCustomers {
		if b := ptr.Deref(args.Budget, 0); b <= 0 || b > 1 {
			allErrs = append(allErrs, field.Invalid(path.Child("budget"), b, "must be in (0, 1]"))
		}
	}
	limits := []struct {
		name  string
		limit *v1alpha1.Limit
	}{
		{"maxCost", args.MaxCost},
		{"minProfit", args.MinProfit},
		{"minRequirements", args.MinRequirements},
		{"minCustomers", args.MinCustomers},
	}
	for _, l := range limits {
		if l.limit == nil {
			continue
		}
		if form != nrp.BinaryConstrained {
			allErrs = append(allErrs, field.Forbidden(path.Child(l.name), "only used by the bincst form"))
		} else if l.limit.Value < 0 || (l.limit.Ratio && l.limit.Value > 1) {
			allErrs = append(allErrs, field.Invalid(path.Child(l.name, "value"), l.limit.Value, "must be non-negative, and at most 1 for a ratio"))
		}
	}
	return allErrs
}

func validateMethods(path *field.Path, methods []string) field.ErrorList {
	var allErrs field.ErrorList
	if len(methods) == 0 {
		allErrs = append(allErrs, field.Required(path, ""))
	}
	seen := sets.New[algorithms.Method]()
	for i, name := range methods {
		m, err := algorithms.ParseMethod(name)
		if err != nil {
			allErrs = append(allErrs, field.Invalid(path.Index(i), name, err.Error()))
			continue
		}
		if seen.Has(m) {
			allErrs = append(allErrs, field.Duplicate(path.Index(i), name))
		}
		seen.Insert(m)
	}
	return allErrs
}
