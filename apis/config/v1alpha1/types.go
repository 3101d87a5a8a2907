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

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupName is the group name used in this package
const GroupName = "moip.nrp.io"

// SchemeGroupVersion is group version used to register these objects
var SchemeGroupVersion = schema.GroupVersion{Group: GroupName, Version: "v1alpha1"}

// Kind of RunArgs documents.
const Kind = "RunArgs"

// RunArgs configures a batch of front enumerations.
type RunArgs struct {
	metav1.TypeMeta `json:",inline"`

	// Oracle is the single-objective backend: pbsat, simplex or exhaustive.
	// +optional
	Oracle string `json:"oracle,omitempty"`
	// Methods run for every task that does not list its own.
	// +optional
	Methods []string `json:"methods,omitempty"`
	// Precision is the number of decimals of the archive keys.
	// +optional
	Precision *int32 `json:"precision,omitempty"`
	// Tolerance used by the rounding rule and the feasibility checks.
	// +optional
	Tolerance *float64 `json:"tolerance,omitempty"`
	// ResultsRoot is the directory results are written under.
	// +optional
	ResultsRoot string `json:"resultsRoot,omitempty"`
	// Iterations is how many times each (task, method) pair runs.
	// +optional
	Iterations *int32 `json:"iterations,omitempty"`
	// Parallelism bounds the number of runs in flight. Each run owns its oracle.
	// +optional
	Parallelism *int32 `json:"parallelism,omitempty"`
	// MaxExhaustiveVariables caps the exhaustive backend.
	// +optional
	MaxExhaustiveVariables *int32 `json:"maxExhaustiveVariables,omitempty"`

	Tasks []Task `json:"tasks"`
}

// Task is one problem to enumerate.
type Task struct {
	// Project names the results directory. Defaults to the problem file name.
	// +optional
	Project string `json:"project,omitempty"`
	// Problem is the path of the problem file, relative to the config file.
	Problem string `json:"problem"`
	// +optional
	Methods []string `json:"methods,omitempty"`
	// Model, when set, marks Problem as a raw NRP instance to be modelled first.
	// +optional
	Model *ModelArgs `json:"model,omitempty"`
}

// ModelArgs selects how an NRP instance becomes a problem.
type ModelArgs struct {
	// Form is one of binary, bincst, single or sincus.
	Form string `json:"form"`
	// Budget is the fraction of the total cost available to the single forms.
	// +optional
	Budget *float64 `json:"budget,omitempty"`
	// +optional
	MaxCost *Limit `json:"maxCost,omitempty"`
	// +optional
	MinProfit *Limit `json:"minProfit,omitempty"`
	// +optional
	MinRequirements *Limit `json:"minRequirements,omitempty"`
	// +optional
	MinCustomers *Limit `json:"minCustomers,omitempty"`
}

// Limit is an absolute value or, with Ratio, a fraction of the instance total.
type Limit struct {
	Value float64 `json:"value"`
	// +optional
	Ratio bool `json:"ratio,omitempty"`
}
