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
	"path/filepath"
	"runtime"
	"strings"

	"k8s.io/utils/ptr"
)

var (
	DefaultOracle           = "pbsat"
	DefaultMethods          = []string{"epsilon", "cwmoip"}
	DefaultPrecision        = int32(6)
	DefaultTolerance        = 1e-6
	DefaultResultsRoot      = "results"
	DefaultIterations       = int32(1)
	DefaultMaxExhaustiveVar = int32(24)
)

// SetDefaults_RunArgs sets the default parameters for a batch run.
func SetDefaults_RunArgs(obj *RunArgs) {
	if obj.APIVersion == "" {
		obj.APIVersion = SchemeGroupVersion.String()
	}
	if obj.Kind == "" {
		obj.Kind = Kind
	}
	if obj.Oracle == "" {
		obj.Oracle = DefaultOracle
	}
	if len(obj.Methods) == 0 {
		obj.Methods = append([]string(nil), DefaultMethods...)
	}
	if obj.Precision == nil {
		obj.Precision = ptr.To(DefaultPrecision)
	}
	if obj.Tolerance == nil {
		obj.Tolerance = ptr.To(DefaultTolerance)
	}
	if obj.ResultsRoot == "" {
		obj.ResultsRoot = DefaultResultsRoot
	}
	if obj.Iterations == nil {
		obj.Iterations = ptr.To(DefaultIterations)
	}
	if obj.Parallelism == nil {
		obj.Parallelism = ptr.To(int32(runtime.NumCPU()))
	}
	if obj.MaxExhaustiveVariables == nil {
		obj.MaxExhaustiveVariables = ptr.To(DefaultMaxExhaustiveVar)
	}
	for i := range obj.Tasks {
		task := &obj.Tasks[i]
		if task.Project == "" && task.Problem != "" {
			base := filepath.Base(task.Problem)
			task.Project = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if len(task.Methods) == 0 {
			task.Methods = append([]string(nil), obj.Methods...)
		}
	}
}
