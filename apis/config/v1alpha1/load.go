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
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Load decodes a YAML or JSON RunArgs document, resolves task problems relative to the
// file and applies the defaults. Unknown fields are rejected.
func Load(path string) (*RunArgs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	args := &RunArgs{}
	if err := yaml.UnmarshalStrict(data, args); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range args.Tasks {
		if p := args.Tasks[i].Problem; p != "" && !filepath.IsAbs(p) {
			args.Tasks[i].Problem = filepath.Join(dir, p)
		}
	}
	SetDefaults_RunArgs(args)
	return args, nil
}
