package framework

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"sigs.k8s.io/yaml"
)

// UnmarshalJSON accepts both plain arrays and index-keyed objects such as
// {"objectives": {"0": {...}, "1": {...}}} for every list field.
func (p *Problem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string          `json:"name"`
		Variables   json.RawMessage `json:"variables"`
		Objectives  json.RawMessage `json:"objectives"`
		Inequations json.RawMessage `json:"inequations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	vars, err := decodeIndexed[int](raw.Variables)
	if err != nil {
		return fmt.Errorf("decoding variables: %w", err)
	}
	objs, err := decodeIndexed[Row](raw.Objectives)
	if err != nil {
		return fmt.Errorf("decoding objectives: %w", err)
	}
	ineqs, err := decodeIndexed[Row](raw.Inequations)
	if err != nil {
		return fmt.Errorf("decoding inequations: %w", err)
	}
	*p = Problem{Name: raw.Name, Variables: vars, Objectives: objs, Inequations: ineqs}
	return nil
}

func decodeIndexed[T any](msg json.RawMessage) ([]T, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return nil, nil
	}
	if msg[0] != '{' {
		var out []T
		err := json.Unmarshal(msg, &out)
		return out, err
	}
	var keyed map[string]T
	if err := json.Unmarshal(msg, &keyed); err != nil {
		return nil, err
	}
	indices := make([]int, 0, len(keyed))
	byIndex := make(map[int]T, len(keyed))
	for key, v := range keyed {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("index %q is not an integer", key)
		}
		indices = append(indices, idx)
		byIndex[idx] = v
	}
	slices.Sort(indices)
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = byIndex[idx]
	}
	return out, nil
}

// ReadProblem decodes a JSON or YAML problem and validates it.
func ReadProblem(r io.Reader) (*Problem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &Problem{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decoding problem: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}
	return p, nil
}

// LoadProblem reads and validates the problem stored at path.
func LoadProblem(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadProblem(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteProblem encodes the problem as indented JSON.
func WriteProblem(w io.Writer, p *Problem) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// SaveProblem writes the problem to path.
func SaveProblem(path string, p *Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteProblem(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
