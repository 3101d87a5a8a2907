package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// record is one line of an archive file.
type record struct {
	Variables   []int     `json:"variables"`
	Objectives  []float64 `json:"objectives"`
	Constraints []float64 `json:"constraints"`
}

const maxLine = 64 << 20

// Dump writes one JSON object per solution.
func (a *Archive) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, sol := range a.Solutions() {
		rec := record{
			Variables:   make([]int, len(sol.Variables)),
			Objectives:  sol.Objectives,
			Constraints: sol.Constraints,
		}
		for i, v := range sol.Variables {
			if v {
				rec.Variables[i] = 1
			}
		}
		if rec.Constraints == nil {
			rec.Constraints = []float64{}
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads a dump back into a new archive. Every line must carry as many objectives as
// the first one.
func Load(r io.Reader, opts ...Option) (*Archive, error) {
	a := New(opts...)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line, dims := 0, -1
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if dims < 0 {
			dims = len(rec.Objectives)
		} else if len(rec.Objectives) != dims {
			return nil, fmt.Errorf("line %d: %w: %d objectives, want %d", line, ErrDimension, len(rec.Objectives), dims)
		}
		sol := &framework.Solution{
			Variables:   make([]bool, len(rec.Variables)),
			Objectives:  rec.Objectives,
			Constraints: rec.Constraints,
		}
		for i, v := range rec.Variables {
			sol.Variables[i] = v != 0
		}
		a.Add(sol)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// Save dumps the archive to path.
func (a *Archive) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.Dump(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile loads the archive stored at path.
func LoadFile(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return a, nil
}
