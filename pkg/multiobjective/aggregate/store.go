package aggregate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
)

const (
	solutionsPrefix = "s_"
	infoPrefix      = "i_"
	frontFile       = "front.jsonl"
)

// Store lays results out as <root>/<project>/<method>/s_<iteration>.jsonl with the info
// file i_<iteration>.json next to it.
type Store struct {
	Root string
}

func NewStore(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) RunDir(project, method string) string {
	return filepath.Join(s.Root, project, method)
}

func (s *Store) SolutionsPath(project, method string, iteration int) string {
	return filepath.Join(s.RunDir(project, method), fmt.Sprintf("%s%d.jsonl", solutionsPrefix, iteration))
}

func (s *Store) InfoPath(project, method string, iteration int) string {
	return filepath.Join(s.RunDir(project, method), fmt.Sprintf("%s%d.json", infoPrefix, iteration))
}

func (s *Store) FrontPath(project string) string {
	return filepath.Join(s.Root, project, frontFile)
}

// WriteRun persists the archive and info file of one run.
func (s *Store) WriteRun(project, method string, iteration int, ar *archive.Archive, info Info) error {
	if err := os.MkdirAll(s.RunDir(project, method), 0o755); err != nil {
		return err
	}
	if err := ar.Save(s.SolutionsPath(project, method, iteration)); err != nil {
		return err
	}
	return WriteInfo(s.InfoPath(project, method, iteration), info)
}

// WriteInfo writes the info file at path.
func WriteInfo(path string, info Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadInfo reads the info file at path.
func ReadInfo(path string) (Info, error) {
	var info Info
	data, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("decoding %s: %w", path, err)
	}
	return info, nil
}

// Load reads every run under the root into an Aggregator. A run without an info file
// gets a zero Info.
func (s *Store) Load(opts ...archive.Option) (*Aggregator, error) {
	agg := New(opts...)
	projects, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		methods, err := os.ReadDir(filepath.Join(s.Root, project.Name()))
		if err != nil {
			return nil, err
		}
		for _, method := range methods {
			if !method.IsDir() {
				continue
			}
			if err := s.loadMethod(agg, project.Name(), method.Name(), opts); err != nil {
				return nil, err
			}
		}
	}
	return agg, nil
}

func (s *Store) loadMethod(agg *Aggregator, project, method string, opts []archive.Option) error {
	entries, err := os.ReadDir(s.RunDir(project, method))
	if err != nil {
		return err
	}
	for _, e := range entries {
		iteration, ok := parseIteration(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		ar, err := archive.LoadFile(s.SolutionsPath(project, method, iteration), opts...)
		if err != nil {
			return err
		}
		info, err := ReadInfo(s.InfoPath(project, method, iteration))
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		agg.Add(project, method, iteration, ar, info)
	}
	return nil
}

func parseIteration(name string) (int, bool) {
	if !strings.HasPrefix(name, solutionsPrefix) || !strings.HasSuffix(name, ".jsonl") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, solutionsPrefix), ".jsonl"))
	return n, err == nil
}

// WriteFronts saves the merged front of every project.
func (s *Store) WriteFronts(agg *Aggregator) error {
	for _, project := range agg.Projects() {
		if err := agg.Front(project).Save(s.FrontPath(project)); err != nil {
			return err
		}
	}
	return nil
}
