package aggregate

import (
	"slices"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
)

// Info is the per-run info file.
type Info struct {
	ElapsedTime    float64 `json:"elapsed time"`
	SolutionsFound int     `json:"solutions found"`
	OracleCalls    int     `json:"oracle calls,omitempty"`
}

type run struct {
	iteration int
	archive   *archive.Archive
	info      Info
}

// Aggregator merges the archives of every (project, method, iteration) run. It is safe
// for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	opts     []archive.Option
	projects map[string]map[string][]run
}

// New returns an empty Aggregator. The options configure the merged archives.
func New(opts ...archive.Option) *Aggregator {
	return &Aggregator{opts: opts, projects: map[string]map[string][]run{}}
}

// Add records the archive of one run.
func (a *Aggregator) Add(project, method string, iteration int, ar *archive.Archive, info Info) {
	a.mu.Lock()
	defer a.mu.Unlock()
	methods, ok := a.projects[project]
	if !ok {
		methods = map[string][]run{}
		a.projects[project] = methods
	}
	methods[method] = append(methods[method], run{iteration: iteration, archive: ar, info: info})
	slices.SortFunc(methods[method], func(x, y run) int { return x.iteration - y.iteration })
}

func (a *Aggregator) Projects() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sets.List(sets.KeySet(a.projects))
}

func (a *Aggregator) Methods(project string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sets.List(sets.KeySet(a.projects[project]))
}

// MethodFront merges every iteration of a method.
func (a *Aggregator) MethodFront(project, method string) *archive.Archive {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.methodFront(project, method)
}

func (a *Aggregator) methodFront(project, method string) *archive.Archive {
	out := archive.New(a.opts...)
	for _, r := range a.projects[project][method] {
		out.Merge(r.archive)
	}
	return out
}

// Front merges every method of a project.
func (a *Aggregator) Front(project string) *archive.Archive {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.front(project)
}

func (a *Aggregator) front(project string) *archive.Archive {
	out := archive.New(a.opts...)
	for method := range a.projects[project] {
		out.Merge(a.methodFront(project, method))
	}
	return out
}

// NonDominatedCount is how many objective vectors of the method survive in the project front.
func (a *Aggregator) NonDominatedCount(project, method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	front := a.front(project).Keys()
	return a.methodFront(project, method).Keys().Intersection(front).Len()
}

// Report summarises one project.
type Report struct {
	Project   string
	FrontSize int
	Methods   []MethodReport
}

type MethodReport struct {
	Method       string
	Runs         int
	Found        int
	NonDominated int
	ElapsedTime  float64
	OracleCalls  int
	Iterations   []IterationReport
}

type IterationReport struct {
	Iteration    int
	Found        int
	NonDominated int
	ElapsedTime  float64
}

// Report returns one summary per project, sorted by project and method.
func (a *Aggregator) Report() []Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Report
	for _, project := range sets.List(sets.KeySet(a.projects)) {
		front := a.front(project)
		keys := front.Keys()
		rep := Report{Project: project, FrontSize: front.Len()}
		for _, method := range sets.List(sets.KeySet(a.projects[project])) {
			mf := a.methodFront(project, method)
			mr := MethodReport{
				Method:       method,
				Found:        mf.Len(),
				NonDominated: mf.Keys().Intersection(keys).Len(),
			}
			for _, r := range a.projects[project][method] {
				mr.Runs++
				mr.ElapsedTime += r.info.ElapsedTime
				mr.OracleCalls += r.info.OracleCalls
				mr.Iterations = append(mr.Iterations, IterationReport{
					Iteration:    r.iteration,
					Found:        r.archive.Len(),
					NonDominated: r.archive.Keys().Intersection(keys).Len(),
					ElapsedTime:  r.info.ElapsedTime,
				})
			}
			rep.Methods = append(rep.Methods, mr)
		}
		out = append(out, rep)
	}
	return out
}
