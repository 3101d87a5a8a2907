package multiobjective

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/nrp-moip/moip/apis/config/v1alpha1"
	"github.com/nrp-moip/moip/apis/config/validation"
	"github.com/nrp-moip/moip/pkg/multiobjective/aggregate"
	"github.com/nrp-moip/moip/pkg/multiobjective/algorithms"
	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/metrics"
	"github.com/nrp-moip/moip/pkg/multiobjective/oracle"
)

// Runner executes front enumerations and records their results in a Store and an
// Aggregator.
type Runner struct {
	args     *v1alpha1.RunArgs
	factory  oracle.Factory
	store    *aggregate.Store
	agg      *aggregate.Aggregator
	metrics  *metrics.Metrics
	clock    clock.PassiveClock
	external algorithms.ExternalRunner
}

type Option func(*Runner)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock sets the clock used to time runs.
func WithClock(c clock.PassiveClock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithExternalRunner sets the runner of the approx and quantum methods.
func WithExternalRunner(e algorithms.ExternalRunner) Option {
	return func(r *Runner) {
		r.external = e
	}
}

// New validates the defaulted args and returns a Runner writing under args.ResultsRoot.
func New(ctx context.Context, args *v1alpha1.RunArgs, opts ...Option) (*Runner, error) {
	logger := klog.FromContext(ctx)
	logger.V(5).Info("Creating runner", "oracle", args.Oracle, "tasks", len(args.Tasks))

	if errs := validation.ValidateRunArgs(field.NewPath("args"), args); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	factory, err := oracle.NewFactory(args.Oracle, oracle.Options{
		Tolerance:    *args.Tolerance,
		MaxVariables: int(*args.MaxExhaustiveVariables),
	})
	if err != nil {
		return nil, err
	}
	r := &Runner{
		args:    args,
		factory: factory,
		store:   aggregate.NewStore(args.ResultsRoot),
		agg:     aggregate.New(archive.WithPrecision(int(*args.Precision))),
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) Store() *aggregate.Store {
	return r.store
}

func (r *Runner) Aggregator() *aggregate.Aggregator {
	return r.agg
}

func (r *Runner) config() algorithms.Config {
	return algorithms.Config{
		Oracle:    r.factory,
		Tolerance: *r.args.Tolerance,
		Precision: int(*r.args.Precision),
		Metrics:   r.metrics,
		External:  r.external,
	}
}

// Job is one enumeration of a batch.
type Job struct {
	Project   string
	Method    algorithms.Method
	Iteration int
	Problem   *framework.Problem
}

// Jobs loads every task problem and expands the tasks into one Job per method and
// iteration.
func (r *Runner) Jobs() ([]Job, error) {
	var jobs []Job
	for _, task := range r.args.Tasks {
		p, err := LoadTaskProblem(task)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.Project, err)
		}
		if p.Name == "" {
			p.Name = task.Project
		}
		for _, name := range task.Methods {
			m, err := algorithms.ParseMethod(name)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", task.Project, err)
			}
			for it := 0; it < int(*r.args.Iterations); it++ {
				jobs = append(jobs, Job{Project: task.Project, Method: m, Iteration: it, Problem: p})
			}
		}
	}
	return jobs, nil
}

// Run enumerates the front of one job, persists the archive with its info file and
// records it in the aggregator.
func (r *Runner) Run(ctx context.Context, job Job) (*algorithms.Result, aggregate.Info, error) {
	logger := klog.FromContext(ctx)
	e, err := algorithms.New(job.Method, r.config())
	if err != nil {
		return nil, aggregate.Info{}, err
	}
	logger.V(4).Info("Starting run", "project", job.Project, "method", job.Method, "iteration", job.Iteration)

	start := r.clock.Now()
	res, err := e.Enumerate(ctx, job.Problem)
	if err != nil {
		return nil, aggregate.Info{}, fmt.Errorf("%s/%s/%d: %w", job.Project, job.Method, job.Iteration, err)
	}
	info := aggregate.Info{
		ElapsedTime:    r.clock.Since(start).Seconds(),
		SolutionsFound: res.Raw,
		OracleCalls:    res.OracleCalls,
	}
	if err := r.store.WriteRun(job.Project, job.Method.String(), job.Iteration, res.Archive, info); err != nil {
		return nil, aggregate.Info{}, fmt.Errorf("writing results of %s/%s: %w", job.Project, job.Method, err)
	}
	r.agg.Add(job.Project, job.Method.String(), job.Iteration, res.Archive, info)
	r.metrics.ObserveRun(job.Project, job.Method.String(), res.Raw, res.Archive.Len())

	logger.V(2).Info("Run finished", "project", job.Project, "method", job.Method, "iteration", job.Iteration,
		"elapsed", info.ElapsedTime, "found", info.SolutionsFound, "front", res.Archive.Len())
	return res, info, nil
}

// RunAll runs every job, at most Parallelism at a time, and writes the merged project
// fronts. The first failure cancels the jobs not yet finished.
func (r *Runner) RunAll(ctx context.Context) (*aggregate.Aggregator, error) {
	logger := klog.FromContext(ctx)
	jobs, err := r.Jobs()
	if err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(*r.args.Parallelism))
	for _, job := range jobs {
		g.Go(func() error {
			jobLogger := logger.WithValues("project", job.Project, "method", job.Method.String(), "iteration", job.Iteration)
			_, _, err := r.Run(logr.NewContext(gctx, jobLogger), job)
			if err != nil {
				jobLogger.Error(err, "Run failed")
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := r.store.WriteFronts(r.agg); err != nil {
		return nil, err
	}
	logger.V(2).Info("Batch finished", "jobs", len(jobs), "projects", len(r.agg.Projects()))
	return r.agg, nil
}
