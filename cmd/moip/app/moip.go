package app

import (
	"errors"
	goflag "flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/nrp-moip/moip/apis/config/v1alpha1"
	"github.com/nrp-moip/moip/pkg/multiobjective"
	"github.com/nrp-moip/moip/pkg/multiobjective/aggregate"
	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
	"github.com/nrp-moip/moip/pkg/multiobjective/nrp"
	"github.com/nrp-moip/moip/pkg/multiobjective/util"
)

// NewMoipCommand creates the moip command with its subcommands.
func NewMoipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "moip",
		Short:        "Exact Pareto front enumeration for multi-objective 0/1 integer programs",
		SilenceUsage: true,
	}
	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		newSolveCommand(),
		newBatchCommand(),
		newAggregateCommand(),
		newPlotCommand(),
		newModelCommand(),
	)
	return cmd
}

type solveOptions struct {
	method    string
	oracle    string
	precision int32
	tolerance float64
	results   string
	project   string
	output    string
	model     modelFlags
	metrics   metricsFlags
}

func newSolveCommand() *cobra.Command {
	o := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve PROBLEM",
		Short: "Enumerate the Pareto front of one problem",
		Long: `Enumerate the Pareto front of a problem file. With --form the file is read as a
raw NRP instance and modelled first. The run is stored under --results like a batch run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&o.method, "method", v1alpha1.DefaultMethods[0], "Enumeration method: epsilon, cwmoip, approx or quantum")
	fs.StringVar(&o.oracle, "oracle", v1alpha1.DefaultOracle, "Oracle backend: pbsat, simplex or exhaustive")
	fs.Int32Var(&o.precision, "precision", v1alpha1.DefaultPrecision, "Decimals kept in archive keys")
	fs.Float64Var(&o.tolerance, "tolerance", v1alpha1.DefaultTolerance, "Numeric tolerance")
	fs.StringVar(&o.results, "results", v1alpha1.DefaultResultsRoot, "Results root directory")
	fs.StringVar(&o.project, "project", "", "Project name; defaults to the problem file name")
	fs.StringVarP(&o.output, "output", "o", "", "Also write the archive to this file, - for stdout")
	o.model.addFlags(fs, "")
	o.metrics.addFlags(fs)
	return cmd
}

func (o *solveOptions) run(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	args := &v1alpha1.RunArgs{
		Oracle:      o.oracle,
		Methods:     []string{o.method},
		Precision:   ptr.To(o.precision),
		Tolerance:   ptr.To(o.tolerance),
		ResultsRoot: o.results,
		Parallelism: ptr.To[int32](1),
		Tasks:       []v1alpha1.Task{{Project: o.project, Problem: path, Model: o.model.args()}},
	}
	v1alpha1.SetDefaults_RunArgs(args)
	r, err := multiobjective.New(ctx, args, multiobjective.WithMetrics(o.metrics.init()))
	if err != nil {
		return err
	}
	jobs, err := r.Jobs()
	if err != nil {
		return err
	}
	res, info, err := r.Run(ctx, jobs[0])
	if err != nil {
		return err
	}

	summary := cmd.OutOrStdout()
	switch o.output {
	case "":
	case "-":
		summary = cmd.ErrOrStderr()
		if err := res.Archive.Dump(cmd.OutOrStdout()); err != nil {
			return err
		}
	default:
		if err := res.Archive.Save(o.output); err != nil {
			return err
		}
	}
	fmt.Fprintf(summary, "%s/%s: %s solutions, %s on the front, %s oracle calls in %ss\n",
		jobs[0].Project, jobs[0].Method,
		humanize.Comma(int64(info.SolutionsFound)),
		humanize.Comma(int64(res.Archive.Len())),
		humanize.Comma(int64(info.OracleCalls)),
		humanize.FtoaWithDigits(info.ElapsedTime, 3))
	return o.metrics.write()
}

func newBatchCommand() *cobra.Command {
	var m metricsFlags
	cmd := &cobra.Command{
		Use:   "batch CONFIG",
		Short: "Run every task of a RunArgs file and report the merged fronts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runArgs, err := v1alpha1.Load(args[0])
			if err != nil {
				return err
			}
			r, err := multiobjective.New(cmd.Context(), runArgs, multiobjective.WithMetrics(m.init()))
			if err != nil {
				return err
			}
			agg, err := r.RunAll(cmd.Context())
			if err != nil {
				return err
			}
			if err := printReport(cmd.OutOrStdout(), agg.Report()); err != nil {
				return err
			}
			return m.write()
		},
	}
	m.addFlags(cmd.Flags())
	return cmd
}

func newAggregateCommand() *cobra.Command {
	var precision int
	cmd := &cobra.Command{
		Use:   "aggregate RESULTS",
		Short: "Merge stored runs, write each project front and report per method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := aggregate.NewStore(args[0])
			agg, err := store.Load(archive.WithPrecision(precision))
			if err != nil {
				return err
			}
			if err := store.WriteFronts(agg); err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), agg.Report())
		},
	}
	cmd.Flags().IntVar(&precision, "precision", archive.DefaultPrecision, "Decimals kept in archive keys")
	return cmd
}

func newPlotCommand() *cobra.Command {
	var (
		project string
		output  string
		x, y    int
	)
	cmd := &cobra.Command{
		Use:   "plot RESULTS",
		Short: "Plot the stored fronts of each project as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := aggregate.NewStore(args[0])
			agg, err := store.Load()
			if err != nil {
				return err
			}
			projects := agg.Projects()
			if project != "" {
				projects = []string{project}
			}
			for _, p := range projects {
				path := output
				if path == "" || len(projects) > 1 {
					path = filepath.Join(args[0], p, "fronts.html")
				}
				if err := plotProject(agg, p, path, x, y); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&project, "project", "", "Only plot this project")
	fs.StringVarP(&output, "output", "o", "", "Output file for a single project")
	fs.IntVar(&x, "x", 0, "Objective on the x axis")
	fs.IntVar(&y, "y", 1, "Objective on the y axis")
	return cmd
}

func plotProject(agg *aggregate.Aggregator, project, path string, x, y int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return util.PlotProject(f, agg, project, x, y)
}

func newModelCommand() *cobra.Command {
	var (
		model  modelFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "model INSTANCE",
		Short: "Model a raw NRP instance as a problem file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := nrp.Load(args[0])
			if err != nil {
				return err
			}
			margs := model.args()
			if margs == nil {
				return errors.New("--form is required")
			}
			p, _, err := nrp.Model(in, nrp.Form(margs.Form), multiobjective.ModelOptions(margs))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return framework.WriteProblem(cmd.OutOrStdout(), p)
			}
			return framework.SaveProblem(output, p)
		},
	}
	model.addFlags(cmd.Flags(), string(nrp.Binary))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output problem file, stdout by default")
	return cmd
}

func printReport(w io.Writer, reports []aggregate.Report) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tMETHOD\tRUNS\tFOUND\tNON-DOMINATED\tORACLE CALLS\tELAPSED")
	for _, rep := range reports {
		for _, m := range rep.Methods {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d/%d\t%s\t%ss\n",
				rep.Project, m.Method, m.Runs,
				humanize.Comma(int64(m.Found)),
				m.NonDominated, rep.FrontSize,
				humanize.Comma(int64(m.OracleCalls)),
				humanize.FtoaWithDigits(m.ElapsedTime, 3))
		}
	}
	return tw.Flush()
}
