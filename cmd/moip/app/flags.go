package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"k8s.io/utils/ptr"

	"github.com/nrp-moip/moip/apis/config/v1alpha1"
	"github.com/nrp-moip/moip/pkg/multiobjective/metrics"
)

// limitValue parses "12" as an absolute limit and "40%" as a ratio of the total.
type limitValue struct {
	limit *v1alpha1.Limit
}

var _ pflag.Value = &limitValue{}

func (l *limitValue) String() string {
	if l.limit == nil {
		return ""
	}
	if l.limit.Ratio {
		return strconv.FormatFloat(l.limit.Value*100, 'f', -1, 64) + "%"
	}
	return strconv.FormatFloat(l.limit.Value, 'f', -1, 64)
}

func (l *limitValue) Set(s string) error {
	ratio := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return fmt.Errorf("invalid limit %q: %w", s, err)
	}
	if ratio {
		v /= 100
	}
	l.limit = &v1alpha1.Limit{Value: v, Ratio: ratio}
	return nil
}

func (l *limitValue) Type() string {
	return "limit"
}

// modelFlags describe how an NRP instance is modelled.
type modelFlags struct {
	form            string
	budget          float64
	maxCost         limitValue
	minProfit       limitValue
	minRequirements limitValue
	minCustomers    limitValue
}

func (f *modelFlags) addFlags(fs *pflag.FlagSet, defaultForm string) {
	fs.StringVar(&f.form, "form", defaultForm, "NRP form: binary, bincst, single or sincus")
	fs.Float64Var(&f.budget, "budget", 0, "Fraction of the total cost available to the single forms")
	fs.Var(&f.maxCost, "max-cost", "bincst: maximum cost, absolute or a percentage of the total")
	fs.Var(&f.minProfit, "min-profit", "bincst: minimum profit, absolute or a percentage of the total")
	fs.Var(&f.minRequirements, "min-requirements", "bincst: minimum number of requirements, absolute or a percentage")
	fs.Var(&f.minCustomers, "min-customers", "bincst: minimum number of customers, absolute or a percentage")
}

// args returns nil when no form is set.
func (f *modelFlags) args() *v1alpha1.ModelArgs {
	if f.form == "" {
		return nil
	}
	args := &v1alpha1.ModelArgs{
		Form:            f.form,
		MaxCost:         f.maxCost.limit,
		MinProfit:       f.minProfit.limit,
		MinRequirements: f.minRequirements.limit,
		MinCustomers:    f.minCustomers.limit,
	}
	if f.budget > 0 {
		args.Budget = ptr.To(f.budget)
	}
	return args
}

// metricsFlags export the collected metrics in the Prometheus text format.
type metricsFlags struct {
	file     string
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (f *metricsFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.file, "metrics-file", "", "Write the collected metrics to this file in the Prometheus text format")
}

func (f *metricsFlags) init() *metrics.Metrics {
	f.registry = prometheus.NewRegistry()
	f.metrics = metrics.New(f.registry)
	return f.metrics
}

func (f *metricsFlags) write() error {
	if f.file == "" || f.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(f.file, f.registry)
}
