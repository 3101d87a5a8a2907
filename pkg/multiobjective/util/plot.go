package util

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/nrp-moip/moip/pkg/multiobjective/aggregate"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

// Series is one named set of objective vectors of a plot.
type Series struct {
	Name   string
	Points []framework.ObjectiveSpacePoint
}

var symbols = []string{"circle", "triangle", "rect", "diamond", "pin", "arrow"}

// PlotFronts renders a scatter plot of the given series projected on objectives x and y
// as an HTML page.
func PlotFronts(w io.Writer, title string, x, y int, series []Series) error {
	if len(series) == 0 {
		return errors.New("nothing to plot")
	}
	for _, s := range series {
		for _, p := range s.Points {
			if x < 0 || y < 0 || x >= len(p) || y >= len(p) {
				return fmt.Errorf("series %s: objectives %d and %d out of range for a %d-objective point", s.Name, x, y, len(p))
			}
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: fmt.Sprintf("f%d(x)", x),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: fmt.Sprintf("f%d(x)", y),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	for i, s := range series {
		data := make([]opts.ScatterData, len(s.Points))
		for j, p := range s.Points {
			data[j] = opts.ScatterData{
				Value:      []float64{p[x], p[y]},
				Symbol:     symbols[i%len(symbols)],
				SymbolSize: 10,
			}
		}
		scatter.AddSeries(s.Name, data)
	}
	scatter.SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
		charts.WithEmphasisOpts(opts.Emphasis{}),
	)
	return scatter.Render(w)
}

// PlotProject plots the merged front of a project against the front of each method.
func PlotProject(w io.Writer, agg *aggregate.Aggregator, project string, x, y int) error {
	methods := agg.Methods(project)
	if len(methods) == 0 {
		return fmt.Errorf("no results for project %s", project)
	}
	series := []Series{{Name: "Pareto front", Points: agg.Front(project).Points()}}
	for _, m := range methods {
		series = append(series, Series{Name: m, Points: agg.MethodFront(project, m).Points()})
	}
	return PlotFronts(w, fmt.Sprintf("Fronts for %s", project), x, y, series)
}
