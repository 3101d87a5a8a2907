package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrp-moip/moip/pkg/multiobjective/aggregate"
	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
	"github.com/nrp-moip/moip/pkg/multiobjective/benchmarks"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

func TestPlotFronts(t *testing.T) {
	var buf bytes.Buffer
	err := PlotFronts(&buf, "Toy fronts", 0, 1, []Series{
		{Name: "true front", Points: benchmarks.NewToy().TrueParetoFront()},
		{Name: "found", Points: []framework.ObjectiveSpacePoint{{-21, 8}}},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Toy fronts")
	assert.Contains(t, out, "true front")
	assert.Contains(t, out, "found")
	assert.Contains(t, out, "f1(x)")
}

func TestPlotFrontsErrors(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, PlotFronts(&buf, "empty", 0, 1, nil))
	err := PlotFronts(&buf, "flat", 0, 1, []Series{{Name: "single", Points: []framework.ObjectiveSpacePoint{{1}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single")
}

func TestPlotProject(t *testing.T) {
	agg := aggregate.New()
	var sols []*framework.Solution
	for _, p := range benchmarks.NewToy().TrueParetoFront() {
		sols = append(sols, &framework.Solution{Variables: []bool{}, Objectives: p, Constraints: []float64{}})
	}
	agg.Add("toy", "cwmoip", 0, archive.FromSolutions(sols), aggregate.Info{})

	var buf bytes.Buffer
	require.NoError(t, PlotProject(&buf, agg, "toy", 0, 1))
	assert.Contains(t, buf.String(), "cwmoip")
	require.Error(t, PlotProject(&buf, agg, "other", 0, 1))
}
