package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrp-moip/moip/apis/config/v1alpha1"
	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
	"github.com/nrp-moip/moip/pkg/multiobjective/benchmarks"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewMoipCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const instance = `
profit: {10: 5, 11: 3}
cost: {1: 2, 2: 4, 3: 1}
requests: [[10, 2], [11, 3]]
dependencies: [[1, 2]]
`

func TestModelThenSolve(t *testing.T) {
	dir := t.TempDir()
	inst := filepath.Join(dir, "nrp.yaml")
	require.NoError(t, os.WriteFile(inst, []byte(instance), 0o644))
	problem := filepath.Join(dir, "capped.json")

	_, err := execute(t, "model", inst, "--form", "bincst", "--max-cost", "50%", "-o", problem)
	require.NoError(t, err)
	p, err := framework.LoadProblem(problem)
	require.NoError(t, err)
	assert.Len(t, p.Inequations, 4)

	front := filepath.Join(dir, "front.jsonl")
	metricsFile := filepath.Join(dir, "metrics.prom")
	out, err := execute(t, "solve", problem, "--method", "cwmoip", "--oracle", "exhaustive",
		"--results", filepath.Join(dir, "results"), "-o", front, "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "capped/cwmoip")

	ar, err := archive.LoadFile(front)
	require.NoError(t, err)
	assert.Equal(t, []framework.ObjectiveSpacePoint{{-3, 1}, {0, 0}}, ar.Points())
	assert.FileExists(t, filepath.Join(dir, "results", "capped", "cwmoip", "i_0.json"))

	raw, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "moip_oracle_calls_total")
}

func TestSolveInstanceToStdout(t *testing.T) {
	dir := t.TempDir()
	inst := filepath.Join(dir, "nrp.yaml")
	require.NoError(t, os.WriteFile(inst, []byte(instance), 0o644))

	out, err := execute(t, "solve", inst, "--form", "binary", "--results", filepath.Join(dir, "results"), "-o", "-")
	require.NoError(t, err)
	ar, err := archive.Load(bytes.NewBufferString(firstLines(out, 4)))
	require.NoError(t, err)
	assert.Equal(t, 4, ar.Len())
	assert.Contains(t, out, "nrp/epsilon")
}

func firstLines(s string, n int) string {
	var buf bytes.Buffer
	for _, line := range bytes.SplitAfter([]byte(s), []byte("\n"))[:n] {
		buf.Write(line)
	}
	return buf.String()
}

func TestBatchAggregatePlot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, framework.SaveProblem(filepath.Join(dir, "toy.json"), benchmarks.NewToy().Problem()))
	results := filepath.Join(dir, "results")
	config := fmt.Sprintf(`
apiVersion: %s
kind: RunArgs
oracle: simplex
resultsRoot: %s
parallelism: 2
tasks:
- problem: toy.json
`, v1alpha1.SchemeGroupVersion.String(), results)
	configPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	out, err := execute(t, "batch", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "NON-DOMINATED")
	assert.Contains(t, out, "5/5")

	out, err = execute(t, "aggregate", results)
	require.NoError(t, err)
	assert.Contains(t, out, "cwmoip")
	assert.Contains(t, out, "epsilon")
	front, err := archive.LoadFile(filepath.Join(results, "toy", "front.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, benchmarks.NewToy().TrueParetoFront(), front.Points())

	out, err = execute(t, "plot", results)
	require.NoError(t, err)
	assert.Contains(t, out, "fronts.html")
	assert.FileExists(t, filepath.Join(results, "toy", "fronts.html"))
}

func TestLimitValue(t *testing.T) {
	var l limitValue
	require.NoError(t, l.Set("40%"))
	assert.Equal(t, &v1alpha1.Limit{Value: 0.4, Ratio: true}, l.limit)
	assert.Equal(t, "40%", l.String())
	require.NoError(t, l.Set("12"))
	assert.Equal(t, &v1alpha1.Limit{Value: 12}, l.limit)
	require.Error(t, l.Set("many"))
}
