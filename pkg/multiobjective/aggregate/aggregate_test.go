package aggregate

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrp-moip/moip/pkg/multiobjective/archive"
	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

func front(points ...framework.ObjectiveSpacePoint) *archive.Archive {
	a := archive.New()
	for _, p := range points {
		a.Add(&framework.Solution{Variables: []bool{true}, Objectives: p, Constraints: []float64{}})
	}
	return a
}

func sample() *Aggregator {
	agg := New()
	agg.Add("p1", "epsilon", 0, front(
		framework.ObjectiveSpacePoint{-5, 0},
		framework.ObjectiveSpacePoint{-10, 2},
	), Info{ElapsedTime: 1.5, SolutionsFound: 2, OracleCalls: 9})
	agg.Add("p1", "approx", 1, front(
		framework.ObjectiveSpacePoint{-9, 2},
		framework.ObjectiveSpacePoint{-15, 3},
	), Info{ElapsedTime: 0.5, SolutionsFound: 2})
	agg.Add("p1", "approx", 0, front(
		framework.ObjectiveSpacePoint{-5, 0},
		framework.ObjectiveSpacePoint{-2, -1},
	), Info{ElapsedTime: 0.25, SolutionsFound: 2})
	agg.Add("p2", "epsilon", 0, front(framework.ObjectiveSpacePoint{1, 1}), Info{})
	return agg
}

func TestFront(t *testing.T) {
	agg := sample()
	assert.Equal(t, []string{"p1", "p2"}, agg.Projects())
	assert.Equal(t, []string{"approx", "epsilon"}, agg.Methods("p1"))
	assert.Equal(t, []framework.ObjectiveSpacePoint{{-15, 3}, {-10, 2}, {-5, 0}, {-2, -1}}, agg.Front("p1").Points())
	assert.Equal(t, []framework.ObjectiveSpacePoint{{-15, 3}, {-9, 2}, {-5, 0}, {-2, -1}}, agg.MethodFront("p1", "approx").Points())
	assert.Equal(t, 2, agg.NonDominatedCount("p1", "epsilon"))
	assert.Equal(t, 3, agg.NonDominatedCount("p1", "approx"))
	assert.Equal(t, 0, agg.NonDominatedCount("p1", "cwmoip"))
}

func TestReport(t *testing.T) {
	got := sample().Report()
	want := []Report{
		{
			Project:   "p1",
			FrontSize: 4,
			Methods: []MethodReport{
				{
					Method: "approx", Runs: 2, Found: 4, NonDominated: 3, ElapsedTime: 0.75,
					Iterations: []IterationReport{
						{Iteration: 0, Found: 2, NonDominated: 2, ElapsedTime: 0.25},
						{Iteration: 1, Found: 2, NonDominated: 1, ElapsedTime: 0.5},
					},
				},
				{
					Method: "epsilon", Runs: 1, Found: 2, NonDominated: 2, ElapsedTime: 1.5, OracleCalls: 9,
					Iterations: []IterationReport{
						{Iteration: 0, Found: 2, NonDominated: 2, ElapsedTime: 1.5},
					},
				},
			},
		},
		{
			Project:   "p2",
			FrontSize: 1,
			Methods: []MethodReport{
				{
					Method: "epsilon", Runs: 1, Found: 1, NonDominated: 1,
					Iterations: []IterationReport{{Iteration: 0, Found: 1, NonDominated: 1}},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Report() mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	agg := sample()
	for _, rep := range agg.Report() {
		for _, m := range rep.Methods {
			require.NoError(t, store.WriteRun(rep.Project, m.Method, m.Iterations[0].Iteration,
				agg.MethodFront(rep.Project, m.Method), Info{ElapsedTime: m.ElapsedTime, SolutionsFound: m.Found}))
		}
	}

	info, err := ReadInfo(store.InfoPath("p1", "epsilon", 0))
	require.NoError(t, err)
	assert.Equal(t, Info{ElapsedTime: 1.5, SolutionsFound: 2}, info)
	raw, err := os.ReadFile(store.InfoPath("p1", "epsilon", 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"elapsed time": 1.5, "solutions found": 2}`, string(raw))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, agg.Front("p1").Points(), loaded.Front("p1").Points())
	assert.Equal(t, agg.Front("p2").Points(), loaded.Front("p2").Points())

	require.NoError(t, store.WriteFronts(loaded))
	merged, err := archive.LoadFile(store.FrontPath("p1"))
	require.NoError(t, err)
	assert.Equal(t, 4, merged.Len())
}

func TestStoreLoadSkipsForeignFiles(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	require.NoError(t, store.WriteRun("p", "cwmoip", 3, front(framework.ObjectiveSpacePoint{0, 0}), Info{}))
	require.NoError(t, os.WriteFile(store.RunDir("p", "cwmoip")+"/notes.txt", []byte("x"), 0o644))
	require.NoError(t, os.Remove(store.InfoPath("p", "cwmoip", 3)))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Front("p").Len())
}

func TestStoreLoadRejectsMixedDimensions(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.WriteRun("p", "epsilon", 0, front(framework.ObjectiveSpacePoint{0, 0}), Info{}))
	data := "{\"objectives\":[0,0,0]}\n{\"objectives\":[1,1]}\n"
	require.NoError(t, os.WriteFile(store.SolutionsPath("p", "epsilon", 0), []byte(data), 0o644))

	_, err := store.Load()
	require.ErrorIs(t, err, archive.ErrDimension)
	assert.Contains(t, err.Error(), "line 2")
}
