package archive

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrp-moip/moip/pkg/multiobjective/framework"
)

func sol(objectives ...float64) *framework.Solution {
	return &framework.Solution{
		Variables:   []bool{true, false},
		Objectives:  objectives,
		Constraints: []float64{1},
	}
}

func TestKey(t *testing.T) {
	a := New()
	assert.Equal(t, "-21.000000_8.000000", a.Key(framework.ObjectiveSpacePoint{-21, 8}))
	assert.Equal(t, "0.000000_1.000000", a.Key(framework.ObjectiveSpacePoint{-0.0000001, 0.9999999}))
	assert.Equal(t, "1.5_2.0", New(WithPrecision(1)).Key(framework.ObjectiveSpacePoint{1.49, 2}))
}

func TestAdd(t *testing.T) {
	a := New()
	require.True(t, a.Add(sol(2, 2)))
	assert.False(t, a.Add(sol(2, 2)), "equal vector")
	assert.False(t, a.Add(sol(2, 3)), "dominated")
	assert.False(t, a.Add(sol(2.0000001, 2)), "same key")
	require.True(t, a.Add(sol(1, 5)))
	require.True(t, a.Add(sol(5, 1)))
	assert.Equal(t, 3, a.Len())

	require.True(t, a.Add(sol(1, 1)), "dominates everything")
	assert.Equal(t, []framework.ObjectiveSpacePoint{{1, 1}}, a.Points())
	assert.True(t, a.Has(framework.ObjectiveSpacePoint{1, 1}))
	assert.False(t, a.Has(framework.ObjectiveSpacePoint{2, 2}))
}

func TestAddRejectsOtherDimensions(t *testing.T) {
	a := New()
	assert.Equal(t, 0, a.Dims())
	require.True(t, a.Add(sol(0, 0, 0)))
	assert.Equal(t, 3, a.Dims())
	assert.False(t, a.Add(sol(1, 1)))
	assert.False(t, a.Add(sol(-1, -1, -1, -1)))
	assert.Equal(t, []framework.ObjectiveSpacePoint{{0, 0, 0}}, a.Points())
}

func randomSolutions(rng *rand.Rand, n int) []*framework.Solution {
	out := make([]*framework.Solution, n)
	for i := range out {
		out[i] = sol(float64(rng.IntN(10)), float64(rng.IntN(10)), float64(rng.IntN(10)))
	}
	return out
}

func TestArchiveInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for trial := 0; trial < 50; trial++ {
		sols := randomSolutions(rng, 40)
		a := FromSolutions(sols)

		points := a.Points()
		for i := range points {
			for j := range points {
				if i != j {
					require.False(t, framework.Dominates(points[i], points[j]), "%v dominates %v", points[i], points[j])
				}
			}
		}

		// The archive holds exactly the non-dominated vectors of its input.
		var all []framework.ObjectiveSpacePoint
		for _, s := range sols {
			all = append(all, s.Objectives)
		}
		want := FromSolutions(sols).Keys()
		got := New()
		for _, p := range framework.ParetoFront(all) {
			got.Add(sol(p...))
		}
		require.True(t, want.Equal(got.Keys()))

		// Order does not matter.
		shuffled := append([]*framework.Solution(nil), sols...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.True(t, a.Keys().Equal(FromSolutions(shuffled).Keys()))

		// Adding everything again changes nothing.
		before := a.Keys()
		for _, s := range sols {
			a.Add(s)
		}
		require.True(t, before.Equal(a.Keys()))
	}
}

func TestMerge(t *testing.T) {
	a := FromSolutions([]*framework.Solution{sol(1, 5), sol(3, 3)})
	b := FromSolutions([]*framework.Solution{sol(2, 2), sol(5, 1), sol(1, 5)})
	assert.Equal(t, 2, a.Merge(b))
	assert.Equal(t, []framework.ObjectiveSpacePoint{{1, 5}, {2, 2}, {5, 1}}, a.Points())
}

func TestDumpLoad(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	a := FromSolutions(randomSolutions(rng, 60))

	var buf bytes.Buffer
	require.NoError(t, a.Dump(&buf))
	assert.Equal(t, a.Len(), strings.Count(buf.String(), "\n"))

	b, err := Load(&buf)
	require.NoError(t, err)
	require.True(t, a.Keys().Equal(b.Keys()))
	if diff := cmp.Diff(a.Solutions(), b.Solutions()); diff != "" {
		t.Errorf("solutions mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLineFormat(t *testing.T) {
	in := `{"variables":[1,0,1],"objectives":[-11,6],"constraints":[0]}

{"variables":[0,0,0],"objectives":[0,0],"constraints":[4]}
`
	a, err := Load(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, a.Len())
	assert.Equal(t, []bool{true, false, true}, a.Solutions()[0].Variables)

	_, err = Load(strings.NewReader("{not json}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadRejectsMixedDimensions(t *testing.T) {
	in := `{"objectives":[0,0,0]}

{"objectives":[1,1]}
`
	_, err := Load(strings.NewReader(in))
	require.ErrorIs(t, err, ErrDimension)
	assert.Contains(t, err.Error(), "line 3")
}

func TestSaveLoadFile(t *testing.T) {
	path := t.TempDir() + "/front.jsonl"
	a := FromSolutions([]*framework.Solution{sol(1, 2), sol(2, 1)})
	require.NoError(t, a.Save(path))
	b, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Points(), b.Points())
}
