package compare_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/signalnine/optbench/internal/compare"
	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/store"
	"github.com/signalnine/optbench/internal/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch(fid int, histories ...[]float64) *trial.Batch {
	b := &trial.Batch{FunctionID: fid, Dimension: 2, Runs: len(histories), Optimizer: "des"}
	for i, h := range histories {
		b.Results = append(b.Results, trial.Result{
			Run: i + 1, BestFitness: h[len(h)-1], Evaluations: 10 * len(h), Runtime: 1, BestHistory: h,
		})
	}
	return b
}

func persist(t *testing.T, b *trial.Batch) string {
	t.Helper()
	dir := t.TempDir()
	s, err := stats.Compute(b)
	require.NoError(t, err)
	_, err = store.Persist(dir, b, convergence.Build(b), s, store.Options{})
	require.NoError(t, err)
	return dir
}

func TestRunTrimsToCommonSize(t *testing.T) {
	a := persist(t, batch(1,
		[]float64{9, 8, 7, 6},
		[]float64{9, 7, 5},
		[]float64{8, 6, 4},
	))
	b := persist(t, batch(1,
		[]float64{5, 4},
		[]float64{6, 3},
	))

	c, err := compare.Run(a, b, store.Key{FunctionID: 1, Dimension: 2})
	require.NoError(t, err)

	assert.Equal(t, []float64{6, 5}, c.A.FinalFitness)
	assert.Equal(t, []float64{4, 3}, c.B.FinalFitness)
	assert.Equal(t, 5.5, c.A.Median)
	assert.Equal(t, 3.5, c.B.Median)

	require.Len(t, c.A.Bands, 2)
	require.Len(t, c.B.Bands, 2)
	assert.Equal(t, 9.0, c.A.Bands[0].Median)
	assert.Equal(t, 7.5, c.A.Bands[1].Median)
	assert.Equal(t, 3.5, c.B.Bands[1].Median)

	require.NotNil(t, c.Wilcoxon)
	assert.Equal(t, 2, c.Wilcoxon.N)
	assert.False(t, c.Significant())
}

func TestTablesSignificantDifference(t *testing.T) {
	var ha, hb [][]float64
	for i := 0; i < 8; i++ {
		ha = append(ha, []float64{100, 50 + float64(i)})
		hb = append(hb, []float64{100, 10 + float64(i)*0.5})
	}
	ba, bb := batch(1, ha...), batch(1, hb...)
	c, err := compare.Tables(convergence.Build(ba), convergence.Build(bb), rows(ba), rows(bb))
	require.NoError(t, err)
	require.NotNil(t, c.Wilcoxon)
	assert.Equal(t, stats.MethodExact, c.Wilcoxon.Method)
	assert.InDelta(t, 2.0/256, c.Wilcoxon.PValue, 1e-12)
	assert.True(t, c.Significant())
}

func TestTablesIdenticalRuns(t *testing.T) {
	b := batch(1, []float64{3, 2}, []float64{4, 1})
	c, err := compare.Tables(convergence.Build(b), convergence.Build(b), rows(b), rows(b))
	require.NoError(t, err)
	assert.Nil(t, c.Wilcoxon)
	assert.False(t, c.Significant())

	var buf bytes.Buffer
	require.NoError(t, compare.WriteText(&buf, c))
	assert.Contains(t, buf.String(), "all paired differences are zero")
	assert.Contains(t, buf.String(), "Significant difference: No")
}

func TestTablesEmptySummary(t *testing.T) {
	b := batch(1, []float64{1})
	_, err := compare.Tables(convergence.Build(b), convergence.Build(b), rows(b), nil)
	assert.ErrorIs(t, err, stats.ErrEmptyBatch)
}

func TestRunMissingFiles(t *testing.T) {
	a := persist(t, batch(1, []float64{1}))
	_, err := compare.Run(a, t.TempDir(), store.Key{FunctionID: 1, Dimension: 2})
	assert.Error(t, err)
	_, err = compare.Run(a, a, store.Key{FunctionID: 2, Dimension: 2})
	assert.Error(t, err)
}

func TestWriteBandsCSV(t *testing.T) {
	ba := batch(1, []float64{4, 2}, []float64{6, 4})
	bb := batch(1, []float64{3, 1}, []float64{5, 1})
	c, err := compare.Tables(convergence.Build(ba), convergence.Build(bb), rows(ba), rows(bb))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, compare.WriteBandsCSV(&buf, c))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "iteration,a_median,a_q25,a_q75,b_median,b_q25,b_q75", lines[0])
	assert.Equal(t, "0,5,4.5,5.5,4,3.5,4.5", lines[1])
	assert.Equal(t, "1,3,2.5,3.5,1,1,1", lines[2])
}

func rows(b *trial.Batch) []store.SummaryRow {
	out := make([]store.SummaryRow, len(b.Results))
	for i, r := range b.Results {
		out[i] = store.SummaryRow{Run: r.Run, FinalFitness: r.BestFitness, Evaluations: r.Evaluations, Runtime: r.Runtime}
	}
	return out
}
