package convergence_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func batchWithHistories(histories ...[]float64) *trial.Batch {
	b := &trial.Batch{FunctionID: 1, Dimension: 2, Runs: len(histories)}
	for i, h := range histories {
		final := math.NaN()
		if len(h) > 0 {
			final = h[len(h)-1]
		}
		b.Results = append(b.Results, trial.Result{Run: i + 1, BestFitness: final, BestHistory: h})
	}
	return b
}

func TestBuildUnevenHistories(t *testing.T) {
	b := batchWithHistories(
		[]float64{50, 40, 30, 20, 10},
		[]float64{60, 40, 20},
		[]float64{70, 30, 10, 5},
	)
	tbl := convergence.Build(b)

	assert.Equal(t, 5, tbl.MaxLength())
	assert.Equal(t, []int{1, 2, 3}, tbl.Runs)

	for row := 0; row < 5; row++ {
		assert.True(t, tbl.Rows[row][0].Valid)
	}
	assert.True(t, tbl.Rows[2][1].Valid)
	assert.False(t, tbl.Rows[3][1].Valid)
	assert.False(t, tbl.Rows[4][1].Valid)
	assert.True(t, tbl.Rows[3][2].Valid)
	assert.False(t, tbl.Rows[4][2].Valid)

	col, err := tbl.Column(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{60, 40, 20}, col)
}

func TestBuildKeepsNaNDistinctFromMissing(t *testing.T) {
	tbl := convergence.Build(batchWithHistories([]float64{math.NaN(), 1}, []float64{2}))
	assert.True(t, tbl.Rows[0][0].Valid)
	assert.True(t, math.IsNaN(tbl.Rows[0][0].Value))
	assert.False(t, tbl.Rows[1][1].Valid)
}

func TestBuildEmptyHistories(t *testing.T) {
	tbl := convergence.Build(batchWithHistories(nil, nil))
	assert.Equal(t, 0, tbl.MaxLength())
	assert.Equal(t, 2, tbl.Width())
}

func TestColumnOutOfRange(t *testing.T) {
	tbl := convergence.Build(batchWithHistories([]float64{1}))
	_, err := tbl.Column(1)
	assert.Error(t, err)
}

func TestCSVLayout(t *testing.T) {
	tbl := convergence.Build(batchWithHistories(
		[]float64{50, 40, 30},
		[]float64{0.5},
	))
	var buf bytes.Buffer
	require.NoError(t, convergence.WriteCSV(&buf, tbl))
	assert.Equal(t, "run_1,run_2\n50,0.5\n40,\n30,\n", buf.String())
}

func TestCSVRoundTripKeepsLabelsAndNonFinite(t *testing.T) {
	in := "run_1,run_3\n1e+10,NaN\n+Inf,\n"
	tbl, err := convergence.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, tbl.Runs)
	assert.Equal(t, 1e10, tbl.Rows[0][0].Value)
	assert.True(t, math.IsNaN(tbl.Rows[0][1].Value))
	assert.True(t, math.IsInf(tbl.Rows[1][0].Value, 1))
	assert.False(t, tbl.Rows[1][1].Valid)

	var buf bytes.Buffer
	require.NoError(t, convergence.WriteCSV(&buf, tbl))
	assert.Equal(t, in, buf.String())
}

func TestReadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"bad header":   "iteration,run_1\n1,2\n",
		"bad value":    "run_1\nabc\n",
		"ragged":       "run_1,run_2\n1\n",
		"no run index": "run_x\n1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := convergence.ReadCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestTrim(t *testing.T) {
	tbl := convergence.Build(batchWithHistories(
		[]float64{5, 4, 3},
		[]float64{6, 5},
		[]float64{7},
	))
	small := tbl.Trim(2, 2)
	assert.Equal(t, []int{1, 2}, small.Runs)
	assert.Equal(t, 2, small.MaxLength())
	assert.Equal(t, 5.0, small.Rows[1][1].Value)

	small.Rows[0][0].Value = 99
	assert.Equal(t, 5.0, tbl.Rows[0][0].Value, "trim must copy")

	assert.Equal(t, 3, tbl.Trim(10, 10).MaxLength())
}

func TestBands(t *testing.T) {
	tbl := convergence.Build(batchWithHistories(
		[]float64{4, 3, 2},
		[]float64{8, 1},
		[]float64{2, math.NaN()},
		[]float64{6},
	))
	bands := convergence.Bands(tbl)
	require.Len(t, bands, 3)

	assert.Equal(t, 0, bands[0].Iteration)
	assert.Equal(t, 4, bands[0].N)
	assert.Equal(t, 5.0, bands[0].Median)
	assert.Equal(t, 3.5, bands[0].Q25)
	assert.Equal(t, 6.5, bands[0].Q75)

	assert.Equal(t, 2, bands[1].N)
	assert.Equal(t, 2.0, bands[1].Median)
	assert.Equal(t, 1, bands[2].N)
	assert.Equal(t, 2.0, bands[2].Q25)
}

func TestBuildAlignmentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "runs")
		histories := make([][]float64, n)
		maxLen := 0
		for i := range histories {
			histories[i] = rapid.SliceOfN(rapid.Float64Range(-1e3, 1e3), 0, 20).Draw(t, "history")
			maxLen = max(maxLen, len(histories[i]))
		}
		tbl := convergence.Build(batchWithHistories(histories...))
		if tbl.MaxLength() != maxLen {
			t.Fatalf("rows = %d, want %d", tbl.MaxLength(), maxLen)
		}
		for col, h := range histories {
			for row := 0; row < maxLen; row++ {
				c := tbl.Rows[row][col]
				if row < len(h) {
					if !c.Valid || c.Value != h[row] {
						t.Fatalf("cell (%d,%d) = %+v, want %v", row, col, c, h[row])
					}
				} else if c.Valid {
					t.Fatalf("cell (%d,%d) should be missing", row, col)
				}
			}
		}

		var buf bytes.Buffer
		if err := convergence.WriteCSV(&buf, tbl); err != nil {
			t.Fatalf("write: %v", err)
		}
		back, err := convergence.ReadCSV(&buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if back.MaxLength() != tbl.MaxLength() || back.Width() != tbl.Width() {
			t.Fatalf("shape changed: %dx%d -> %dx%d", tbl.MaxLength(), tbl.Width(), back.MaxLength(), back.Width())
		}
	})
}
