package convergence

import (
	"math"
	"sort"

	"github.com/signalnine/optbench/internal/stats"
)

// Band is the spread of best fitness across trials at one iteration.
type Band struct {
	Iteration int
	Median    float64
	Q25       float64
	Q75       float64
	// N is the number of trials contributing to the row.
	N int
}

// Bands computes the per-row median and quartiles over present, non-NaN
// cells. The result stops at the first row with no such cell.
func Bands(t *Table) []Band {
	out := make([]Band, 0, t.MaxLength())
	vals := make([]float64, 0, t.Width())
	for i, row := range t.Rows {
		vals = vals[:0]
		for _, c := range row {
			if c.Valid && !math.IsNaN(c.Value) {
				vals = append(vals, c.Value)
			}
		}
		if len(vals) == 0 {
			break
		}
		sort.Float64s(vals)
		out = append(out, Band{
			Iteration: i,
			Median:    stats.Median(vals),
			Q25:       stats.Quantile(vals, 0.25),
			Q75:       stats.Quantile(vals, 0.75),
			N:         len(vals),
		})
	}
	return out
}
