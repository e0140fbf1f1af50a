// Package convergence aligns the best-fitness histories of a batch into a
// rectangular table, one column per trial.
package convergence

import (
	"fmt"

	"github.com/signalnine/optbench/internal/trial"
)

// Cell is one table entry. Valid is false for iterations past the end of a
// trial's history; a valid cell may still hold NaN or Inf.
type Cell struct {
	Value float64
	Valid bool
}

// Table has one row per iteration and one column per trial.
type Table struct {
	// Runs labels the columns with the trial's run index.
	Runs []int
	Rows [][]Cell
}

// Build aligns every result's best-fitness history from row 0. The row count
// is the longest history; shorter columns are padded with missing cells.
func Build(batch *trial.Batch) *Table {
	t := &Table{}
	if batch == nil {
		return t
	}
	maxLen := 0
	for _, r := range batch.Results {
		t.Runs = append(t.Runs, r.Run)
		if len(r.BestHistory) > maxLen {
			maxLen = len(r.BestHistory)
		}
	}
	t.Rows = make([][]Cell, maxLen)
	for i := range t.Rows {
		t.Rows[i] = make([]Cell, len(t.Runs))
	}
	for col, r := range batch.Results {
		for row, v := range r.BestHistory {
			t.Rows[row][col] = Cell{Value: v, Valid: true}
		}
	}
	return t
}

// MaxLength is the number of rows.
func (t *Table) MaxLength() int { return len(t.Rows) }

// Width is the number of columns.
func (t *Table) Width() int { return len(t.Runs) }

// Column returns the present values of column col, in row order.
func (t *Table) Column(col int) ([]float64, error) {
	if col < 0 || col >= t.Width() {
		return nil, fmt.Errorf("column %d out of range [0, %d)", col, t.Width())
	}
	var out []float64
	for _, row := range t.Rows {
		if row[col].Valid {
			out = append(out, row[col].Value)
		}
	}
	return out, nil
}

// Trim returns a copy limited to the first rows rows and cols columns.
func (t *Table) Trim(rows, cols int) *Table {
	rows = min(max(rows, 0), t.MaxLength())
	cols = min(max(cols, 0), t.Width())
	out := &Table{
		Runs: append([]int(nil), t.Runs[:cols]...),
		Rows: make([][]Cell, rows),
	}
	for i := range out.Rows {
		out.Rows[i] = append([]Cell(nil), t.Rows[i][:cols]...)
	}
	return out
}
