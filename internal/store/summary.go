package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/trial"
)

var summaryHeader = []string{"run", "final_fitness", "evaluations", "runtime"}

// SummaryRow is one line of a summary file.
type SummaryRow struct {
	Run          int
	FinalFitness float64
	Evaluations  int
	Runtime      float64
}

// WriteSummary writes one row per successful trial in execution order.
func WriteSummary(w io.Writer, b *trial.Batch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("summary: write header: %w", err)
	}
	for _, r := range b.Results {
		rec := []string{
			strconv.Itoa(r.Run),
			formatFloat(r.BestFitness),
			strconv.Itoa(r.Evaluations),
			formatFloat(r.Runtime),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("summary: write run %d: %w", r.Run, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ParseSummary(r io.Reader) ([]SummaryRow, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("summary: parse: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("summary: empty input (no header row)")
	}
	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[h] = i
	}
	for _, h := range summaryHeader {
		if _, ok := cols[h]; !ok {
			return nil, fmt.Errorf("summary: missing column %q", h)
		}
	}

	rows := make([]SummaryRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		var row SummaryRow
		var errs [4]error
		row.Run, errs[0] = strconv.Atoi(rec[cols["run"]])
		row.FinalFitness, errs[1] = strconv.ParseFloat(rec[cols["final_fitness"]], 64)
		row.Evaluations, errs[2] = strconv.Atoi(rec[cols["evaluations"]])
		row.Runtime, errs[3] = strconv.ParseFloat(rec[cols["runtime"]], 64)
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("summary: row %d: %w", i+2, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func ReadSummary(path string) ([]SummaryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("summary: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseSummary(f)
}

// SummaryBatch rebuilds a batch carrying only the summary columns, enough to
// recompute statistics.
func SummaryBatch(key Key, rows []SummaryRow) *trial.Batch {
	b := &trial.Batch{
		FunctionID: key.FunctionID,
		Dimension:  key.Dimension,
		Runs:       len(rows),
		Results:    make([]trial.Result, len(rows)),
	}
	for i, r := range rows {
		b.Results[i] = trial.Result{
			Run:         r.Run,
			BestFitness: r.FinalFitness,
			Evaluations: r.Evaluations,
			Runtime:     r.Runtime,
		}
	}
	return b
}

func ReadConvergence(path string) (*convergence.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("convergence: open %s: %w", path, err)
	}
	defer f.Close()
	return convergence.ReadCSV(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
