package convergence

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const columnPrefix = "run_"

// WriteCSV writes the header run_<k> per column followed by one line per
// row. Missing cells are empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	header := make([]string, t.Width())
	for i, run := range t.Runs {
		header[i] = columnPrefix + strconv.Itoa(run)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("convergence: write header: %w", err)
	}
	record := make([]string, t.Width())
	for i, row := range t.Rows {
		for j, c := range row {
			if c.Valid {
				record[j] = strconv.FormatFloat(c.Value, 'g', -1, 64)
			} else {
				record[j] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("convergence: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("convergence: parse: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("convergence: empty input (no header row)")
	}

	t := &Table{}
	for _, h := range records[0] {
		run, err := strconv.Atoi(strings.TrimPrefix(h, columnPrefix))
		if err != nil || !strings.HasPrefix(h, columnPrefix) {
			return nil, fmt.Errorf("convergence: bad column name %q", h)
		}
		t.Runs = append(t.Runs, run)
	}
	for i, rec := range records[1:] {
		row := make([]Cell, t.Width())
		for j := range row {
			if rec[j] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("convergence: row %d column %d: %w", i, j, err)
			}
			row[j] = Cell{Value: v, Valid: true}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
