// Package compare contrasts two persisted runs of the same batch: quartile
// bands of their convergence curves and a paired test on final fitness.
package compare

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/store"
)

// Alpha is the significance level used when reporting the test.
const Alpha = 0.05

// Side is what is kept of one run after trimming to the common size.
type Side struct {
	Dir          string
	FinalFitness []float64
	Median       float64
	Bands        []convergence.Band
}

type Comparison struct {
	Key store.Key
	A   Side
	B   Side
	// Wilcoxon is nil when every paired difference is zero.
	Wilcoxon *stats.WilcoxonResult
}

// Significant reports whether the test rejects equality at Alpha.
func (c *Comparison) Significant() bool {
	return c.Wilcoxon != nil && c.Wilcoxon.PValue < Alpha
}

// Run loads the convergence and summary files of key from both run
// directories and compares them.
func Run(dirA, dirB string, key store.Key) (*Comparison, error) {
	convA, sumA, err := load(dirA, key)
	if err != nil {
		return nil, err
	}
	convB, sumB, err := load(dirB, key)
	if err != nil {
		return nil, err
	}
	c, err := Tables(convA, convB, sumA, sumB)
	if err != nil {
		return nil, err
	}
	c.Key = key
	c.A.Dir, c.B.Dir = dirA, dirB
	return c, nil
}

// Tables compares two runs already in memory. Both convergence tables are
// trimmed to the common row and column count, both summaries to the common
// row count, and both band series to the common length.
func Tables(convA, convB *convergence.Table, sumA, sumB []store.SummaryRow) (*Comparison, error) {
	n := min(len(sumA), len(sumB))
	if n == 0 {
		return nil, fmt.Errorf("compare: %w", stats.ErrEmptyBatch)
	}
	rows := min(convA.MaxLength(), convB.MaxLength())
	cols := min(convA.Width(), convB.Width())

	c := &Comparison{
		A: side(convA.Trim(rows, cols), sumA[:n]),
		B: side(convB.Trim(rows, cols), sumB[:n]),
	}
	bands := min(len(c.A.Bands), len(c.B.Bands))
	c.A.Bands, c.B.Bands = c.A.Bands[:bands], c.B.Bands[:bands]

	w, err := stats.WilcoxonSignedRank(c.A.FinalFitness, c.B.FinalFitness)
	switch {
	case err == nil:
		c.Wilcoxon = &w
	case errors.Is(err, stats.ErrNoDifferences):
	default:
		return nil, fmt.Errorf("compare: %w", err)
	}
	return c, nil
}

func side(conv *convergence.Table, rows []store.SummaryRow) Side {
	s := Side{FinalFitness: make([]float64, len(rows)), Bands: convergence.Bands(conv)}
	for i, r := range rows {
		s.FinalFitness[i] = r.FinalFitness
	}
	sorted := append([]float64(nil), s.FinalFitness...)
	sort.Float64s(sorted)
	s.Median = stats.Median(sorted)
	return s
}

func load(dir string, key store.Key) (*convergence.Table, []store.SummaryRow, error) {
	conv, err := store.ReadConvergence(filepath.Join(dir, key.Name(store.KindConvergence, false)))
	if err != nil {
		return nil, nil, err
	}
	rows, err := store.ReadSummary(filepath.Join(dir, key.Name(store.KindSummary, false)))
	if err != nil {
		return nil, nil, err
	}
	return conv, rows, nil
}

// WriteBandsCSV writes one line per iteration with the median and quartiles
// of both runs.
func WriteBandsCSV(w io.Writer, c *Comparison) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"iteration", "a_median", "a_q25", "a_q75", "b_median", "b_q25", "b_q75"})
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i := range c.A.Bands {
		a, b := c.A.Bands[i], c.B.Bands[i]
		cw.Write([]string{strconv.Itoa(a.Iteration), f(a.Median), f(a.Q25), f(a.Q75), f(b.Median), f(b.Q25), f(b.Q75)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteText prints the test result and both medians.
func WriteText(w io.Writer, c *Comparison) error {
	fmt.Fprintf(w, "Comparison %s (%d paired runs)\n", c.Key, len(c.A.FinalFitness))
	fmt.Fprintln(w, "Wilcoxon signed-rank test:")
	if c.Wilcoxon == nil {
		fmt.Fprintln(w, "  all paired differences are zero")
	} else {
		fmt.Fprintf(w, "  Statistic: %g\n", c.Wilcoxon.Statistic)
		fmt.Fprintf(w, "  P-value: %g (%s)\n", c.Wilcoxon.PValue, c.Wilcoxon.Method)
	}
	sig := "No"
	if c.Significant() {
		sig = "Yes"
	}
	fmt.Fprintf(w, "  Significant difference: %s\n", sig)
	fmt.Fprintf(w, "A median: %.6e  (%s)\n", c.A.Median, c.A.Dir)
	_, err := fmt.Fprintf(w, "B median: %.6e  (%s)\n", c.B.Median, c.B.Dir)
	return err
}
