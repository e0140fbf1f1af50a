package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/signalnine/optbench/internal/result"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/store"
)

type BatchSummary struct {
	FunctionID int           `json:"function_id"`
	Dimension  int           `json:"dimension"`
	Optimizer  string        `json:"optimizer,omitempty"`
	Seed       *int64        `json:"seed,omitempty"`
	Failed     int           `json:"failed"`
	Stats      stats.Summary `json:"stats"`
}

// Generate recomputes statistics from the summary files in runDir and writes
// them in format (table, markdown or json).
func Generate(runDir, format string, w io.Writer) error {
	summaries, err := Collect(runDir)
	if err != nil {
		return err
	}
	switch format {
	case "markdown":
		return writeMarkdown(summaries, w)
	case "json":
		return writeJSON(summaries, w)
	case "table", "":
		return writeTable(summaries, w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Collect builds one summary per batch found in runDir, ordered by function
// id then dimension. Manifests are optional and only add metadata.
func Collect(runDir string) ([]BatchSummary, error) {
	keys, err := store.Keys(runDir)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no summary files in %s", runDir)
	}

	summaries := make([]BatchSummary, 0, len(keys))
	for _, k := range keys {
		rows, err := store.ReadSummary(filepath.Join(runDir, k.Name(store.KindSummary, false)))
		if err != nil {
			return nil, err
		}
		s, err := stats.Compute(store.SummaryBatch(k, rows))
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", k, err)
		}
		bs := BatchSummary{FunctionID: k.FunctionID, Dimension: k.Dimension, Stats: *s}

		m, err := result.ReadManifest(filepath.Join(runDir, k.Name(store.KindManifest, false)))
		switch {
		case err == nil:
			bs.Optimizer = m.Optimizer
			bs.Seed = &m.Seed
			bs.Failed = len(m.Failures)
		case errors.Is(err, os.ErrNotExist):
		default:
			log.Warn().Err(err).Str("batch", k.String()).Msg("ignoring unreadable manifest")
		}
		summaries = append(summaries, bs)
	}
	return summaries, nil
}

func writeTable(summaries []BatchSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FUNCTION\tDIM\tOPTIMIZER\tRUNS\tFAILED\tMEAN\tMEDIAN\tSD\tMIN\tMAX\tMEAN EVALS\tMEAN TIME")
	fmt.Fprintln(tw, strings.Repeat("-", 120))
	for _, s := range summaries {
		f := s.Stats.BestFitness
		fmt.Fprintf(tw, "F%d\t%d\t%s\t%d\t%d\t%.6e\t%.6e\t%.6e\t%.6e\t%.6e\t%.0f\t%.3fs\n",
			s.FunctionID, s.Dimension, orDash(s.Optimizer), s.Stats.Runs, s.Failed,
			f.Mean, f.Median, f.SD, f.Min, f.Max, s.Stats.Evaluations.Mean, s.Stats.Runtime.Mean)
	}
	return tw.Flush()
}

func writeMarkdown(summaries []BatchSummary, w io.Writer) error {
	fmt.Fprintln(w, "| Function | Dim | Optimizer | Runs | Failed | Mean | Median | SD | Min | Max | Mean Evals | Mean Time |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|---|---|---|---|")
	for _, s := range summaries {
		f := s.Stats.BestFitness
		fmt.Fprintf(w, "| F%d | %d | %s | %d | %d | %.6e | %.6e | %.6e | %.6e | %.6e | %.0f | %.3fs |\n",
			s.FunctionID, s.Dimension, orDash(s.Optimizer), s.Stats.Runs, s.Failed,
			f.Mean, f.Median, f.SD, f.Min, f.Max, s.Stats.Evaluations.Mean, s.Stats.Runtime.Mean)
	}
	return nil
}

func writeJSON(summaries []BatchSummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
