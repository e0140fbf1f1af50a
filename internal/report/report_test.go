package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/report"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/store"
	"github.com/signalnine/optbench/internal/trial"
)

func writeBatch(t *testing.T, dir string, fid, dim int, finals ...float64) {
	t.Helper()
	b := &trial.Batch{FunctionID: fid, Dimension: dim, Runs: len(finals), Seed: 5, Optimizer: "des"}
	for i, f := range finals {
		b.Results = append(b.Results, trial.Result{
			Run: i + 1, BestFitness: f, Evaluations: 100, Runtime: 0.5,
			BestHistory: []float64{f * 2, f},
		})
	}
	s, err := stats.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, err := store.Persist(dir, b, convergence.Build(b), s, store.Options{Policy: "abort"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
}

func TestGenerateTable(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, 4, 10, 10, 20, 5)
	writeBatch(t, dir, 1, 10, 100, 100)

	var buf bytes.Buffer
	if err := report.Generate(dir, "table", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "F1") || !strings.Contains(output, "F4") {
		t.Errorf("expected both batches in output:\n%s", output)
	}
	if strings.Index(output, "F1") > strings.Index(output, "F4") {
		t.Error("batches should be ordered by function id")
	}
	if !strings.Contains(output, "1.166667e+01") {
		t.Errorf("expected mean fitness of F4 in output:\n%s", output)
	}
}

func TestGenerateMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, 2, 30, 1, 3)

	var buf bytes.Buffer
	if err := report.Generate(dir, "markdown", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, separator and one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[2], "| F2 | 30 | des | 2 | 0 | 2.000000e+00 |") {
		t.Errorf("unexpected row: %s", lines[2])
	}
}

func TestGenerateJSONRendersSingleRunSDAsNull(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, 3, 2, 42)

	var buf bytes.Buffer
	if err := report.Generate(dir, "json", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(out) != 1 {
		t.Fatalf("expected one batch, got %d", len(out))
	}
	best := out[0]["stats"].(map[string]any)["best_fitness"].(map[string]any)
	if best["sd"] != nil {
		t.Errorf("sd should be null, got %v", best["sd"])
	}
	if best["mean"].(float64) != 42 {
		t.Errorf("mean: got %v", best["mean"])
	}
}

func TestGenerateWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, 1, 2, 1, 2)
	if err := os.Remove(filepath.Join(dir, "manifest_f1_d2.json")); err != nil {
		t.Fatal(err)
	}
	summaries, err := report.Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if summaries[0].Optimizer != "" || summaries[0].Seed != nil {
		t.Errorf("metadata should be empty without a manifest: %+v", summaries[0])
	}
	if summaries[0].Stats.BestFitness.Median != 1.5 {
		t.Errorf("median: got %v", summaries[0].Stats.BestFitness.Median)
	}
}

func TestGenerateErrors(t *testing.T) {
	if err := report.Generate(t.TempDir(), "table", &bytes.Buffer{}); err == nil {
		t.Error("expected error for a run dir without summaries")
	}
	dir := t.TempDir()
	writeBatch(t, dir, 1, 2, 1)
	if err := report.Generate(dir, "yaml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for an unknown format")
	}
	os.WriteFile(filepath.Join(dir, "summary_f1_d2.csv"), []byte("run,final_fitness,evaluations,runtime\n"), 0o644)
	if err := report.Generate(dir, "table", &bytes.Buffer{}); err == nil {
		t.Error("expected error for an empty summary")
	}
}
