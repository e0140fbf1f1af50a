package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/optbench/internal/optimizer"
	"github.com/signalnine/optbench/internal/runner"
	"github.com/signalnine/optbench/internal/store"
	"github.com/signalnine/optbench/internal/trial"
)

func TestFilterTrials(t *testing.T) {
	var trials []trial.Config
	for _, f := range []int{1, 3, 4} {
		for _, d := range []int{10, 30} {
			trials = append(trials, trial.Config{FunctionID: f, Dimension: d})
		}
	}

	tests := []struct {
		name      string
		function  int
		dimension int
		want      int
	}{
		{"no filter returns all", 0, 0, 6},
		{"function only", 3, 0, 2},
		{"dimension only", 0, 30, 3},
		{"function and dimension", 4, 10, 1},
		{"no match", 9, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterTrials(trials, tt.function, tt.dimension)
			if len(got) != tt.want {
				t.Errorf("filterTrials(%d, %d) returned %d, want %d", tt.function, tt.dimension, len(got), tt.want)
			}
		})
	}
}

func smallTrial(fid int) trial.Config {
	lo, hi := trial.UniformBounds(2, -100, 100)
	return trial.Config{
		FunctionID: fid,
		Dimension:  2,
		Lower:      lo,
		Upper:      hi,
		Control: optimizer.Control{
			Budget:      200,
			StopFitness: optimizer.NoStop,
			Diagnostics: optimizer.AllDiagnostics(),
		},
	}
}

func TestExecuteBatchStoresArtifacts(t *testing.T) {
	dir := t.TempDir()
	paths, err := executeBatch(context.Background(), &batchOpts{
		Trial:     smallTrial(5),
		Runs:      3,
		Seed:      1,
		Optimizer: optimizer.NewDES(),
		Policy:    runner.PolicyAbort,
		Dir:       dir,
		Compress:  true,
		Now:       func() time.Time { return time.Unix(0, 0) },
	})
	if err != nil {
		t.Fatalf("executeBatch: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("expected 4 artifacts, got %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing artifact %s: %v", p, err)
		}
	}
	rows, err := store.ReadSummary(filepath.Join(dir, "summary_f5_d2.csv"))
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 summary rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Evaluations > 200 {
			t.Errorf("run %d used %d evaluations over budget", r.Run, r.Evaluations)
		}
		if r.Runtime != 0 {
			t.Errorf("run %d runtime %v with a frozen clock", r.Run, r.Runtime)
		}
	}
}

func TestExecuteBatchUnknownFunctionWritesNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := executeBatch(context.Background(), &batchOpts{
		Trial:     smallTrial(42),
		Runs:      2,
		Optimizer: optimizer.NewDES(),
		Dir:       dir,
	})
	if err == nil {
		t.Fatal("expected error for unknown function")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no artifacts, found %d", len(entries))
	}
}

func TestPickKey(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	touch := func(dir, name string) {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	touch(a, "summary_f1_d10.csv")
	touch(a, "summary_f1_d30.csv")
	touch(a, "summary_f2_d10.csv")
	touch(b, "summary_f1_d10.csv")
	touch(b, "summary_f1_d30.csv")

	tests := []struct {
		name      string
		function  int
		dimension int
		want      store.Key
		wantErr   bool
	}{
		{"ambiguous", 0, 0, store.Key{}, true},
		{"dimension resolves", 0, 30, store.Key{FunctionID: 1, Dimension: 30}, false},
		{"both given", 1, 10, store.Key{FunctionID: 1, Dimension: 10}, false},
		{"only in one run", 2, 10, store.Key{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickKey(a, b, tt.function, tt.dimension)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pickKey error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("pickKey = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	if err := setupLogging("debug"); err != nil {
		t.Errorf("debug: %v", err)
	}
	if err := setupLogging("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
