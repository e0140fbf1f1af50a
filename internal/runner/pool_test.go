package runner_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/signalnine/optbench/internal/runner"
)

func TestPool(t *testing.T) {
	var count atomic.Int32
	jobs := make([]runner.Job, 10)
	for i := range jobs {
		jobs[i] = func() error {
			count.Add(1)
			return nil
		}
	}
	errs := runner.RunPool(3, jobs)
	if err := runner.FirstError(errs); err != nil {
		t.Errorf("expected no errors, got %v", err)
	}
	if count.Load() != 10 {
		t.Errorf("expected 10 jobs, got %d", count.Load())
	}
}

func TestPoolKeepsJobOrder(t *testing.T) {
	jobs := []runner.Job{
		func() error { return nil },
		func() error { return fmt.Errorf("second") },
		func() error { return nil },
		func() error { return fmt.Errorf("fourth") },
	}
	errs := runner.RunPool(2, jobs)
	if len(errs) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(errs))
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("expected nil for successful jobs, got %v, %v", errs[0], errs[2])
	}
	if errs[1] == nil || errs[1].Error() != "second" {
		t.Errorf("errs[1] = %v, want second", errs[1])
	}
	if got := runner.FirstError(errs); got == nil || got.Error() != "second" {
		t.Errorf("FirstError = %v, want second", got)
	}
}
