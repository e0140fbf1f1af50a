package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/signalnine/optbench/internal/objective"
	"github.com/signalnine/optbench/internal/optimizer"
	"github.com/signalnine/optbench/internal/rng"
	"github.com/signalnine/optbench/internal/trial"
)

// FailurePolicy decides what a failing trial does to its batch.
type FailurePolicy string

const (
	// PolicyAbort stops the batch at the first failing trial and returns no
	// batch at all.
	PolicyAbort FailurePolicy = "abort"
	// PolicyCollect records failing trials and keeps going. The batch fails
	// only if every trial failed.
	PolicyCollect FailurePolicy = "collect"
)

// ParsePolicy maps a config value to a FailurePolicy. Empty means abort.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicyCollect:
		return PolicyCollect, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// ErrAllTrialsFailed is returned under PolicyCollect when no trial succeeded.
var ErrAllTrialsFailed = errors.New("all trials failed")

// Runner executes batches of independent trials of one optimizer against
// one objective suite.
type Runner struct {
	Optimizer optimizer.Optimizer
	Suite     objective.Suite
	Policy    FailurePolicy
	// Now is the clock used to time trials; nil uses time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunBatch runs trials 1..runs in ascending order. Every trial draws from
// the same stream, so reproducing a batch needs the same seed, the same run
// count and no other consumer of the stream in between.
func (r *Runner) RunBatch(ctx context.Context, cfg trial.Config, runs int, stream *rng.Stream) (*trial.Batch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trial config: %w", err)
	}
	if runs < 0 {
		return nil, fmt.Errorf("run count must not be negative, got %d", runs)
	}
	if r.Optimizer == nil || r.Suite == nil {
		return nil, fmt.Errorf("runner needs an optimizer and an objective suite")
	}
	optimum, err := r.Suite.Optimum(cfg.FunctionID)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, fmt.Errorf("random stream is required")
	}

	batch := &trial.Batch{
		FunctionID: cfg.FunctionID,
		Dimension:  cfg.Dimension,
		Runs:       runs,
		Seed:       stream.Seed(),
		Optimizer:  r.Optimizer.Name(),
		StartedAt:  r.now(),
		Results:    make([]trial.Result, 0, runs),
	}
	logger := log.With().Int("function", cfg.FunctionID).Int("dimension", cfg.Dimension).Logger()
	logger.Info().Int("runs", runs).Int64("seed", stream.Seed()).Str("optimizer", batch.Optimizer).Msg("batch started")

	for run := 1; run <= runs; run++ {
		res, err := r.runTrial(ctx, &cfg, optimum, run, stream)
		if err != nil {
			if r.Policy != PolicyCollect {
				return nil, fmt.Errorf("function %d dimension %d run %d: %w", cfg.FunctionID, cfg.Dimension, run, err)
			}
			logger.Warn().Err(err).Int("run", run).Msg("trial failed")
			batch.Failures = append(batch.Failures, trial.Failure{Run: run, Err: err})
			continue
		}
		logger.Debug().
			Int("run", run).
			Float64("fitness", res.BestFitness).
			Int("evaluations", res.Evaluations).
			Float64("runtime", res.Runtime).
			Uint64("draws", stream.Draws()).
			Msg("trial finished")
		batch.Results = append(batch.Results, *res)
	}
	if runs > 0 && len(batch.Results) == 0 {
		errs := make([]error, 0, len(batch.Failures)+1)
		errs = append(errs, ErrAllTrialsFailed)
		for _, f := range batch.Failures {
			errs = append(errs, fmt.Errorf("run %d: %w", f.Run, f.Err))
		}
		return nil, fmt.Errorf("function %d dimension %d: %w", cfg.FunctionID, cfg.Dimension, errors.Join(errs...))
	}

	batch.FinishedAt = r.now()
	logger.Info().
		Int("succeeded", len(batch.Results)).
		Int("failed", len(batch.Failures)).
		Dur("elapsed", batch.FinishedAt.Sub(batch.StartedAt)).
		Msg("batch finished")
	return batch, nil
}

func (r *Runner) runTrial(ctx context.Context, cfg *trial.Config, optimum float64, run int, stream *rng.Stream) (*trial.Result, error) {
	problem := &optimizer.Problem{
		FunctionID: cfg.FunctionID,
		Start:      cfg.Center(),
		Lower:      append([]float64(nil), cfg.Lower...),
		Upper:      append([]float64(nil), cfg.Upper...),
		Optimum:    optimum,
		Objective: func(x []float64) (float64, error) {
			return r.Suite.Evaluate(cfg.FunctionID, x)
		},
	}

	start := r.now()
	out, err := r.Optimizer.Optimize(ctx, problem, cfg.Control, stream.Rand())
	elapsed := r.now().Sub(start).Seconds()
	if err != nil {
		return nil, err
	}
	if err := checkContract(out, cfg); err != nil {
		return nil, fmt.Errorf("optimizer %s: %w", r.Optimizer.Name(), err)
	}

	res := &trial.Result{
		Run:         run,
		BestFitness: out.Value,
		BestPar:     clone(out.Par),
		Evaluations: out.Evaluations,
		Runtime:     math.Max(elapsed, 0),
		Converged:   out.Converged,
	}
	if cfg.Control.Diagnostics.Enabled {
		res.BestHistory = clone(out.Trace.Best)
		res.MeanHistory = clone(out.Trace.Mean)
		res.ScalingHistory = clone(out.Trace.Scaling)
		res.Values = clone(out.Trace.Values)
	}
	return res, nil
}

func checkContract(out *optimizer.Result, cfg *trial.Config) error {
	if out == nil {
		return fmt.Errorf("no result returned")
	}
	if out.Evaluations < 0 || out.Evaluations > cfg.Control.Budget {
		return fmt.Errorf("evaluation count %d outside budget %d", out.Evaluations, cfg.Control.Budget)
	}
	best := out.Trace.Best
	if n := len(out.Trace.Mean); n > 0 && len(best) > 0 && n != len(best) {
		return fmt.Errorf("mean history length %d differs from best history length %d", n, len(best))
	}
	for i := 1; i < len(best); i++ {
		if best[i] > best[i-1] {
			return fmt.Errorf("best history increases at iteration %d (%g > %g)", i, best[i], best[i-1])
		}
	}
	return nil
}

// clone copies an optimizer-owned slice so later reuse of its buffer cannot
// change a stored result. nil stays nil.
func clone(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}
