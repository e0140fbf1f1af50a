package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/signalnine/optbench/internal/config"
	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/gitops"
	"github.com/signalnine/optbench/internal/objective"
	"github.com/signalnine/optbench/internal/optimizer"
	"github.com/signalnine/optbench/internal/report"
	"github.com/signalnine/optbench/internal/result"
	"github.com/signalnine/optbench/internal/rng"
	"github.com/signalnine/optbench/internal/runner"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/store"
	"github.com/signalnine/optbench/internal/trial"
	"github.com/spf13/cobra"
)

var (
	flagRuns              int
	flagFunction          int
	flagDimension         int
	flagSeed              int64
	flagParallel          int
	flagCleanupAggressive bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured batches and store their artifacts",
		RunE:  runBenchmark,
	}
	cmd.Flags().IntVar(&flagRuns, "runs", 0, "override run count per batch")
	cmd.Flags().IntVar(&flagFunction, "function", 0, "only run this function id")
	cmd.Flags().IntVar(&flagDimension, "dimension", 0, "only run this dimension")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "override the batch seed")
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "max batches running at once")
	cmd.Flags().BoolVar(&flagCleanupAggressive, "cleanup-aggressive", false, "remove all optbench Docker containers after run")
	return cmd
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagRuns > 0 {
		cfg.Runs = flagRuns
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config after overrides: %w", err)
	}

	trials := filterTrials(cfg.Trials(), flagFunction, flagDimension)
	if len(trials) == 0 {
		return fmt.Errorf("no configured batch matches function %d dimension %d", flagFunction, flagDimension)
	}
	opt, err := cfg.NewOptimizer()
	if err != nil {
		return err
	}

	previous := result.LatestRunDir(cfg.Results.Dir)
	runDir, err := result.CreateRunDir(cfg.Results.Dir, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Run directory: %s\n", runDir)

	source, err := gitops.CurrentRevision(".")
	if err != nil {
		log.Debug().Err(err).Msg("source revision unavailable")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	jobs := make([]runner.Job, len(trials))
	for i, tc := range trials {
		jobs[i] = func() error {
			_, err := executeBatch(ctx, &batchOpts{
				Trial:     tc,
				Runs:      cfg.Runs,
				Seed:      cfg.Seed,
				Optimizer: opt,
				Policy:    cfg.Policy(),
				Dir:       runDir,
				Compress:  cfg.Results.Compress,
				Source:    source,
			})
			return err
		}
	}
	errs := runner.RunPool(flagParallel, jobs)
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			log.Error().Err(err).Int("function", trials[i].FunctionID).Int("dimension", trials[i].Dimension).Msg("batch failed")
		}
	}

	if flagCleanupAggressive {
		cleanupDocker()
	}
	if failed == len(trials) {
		if err := result.DiscardRunDir(cfg.Results.Dir, runDir, previous); err != nil {
			log.Warn().Err(err).Str("dir", runDir).Msg("could not discard empty run dir")
		}
		return fmt.Errorf("all %d batches failed: %w", failed, runner.FirstError(errs))
	}

	fmt.Println("\n--- Results ---")
	if err := report.Generate(runDir, "table", os.Stdout); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d batches failed", failed, len(trials))
	}
	return nil
}

type batchOpts struct {
	Trial     trial.Config
	Runs      int
	Seed      int64
	Optimizer optimizer.Optimizer
	Policy    runner.FailurePolicy
	Dir       string
	Compress  bool
	Source    *gitops.Revision
	// Now overrides the trial clock.
	Now func() time.Time
}

// executeBatch runs one batch on a fresh stream and persists its artifacts.
func executeBatch(ctx context.Context, o *batchOpts) ([]string, error) {
	r := &runner.Runner{
		Optimizer: o.Optimizer,
		Suite:     objective.CEC2017(),
		Policy:    o.Policy,
		Now:       o.Now,
	}
	batch, err := r.RunBatch(ctx, o.Trial, o.Runs, rng.New(o.Seed))
	if err != nil {
		return nil, err
	}
	summary, err := stats.Compute(batch)
	if err != nil {
		return nil, err
	}
	paths, err := store.Persist(o.Dir, batch, convergence.Build(batch), summary, store.Options{
		Compress: o.Compress,
		Policy:   string(o.Policy),
		Source:   o.Source,
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("function", batch.FunctionID).
		Int("dimension", batch.Dimension).
		Float64("median", summary.BestFitness.Median).
		Int("failed", len(batch.Failures)).
		Msg("batch stored")
	return paths, nil
}

func cleanupDocker() {
	// Best-effort cleanup of optbench-labeled containers
	fmt.Println("Cleaning up Docker artifacts...")
	run := func(args ...string) {
		cmd := newExecCmd(args...)
		cmd.Run()
	}
	run("docker", "container", "prune", "-f", "--filter", "label=optbench=true")
}

func filterTrials(trials []trial.Config, function, dimension int) []trial.Config {
	var filtered []trial.Config
	for _, t := range trials {
		if function != 0 && t.FunctionID != function {
			continue
		}
		if dimension != 0 && t.Dimension != dimension {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func newExecCmd(args ...string) *exec.Cmd {
	return exec.Command(args[0], args[1:]...)
}
