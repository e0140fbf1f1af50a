package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/signalnine/optbench/internal/docker"
)

const (
	problemFile = "problem.json"
	resultFile  = "result.json"
)

// Container runs an external optimizer implementation inside a Docker
// container. The implementation reads /work/problem.json, evaluates the
// benchmark function itself and writes /work/result.json. The in-process
// Problem.Objective is not called.
type Container struct {
	Image       string
	Command     []string
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
	// Env is passed to the container in addition to the problem and result
	// paths.
	Env map[string]string
	// ScratchDir is the parent of per-trial working directories; empty uses
	// the system temp dir.
	ScratchDir string
	// Run executes the container; nil uses docker.RunContainer.
	Run func(ctx context.Context, opts *docker.RunOpts) (*docker.RunResult, error)
}

// ProblemSpec is the content of problem.json.
type ProblemSpec struct {
	FunctionID  int         `json:"function_id"`
	Dimension   int         `json:"dimension"`
	Start       []float64   `json:"start"`
	Lower       []float64   `json:"lower"`
	Upper       []float64   `json:"upper"`
	Budget      int         `json:"budget"`
	Population  int         `json:"population"`
	StopFitness *float64    `json:"stop_fitness"`
	Optimum     float64     `json:"optimum"`
	Seed        int64       `json:"seed"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

func (c *Container) Name() string {
	return "container"
}

// Optimize takes one value from rnd as the seed of the external run, so the
// batch stream still advances once per trial.
func (c *Container) Optimize(ctx context.Context, p *Problem, ctl Control, rnd *rand.Rand) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if ctl.Budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %d", ctl.Budget)
	}
	if rnd == nil {
		return nil, fmt.Errorf("random stream is required")
	}

	workDir, err := os.MkdirTemp(c.ScratchDir, "optbench-trial-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	spec := ProblemSpec{
		FunctionID:  p.FunctionID,
		Dimension:   p.Dim(),
		Start:       p.Start,
		Lower:       p.Lower,
		Upper:       p.Upper,
		Budget:      ctl.Budget,
		Population:  ctl.Population,
		Optimum:     p.Optimum,
		Seed:        rnd.Int63(),
		Diagnostics: ctl.Diagnostics,
	}
	if !math.IsInf(ctl.StopFitness, -1) {
		stop := ctl.StopFitness
		spec.StopFitness = &stop
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling problem: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, problemFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing problem: %w", err)
	}

	run := c.Run
	if run == nil {
		run = docker.RunContainer
	}
	out, err := run(ctx, &docker.RunOpts{
		Image:       c.Image,
		Command:     c.Command,
		WorkDir:     workDir,
		Env:         c.env(),
		Timeout:     c.Timeout,
		CPULimit:    c.CPULimit,
		MemoryLimit: c.MemoryLimit,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
	})
	if err != nil {
		return nil, fmt.Errorf("running container: %w", err)
	}
	if out.ExitCode != 0 || out.TimedOut {
		return nil, fmt.Errorf("container %s (exit %d): %s", ExitReasonFromCode(out.ExitCode, out.TimedOut), out.ExitCode, strings.TrimSpace(string(out.Logs)))
	}

	raw, err := os.ReadFile(filepath.Join(workDir, resultFile))
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}
	if res.Evaluations > ctl.Budget {
		return nil, fmt.Errorf("external optimizer used %d evaluations, budget is %d", res.Evaluations, ctl.Budget)
	}
	if !ctl.Diagnostics.Enabled {
		res.Trace = Trace{}
	}
	return &res, nil
}

func ExitReasonFromCode(code int, timedOut bool) string {
	if timedOut {
		return "timeout"
	}
	switch code {
	case 0:
		return "completed"
	default:
		return "crashed"
	}
}

func (c *Container) env() map[string]string {
	env := make(map[string]string, len(c.Env)+2)
	for k, v := range c.Env {
		env[k] = v
	}
	env["OPTBENCH_PROBLEM"] = docker.WorkMount + "/" + problemFile
	env["OPTBENCH_RESULT"] = docker.WorkMount + "/" + resultFile
	return env
}
