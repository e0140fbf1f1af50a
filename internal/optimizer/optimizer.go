package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// Objective evaluates one candidate vector. Lower values are better.
type Objective func(x []float64) (float64, error)

// Problem is a bounded minimization problem handed to an Optimizer.
type Problem struct {
	FunctionID int
	Start      []float64
	Lower      []float64
	Upper      []float64
	// Optimum is the known optimal value. Stop fitness is measured as the
	// error above it.
	Optimum   float64
	Objective Objective
}

// Dim returns the dimensionality of the problem.
func (p *Problem) Dim() int {
	return len(p.Start)
}

func (p *Problem) validate() error {
	n := len(p.Start)
	if n == 0 {
		return fmt.Errorf("empty start point")
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("bounds length (%d, %d) does not match dimension %d", len(p.Lower), len(p.Upper), n)
	}
	for i := range p.Lower {
		if p.Lower[i] > p.Upper[i] {
			return fmt.Errorf("lower bound %g exceeds upper bound %g at index %d", p.Lower[i], p.Upper[i], i)
		}
	}
	return nil
}

// Diagnostics selects which time series an optimizer records.
type Diagnostics struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Best    bool `yaml:"best" json:"best"`
	Mean    bool `yaml:"mean" json:"mean"`
	Scaling bool `yaml:"scaling" json:"scaling"`
	Values  bool `yaml:"values" json:"values"`
}

// AllDiagnostics enables every channel.
func AllDiagnostics() Diagnostics {
	return Diagnostics{Enabled: true, Best: true, Mean: true, Scaling: true, Values: true}
}

// Control holds the run parameters shared by all optimizers.
type Control struct {
	// Budget is the maximum number of objective evaluations.
	Budget int
	// Population is the number of candidates per generation; 0 selects 4*D.
	Population int
	// StopFitness ends the run once the best value minus Problem.Optimum is
	// <= it. Use math.Inf(-1) to disable.
	StopFitness float64
	Diagnostics Diagnostics
}

// Trace is the per-iteration diagnostic output of a run. Best, Mean and
// Scaling have one entry per generation; Values has one entry per evaluation.
type Trace struct {
	Best    []float64 `json:"best"`
	Mean    []float64 `json:"mean"`
	Scaling []float64 `json:"scaling"`
	Values  []float64 `json:"values"`
}

// Result is what an optimizer reports after a run.
type Result struct {
	Par         []float64 `json:"par"`
	Value       float64   `json:"value"`
	Evaluations int       `json:"evaluations"`
	Converged   bool      `json:"converged"`
	Message     string    `json:"message"`
	Trace       Trace     `json:"diagnostic"`
}

// Optimizer is a stochastic black-box minimizer. Implementations draw every
// random number they need from rnd and never from a global source.
type Optimizer interface {
	Name() string
	Optimize(ctx context.Context, p *Problem, ctl Control, rnd *rand.Rand) (*Result, error)
}

// NoStop disables the stop-fitness criterion.
var NoStop = math.Inf(-1)
