package trial

import "time"

// Result is the outcome of one successful trial.
type Result struct {
	// Run is the 1-based execution index within the batch.
	Run         int
	BestFitness float64
	BestPar     []float64
	Evaluations int
	// Runtime is the wall-clock duration of the optimizer call in seconds.
	Runtime   float64
	Converged bool

	BestHistory    []float64
	MeanHistory    []float64
	ScalingHistory []float64
	Values         []float64
}

// Failure records a trial that returned an error.
type Failure struct {
	Run int
	Err error
}

func (f Failure) Error() string {
	return f.Err.Error()
}

// Batch is the complete set of trials for one (function, dimension) pair.
// Results are in execution order.
type Batch struct {
	FunctionID int
	Dimension  int
	Runs       int
	Seed       int64
	Optimizer  string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
	Failures   []Failure
}

// FinalFitness returns the best fitness of every successful trial in
// execution order.
func (b *Batch) FinalFitness() []float64 {
	out := make([]float64, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.BestFitness
	}
	return out
}

// Evaluations returns the evaluation counts in execution order.
func (b *Batch) Evaluations() []float64 {
	out := make([]float64, len(b.Results))
	for i, r := range b.Results {
		out[i] = float64(r.Evaluations)
	}
	return out
}

// Runtimes returns the runtimes in seconds in execution order.
func (b *Batch) Runtimes() []float64 {
	out := make([]float64, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.Runtime
	}
	return out
}
