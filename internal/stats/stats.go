// Package stats computes descriptive statistics over completed batches and
// the paired tests used to compare two runs.
package stats

import (
	"encoding/json"
	"errors"
	"math"
	"sort"

	"github.com/signalnine/optbench/internal/trial"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyBatch is returned when statistics are requested for a batch with
// no successful trials.
var ErrEmptyBatch = errors.New("batch has no trial results")

// ErrNoValues is returned by Describe for an empty vector.
var ErrNoValues = errors.New("no values")

// Descriptive holds the summary of one numeric vector. SD is the sample
// standard deviation and is NaN when N is 1.
type Descriptive struct {
	N      int
	Mean   float64
	Median float64
	SD     float64
	Min    float64
	Max    float64
}

// Summary is the statistics block of a batch.
type Summary struct {
	Runs        int         `json:"runs"`
	BestFitness Descriptive `json:"best_fitness"`
	Evaluations Descriptive `json:"evaluations"`
	Runtime     Descriptive `json:"runtime"`
}

// Compute derives the summary of a batch from its successful results.
func Compute(batch *trial.Batch) (*Summary, error) {
	if batch == nil || len(batch.Results) == 0 {
		return nil, ErrEmptyBatch
	}
	s := &Summary{Runs: len(batch.Results)}
	var err error
	if s.BestFitness, err = Describe(batch.FinalFitness()); err != nil {
		return nil, err
	}
	if s.Evaluations, err = Describe(batch.Evaluations()); err != nil {
		return nil, err
	}
	if s.Runtime, err = Describe(batch.Runtimes()); err != nil {
		return nil, err
	}
	return s, nil
}

// Describe summarizes values. The input is not modified.
func Describe(values []float64) (Descriptive, error) {
	n := len(values)
	if n == 0 {
		return Descriptive{}, ErrNoValues
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	d := Descriptive{
		N:      n,
		Mean:   stat.Mean(values, nil),
		Median: Median(sorted),
		SD:     math.NaN(),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
	if n > 1 {
		d.SD = stat.StdDev(values, nil)
	}
	return d, nil
}

// Median returns the central order statistic of a sorted slice, or the mean
// of the two central ones for even lengths. NaN for an empty slice.
func Median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n%2 == 1:
		return sorted[n/2]
	default:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

// MarshalJSON renders non-finite values as null.
func (d Descriptive) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		N      int      `json:"n"`
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		SD     *float64 `json:"sd"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
	}{d.N, finite(d.Mean), finite(d.Median), finite(d.SD), finite(d.Min), finite(d.Max)})
}

// UnmarshalJSON reads null fields back as NaN.
func (d *Descriptive) UnmarshalJSON(data []byte) error {
	var raw struct {
		N      int      `json:"n"`
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		SD     *float64 `json:"sd"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Descriptive{
		N:      raw.N,
		Mean:   orNaN(raw.Mean),
		Median: orNaN(raw.Median),
		SD:     orNaN(raw.SD),
		Min:    orNaN(raw.Min),
		Max:    orNaN(raw.Max),
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
