package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/signalnine/optbench/internal/trial"
	"github.com/vmihailenco/msgpack/v5"
)

// RawRun is the complete record of one successful trial.
type RawRun struct {
	Run                int       `msgpack:"run"`
	FinalFitness       float64   `msgpack:"finalFitness"`
	BestPar            []float64 `msgpack:"bestPar"`
	Evaluations        int       `msgpack:"evaluations"`
	Runtime            float64   `msgpack:"runtime"`
	Converged          bool      `msgpack:"converged"`
	HistoryLength      int       `msgpack:"historyLength"`
	BestFitnessHistory []float64 `msgpack:"bestFitnessHistory"`
	MeanFitnessHistory []float64 `msgpack:"meanFitnessHistory"`
	ScalingHistory     []float64 `msgpack:"scalingHistory"`
	Values             []float64 `msgpack:"values"`
}

type RawFailure struct {
	Run   int    `msgpack:"run"`
	Error string `msgpack:"error"`
}

// RawDump is the serialized form of a whole batch.
type RawDump struct {
	FunctionID int          `msgpack:"functionId"`
	Dimension  int          `msgpack:"dimension"`
	Runs       int          `msgpack:"runs"`
	Seed       int64        `msgpack:"seed"`
	Optimizer  string       `msgpack:"optimizer"`
	StartedAt  time.Time    `msgpack:"startedAt"`
	FinishedAt time.Time    `msgpack:"finishedAt"`
	Results    []RawRun     `msgpack:"results"`
	Failures   []RawFailure `msgpack:"failures"`
}

func NewRawDump(b *trial.Batch) *RawDump {
	d := &RawDump{
		FunctionID: b.FunctionID,
		Dimension:  b.Dimension,
		Runs:       b.Runs,
		Seed:       b.Seed,
		Optimizer:  b.Optimizer,
		StartedAt:  b.StartedAt.UTC(),
		FinishedAt: b.FinishedAt.UTC(),
		Results:    make([]RawRun, len(b.Results)),
	}
	for i, r := range b.Results {
		d.Results[i] = RawRun{
			Run:                r.Run,
			FinalFitness:       r.BestFitness,
			BestPar:            r.BestPar,
			Evaluations:        r.Evaluations,
			Runtime:            r.Runtime,
			Converged:          r.Converged,
			HistoryLength:      len(r.BestHistory),
			BestFitnessHistory: r.BestHistory,
			MeanFitnessHistory: r.MeanHistory,
			ScalingHistory:     r.ScalingHistory,
			Values:             r.Values,
		}
	}
	for _, f := range b.Failures {
		d.Failures = append(d.Failures, RawFailure{Run: f.Run, Error: f.Err.Error()})
	}
	return d
}

// Batch rebuilds the batch the dump was made from.
func (d *RawDump) Batch() *trial.Batch {
	b := &trial.Batch{
		FunctionID: d.FunctionID,
		Dimension:  d.Dimension,
		Runs:       d.Runs,
		Seed:       d.Seed,
		Optimizer:  d.Optimizer,
		StartedAt:  d.StartedAt,
		FinishedAt: d.FinishedAt,
		Results:    make([]trial.Result, len(d.Results)),
	}
	for i, r := range d.Results {
		b.Results[i] = trial.Result{
			Run:            r.Run,
			BestFitness:    r.FinalFitness,
			BestPar:        r.BestPar,
			Evaluations:    r.Evaluations,
			Runtime:        r.Runtime,
			Converged:      r.Converged,
			BestHistory:    r.BestFitnessHistory,
			MeanHistory:    r.MeanFitnessHistory,
			ScalingHistory: r.ScalingHistory,
			Values:         r.Values,
		}
	}
	for _, f := range d.Failures {
		b.Failures = append(b.Failures, trial.Failure{Run: f.Run, Err: errors.New(f.Error)})
	}
	return b
}

// EncodeRaw serializes d, zstd-compressed when compress is set.
func EncodeRaw(d *RawDump, compress bool) ([]byte, error) {
	data, err := msgpack.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding raw dump: %w", err)
	}
	if !compress {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func DecodeRaw(data []byte, compressed bool) (*RawDump, error) {
	if compressed {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return nil, fmt.Errorf("decompressing raw dump: %w", err)
		}
	}
	var d RawDump
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding raw dump: %w", err)
	}
	return &d, nil
}

// ReadRaw loads a raw dump; a .zst suffix selects decompression.
func ReadRaw(path string) (*RawDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading raw dump: %w", err)
	}
	return DecodeRaw(data, strings.HasSuffix(path, ".zst"))
}
