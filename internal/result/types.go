package result

import (
	"time"

	"github.com/google/uuid"
	"github.com/signalnine/optbench/internal/gitops"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/trial"
)

// Manifest describes one persisted batch.
type Manifest struct {
	BatchID    string          `json:"batch_id"`
	FunctionID int             `json:"function_id"`
	Dimension  int             `json:"dimension"`
	Runs       int             `json:"runs"`
	Succeeded  int             `json:"succeeded"`
	Seed       int64           `json:"seed"`
	Optimizer  string          `json:"optimizer"`
	Policy     string          `json:"failure_policy"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Failures   []FailureRecord `json:"failures,omitempty"`
	Stats      *stats.Summary  `json:"stats"`
	Artifacts  []string        `json:"artifacts"`
	// Source is the revision the harness was built from, when known.
	Source *gitops.Revision `json:"source,omitempty"`
}

type FailureRecord struct {
	Run   int    `json:"run"`
	Error string `json:"error"`
}

// NewManifest builds the manifest of batch with a fresh batch id.
func NewManifest(batch *trial.Batch, summary *stats.Summary, policy string) *Manifest {
	m := &Manifest{
		BatchID:    uuid.NewString(),
		FunctionID: batch.FunctionID,
		Dimension:  batch.Dimension,
		Runs:       batch.Runs,
		Succeeded:  len(batch.Results),
		Seed:       batch.Seed,
		Optimizer:  batch.Optimizer,
		Policy:     policy,
		StartedAt:  batch.StartedAt.UTC(),
		FinishedAt: batch.FinishedAt.UTC(),
		Stats:      summary,
	}
	for _, f := range batch.Failures {
		m.Failures = append(m.Failures, FailureRecord{Run: f.Run, Error: f.Err.Error()})
	}
	return m
}
