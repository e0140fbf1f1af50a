package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/signalnine/optbench/internal/convergence"
	"github.com/signalnine/optbench/internal/gitops"
	"github.com/signalnine/optbench/internal/result"
	"github.com/signalnine/optbench/internal/stats"
	"github.com/signalnine/optbench/internal/trial"
)

// Options control how a batch is persisted.
type Options struct {
	// Compress writes the raw dump zstd-compressed.
	Compress bool
	// Policy is recorded in the manifest.
	Policy string
	Source *gitops.Revision
}

type artifact struct {
	name string
	data []byte
}

// Persist writes the raw dump, convergence table, summary and manifest of a
// batch into dir. Every file is first written under a temporary name; the
// final names appear only once all writes succeeded, so a failed call leaves
// no artifact behind. It returns the paths written.
func Persist(dir string, b *trial.Batch, table *convergence.Table, summary *stats.Summary, opts Options) ([]string, error) {
	if b == nil || table == nil || summary == nil {
		return nil, fmt.Errorf("persist: batch, table and statistics are required")
	}
	if table.Width() != len(b.Results) {
		return nil, fmt.Errorf("persist: convergence table has %d columns for %d results", table.Width(), len(b.Results))
	}
	key := Key{FunctionID: b.FunctionID, Dimension: b.Dimension}

	arts, err := encodeAll(key, b, table, summary, opts)
	if err != nil {
		return nil, err
	}

	temps := make([]string, 0, len(arts))
	cleanup := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}
	for _, a := range arts {
		tmp, err := writeTemp(dir, a)
		if err != nil {
			cleanup()
			return nil, err
		}
		temps = append(temps, tmp)
	}

	paths := make([]string, 0, len(arts))
	for i, a := range arts {
		final := filepath.Join(dir, a.name)
		if err := os.Rename(temps[i], final); err != nil {
			for _, p := range paths {
				os.Remove(p)
			}
			temps = temps[i:]
			cleanup()
			return nil, fmt.Errorf("persist: renaming %s: %w", a.name, err)
		}
		paths = append(paths, final)
	}
	log.Debug().Str("dir", dir).Str("batch", key.String()).Int("files", len(paths)).Msg("artifacts written")
	return paths, nil
}

func encodeAll(key Key, b *trial.Batch, table *convergence.Table, summary *stats.Summary, opts Options) ([]artifact, error) {
	raw, err := EncodeRaw(NewRawDump(b), opts.Compress)
	if err != nil {
		return nil, err
	}
	var conv, sum bytes.Buffer
	if err := convergence.WriteCSV(&conv, table); err != nil {
		return nil, err
	}
	if err := WriteSummary(&sum, b); err != nil {
		return nil, err
	}

	arts := []artifact{
		{name: key.Name(KindRaw, opts.Compress), data: raw},
		{name: key.Name(KindConvergence, false), data: conv.Bytes()},
		{name: key.Name(KindSummary, false), data: sum.Bytes()},
	}
	m := result.NewManifest(b, summary, opts.Policy)
	m.Source = opts.Source
	for _, a := range arts {
		m.Artifacts = append(m.Artifacts, a.name)
	}
	manifest, err := result.EncodeManifest(m)
	if err != nil {
		return nil, err
	}
	return append(arts, artifact{name: key.Name(KindManifest, false), data: manifest}), nil
}

func writeTemp(dir string, a artifact) (string, error) {
	f, err := os.CreateTemp(dir, "."+a.name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("persist: creating temp for %s: %w", a.name, err)
	}
	if _, err := f.Write(a.data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("persist: writing %s: %w", a.name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("persist: closing %s: %w", a.name, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("persist: chmod %s: %w", a.name, err)
	}
	return f.Name(), nil
}
