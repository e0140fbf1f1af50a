// Package store persists batches as flat, re-loadable artifacts.
package store

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
)

type Kind string

const (
	KindRaw         Kind = "results"
	KindConvergence Kind = "convergence"
	KindSummary     Kind = "summary"
	KindManifest    Kind = "manifest"
)

const (
	extRaw           = ".msgpack"
	extRawCompressed = ".msgpack.zst"
	extCSV           = ".csv"
	extJSON          = ".json"
)

// Key identifies the batch an artifact belongs to.
type Key struct {
	FunctionID int
	Dimension  int
}

func (k Key) String() string {
	return fmt.Sprintf("f%d_d%d", k.FunctionID, k.Dimension)
}

// Name returns the file name of the artifact of kind for k. compressed only
// affects the raw dump.
func (k Key) Name(kind Kind, compressed bool) string {
	base := string(kind) + "_" + k.String()
	switch kind {
	case KindRaw:
		if compressed {
			return base + extRawCompressed
		}
		return base + extRaw
	case KindManifest:
		return base + extJSON
	default:
		return base + extCSV
	}
}

var artifactRe = regexp.MustCompile(`^(results|convergence|summary|manifest)_f(\d+)_d(\d+)(\.msgpack\.zst|\.msgpack|\.csv|\.json)$`)

// ParseArtifactName splits an artifact file name into its kind and key.
func ParseArtifactName(name string) (Kind, Key, error) {
	m := artifactRe.FindStringSubmatch(name)
	if m == nil {
		return "", Key{}, fmt.Errorf("not an artifact name: %q", name)
	}
	kind := Kind(m[1])
	fid, _ := strconv.Atoi(m[2])
	dim, _ := strconv.Atoi(m[3])
	key := Key{FunctionID: fid, Dimension: dim}
	if key.Name(kind, m[4] == extRawCompressed) != name {
		return "", Key{}, fmt.Errorf("artifact %q has the wrong extension for %s", name, kind)
	}
	return kind, key, nil
}

// Keys lists the batches in dir that have a summary file, ordered by
// function id then dimension.
func Keys(dir string) ([]Key, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var keys []Key
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind, key, err := ParseArtifactName(e.Name())
		if err != nil || kind != KindSummary {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FunctionID != keys[j].FunctionID {
			return keys[i].FunctionID < keys[j].FunctionID
		}
		return keys[i].Dimension < keys[j].Dimension
	})
	return keys, nil
}
