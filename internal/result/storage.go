package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const latestLink = "latest"

// CreateRunDir creates <baseDir>/runs/<timestamp> and points <baseDir>/latest
// at it. A second run within the same second gets a numeric suffix.
func CreateRunDir(baseDir string, now time.Time) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating runs dir: %w", err)
	}
	stamp := now.UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(runsDir, stamp)
	for i := 1; ; i++ {
		err := os.Mkdir(runDir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("creating run dir: %w", err)
		}
		runDir = filepath.Join(runsDir, fmt.Sprintf("%s-%d", stamp, i))
	}
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	latest := filepath.Join(baseDir, latestLink)
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

// LatestRunDir returns the current target of <baseDir>/latest, or "" if
// there is none.
func LatestRunDir(baseDir string) string {
	target, err := os.Readlink(filepath.Join(baseDir, latestLink))
	if err != nil {
		return ""
	}
	return target
}

// DiscardRunDir removes runDir and points <baseDir>/latest back at previous.
// An empty previous leaves no latest link.
func DiscardRunDir(baseDir, runDir, previous string) error {
	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("removing run dir: %w", err)
	}
	latest := filepath.Join(baseDir, latestLink)
	if err := os.Remove(latest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing latest symlink: %w", err)
	}
	if previous == "" {
		return nil
	}
	if err := os.Symlink(previous, latest); err != nil {
		return fmt.Errorf("restoring latest symlink: %w", err)
	}
	return nil
}

// ResolveRunDir returns dir if given, otherwise the target of
// <baseDir>/latest.
func ResolveRunDir(baseDir, dir string) (string, error) {
	if dir == "" {
		dir = filepath.Join(baseDir, latestLink)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir %s: %w", dir, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("reading run dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return resolved, nil
}

// EncodeManifest renders m as indented JSON with a trailing newline.
func EncodeManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
