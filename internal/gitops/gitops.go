package gitops

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Revision is the source state an experiment was run from.
type Revision struct {
	Commit string `json:"commit"`
	// Dirty is set when tracked or untracked files differ from Commit.
	Dirty bool `json:"dirty"`
}

func (r Revision) String() string {
	if r.Dirty {
		return r.Commit + "-dirty"
	}
	return r.Commit
}

// CurrentRevision reports the HEAD commit of the repository containing dir.
func CurrentRevision(dir string) (*Revision, error) {
	head := exec.Command("git", "rev-parse", "HEAD")
	head.Dir = dir
	out, err := head.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	status := exec.Command("git", "status", "--porcelain")
	status.Dir = dir
	changes, err := status.Output()
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return &Revision{
		Commit: strings.TrimSpace(string(out)),
		Dirty:  len(bytes.TrimSpace(changes)) > 0,
	}, nil
}
