package docker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/optbench/internal/docker"
)

func TestRunContainer(t *testing.T) {
	if os.Getenv("OPTBENCH_DOCKER_TESTS") == "" {
		t.Skip("set OPTBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	workDir := t.TempDir()
	result, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "echo 42 > /work/output.txt"},
		WorkDir: workDir,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code: got %d, want 0", result.ExitCode)
	}
	if result.TimedOut {
		t.Error("unexpected timeout")
	}
	content, err := os.ReadFile(filepath.Join(workDir, "output.txt"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(content) != "42\n" {
		t.Errorf("output: got %q, want %q", content, "42\n")
	}
}

func TestRunContainerTimeout(t *testing.T) {
	if os.Getenv("OPTBENCH_DOCKER_TESTS") == "" {
		t.Skip("set OPTBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sleep", "300"},
		WorkDir: t.TempDir(),
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout")
	}
	if result.ExitCode != docker.ExitTimeout {
		t.Errorf("exit code: got %d, want %d", result.ExitCode, docker.ExitTimeout)
	}
}

func TestRunContainerRequiresImage(t *testing.T) {
	_, err := docker.RunContainer(context.Background(), &docker.RunOpts{WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for missing image")
	}
}
