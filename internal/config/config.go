package config

import (
	"fmt"
	"os"
	"time"

	"github.com/signalnine/optbench/internal/objective"
	"github.com/signalnine/optbench/internal/optimizer"
	"github.com/signalnine/optbench/internal/runner"
	"github.com/signalnine/optbench/internal/trial"
	"gopkg.in/yaml.v3"
)

// DefaultBudgetPerDimension gives the usual CEC budget of 10000*D evaluations.
const DefaultBudgetPerDimension = 10000

type Config struct {
	Seed               int64     `yaml:"seed"`
	Runs               int       `yaml:"runs"`
	Functions          []int     `yaml:"functions"`
	Dimensions         []int     `yaml:"dimensions"`
	BudgetPerDimension int       `yaml:"budget_per_dimension"`
	Bounds             Bounds    `yaml:"bounds"`
	FailurePolicy      string    `yaml:"failure_policy"`
	Optimizer          Optimizer `yaml:"optimizer"`
	Results            Results   `yaml:"results"`
}

type Bounds struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

type Optimizer struct {
	Name        string                `yaml:"name"`
	Population  int                   `yaml:"population"`
	StopFitness *float64              `yaml:"stop_fitness"`
	Diagnostics optimizer.Diagnostics `yaml:"diagnostics"`
	Container   Container             `yaml:"container"`
}

type Container struct {
	Image          string            `yaml:"image"`
	Command        []string          `yaml:"command"`
	Env            map[string]string `yaml:"env"`
	TimeoutMinutes int               `yaml:"timeout_minutes"`
	CPULimit       float64           `yaml:"cpu_limit"`
	MemoryLimit    int64             `yaml:"memory_limit"`
}

type Results struct {
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the file and fills defaults. It is called again after
// command-line overrides are applied.
func (cfg *Config) Validate() error {
	if cfg.Runs < 1 {
		return fmt.Errorf("runs must be at least 1")
	}
	if len(cfg.Functions) == 0 {
		return fmt.Errorf("no functions defined")
	}
	// Every optimizer is scored by the built-in suite, external ones included.
	suite := objective.CEC2017()
	for _, id := range cfg.Functions {
		if !objective.Has(suite, id) {
			return fmt.Errorf("function %d: %w", id, objective.ErrUnknownFunction)
		}
	}
	if len(cfg.Dimensions) == 0 {
		return fmt.Errorf("no dimensions defined")
	}
	for _, d := range cfg.Dimensions {
		if d < 1 {
			return fmt.Errorf("dimension must be at least 1, got %d", d)
		}
	}
	if cfg.BudgetPerDimension == 0 {
		cfg.BudgetPerDimension = DefaultBudgetPerDimension
	}
	if cfg.BudgetPerDimension < 0 {
		return fmt.Errorf("budget_per_dimension must be positive")
	}
	if cfg.Bounds == (Bounds{}) {
		cfg.Bounds = Bounds{Lower: -100, Upper: 100}
	}
	if cfg.Bounds.Lower > cfg.Bounds.Upper {
		return fmt.Errorf("bounds.lower %g exceeds bounds.upper %g", cfg.Bounds.Lower, cfg.Bounds.Upper)
	}
	if _, err := runner.ParsePolicy(cfg.FailurePolicy); err != nil {
		return err
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = string(runner.PolicyAbort)
	}
	if cfg.Optimizer.Population < 0 {
		return fmt.Errorf("optimizer.population must not be negative")
	}
	switch cfg.Optimizer.Name {
	case "":
		cfg.Optimizer.Name = "des"
	case "des":
	case "container":
		c := &cfg.Optimizer.Container
		if c.Image == "" {
			return fmt.Errorf("optimizer.container.image is required for the container optimizer")
		}
		if c.TimeoutMinutes == 0 {
			c.TimeoutMinutes = 30
		}
		if c.TimeoutMinutes < 0 {
			return fmt.Errorf("optimizer.container.timeout_minutes must be positive")
		}
	default:
		return fmt.Errorf("unknown optimizer %q", cfg.Optimizer.Name)
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	return nil
}

// Policy returns the parsed failure policy.
func (cfg *Config) Policy() runner.FailurePolicy {
	p, _ := runner.ParsePolicy(cfg.FailurePolicy)
	return p
}

// Trials expands functions x dimensions into one trial configuration per
// batch, functions outermost.
func (cfg *Config) Trials() []trial.Config {
	stop := optimizer.NoStop
	if cfg.Optimizer.StopFitness != nil {
		stop = *cfg.Optimizer.StopFitness
	}
	out := make([]trial.Config, 0, len(cfg.Functions)*len(cfg.Dimensions))
	for _, fid := range cfg.Functions {
		for _, dim := range cfg.Dimensions {
			lo, hi := trial.UniformBounds(dim, cfg.Bounds.Lower, cfg.Bounds.Upper)
			out = append(out, trial.Config{
				FunctionID: fid,
				Dimension:  dim,
				Lower:      lo,
				Upper:      hi,
				Control: optimizer.Control{
					Budget:      cfg.BudgetPerDimension * dim,
					Population:  cfg.Optimizer.Population,
					StopFitness: stop,
					Diagnostics: cfg.Optimizer.Diagnostics,
				},
			})
		}
	}
	return out
}

// NewOptimizer builds the configured optimizer.
func (cfg *Config) NewOptimizer() (optimizer.Optimizer, error) {
	if cfg.Optimizer.Name != "container" {
		return optimizer.New(cfg.Optimizer.Name)
	}
	c := cfg.Optimizer.Container
	return &optimizer.Container{
		Image:       c.Image,
		Command:     c.Command,
		Env:         c.Env,
		Timeout:     time.Duration(c.TimeoutMinutes) * time.Minute,
		CPULimit:    c.CPULimit,
		MemoryLimit: c.MemoryLimit,
	}, nil
}
