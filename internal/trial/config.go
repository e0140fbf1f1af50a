package trial

import (
	"fmt"

	"github.com/signalnine/optbench/internal/optimizer"
)

// Config is the immutable parameter set shared by every trial of a batch.
type Config struct {
	FunctionID int
	Dimension  int
	Lower      []float64
	Upper      []float64
	Control    optimizer.Control
}

// Validate checks the configuration invariants. A failure here is a
// configuration error and must stop the batch before any trial runs.
func (c *Config) Validate() error {
	if c.Dimension < 1 {
		return fmt.Errorf("dimension must be at least 1, got %d", c.Dimension)
	}
	if len(c.Lower) != c.Dimension || len(c.Upper) != c.Dimension {
		return fmt.Errorf("bounds length (lower %d, upper %d) does not match dimension %d", len(c.Lower), len(c.Upper), c.Dimension)
	}
	for i := range c.Lower {
		if c.Lower[i] > c.Upper[i] {
			return fmt.Errorf("lower bound %g exceeds upper bound %g at index %d", c.Lower[i], c.Upper[i], i)
		}
	}
	if c.Control.Budget <= 0 {
		return fmt.Errorf("evaluation budget must be positive, got %d", c.Control.Budget)
	}
	if c.Control.Population < 0 {
		return fmt.Errorf("population must not be negative, got %d", c.Control.Population)
	}
	return nil
}

// Center returns the geometric centre of the bounds.
func (c *Config) Center() []float64 {
	x := make([]float64, c.Dimension)
	for i := range x {
		x[i] = c.Lower[i] + (c.Upper[i]-c.Lower[i])/2
	}
	return x
}

// UniformBounds builds lower/upper vectors of length dim from scalars.
func UniformBounds(dim int, lower, upper float64) ([]float64, []float64) {
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lo[i], hi[i] = lower, upper
	}
	return lo, hi
}
