package objective

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownFunction is returned when a function id is not part of a suite.
var ErrUnknownFunction = errors.New("unknown function id")

// Suite is a library of benchmark functions indexed by integer id.
type Suite interface {
	// Evaluate returns the fitness of x under function id. Lower is better.
	Evaluate(id int, x []float64) (float64, error)
	// Name returns a short human-readable name for id, or "" if unknown.
	Name(id int) string
	// Optimum returns the known optimal value of id.
	Optimum(id int) (float64, error)
	// IDs lists the function ids in ascending order.
	IDs() []int
}

// Function is a single benchmark function over an unbounded real vector.
type Function struct {
	Name string
	Eval func(x []float64) float64
	// Bias is added to Eval so that the optimum value equals Bias.
	Bias float64
}

// Table is a Suite backed by a fixed map of functions.
type Table map[int]Function

func (t Table) Evaluate(id int, x []float64) (float64, error) {
	fn, ok := t[id]
	if !ok {
		return 0, fmt.Errorf("function %d: %w", id, ErrUnknownFunction)
	}
	if len(x) == 0 {
		return 0, fmt.Errorf("function %d: empty candidate vector", id)
	}
	return fn.Eval(x) + fn.Bias, nil
}

func (t Table) Name(id int) string {
	return t[id].Name
}

func (t Table) Optimum(id int) (float64, error) {
	fn, ok := t[id]
	if !ok {
		return 0, fmt.Errorf("function %d: %w", id, ErrUnknownFunction)
	}
	return fn.Bias, nil
}

func (t Table) IDs() []int {
	ids := make([]int, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Has reports whether s knows function id.
func Has(s Suite, id int) bool {
	for _, known := range s.IDs() {
		if known == id {
			return true
		}
	}
	return false
}
