package objective_test

import (
	"errors"
	"testing"

	"github.com/signalnine/optbench/internal/objective"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCEC2017OptimumAtOrigin(t *testing.T) {
	suite := objective.CEC2017()
	for _, id := range suite.IDs() {
		t.Run(suite.Name(id), func(t *testing.T) {
			for _, dim := range []int{2, 10, 30} {
				got, err := suite.Evaluate(id, make([]float64, dim))
				require.NoError(t, err)
				assert.InDelta(t, 100*float64(id), got, 1e-3, "dim %d", dim)
			}
		})
	}
}

func TestCEC2017AwayFromOptimumIsWorse(t *testing.T) {
	suite := objective.CEC2017()
	x := []float64{30, -40, 50, 10, -20}
	for _, id := range suite.IDs() {
		got, err := suite.Evaluate(id, x)
		require.NoError(t, err)
		assert.Greater(t, got, 100*float64(id), suite.Name(id))
	}
}

func TestCEC2017IDs(t *testing.T) {
	suite := objective.CEC2017()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, suite.IDs())
	assert.True(t, objective.Has(suite, 4))
	assert.False(t, objective.Has(suite, 42))
	assert.Equal(t, "bent_cigar", suite.Name(1))
}

func TestCEC2017Optimum(t *testing.T) {
	suite := objective.CEC2017()
	for _, id := range suite.IDs() {
		opt, err := suite.Optimum(id)
		require.NoError(t, err)
		got, err := suite.Evaluate(id, make([]float64, 5))
		require.NoError(t, err)
		assert.InDelta(t, opt, got, 1e-3, suite.Name(id))
	}
	_, err := suite.Optimum(11)
	assert.True(t, errors.Is(err, objective.ErrUnknownFunction))
}

func TestEvaluateUnknownFunction(t *testing.T) {
	_, err := objective.CEC2017().Evaluate(99, []float64{0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, objective.ErrUnknownFunction))
}

func TestEvaluateEmptyVector(t *testing.T) {
	_, err := objective.CEC2017().Evaluate(1, nil)
	assert.Error(t, err)
}
