package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoDifferences is returned when every paired difference is zero.
var ErrNoDifferences = errors.New("all paired differences are zero")

// exactLimit is the largest sample size for which the exact null
// distribution is enumerated.
const exactLimit = 50

// Test methods reported in WilcoxonResult.
const (
	MethodExact  = "exact"
	MethodNormal = "normal"
)

// WilcoxonResult is the outcome of a two-sided signed-rank test.
type WilcoxonResult struct {
	// Statistic is min(W+, W-).
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	// N is the number of non-zero differences.
	N      int    `json:"n"`
	Method string `json:"method"`
}

// WilcoxonSignedRank tests whether the paired differences x[i]-y[i] are
// symmetric about zero. Zero differences are dropped. Samples up to 50
// pairs without tied magnitudes use the exact distribution; otherwise the
// normal approximation with tie correction is used.
func WilcoxonSignedRank(x, y []float64) (WilcoxonResult, error) {
	if len(x) != len(y) {
		return WilcoxonResult{}, fmt.Errorf("paired samples differ in length: %d and %d", len(x), len(y))
	}
	diffs := make([]float64, 0, len(x))
	for i := range x {
		d := x[i] - y[i]
		if math.IsNaN(d) {
			return WilcoxonResult{}, fmt.Errorf("difference at index %d is NaN", i)
		}
		if d != 0 {
			diffs = append(diffs, d)
		}
	}
	n := len(diffs)
	if n == 0 {
		return WilcoxonResult{}, ErrNoDifferences
	}

	ranks, tieGroups := signedRanks(diffs)
	var wPlus, wMinus float64
	for i, d := range diffs {
		if d > 0 {
			wPlus += ranks[i]
		} else {
			wMinus += ranks[i]
		}
	}
	res := WilcoxonResult{Statistic: math.Min(wPlus, wMinus), N: n}

	if n <= exactLimit && len(tieGroups) == 0 {
		res.Method = MethodExact
		res.PValue = exactPValue(n, res.Statistic)
		return res, nil
	}

	mean := float64(n*(n+1)) / 4
	variance := float64(n*(n+1)*(2*n+1)) / 24
	for _, t := range tieGroups {
		tf := float64(t)
		variance -= (tf*tf*tf - tf) / 48
	}
	res.Method = MethodNormal
	if variance <= 0 {
		res.PValue = 1
		return res, nil
	}
	z := (res.Statistic - mean) / math.Sqrt(variance)
	res.PValue = math.Min(1, 2*distuv.UnitNormal.CDF(-math.Abs(z)))
	return res, nil
}

// signedRanks ranks |d| with average ranks for ties and returns the size of
// every tie group larger than one.
func signedRanks(diffs []float64) ([]float64, []int) {
	n := len(diffs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return math.Abs(diffs[idx[a]]) < math.Abs(diffs[idx[b]])
	})

	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i
		for j+1 < n && math.Abs(diffs[idx[j+1]]) == math.Abs(diffs[idx[i]]) {
			j++
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		if j > i {
			ties = append(ties, j-i+1)
		}
		i = j + 1
	}
	return ranks, ties
}

// exactPValue returns 2*P(W <= t) under the null for n untied ranks,
// capped at 1.
func exactPValue(n int, t float64) float64 {
	maxSum := n * (n + 1) / 2
	counts := make([]float64, maxSum+1)
	counts[0] = 1
	for r := 1; r <= n; r++ {
		for s := maxSum; s >= r; s-- {
			counts[s] += counts[s-r]
		}
	}
	total := math.Pow(2, float64(n))
	var cum float64
	for s := 0; s <= int(math.Floor(t)) && s <= maxSum; s++ {
		cum += counts[s]
	}
	return math.Min(1, 2*cum/total)
}
