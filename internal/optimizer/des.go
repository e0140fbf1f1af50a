package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DES is a Differential Evolution Strategy. New candidates are sampled around
// a weighted mean of the best half of the population using scaled differences
// of previously selected points drawn from a sliding history window, plus a
// component along the cumulative mean-shift path.
type DES struct {
	// Epsilon scales the isotropic noise term relative to the box width.
	Epsilon float64
}

// NewDES returns a DES with default settings.
func NewDES() *DES {
	return &DES{Epsilon: 1e-6}
}

func (d *DES) Name() string {
	return "des"
}

func (d *DES) Optimize(ctx context.Context, p *Problem, ctl Control, rnd *rand.Rand) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Objective == nil {
		return nil, fmt.Errorf("objective is required")
	}
	if ctl.Budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %d", ctl.Budget)
	}
	if rnd == nil {
		return nil, fmt.Errorf("random stream is required")
	}

	n := p.Dim()
	lambda := ctl.Population
	if lambda <= 0 {
		lambda = 4 * n
	}
	if lambda > ctl.Budget {
		lambda = ctl.Budget
	}
	mu := lambda / 2
	if mu < 1 {
		mu = 1
	}
	weights := selectionWeights(mu)
	cp := 1 / math.Sqrt(float64(n))
	histSize := 6 + int(math.Ceil(3*math.Sqrt(float64(n))))
	ft := 1 / math.Sqrt2
	decay := 1 - 2/float64(n*n)
	if decay <= 0 {
		decay = 0.5
	}
	diag := ctl.Diagnostics

	res := &Result{Value: math.Inf(1), Message: "budget exhausted"}
	var tr Trace
	evaluate := func(x []float64) (float64, error) {
		v, err := p.Objective(x)
		if err != nil {
			return 0, fmt.Errorf("evaluation %d: %w", res.Evaluations+1, err)
		}
		res.Evaluations++
		if diag.Enabled && diag.Values {
			tr.Values = append(tr.Values, v)
		}
		if res.Par == nil || better(v, res.Value) {
			res.Value = v
			res.Par = append(res.Par[:0], x...)
		}
		return v, nil
	}

	pop := make([][]float64, lambda)
	for i := range pop {
		x := make([]float64, n)
		for j := range x {
			x[j] = p.Lower[j] + rnd.Float64()*(p.Upper[j]-p.Lower[j])
		}
		pop[i] = x
	}
	mean := append([]float64(nil), p.Start...)
	pc := make([]float64, n)
	var (
		history   [][][]float64
		pcHistory [][]float64
		head      int
	)
	fitness := make([]float64, lambda)
	order := make([]int, lambda)

	for gen := 0; res.Evaluations+lambda <= ctl.Budget; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var sum float64
		for i, x := range pop {
			reflectInto(x, p.Lower, p.Upper)
			v, err := evaluate(x)
			if err != nil {
				return nil, err
			}
			fitness[i] = v
			sum += v
		}
		if diag.Enabled {
			if diag.Best {
				tr.Best = append(tr.Best, res.Value)
			}
			if diag.Mean {
				tr.Mean = append(tr.Mean, sum/float64(lambda))
			}
			if diag.Scaling {
				tr.Scaling = append(tr.Scaling, ft)
			}
		}
		if res.Value-p.Optimum <= ctl.StopFitness {
			res.Converged = true
			res.Message = "stop fitness reached"
			break
		}

		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return better(fitness[order[a]], fitness[order[b]])
		})

		oldMean := mean
		mean = make([]float64, n)
		for k := 0; k < mu; k++ {
			x := pop[order[k]]
			for j := range mean {
				mean[j] += weights[k] * x[j]
			}
		}
		shift := math.Sqrt(float64(mu) * cp * (2 - cp))
		for j := range pc {
			pc[j] = (1-cp)*pc[j] + shift*(mean[j]-oldMean[j])
		}

		selected := make([][]float64, mu)
		for k := range selected {
			x := pop[order[k]]
			dx := make([]float64, n)
			for j := range dx {
				dx[j] = (x[j] - oldMean[j]) / ft
			}
			selected[k] = dx
		}
		pcCopy := append([]float64(nil), pc...)
		if head == len(history) {
			history = append(history, selected)
			pcHistory = append(pcHistory, pcCopy)
		} else {
			history[head] = selected
			pcHistory[head] = pcCopy
		}
		head = (head + 1) % histSize

		noise := d.Epsilon * math.Pow(decay, float64(gen)/2) / math.Sqrt(float64(n))
		for _, x := range pop {
			h := rnd.Intn(len(history))
			a, b := rnd.Intn(mu), rnd.Intn(mu)
			z := rnd.NormFloat64()
			for j := range x {
				diff := math.Sqrt(cp/2)*(history[h][a][j]-history[h][b][j]) + math.Sqrt(cp)*z*pcHistory[h][j]
				x[j] = mean[j] + ft*diff + noise*rnd.NormFloat64()*(p.Upper[j]-p.Lower[j])
			}
		}
	}

	res.Trace = tr
	return res, nil
}

// better orders fitness values ascending with NaN last.
func better(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

func selectionWeights(mu int) []float64 {
	w := make([]float64, mu)
	var sum float64
	for k := range w {
		w[k] = math.Log(float64(mu)+1) - math.Log(float64(k)+1)
		sum += w[k]
	}
	for k := range w {
		w[k] /= sum
	}
	return w
}

func reflectInto(x, lower, upper []float64) {
	for j := range x {
		lo, hi := lower[j], upper[j]
		if x[j] < lo {
			x[j] = lo + (lo - x[j])
		}
		if x[j] > hi {
			x[j] = hi - (x[j] - hi)
		}
		x[j] = math.Min(math.Max(x[j], lo), hi)
	}
}
