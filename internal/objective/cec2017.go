package objective

import "math"

// CEC2017 returns the basic functions of the CEC 2017 single-objective
// benchmark, ids 1..10. Shift vectors and rotation matrices are not applied,
// so every optimum lies at the origin with value 100*id.
func CEC2017() Table {
	t := Table{
		1:  {Name: "bent_cigar", Eval: bentCigar},
		2:  {Name: "sum_of_different_powers", Eval: sumDifferentPowers},
		3:  {Name: "zakharov", Eval: zakharov},
		4:  {Name: "rosenbrock", Eval: rosenbrock},
		5:  {Name: "rastrigin", Eval: rastrigin},
		6:  {Name: "expanded_schaffer_f6", Eval: expandedSchafferF6},
		7:  {Name: "lunacek_bi_rastrigin", Eval: lunacekBiRastrigin},
		8:  {Name: "non_continuous_rastrigin", Eval: nonContinuousRastrigin},
		9:  {Name: "levy", Eval: levy},
		10: {Name: "schwefel", Eval: schwefel},
	}
	for id, fn := range t {
		fn.Bias = 100 * float64(id)
		t[id] = fn
	}
	return t
}

func bentCigar(x []float64) float64 {
	sum := x[0] * x[0]
	for _, v := range x[1:] {
		sum += 1e6 * v * v
	}
	return sum
}

func sumDifferentPowers(x []float64) float64 {
	var sum float64
	for i, v := range x {
		sum += math.Pow(math.Abs(v), float64(i+2))
	}
	return sum
}

func zakharov(x []float64) float64 {
	var s1, s2 float64
	for i, v := range x {
		s1 += v * v
		s2 += 0.5 * float64(i+1) * v
	}
	return s1 + s2*s2 + s2*s2*s2*s2
}

func rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		z0 := 0.02048*x[i] + 1
		z1 := 0.02048*x[i+1] + 1
		a := z0*z0 - z1
		b := z0 - 1
		sum += 100*a*a + b*b
	}
	return sum
}

func rastriginScaled(z []float64) float64 {
	var sum float64
	for _, v := range z {
		sum += v*v - 10*math.Cos(2*math.Pi*v) + 10
	}
	return sum
}

func rastrigin(x []float64) float64 {
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = 0.0512 * v
	}
	return rastriginScaled(z)
}

func schafferF6(a, b float64) float64 {
	r := a*a + b*b
	s := math.Sin(math.Sqrt(r))
	d := 1 + 0.001*r
	return 0.5 + (s*s-0.5)/(d*d)
}

func expandedSchafferF6(x []float64) float64 {
	n := len(x)
	var sum float64
	for i := 0; i < n; i++ {
		sum += schafferF6(x[i], x[(i+1)%n])
	}
	return sum
}

func lunacekBiRastrigin(x []float64) float64 {
	const mu0, d = 2.5, 1.0
	n := float64(len(x))
	s := 1 - 1/(2*math.Sqrt(n+20)-8.2)
	mu1 := -math.Sqrt((mu0*mu0 - d) / s)
	var s1, s2, c float64
	for _, v := range x {
		xh := 2*0.1*v + mu0
		a := xh - mu0
		b := xh - mu1
		s1 += a * a
		s2 += b * b
		c += math.Cos(2 * math.Pi * a)
	}
	return math.Min(s1, d*n+s*s2) + 10*(n-c)
}

func nonContinuousRastrigin(x []float64) float64 {
	z := make([]float64, len(x))
	for i, v := range x {
		if math.Abs(v) > 0.5 {
			v = math.Round(2*v) / 2
		}
		z[i] = 0.0512 * v
	}
	return rastriginScaled(z)
}

func levy(x []float64) float64 {
	n := len(x)
	w := make([]float64, n)
	for i, v := range x {
		w[i] = 1 + v/4
	}
	first := math.Sin(math.Pi * w[0])
	sum := first * first
	for i := 0; i < n-1; i++ {
		s := math.Sin(math.Pi*w[i] + 1)
		sum += (w[i] - 1) * (w[i] - 1) * (1 + 10*s*s)
	}
	last := math.Sin(2 * math.Pi * w[n-1])
	sum += (w[n-1] - 1) * (w[n-1] - 1) * (1 + last*last)
	return sum
}

func schwefel(x []float64) float64 {
	n := float64(len(x))
	var sum float64
	for _, v := range x {
		z := 10*v + 4.209687462275036e+002
		switch {
		case z > 500:
			m := 500 - math.Mod(z, 500)
			sum += m*math.Sin(math.Sqrt(math.Abs(m))) - (z-500)*(z-500)/(10000*n)
		case z < -500:
			m := math.Mod(math.Abs(z), 500) - 500
			sum += m*math.Sin(math.Sqrt(math.Abs(m))) - (z+500)*(z+500)/(10000*n)
		default:
			sum += z * math.Sin(math.Sqrt(math.Abs(z)))
		}
	}
	return 418.9829*n - sum
}
