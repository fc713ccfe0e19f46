package stats

import (
	"fmt"
	"math"
)

// SEM is the standard error of the mean.
func SEM(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Stddev(values) / math.Sqrt(float64(len(values)))
}

// ConfidenceIntervalWidth returns the half-width of the confidence
// interval around the sample mean at the given one-sided confidence level
// (e.g. 0.999), using the Student t distribution with n-1 degrees of
// freedom. It is 0 for fewer than two samples.
func ConfidenceIntervalWidth(values []float64, confidence float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	return SEM(values) * StudentTQuantile(confidence, float64(n-1))
}

// MeanString renders the sample mean with its confidence interval, e.g.
// "12.34±0.56".
func MeanString(values []float64, confidence float64) string {
	return fmt.Sprintf("%.2f±%.2f", Mean(values), ConfidenceIntervalWidth(values, confidence))
}

// WelchTTest runs Welch's two-sample t-test and returns the t statistic
// and the two-sided p-value. Unlike rank based tests, Welch's variant does
// not assume both populations share the same variance, which benchmark
// timings rarely do.
func WelchTTest(a, b []float64) (t, p float64) {
	na, nb := float64(len(a)), float64(len(b))
	if na < 2 || nb < 2 {
		return 0, 1
	}

	meanA, meanB := Mean(a), Mean(b)
	sa := Stddev(a)
	sb := Stddev(b)
	va, vb := sa*sa/na, sb*sb/nb

	se := math.Sqrt(va + vb)
	if se == 0 {
		if meanA == meanB {
			return 0, 1
		}
		return math.Inf(sign(meanA - meanB)), 0
	}

	t = (meanA - meanB) / se

	// Welch-Satterthwaite degrees of freedom.
	dof := (va + vb) * (va + vb) / (va*va/(na-1) + vb*vb/(nb-1))

	p = 2 * (1 - StudentTCDF(math.Abs(t), dof))
	return t, p
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// StudentTCDF is the cumulative distribution function of the Student t
// distribution with dof degrees of freedom, computed via the regularized
// incomplete beta function.
func StudentTCDF(t, dof float64) float64 {
	if dof <= 0 {
		return math.NaN()
	}
	x := dof / (dof + t*t)
	tail := 0.5 * regIncompleteBeta(dof/2, 0.5, x)
	if t >= 0 {
		return 1 - tail
	}
	return tail
}

// StudentTQuantile inverts StudentTCDF by bisection. p must be in (0, 1).
func StudentTQuantile(p, dof float64) float64 {
	if p <= 0 || p >= 1 || dof <= 0 {
		return math.NaN()
	}

	lo, hi := -1e6, 1e6
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if StudentTCDF(mid, dof) < p {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-10*(1+math.Abs(lo)) {
			break
		}
	}
	return (lo + hi) / 2
}

// regIncompleteBeta is the regularized incomplete beta function I_x(a, b),
// evaluated with the continued fraction expansion (Lentz's method).
func regIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgab, _ := math.Lgamma(a + b)
	lga, _ := math.Lgamma(a)
	lgb, _ := math.Lgamma(b)
	front := math.Exp(lgab - lga - lgb + a*math.Log(x) + b*math.Log(1-x))

	// The continued fraction converges quickly only for x below the
	// distribution's bulk; use the symmetry relation otherwise.
	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 300
		epsilon       = 3e-14
		tiny          = 1e-300
	)

	qab, qap, qam := a+b, a+1, a-1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}
	return h
}
