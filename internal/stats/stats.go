// Package stats holds the statistical primitives shared by the quality,
// design and analysis stages. Distribution functions come from gonum.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientData is returned when a sample is too small for the statistic.
var ErrInsufficientData = errors.New("insufficient data")

// Mean returns the arithmetic mean, 0 for an empty sample.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Variance returns the sample variance (n-1 denominator), 0 below two values.
func Variance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.Variance(x, nil)
}

// StdDev returns the sample standard deviation.
func StdDev(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// Skewness returns the sample skewness, 0 below three values.
func Skewness(x []float64) float64 {
	if len(x) < 3 {
		return 0
	}
	return stat.Skew(x, nil)
}

// CoefficientOfVariation returns std/mean as a percentage.
func CoefficientOfVariation(x []float64) float64 {
	m := Mean(x)
	if m == 0 {
		return 0
	}
	return StdDev(x) / m * 100
}

// Sorted returns a sorted copy of x.
func Sorted(x []float64) []float64 {
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	return s
}

// Percentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC. p is in [0, 1].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Fences are the bounds outside which a value counts as an outlier.
type Fences struct {
	Q1, Q3       float64
	Lower, Upper float64
}

// IQRFences computes Tukey fences Q1 - k*IQR and Q3 + k*IQR.
func IQRFences(x []float64, k float64) Fences {
	s := Sorted(x)
	q1 := Percentile(s, 0.25)
	q3 := Percentile(s, 0.75)
	iqr := q3 - q1
	return Fences{Q1: q1, Q3: q3, Lower: q1 - k*iqr, Upper: q3 + k*iqr}
}

// Count returns how many values fall outside the fences.
func (f Fences) Count(x []float64) int {
	n := 0
	for _, v := range x {
		if v < f.Lower || v > f.Upper {
			n++
		}
	}
	return n
}

// ZScoreOutliers counts values more than limit standard deviations from the mean.
func ZScoreOutliers(x []float64, limit float64) int {
	sd := StdDev(x)
	if sd == 0 {
		return 0
	}
	m := Mean(x)
	n := 0
	for _, v := range x {
		if math.Abs(v-m)/sd > limit {
			n++
		}
	}
	return n
}

// NormalQuantile returns the standard normal quantile at p.
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// StudentTQuantile returns the Student's t quantile at p with df degrees of freedom.
func StudentTQuantile(p, df float64) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(p)
}

// twoSidedP returns the two-sided p-value of t under Student's t with df.
func twoSidedP(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	if math.IsNaN(t) {
		return 1
	}
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return math.Min(p, 1)
}
