package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTest is the result of a two-sample t-test of a against b.
type TTest struct {
	MeanA, MeanB float64
	VarA, VarB   float64
	NA, NB       int
	Difference   float64 // MeanA - MeanB
	T            float64
	DF           float64
	P            float64 // two-sided
}

// PooledTTest runs Student's two-sample t-test assuming equal variances.
func PooledTTest(a, b []float64) (*TTest, error) {
	r, err := newTTest(a, b)
	if err != nil {
		return nil, err
	}
	na, nb := float64(r.NA), float64(r.NB)
	r.DF = na + nb - 2
	pooled := ((na-1)*r.VarA + (nb-1)*r.VarB) / r.DF
	se := math.Sqrt(pooled * (1/na + 1/nb))
	r.T = tStatistic(r.Difference, se)
	r.P = twoSidedP(r.T, r.DF)
	return r, nil
}

// WelchTTest runs Welch's unequal-variance t-test.
func WelchTTest(a, b []float64) (*TTest, error) {
	r, err := newTTest(a, b)
	if err != nil {
		return nil, err
	}
	va := r.VarA / float64(r.NA)
	vb := r.VarB / float64(r.NB)
	se := math.Sqrt(va + vb)
	r.T = tStatistic(r.Difference, se)

	denom := va*va/float64(r.NA-1) + vb*vb/float64(r.NB-1)
	if denom == 0 {
		r.DF = float64(r.NA + r.NB - 2)
	} else {
		r.DF = (va + vb) * (va + vb) / denom
	}
	r.P = twoSidedP(r.T, r.DF)
	return r, nil
}

func newTTest(a, b []float64) (*TTest, error) {
	if len(a) < 2 || len(b) < 2 {
		return nil, ErrInsufficientData
	}
	r := &TTest{
		MeanA: Mean(a),
		MeanB: Mean(b),
		VarA:  Variance(a),
		VarB:  Variance(b),
		NA:    len(a),
		NB:    len(b),
	}
	r.Difference = r.MeanA - r.MeanB
	return r, nil
}

func tStatistic(diff, se float64) float64 {
	if se == 0 {
		switch {
		case diff > 0:
			return math.Inf(1)
		case diff < 0:
			return math.Inf(-1)
		default:
			return 0
		}
	}
	return diff / se
}

// PooledSD returns the pooled standard deviation of a and b.
func PooledSD(a, b []float64) float64 {
	na, nb := float64(len(a)), float64(len(b))
	if na+nb <= 2 {
		return 0
	}
	return math.Sqrt(((na-1)*Variance(a) + (nb-1)*Variance(b)) / (na + nb - 2))
}

// CohensD returns the standardized mean difference (mean(a)-mean(b))/pooled SD.
func CohensD(a, b []float64) float64 {
	sd := PooledSD(a, b)
	if sd == 0 {
		return 0
	}
	return (Mean(a) - Mean(b)) / sd
}

// DifferenceCI returns a confidence interval for mean(a)-mean(b) using the
// unpooled standard error and the conservative min(nA-1, nB-1) degrees of freedom.
func DifferenceCI(a, b []float64, confidence float64) (low, high float64, err error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, 0, ErrInsufficientData
	}
	diff := Mean(a) - Mean(b)
	se := math.Sqrt(Variance(a)/float64(len(a)) + Variance(b)/float64(len(b)))
	df := float64(min(len(a)-1, len(b)-1))
	tc := StudentTQuantile(1-(1-confidence)/2, df)
	return diff - tc*se, diff + tc*se, nil
}

// BrownForsythe tests equality of variances across groups using deviations
// from group medians. Returns the F statistic and its p-value.
func BrownForsythe(groups [][]float64) (f, p float64, err error) {
	k := 0
	total := 0
	for _, g := range groups {
		if len(g) > 0 {
			k++
			total += len(g)
		}
	}
	if k < 2 || total <= k {
		return 0, 0, ErrInsufficientData
	}

	devs := make([][]float64, 0, k)
	grand := 0.0
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		med := Percentile(Sorted(g), 0.5)
		d := make([]float64, len(g))
		for i, v := range g {
			d[i] = math.Abs(v - med)
			grand += d[i]
		}
		devs = append(devs, d)
	}
	grand /= float64(total)

	between, within := 0.0, 0.0
	for _, d := range devs {
		m := Mean(d)
		between += float64(len(d)) * (m - grand) * (m - grand)
		for _, v := range d {
			within += (v - m) * (v - m)
		}
	}

	d1 := float64(k - 1)
	d2 := float64(total - k)
	if within == 0 {
		if between == 0 {
			return 0, 1, nil
		}
		return math.Inf(1), 0, nil
	}
	f = (between / d1) / (within / d2)
	p = distuv.F{D1: d1, D2: d2}.Survival(f)
	return f, p, nil
}
