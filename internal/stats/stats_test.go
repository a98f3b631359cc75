package stats

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 5.5},
		{0.25, 3.25},
		{0.9, 9.1},
		{1, 10},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.p); !approx(got, tt.want, 1e-9) {
			t.Errorf("Percentile(%.2f) = %f, want %f", tt.p, got, tt.want)
		}
	}

	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("Percentile(empty) = %f, want 0", got)
	}
}

func TestIQRFences_CountsExtremeValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 100}
	f := IQRFences(x, 3)

	if !approx(f.Q1, 3.5, 1e-9) || !approx(f.Q3, 8.5, 1e-9) {
		t.Errorf("quartiles = (%f, %f), want (3.5, 8.5)", f.Q1, f.Q3)
	}
	if !approx(f.Upper, 23.5, 1e-9) {
		t.Errorf("upper fence = %f, want 23.5", f.Upper)
	}
	if n := f.Count(x); n != 1 {
		t.Errorf("outliers = %d, want 1", n)
	}
}

func TestZScoreOutliers(t *testing.T) {
	x := make([]float64, 0, 101)
	for i := 0; i < 100; i++ {
		x = append(x, 10)
	}
	x = append(x, 1000)
	if n := ZScoreOutliers(x, 3); n != 1 {
		t.Errorf("ZScoreOutliers = %d, want 1", n)
	}
	if n := ZScoreOutliers([]float64{5, 5, 5}, 3); n != 0 {
		t.Errorf("constant sample should have no outliers, got %d", n)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	// mean 3, sample sd sqrt(2.5)
	got := CoefficientOfVariation([]float64{1, 2, 3, 4, 5})
	want := math.Sqrt(2.5) / 3 * 100
	if !approx(got, want, 1e-9) {
		t.Errorf("CV = %f, want %f", got, want)
	}
}

func TestNormalQuantile(t *testing.T) {
	if got := NormalQuantile(0.975); !approx(got, 1.959964, 1e-6) {
		t.Errorf("z(0.975) = %f", got)
	}
	if got := NormalQuantile(0.80); !approx(got, 0.841621, 1e-6) {
		t.Errorf("z(0.80) = %f", got)
	}
}

func TestPooledTTest_KnownValues(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 3, 4, 5, 6}

	r, err := PooledTTest(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(r.T, -1.0, 1e-9) {
		t.Errorf("t = %f, want -1", r.T)
	}
	if r.DF != 8 {
		t.Errorf("df = %f, want 8", r.DF)
	}
	if !approx(r.P, 0.346594, 1e-5) {
		t.Errorf("p = %f, want 0.346594", r.P)
	}
	if !approx(r.Difference, -1, 1e-12) {
		t.Errorf("difference = %f, want -1", r.Difference)
	}
}

func TestWelchTTest_EqualVariancesMatchesPooled(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 3, 4, 5, 6}

	w, err := WelchTTest(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// equal n and variance: Welch reduces to the pooled statistic and df
	if !approx(w.T, -1.0, 1e-9) || !approx(w.DF, 8, 1e-9) {
		t.Errorf("welch t=%f df=%f, want -1 and 8", w.T, w.DF)
	}
}

func TestTTest_Degenerate(t *testing.T) {
	if _, err := PooledTTest([]float64{1}, []float64{1, 2}); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	r, err := PooledTTest([]float64{3, 3, 3}, []float64{3, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.T != 0 || r.P != 1 {
		t.Errorf("identical constants: t=%f p=%f, want 0 and 1", r.T, r.P)
	}

	r, err = PooledTTest([]float64{4, 4, 4}, []float64{3, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(r.T, 1) || r.P != 0 {
		t.Errorf("separated constants: t=%f p=%f, want +Inf and 0", r.T, r.P)
	}
}

func TestCohensD(t *testing.T) {
	got := CohensD([]float64{1, 2, 3, 4, 5}, []float64{2, 3, 4, 5, 6})
	if !approx(got, -1/math.Sqrt(2.5), 1e-9) {
		t.Errorf("d = %f", got)
	}
}

func TestDifferenceCI_ContainsDifference(t *testing.T) {
	a := []float64{10, 12, 11, 13, 9, 12}
	b := []float64{8, 9, 10, 7, 9, 8}

	low, high, err := DifferenceCI(a, b, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := Mean(a) - Mean(b)
	if !(low < diff && diff < high) {
		t.Errorf("CI [%f, %f] does not contain %f", low, high, diff)
	}
	if !approx((low+high)/2, diff, 1e-9) {
		t.Errorf("CI not centred on difference")
	}
}

func TestBrownForsythe(t *testing.T) {
	// same spread around different centres
	f, p, err := BrownForsythe([][]float64{{1, 2, 3}, {11, 12, 13}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 0 || p != 1 {
		t.Errorf("equal spread: F=%f p=%f, want 0 and 1", f, p)
	}

	narrow := []float64{10, 10.1, 9.9, 10, 10.05, 9.95, 10, 10.1, 9.9, 10}
	wide := []float64{0, 20, 5, 15, 2, 18, 8, 12, 1, 19}
	f, p, err = BrownForsythe([][]float64{narrow, wide})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f <= 0 || p >= 0.05 {
		t.Errorf("unequal spread: F=%f p=%f, want significant", f, p)
	}

	if _, _, err := BrownForsythe([][]float64{{1, 2}}); err != ErrInsufficientData {
		t.Errorf("single group: expected ErrInsufficientData, got %v", err)
	}
}
