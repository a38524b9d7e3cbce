package engine

import (
	"math"
	"testing"

	"medinsight/domain/stats"
)

func closeTo(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestCorrelatePerfectPositive(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2*v + 1
	}

	result := Correlate(x, y, stats.MethodPearson)

	if !closeTo(result.R, 1.0, 1e-9) {
		t.Errorf("expected r=1 for linear series, got %v", result.R)
	}
	if result.P > 0.001 {
		t.Errorf("expected tiny p for perfect correlation, got %v", result.P)
	}
	if result.N != len(x) {
		t.Errorf("expected n=%d, got %d", len(x), result.N)
	}
	if result.Significance != stats.SignificanceHigh {
		t.Errorf("expected high significance, got %s", result.Significance)
	}
}

func TestCorrelatePerfectNegative(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 10 - 3*v
	}

	result := Correlate(x, y, stats.MethodPearson)
	if !closeTo(result.R, -1.0, 1e-9) {
		t.Errorf("expected r=-1, got %v", result.R)
	}
	if result.P > 0.001 {
		t.Errorf("expected tiny p, got %v", result.P)
	}
}

func TestCorrelateKnownHandComputedValue(t *testing.T) {
	// Five points with r = 8/sqrt(10*10) = 0.8 and a two-tailed p just
	// above the 0.10 tier boundary (t=2.3094 on 3 degrees of freedom).
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 5}

	result := Correlate(x, y, stats.MethodPearson)

	if !closeTo(result.R, 0.8, 1e-9) {
		t.Errorf("expected r=0.8, got %v", result.R)
	}
	if !closeTo(result.P, 0.10416, 1e-3) {
		t.Errorf("expected p near 0.10416, got %v", result.P)
	}
	if result.Significance != stats.SignificanceNone {
		t.Errorf("p above every tier threshold should map to none, got %s", result.Significance)
	}
}

func TestCorrelateDegenerateCases(t *testing.T) {
	cases := []struct {
		name  string
		x, y  []float64
		wantN int
	}{
		{"empty", nil, nil, 0},
		{"one pair", []float64{1}, []float64{2}, 1},
		{"two pairs", []float64{1, 2}, []float64{2, 4}, 2},
		{"constant x", []float64{3, 3, 3, 3}, []float64{1, 2, 3, 4}, 4},
		{"constant y", []float64{1, 2, 3, 4}, []float64{7, 7, 7, 7}, 4},
		{"both constant", []float64{5, 5, 5}, []float64{5, 5, 5}, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Correlate(tc.x, tc.y, stats.MethodPearson)
			if !result.IsDegenerate() {
				t.Fatalf("expected degenerate result, got %+v", result)
			}
			if result.N != tc.wantN {
				t.Errorf("expected n=%d, got %d", tc.wantN, result.N)
			}
		})
	}
}

func TestCorrelateDropsNonFinitePairs(t *testing.T) {
	x := []float64{1, 2, math.NaN(), 4, 5, 6}
	y := []float64{2, 4, 6, math.Inf(1), 10, 12}

	result := Correlate(x, y, stats.MethodPearson)

	if result.N != 4 {
		t.Fatalf("expected 4 surviving pairs, got %d", result.N)
	}
	clean := Correlate([]float64{1, 2, 5, 6}, []float64{2, 4, 10, 12}, stats.MethodPearson)
	if !closeTo(result.R, clean.R, 1e-12) || !closeTo(result.P, clean.P, 1e-12) {
		t.Errorf("filtered result %+v differs from clean-subset result %+v", result, clean)
	}
}

func TestCorrelateMismatchedLengths(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7}
	y := []float64{2, 4, 6, 8}

	result := Correlate(x, y, stats.MethodPearson)
	if result.N != 4 {
		t.Errorf("expected correlation over shorter prefix (n=4), got n=%d", result.N)
	}
	if !closeTo(result.R, 1.0, 1e-9) {
		t.Errorf("expected r=1 on aligned prefix, got %v", result.R)
	}
}

func TestSpearmanCapturesMonotoneNonlinear(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = v * v * v
	}

	spearman := Correlate(x, y, stats.MethodSpearman)
	pearson := Correlate(x, y, stats.MethodPearson)

	if !closeTo(spearman.R, 1.0, 1e-9) {
		t.Errorf("expected spearman r=1 for monotone series, got %v", spearman.R)
	}
	if pearson.R >= spearman.R {
		t.Errorf("pearson %v should trail spearman %v on a convex series", pearson.R, spearman.R)
	}
}

func TestAverageRanksWithTies(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"no ties", []float64{30, 10, 20}, []float64{3, 1, 2}},
		{"pair tie", []float64{1, 2, 2, 3}, []float64{1, 2.5, 2.5, 4}},
		{"triple tie", []float64{5, 5, 5, 1}, []float64{3, 3, 3, 1}},
		{"all tied", []float64{4, 4, 4}, []float64{2, 2, 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := averageRanks(tc.values)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d ranks, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if !closeTo(got[i], tc.want[i], 1e-12) {
					t.Errorf("rank[%d]: expected %v, got %v (all: %v)", i, tc.want[i], got[i], got)
				}
			}
		})
	}
}

func TestTwoTailedPStaysInRange(t *testing.T) {
	for _, r := range []float64{-1, -0.99, -0.5, 0, 0.5, 0.99, 1} {
		for _, n := range []int{3, 5, 10, 100} {
			p := twoTailedP(r, n)
			if p < 0 || p > 1 || math.IsNaN(p) {
				t.Errorf("p out of range for r=%v n=%d: %v", r, n, p)
			}
		}
	}
	if p := twoTailedP(0.5, 2); p != 1 {
		t.Errorf("expected p=1 below the sample floor, got %v", p)
	}
}

func TestCorrelationNeverPanicsOnHostileInput(t *testing.T) {
	hostiles := [][]float64{
		nil,
		{},
		{math.NaN(), math.NaN(), math.NaN(), math.NaN()},
		{math.Inf(1), math.Inf(-1), 0, 1},
		{1e308, 1e308, -1e308, -1e308},
	}
	for _, x := range hostiles {
		for _, y := range hostiles {
			for _, m := range []stats.Method{stats.MethodPearson, stats.MethodSpearman} {
				result := Correlate(x, y, m)
				if math.IsNaN(result.R) || math.IsNaN(result.P) {
					t.Errorf("non-finite output for x=%v y=%v: %+v", x, y, result)
				}
				if result.R < -1 || result.R > 1 {
					t.Errorf("r out of range: %v", result.R)
				}
			}
		}
	}
}
