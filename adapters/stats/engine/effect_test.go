package engine

import (
	"math"
	"testing"
)

func TestMedianSplitDifference(t *testing.T) {
	// Outcomes above the driver median average 8, below it 5.
	driver := []float64{1, 2, 3, 4, 10, 20, 30, 40}
	outcome := []float64{5, 5, 5, 5, 8, 8, 8, 8}

	diff, ok := MedianSplitDifference(driver, outcome)
	if !ok {
		t.Fatal("expected a computable effect size")
	}
	if !closeTo(diff, 3.0, 1e-9) {
		t.Errorf("expected high-low difference of 3, got %v", diff)
	}
}

func TestMedianSplitDifferenceSignFollowsOutcome(t *testing.T) {
	driver := []float64{1, 2, 3, 4, 5, 6}
	worse := []float64{9, 9, 9, 2, 2, 2}

	diff, ok := MedianSplitDifference(driver, worse)
	if !ok || diff >= 0 {
		t.Errorf("falling outcomes at high driver levels should be negative: %v ok=%v", diff, ok)
	}
}

func TestMedianSplitDifferenceDegenerate(t *testing.T) {
	if _, ok := MedianSplitDifference([]float64{1, 2, 3}, []float64{4, 5, 6}); ok {
		t.Error("three pairs are too few for a split")
	}
	if _, ok := MedianSplitDifference([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4}); ok {
		t.Error("a constant driver cannot be split")
	}
	nan := math.NaN()
	if _, ok := MedianSplitDifference([]float64{1, nan, 3, nan}, []float64{1, 2, 3, 4}); ok {
		t.Error("pairs lost to NaN should drop below the floor")
	}
}
