// Package engine implements the statistical primitives shared by every
// analysis path: descriptive statistics, Pearson/Spearman correlation with
// significance, multi-lag cross-correlation, correlation matrices, and
// Benjamini-Hochberg FDR correction.
//
// Numeric semantics are uniform across the package: non-finite inputs are
// treated as missing rather than coerced to zero, variance and division are
// guarded, and degenerate data produces well-formed weak results instead of
// panics, NaN, or Inf.
package engine

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"medinsight/domain/stats"
)

// MinSamplesForCorrelation is the fewest pairs any correlation will run on
const MinSamplesForCorrelation = 3

// Describe computes mean and sample standard deviation (n-1 denominator)
// over the finite values only. Fewer than two finite values yield a zero
// standard deviation; an all-missing input yields the zero value with N=0.
func Describe(values []float64) stats.Descriptive {
	finite := finiteOnly(values)
	n := len(finite)
	if n == 0 {
		return stats.Descriptive{}
	}

	mean, err := mstats.Mean(finite)
	if err != nil {
		return stats.Descriptive{N: n}
	}
	result := stats.Descriptive{Mean: mean, N: n}
	if n < 2 {
		return result
	}
	if sd, err := mstats.StandardDeviationSample(finite); err == nil {
		result.StdDev = sd
	}
	return result
}

// Median returns the median of the finite values and whether one exists
func Median(values []float64) (float64, bool) {
	finite := finiteOnly(values)
	if len(finite) == 0 {
		return 0, false
	}
	m, err := mstats.Median(finite)
	if err != nil {
		return 0, false
	}
	return m, true
}

// Percentile returns the given percentile of the finite values
func Percentile(values []float64, percent float64) (float64, bool) {
	finite := finiteOnly(values)
	if len(finite) == 0 {
		return 0, false
	}
	p, err := mstats.Percentile(finite, percent)
	if err != nil {
		return 0, false
	}
	return p, true
}

// LinearSlope fits an ordinary least squares line through the pairwise-complete
// points and returns its slope. Fewer than two complete pairs, or an x series
// without variance, yield ok=false.
func LinearSlope(x, y []float64) (float64, bool) {
	xs, ys := pairwiseComplete(x, y)
	if len(xs) < 2 {
		return 0, false
	}
	varies := false
	for _, v := range xs[1:] {
		if v != xs[0] {
			varies = true
			break
		}
	}
	if !varies {
		return 0, false
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if !isFinite(beta) {
		return 0, false
	}
	return beta, true
}

func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
