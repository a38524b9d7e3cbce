package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"medinsight/domain/stats"
)

// zeroVarianceEpsilon bounds the squared-deviation sum below which a series
// counts as constant. Dividing by anything smaller produces noise, not r.
const zeroVarianceEpsilon = 1e-12

// Correlate computes the correlation between x and y with a two-tailed
// p-value. Index pairs where either value is non-finite are dropped first
// (pairwise-complete); fewer than MinSamplesForCorrelation surviving pairs,
// or zero variance on either side, yields the degenerate result r=0, p=1
// with the surviving sample size intact. Mismatched lengths correlate over
// the shorter prefix. Never panics.
func Correlate(x, y []float64, method stats.Method) stats.CorrelationResult {
	xs, ys := pairwiseComplete(x, y)
	n := len(xs)
	if n < MinSamplesForCorrelation {
		return stats.Degenerate(n)
	}

	if method == stats.MethodSpearman {
		xs = averageRanks(xs)
		ys = averageRanks(ys)
	}

	r, ok := pearsonR(xs, ys)
	if !ok {
		return stats.Degenerate(n)
	}

	p := twoTailedP(r, n)
	return stats.CorrelationResult{
		R:            r,
		P:            p,
		N:            n,
		Significance: stats.TierForP(p),
	}
}

// pairwiseComplete keeps only index pairs where both values are finite
func pairwiseComplete(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// pearsonR is the covariance/variance ratio over mean-centered values.
// ok=false flags a zero-variance side.
func pearsonR(x, y []float64) (float64, bool) {
	n := float64(len(x))
	meanX, meanY := 0.0, 0.0
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= n
	meanY /= n

	var sumXY, sumXX, sumYY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	if sumXX < zeroVarianceEpsilon || sumYY < zeroVarianceEpsilon {
		return 0, false
	}

	r := sumXY / math.Sqrt(sumXX*sumYY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r, true
}

// twoTailedP derives the two-tailed p-value for r from the t-statistic
// t = r*sqrt((n-2)/(1-r^2)) under Student's t with n-2 degrees of freedom.
func twoTailedP(r float64, n int) float64 {
	if n < MinSamplesForCorrelation {
		return 1
	}
	r2 := r * r
	if r2 >= 1 {
		return 0
	}

	t := r * math.Sqrt(float64(n-2)/(1-r2))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := 2 * dist.CDF(-math.Abs(t))

	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// averageRanks rank-transforms values, assigning tied runs the average of
// the ranks they span.
func averageRanks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Positions i..j share the average 1-based rank
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
