package engine

import (
	"math"
	"sort"

	"medinsight/domain/stats"
)

// DefaultFDRAlpha is the false discovery rate applied when callers pass a
// non-positive alpha.
const DefaultFDRAlpha = 0.05

// AdjustFDR applies the Benjamini-Hochberg step-up procedure to a batch of
// p-values. A p-value is declared significant when its sorted rank k
// satisfies p(k) <= (k/m)*alpha for the largest such k; everything at or
// below that rank passes. Adjusted values are the familiar monotone q-values:
// q(k) = min over j >= k of p(j)*m/j, clamped to 1, so an adjusted value is
// never below its raw p. All output slices follow the input order.
// Non-finite p-values are treated as 1 and can never be significant.
func AdjustFDR(pValues []float64, alpha float64) stats.FDRResult {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) {
		alpha = DefaultFDRAlpha
	}

	m := len(pValues)
	result := stats.FDRResult{
		Adjusted:           make([]float64, m),
		Significant:        make([]bool, m),
		SignificantIndices: []int{},
		Alpha:              alpha,
		Comparisons:        m,
	}
	if m == 0 {
		return result
	}

	cleaned := make([]float64, m)
	for i, p := range pValues {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			cleaned[i] = 1
		} else if p > 1 {
			cleaned[i] = 1
		} else {
			cleaned[i] = p
		}
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cleaned[order[a]] < cleaned[order[b]]
	})

	// Largest rank k (1-based) with p(k) <= (k/m)*alpha
	cutoff := -1
	for k := m; k >= 1; k-- {
		if cleaned[order[k-1]] <= float64(k)/float64(m)*alpha {
			cutoff = k
			break
		}
	}

	// Step-up adjusted values, enforcing monotonicity from the top rank down
	adjustedByRank := make([]float64, m)
	running := 1.0
	for k := m; k >= 1; k-- {
		q := cleaned[order[k-1]] * float64(m) / float64(k)
		if q > running {
			q = running
		}
		running = q
		adjustedByRank[k-1] = q
	}

	for k := 1; k <= m; k++ {
		idx := order[k-1]
		result.Adjusted[idx] = adjustedByRank[k-1]
		result.Significant[idx] = k <= cutoff
	}
	for i := 0; i < m; i++ {
		if result.Significant[i] {
			result.SignificantIndices = append(result.SignificantIndices, i)
		}
	}
	return result
}
