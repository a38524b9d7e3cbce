package engine

import (
	"sort"

	"medinsight/domain/stats"
)

// Matrix computes the full pairwise correlation matrix over named series.
// Input is an ordered slice, and every part of the output follows that
// order, so the same input always serializes to the same bytes. The
// diagonal is fixed at r=1, p=0; off-diagonal cells are symmetric and
// computed once. Pairs reaching p < 0.05 are flattened into
// SignificantPairs sorted by |r| descending, ties broken by variable name.
func Matrix(series []stats.NamedSeries, method stats.Method) stats.MatrixResult {
	n := len(series)
	result := stats.MatrixResult{
		Variables:        make([]string, n),
		R:                make([][]float64, n),
		P:                make([][]float64, n),
		SignificantPairs: []stats.VariablePair{},
	}

	for i := range series {
		result.Variables[i] = series[i].Name
		result.R[i] = make([]float64, n)
		result.P[i] = make([]float64, n)
		result.R[i][i] = 1
		result.P[i][i] = 0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cell := Correlate(series[i].Values, series[j].Values, method)
			result.R[i][j], result.R[j][i] = cell.R, cell.R
			result.P[i][j], result.P[j][i] = cell.P, cell.P

			if cell.P < stats.PThresholdMedium {
				result.SignificantPairs = append(result.SignificantPairs, stats.VariablePair{
					A:            series[i].Name,
					B:            series[j].Name,
					R:            cell.R,
					P:            cell.P,
					N:            cell.N,
					Significance: cell.Significance,
				})
			}
		}
	}

	sort.SliceStable(result.SignificantPairs, func(a, b int) bool {
		ra, rb := abs(result.SignificantPairs[a].R), abs(result.SignificantPairs[b].R)
		if ra != rb {
			return ra > rb
		}
		if result.SignificantPairs[a].A != result.SignificantPairs[b].A {
			return result.SignificantPairs[a].A < result.SignificantPairs[b].A
		}
		return result.SignificantPairs[a].B < result.SignificantPairs[b].B
	})

	return result
}
