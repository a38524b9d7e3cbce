package engine

import (
	"medinsight/domain/core"
	"medinsight/domain/stats"
)

// CrossCorrelate scans correlation between two aligned series at every
// integer lag in [-maxLag, maxLag]. Positive lag pairs a[i] with b[i+lag],
// so a peak at a positive lag means b echoes a that many steps later. The
// scan always returns 2*maxLag+1 points in ascending lag order; lags whose
// surviving pair count falls below the minimum are flagged via
// MeetsMinPairs rather than dropped, so callers can plot the full scan and
// still gate on sufficiency.
//
// One step is one sample interval. Series sampled on an hourly grid make
// the lag axis an hour axis.
func CrossCorrelate(a, b []float64, maxLag int, opts stats.CrossCorrelationOptions) []stats.CrossCorrelationPoint {
	if maxLag < 0 {
		maxLag = 0
	}
	method := opts.Method
	if method == "" {
		method = stats.MethodPearson
	}
	minPairs := opts.MinPairs
	if minPairs <= 0 {
		minPairs = stats.DefaultMinPairs
	}

	if opts.UseChanges {
		a = differences(a)
		b = differences(b)
	}

	points := make([]stats.CrossCorrelationPoint, 0, 2*maxLag+1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		xs, ys := shiftPairs(a, b, lag)
		result := Correlate(xs, ys, method)
		points = append(points, stats.CrossCorrelationPoint{
			Lag:               core.NewLagHours(lag),
			CorrelationResult: result,
			MeetsMinPairs:     result.N >= minPairs,
		})
	}
	return points
}

// BestLag returns the scan point with the largest |r| among those meeting
// the pair minimum, preferring the smaller |lag| on ties so the scan stays
// deterministic. ok=false when no lag has enough pairs.
func BestLag(points []stats.CrossCorrelationPoint) (stats.CrossCorrelationPoint, bool) {
	best := stats.CrossCorrelationPoint{}
	found := false
	for _, p := range points {
		if !p.MeetsMinPairs {
			continue
		}
		if !found {
			best = p
			found = true
			continue
		}
		if betterLag(p, best) {
			best = p
		}
	}
	return best, found
}

func betterLag(candidate, incumbent stats.CrossCorrelationPoint) bool {
	ca, ia := abs(candidate.R), abs(incumbent.R)
	if ca != ia {
		return ca > ia
	}
	cl, il := candidate.Lag.Hours(), incumbent.Lag.Hours()
	if cl < 0 {
		cl = -cl
	}
	if il < 0 {
		il = -il
	}
	return cl < il
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// shiftPairs aligns a[i] with b[i+lag], keeping only in-range index pairs
func shiftPairs(a, b []float64, lag int) ([]float64, []float64) {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(a))
	for i := range a {
		j := i + lag
		if j < 0 || j >= len(b) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[j])
	}
	return xs, ys
}

// differences replaces a series with its step-to-step changes. A difference
// touching a non-finite sample is itself non-finite and falls out later in
// pairwise completion.
func differences(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}
