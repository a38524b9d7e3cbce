package stats

import (
	"math"

	"medinsight/domain/core"
)

// Method selects the correlation estimator
type Method string

const (
	MethodPearson  Method = "pearson"
	MethodSpearman Method = "spearman"
)

// SignificanceTier buckets a p-value. One threshold table is shared by every
// call site so tiers mean the same thing everywhere in a report.
type SignificanceTier string

const (
	SignificanceHigh   SignificanceTier = "high"
	SignificanceMedium SignificanceTier = "medium"
	SignificanceLow    SignificanceTier = "low"
	SignificanceNone   SignificanceTier = "none"
)

// Shared significance thresholds
const (
	PThresholdHigh   = 0.01
	PThresholdMedium = 0.05
	PThresholdLow    = 0.10
)

// TierForP maps a p-value to its significance tier. Non-finite or
// out-of-range p-values land in the none tier.
func TierForP(p float64) SignificanceTier {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return SignificanceNone
	}
	switch {
	case p < PThresholdHigh:
		return SignificanceHigh
	case p < PThresholdMedium:
		return SignificanceMedium
	case p < PThresholdLow:
		return SignificanceLow
	default:
		return SignificanceNone
	}
}

// Descriptive holds mean and sample standard deviation over finite values
type Descriptive struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	N      int     `json:"n"`
}

// CorrelationResult always carries its sample size so callers can gate on
// significance AND sufficiency, not significance alone.
// INVARIANTS: |R| <= 1, P in [0, 1], N >= 0.
type CorrelationResult struct {
	R            float64          `json:"r"`
	P            float64          `json:"p"`
	N            int              `json:"n"`
	Significance SignificanceTier `json:"significance"`
}

// Degenerate is the well-formed weak result for insufficient or zero-variance
// data: r=0, p=1, tier none, with the triggering sample size intact.
func Degenerate(n int) CorrelationResult {
	return CorrelationResult{R: 0, P: 1, N: n, Significance: SignificanceNone}
}

// IsDegenerate reports whether the result is the weak/neutral sentinel
func (r CorrelationResult) IsDegenerate() bool {
	return r.R == 0 && r.P == 1 && r.Significance == SignificanceNone
}

// CrossCorrelationPoint is one lag of a cross-correlation scan. Points below
// the pair minimum are flagged, never dropped: a scan over maxLag always
// yields 2*maxLag+1 points.
type CrossCorrelationPoint struct {
	Lag core.LagHours `json:"lag"`
	CorrelationResult
	MeetsMinPairs bool `json:"meetsMinPairs"`
}

// CrossCorrelationOptions tunes a scan
type CrossCorrelationOptions struct {
	Method     Method `json:"method,omitempty"`
	UseChanges bool   `json:"useChanges,omitempty"`
	MinPairs   int    `json:"minPairs,omitempty"`
}

// DefaultMinPairs is the pair floor applied when options leave MinPairs zero
const DefaultMinPairs = 7

// NamedSeries pairs a variable name with its values. Matrix input is an
// ordered slice rather than a map so output order is reproducible.
type NamedSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// VariablePair is one off-diagonal matrix cell in flattened form
type VariablePair struct {
	A            string           `json:"a"`
	B            string           `json:"b"`
	R            float64          `json:"r"`
	P            float64          `json:"p"`
	N            int              `json:"n"`
	Significance SignificanceTier `json:"significance"`
}

// MatrixResult holds full pairwise correlation and p-value matrices plus the
// significant pairs sorted by |r| descending.
type MatrixResult struct {
	Variables        []string       `json:"variables"`
	R                [][]float64    `json:"r"`
	P                [][]float64    `json:"p"`
	SignificantPairs []VariablePair `json:"significantPairs"`
}

// FDRResult is a Benjamini-Hochberg correction in original index order
type FDRResult struct {
	Adjusted           []float64 `json:"adjusted"`
	Significant        []bool    `json:"significant"`
	SignificantIndices []int     `json:"significantIndices"`
	Alpha              float64   `json:"alpha"`
	Comparisons        int       `json:"comparisons"`
}
