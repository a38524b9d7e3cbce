package insight

import (
	"fmt"
	"math"

	"medinsight/domain/core"
	"medinsight/domain/mood"
)

// DirectionFor classifies a finding's impact on wellbeing using the
// default magnitude gates.
func DirectionFor(r, effectSize float64, metric mood.MetricKey) Direction {
	return DirectionWithGates(r, effectSize, metric, DirectionMinAbsR, DirectionMinAbsEffect)
}

// DirectionWithGates classifies a finding's impact on wellbeing. The raw
// sign of r describes concentration vs metric score; polarity flips it for
// metrics where a higher score is the bad direction (anxiety, attention
// shift). Findings below both magnitude gates are neutral regardless of
// sign.
func DirectionWithGates(r, effectSize float64, metric mood.MetricKey, minAbsR, minAbsEffect float64) Direction {
	rPasses := math.Abs(r) >= minAbsR
	effectPasses := math.Abs(effectSize) >= minAbsEffect
	if !rPasses && !effectPasses {
		return DirectionNeutral
	}

	sign := r
	if !rPasses {
		sign = effectSize
	}
	if sign == 0 {
		return DirectionNeutral
	}

	good := sign > 0
	if !metric.HigherIsBetter() {
		good = !good
	}
	if good {
		return DirectionPositive
	}
	return DirectionNegative
}

// ConfidenceFor grades a finding. Both the adjusted p-value and the sample
// size must clear a tier's bar; a finding whose lag never reached the pair
// minimum is capped at low no matter how strong it looks.
func ConfidenceFor(adjustedP float64, n int, viableLag bool) ConfidenceTier {
	if !viableLag {
		return ConfidenceLow
	}
	if adjustedP < ConfidenceHighMaxQ && n >= ConfidenceHighMinN {
		return ConfidenceHigh
	}
	if adjustedP < ConfidenceModerateMaxQ && n >= ConfidenceModerateMinN {
		return ConfidenceModerate
	}
	return ConfidenceLow
}

// StabilityScore maps a metric's standard deviation onto [0,1], where 1 is
// a perfectly flat series and 0 means swings spanning half the 0-10 scale
// or more.
func StabilityScore(stdDev float64) float64 {
	if math.IsNaN(stdDev) || stdDev <= 0 {
		return 1
	}
	s := 1 - stdDev/5
	if s < 0 {
		return 0
	}
	return s
}

// NewInsightID derives a stable identifier from the finding's coordinates,
// so the same input data always yields the same ID.
func NewInsightID(medicationID core.MedicationID, metric mood.MetricKey, lag core.LagHours) string {
	return core.NewHash([]byte(fmt.Sprintf("%s|%s|%s", medicationID, metric, lag))).Short()
}
