package insight

import (
	"fmt"
	"math"

	"medinsight/domain/core"
	"medinsight/domain/mood"
)

// strengthWord follows the usual adverb ladder for |r|
func strengthWord(r float64) string {
	switch {
	case math.Abs(r) > 0.7:
		return "strongly"
	case math.Abs(r) > 0.5:
		return "moderately"
	default:
		return "somewhat"
	}
}

// lagPhrase renders a lag in natural units
func lagPhrase(lag core.LagHours) string {
	h := lag.Hours()
	switch {
	case h <= 0:
		return "around the time of dosing"
	case h == 1:
		return "about an hour after dosing"
	case h == 24:
		return "about a day after dosing"
	case h > 24 && h%24 == 0:
		return fmt.Sprintf("about %d days after dosing", h/24)
	default:
		return fmt.Sprintf("about %d hours after dosing", h)
	}
}

// movementWord describes which way the metric score itself moves
func movementWord(sign float64) string {
	if sign < 0 {
		return "lower"
	}
	return "higher"
}

// Interpretation renders the finding as one sentence. The movement word
// follows the raw sign (which way the score moves with concentration);
// whether that is good news is the Direction's job, not this sentence's.
func Interpretation(medicationName string, metric mood.MetricKey, d Direction, lag core.LagHours, r, effectSize float64) string {
	if d == DirectionNeutral {
		return fmt.Sprintf("%s shows no meaningful association with %s in this window.",
			medicationName, metric.Label())
	}

	sign := r
	if math.Abs(r) < DirectionMinAbsR {
		sign = effectSize
	}
	return fmt.Sprintf("%s levels are %s associated with %s %s %s (r=%.2f).",
		medicationName, strengthWord(r), movementWord(sign), metric.Label(), lagPhrase(lag), r)
}

// Recommendation renders the actionable follow-up for a finding
func Recommendation(medicationName string, metric mood.MetricKey, d Direction, conf ConfidenceTier, bestDoseHour *int) string {
	if d == DirectionNeutral || conf == ConfidenceLow {
		return "No clear signal yet; keep logging doses and mood entries to sharpen this estimate."
	}

	if d == DirectionNegative {
		return fmt.Sprintf("Higher %s levels track worse %s; worth raising with your prescriber.",
			medicationName, metric.Label())
	}

	msg := fmt.Sprintf("Current %s regimen appears to support %s; keep the routine steady.",
		medicationName, metric.Label())
	if bestDoseHour != nil {
		msg += fmt.Sprintf(" Doses taken near %02d:00 precede the best scores.", *bestDoseHour)
	}
	return msg
}

// RedFlagSummary renders the warning line for a harmful association
func RedFlagSummary(medicationName string, metric mood.MetricKey, r, adjustedP float64) string {
	return fmt.Sprintf("%s tracks worse %s as levels rise (r=%.2f, adjusted p=%.3g).",
		medicationName, metric.Label(), r, adjustedP)
}

// AboveRangeSummary renders the warning line for therapeutic-range
// exceedance. fraction is the share of window samples above maxNgML.
func AboveRangeSummary(medicationName string, fraction, maxNgML float64) string {
	return fmt.Sprintf("%s stayed above its therapeutic maximum of %.0f ng/mL for %.0f%% of the window.",
		medicationName, maxNgML, fraction*100)
}
