// Package insight holds the report vocabulary: per-medication findings with
// their lag, effect size, direction, and confidence, plus the report envelope
// that groups them. Everything here is derived data, recomputed per request
// and never stored.
package insight

import (
	"medinsight/domain/core"
	"medinsight/domain/mood"
	"medinsight/domain/stats"
)

// Direction classifies how a medication appears to move a metric
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// ConfidenceTier grades a finding from adjusted significance and sample size
type ConfidenceTier string

const (
	ConfidenceHigh     ConfidenceTier = "high"
	ConfidenceModerate ConfidenceTier = "moderate"
	ConfidenceLow      ConfidenceTier = "low"
)

// Direction and confidence thresholds. Direction needs either a correlation
// or a clinical effect large enough to matter; confidence needs the adjusted
// p-value AND the sample size together.
const (
	DirectionMinAbsR      = 0.15
	DirectionMinAbsEffect = 0.5

	ConfidenceHighMaxQ     = 0.01
	ConfidenceHighMinN     = 30
	ConfidenceModerateMaxQ = 0.05
	ConfidenceModerateMinN = 15
)

// Analysis floors. Medications and datasets below these are excluded and
// surfaced in the data-quality summary instead of being forced through
// low-n statistics.
const (
	MinDosesPerMedication = 5
	MinMoodEntries        = 7
	MinViablePairs        = 7
)

// ExclusionReason is a machine-readable code for why a medication was
// left out of a report.
type ExclusionReason string

const (
	ExcludedFewDoses      ExclusionReason = "FEW_DOSES"
	ExcludedFewMoodPoints ExclusionReason = "FEW_MOOD_ENTRIES"
	ExcludedInvalidPK     ExclusionReason = "INVALID_PK_PARAMS"
)

// Insight is one (medication, metric) finding: the best causal lag, its
// correlation before and after FDR adjustment, the clinical effect size,
// and the generated reading of it.
type Insight struct {
	ID             string            `json:"id"`
	MedicationID   core.MedicationID `json:"medicationId"`
	MedicationName string            `json:"medicationName"`
	Metric         mood.MetricKey    `json:"metric"`
	MetricLabel    string            `json:"metricLabel"`

	Lag         core.LagHours           `json:"lag"`
	Correlation stats.CorrelationResult `json:"correlation"`
	AdjustedP   float64                 `json:"adjustedP"`
	ViableLag   bool                    `json:"viableLag"`

	EffectSize float64        `json:"effectSize"`
	Direction  Direction      `json:"direction"`
	Confidence ConfidenceTier `json:"confidence"`

	BestDoseHour     *int `json:"bestDoseHour,omitempty"`
	AdherenceLagDays *int `json:"adherenceLagDays,omitempty"`

	Interpretation string `json:"interpretation"`
	Recommendation string `json:"recommendation"`
}

// RedFlagSeverity grades a red flag
type RedFlagSeverity string

const (
	SeverityWarning  RedFlagSeverity = "warning"
	SeverityCritical RedFlagSeverity = "critical"
)

// RedFlagKind distinguishes why a medication was flagged
type RedFlagKind string

const (
	// FlagHarmfulAssociation marks concentration tracking a metric in the
	// harmful direction with at least moderate confidence.
	FlagHarmfulAssociation RedFlagKind = "harmfulAssociation"
	// FlagAboveTherapeuticRange marks sampled concentration exceeding the
	// normalized therapeutic maximum for a large share of the window.
	FlagAboveTherapeuticRange RedFlagKind = "aboveTherapeuticRange"
)

// RedFlag marks a medication that warrants attention. Metric is set only
// for association flags; range flags concern the medication as a whole.
type RedFlag struct {
	Kind           RedFlagKind       `json:"kind"`
	MedicationID   core.MedicationID `json:"medicationId"`
	MedicationName string            `json:"medicationName"`
	Metric         mood.MetricKey    `json:"metric,omitempty"`
	Severity       RedFlagSeverity   `json:"severity"`
	Summary        string            `json:"summary"`
}

// TrendDirection summarizes the linear drift of a metric over the window
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// TrendSlopeThreshold is the least slope magnitude, in score points per
// day, that counts as a real drift rather than noise.
const TrendSlopeThreshold = 0.05

// TrendForSlope maps an OLS slope in points per day onto a direction
func TrendForSlope(slopePerDay float64) TrendDirection {
	switch {
	case slopePerDay >= TrendSlopeThreshold:
		return TrendRising
	case slopePerDay <= -TrendSlopeThreshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

// StabilityMetric describes how steady one mood metric was across the
// window. Stability is 1 for a perfectly flat series and decays toward 0
// as the standard deviation approaches half the score scale; CV is the
// coefficient of variation, 0 when the mean is 0.
type StabilityMetric struct {
	Metric    mood.MetricKey `json:"metric"`
	Label     string         `json:"label"`
	Mean      float64        `json:"mean"`
	StdDev    float64        `json:"stdDev"`
	CV        float64        `json:"cv"`
	N         int            `json:"n"`
	Stability float64        `json:"stability"`
	Trend     TrendDirection `json:"trend"`
}

// MetricCount is one metric's entry count inside the data-quality summary
type MetricCount struct {
	Metric mood.MetricKey `json:"metric"`
	Count  int            `json:"count"`
}

// DataQuality summarizes what the report had to work with
type DataQuality struct {
	WindowDays          int           `json:"windowDays"`
	MoodEntries         int           `json:"moodEntries"`
	Doses               int           `json:"doses"`
	MedicationsAnalyzed int           `json:"medicationsAnalyzed"`
	MedicationsExcluded int           `json:"medicationsExcluded"`
	MetricCoverage      []MetricCount `json:"metricCoverage"`
	Sufficient          bool          `json:"sufficient"`
}

// ExcludedMedication records a medication left out of the analysis and why
type ExcludedMedication struct {
	MedicationID core.MedicationID `json:"medicationId"`
	Name         string            `json:"name"`
	Reason       ExclusionReason   `json:"reason"`
	Detail       string            `json:"detail"`
}

// Report is the full analysis output for one request. Slices are ordered
// deterministically so identical inputs serialize to identical bytes.
type Report struct {
	ID          core.ReportID  `json:"id"`
	GeneratedAt core.Timestamp `json:"generatedAt"`
	Window      core.Window    `json:"window"`

	TopPositiveImpacts []Insight `json:"topPositiveImpacts"`
	TopNegativeImpacts []Insight `json:"topNegativeImpacts"`
	Insights           []Insight `json:"insights"`
	RedFlags           []RedFlag `json:"redFlags"`

	StabilityMetrics   []StabilityMetric    `json:"stabilityMetrics"`
	MetricAssociations []stats.VariablePair `json:"metricAssociations"`

	DataQuality DataQuality          `json:"dataQuality"`
	Excluded    []ExcludedMedication `json:"excludedMedications"`

	Fingerprint core.Fingerprint `json:"fingerprint"`
}
