package mood

import (
	"math"
	"sort"

	"medinsight/domain/core"
)

// MetricKey names one tracked mood dimension
type MetricKey string

const (
	MetricMood      MetricKey = "mood"
	MetricAnxiety   MetricKey = "anxiety"
	MetricEnergy    MetricKey = "energy"
	MetricFocus     MetricKey = "focus"
	MetricCognitive MetricKey = "cognitive"
	MetricAttention MetricKey = "attention"
)

// AllMetrics returns every metric key in the one canonical order shared by
// all iteration sites. Report output ordering depends on this being stable.
func AllMetrics() []MetricKey {
	return []MetricKey{
		MetricMood,
		MetricAnxiety,
		MetricEnergy,
		MetricFocus,
		MetricCognitive,
		MetricAttention,
	}
}

// Label returns the human-facing name for the metric
func (k MetricKey) Label() string {
	switch k {
	case MetricMood:
		return "mood"
	case MetricAnxiety:
		return "anxiety level"
	case MetricEnergy:
		return "energy level"
	case MetricFocus:
		return "focus level"
	case MetricCognitive:
		return "cognitive score"
	case MetricAttention:
		return "attention shift"
	default:
		return string(k)
	}
}

// HigherIsBetter reports the metric's polarity. Anxiety and attention shift
// measure disturbance, so lower scores are the good direction.
func (k MetricKey) HigherIsBetter() bool {
	switch k {
	case MetricAnxiety, MetricAttention:
		return false
	default:
		return true
	}
}

// Entry is an append-only self-report. MoodScore is always present;
// sub-metrics are explicit optionals, never probed dynamically.
type Entry struct {
	Timestamp      core.Timestamp `json:"timestamp"`
	MoodScore      float64        `json:"moodScore"`
	AnxietyLevel   *float64       `json:"anxietyLevel,omitempty"`
	EnergyLevel    *float64       `json:"energyLevel,omitempty"`
	FocusLevel     *float64       `json:"focusLevel,omitempty"`
	CognitiveScore *float64       `json:"cognitiveScore,omitempty"`
	AttentionShift *float64       `json:"attentionShift,omitempty"`
}

// Metric returns the value for the requested key and whether it is present
func (e Entry) Metric(key MetricKey) (float64, bool) {
	switch key {
	case MetricMood:
		return e.MoodScore, true
	case MetricAnxiety:
		return deref(e.AnxietyLevel)
	case MetricEnergy:
		return deref(e.EnergyLevel)
	case MetricFocus:
		return deref(e.FocusLevel)
	case MetricCognitive:
		return deref(e.CognitiveScore)
	case MetricAttention:
		return deref(e.AttentionShift)
	default:
		return 0, false
	}
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Validate reports the first structural problem with the entry
func (e Entry) Validate() error {
	if e.Timestamp.IsZero() {
		return core.NewValidationError("timestamp", "must be set")
	}
	if !inScoreRange(e.MoodScore) {
		return core.NewValidationError("moodScore", "must be between 0 and 10")
	}
	optionals := map[string]*float64{
		"anxietyLevel":   e.AnxietyLevel,
		"energyLevel":    e.EnergyLevel,
		"focusLevel":     e.FocusLevel,
		"cognitiveScore": e.CognitiveScore,
		"attentionShift": e.AttentionShift,
	}
	// Deterministic check order for stable error messages
	names := make([]string, 0, len(optionals))
	for name := range optionals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := optionals[name]; v != nil && !inScoreRange(*v) {
			return core.NewValidationError(name, "must be between 0 and 10")
		}
	}
	return nil
}

func inScoreRange(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 10
}

// InWindow returns the entries inside the analysis window, order kept
func InWindow(entries []Entry, w core.Window) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if w.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out
}

// SortedByTime returns a time-ascending copy; inputs are never mutated
func SortedByTime(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// MetricSeries extracts the metric values for entries carrying it, paired
// with their timestamps. Entries without the metric are skipped, not zeroed.
func MetricSeries(entries []Entry, key MetricKey) ([]core.Timestamp, []float64) {
	times := make([]core.Timestamp, 0, len(entries))
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		if v, ok := e.Metric(key); ok {
			times = append(times, e.Timestamp)
			values = append(values, v)
		}
	}
	return times, values
}

// CountWithMetric returns how many entries carry the metric
func CountWithMetric(entries []Entry, key MetricKey) int {
	n := 0
	for _, e := range entries {
		if _, ok := e.Metric(key); ok {
			n++
		}
	}
	return n
}
