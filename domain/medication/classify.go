package medication

import (
	"sort"
	"time"

	"medinsight/domain/core"
)

// DosingClass separates maintenance medications from as-needed ones. The
// class picks the candidate lag set for correlation scans and the smoothing
// window for trend sampling.
type DosingClass string

const (
	ClassChronic DosingClass = "chronic"
	ClassAcute   DosingClass = "acute"
)

// Classification policy. A medication is chronic when its half-life alone
// implies accumulation, or when it is redosed before washout: at least
// chronicMinDoses doses with a median inter-dose gap within
// chronicGapRatio half-lives.
const (
	chronicHalfLifeHours = 12.0
	chronicMinDoses      = 5
	chronicGapRatio      = 2.0
)

// Classify determines the dosing class from PK parameters and observed
// dosing cadence. Doses for other medications are ignored.
func Classify(med Medication, doses []Dose) DosingClass {
	if med.HalfLifeHours >= chronicHalfLifeHours {
		return ClassChronic
	}

	own := SortedByTime(ForMedication(doses, med.ID))
	if len(own) < chronicMinDoses {
		return ClassAcute
	}

	gap := medianGapHours(own)
	if gap > 0 && gap <= chronicGapRatio*med.HalfLifeHours {
		return ClassChronic
	}
	return ClassAcute
}

// CandidateLags returns the pharmacodynamic delays worth testing for the
// class. Chronic drugs respond on adherence timescales, acute drugs within
// hours of a dose.
func (c DosingClass) CandidateLags() []core.LagHours {
	if c == ClassChronic {
		return []core.LagHours{0, 6, 12, 24, 48, 72}
	}
	return []core.LagHours{0, 1, 3, 6}
}

// TrendWindow returns the centered moving-average span for trend sampling
func (c DosingClass) TrendWindow() time.Duration {
	if c == ClassChronic {
		return 24 * time.Hour
	}
	return 6 * time.Hour
}

func (c DosingClass) String() string { return string(c) }

// medianGapHours computes the median hour gap between consecutive doses.
// Input must be time-sorted.
func medianGapHours(sorted []Dose) float64 {
	if len(sorted) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Timestamp.HoursSince(sorted[i-1].Timestamp))
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}
