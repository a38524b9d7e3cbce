package app

import (
	"math"
	"time"

	"medinsight/adapters/pk"
	"medinsight/adapters/stats/engine"
	"medinsight/domain/core"
	"medinsight/domain/insight"
	"medinsight/domain/medication"
	"medinsight/domain/mood"
	"medinsight/domain/stats"
)

// hourBinMinSamples is the fewest post-dose mood observations an
// hour-of-day bin needs before it can win.
const hourBinMinSamples = 3

// maxAdherenceLagDays bounds the day-granularity adherence scan
const maxAdherenceLagDays = 7

// Therapeutic-range check: grid spacing across the window, and the share
// of samples above the normalized maximum that triggers a flag.
const (
	rangeSampleStep    = 6 * time.Hour
	aboveRangeFraction = 0.20
)

// concentrationSeriesAt evaluates the model at (timestamp - lag) for every
// mood timestamp, yielding the concentration series the metric values are
// correlated against.
func concentrationSeriesAt(med medication.Medication, doses []medication.Dose, times []core.Timestamp, lagHours int, weightKg float64) []float64 {
	lag := time.Duration(lagHours) * time.Hour
	out := make([]float64, len(times))
	for i, ts := range times {
		out[i] = pk.Concentration(med, doses, ts.Add(-lag), weightKg)
	}
	return out
}

// bestDoseHour bins each dose by its hour of day, averages the mood scores
// reported within the response window after it, and returns the winning
// hour. Bins below the sample floor cannot win; ties keep the earlier
// hour. Returns nil when no bin qualifies.
func bestDoseHour(doses []medication.Dose, entries []mood.Entry, responseWindow time.Duration) *int {
	var sums [24]float64
	var counts [24]int

	for _, d := range doses {
		hour := d.Timestamp.Time().UTC().Hour()
		for _, e := range entries {
			dt := e.Timestamp.Time().Sub(d.Timestamp.Time())
			if dt <= 0 || dt > responseWindow {
				continue
			}
			sums[hour] += e.MoodScore
			counts[hour]++
		}
	}

	best := -1
	bestMean := math.Inf(-1)
	for h := 0; h < 24; h++ {
		if counts[h] < hourBinMinSamples {
			continue
		}
		mean := sums[h] / float64(counts[h])
		if mean > bestMean {
			bestMean = mean
			best = h
		}
	}
	if best < 0 {
		return nil
	}
	return &best
}

// adherenceLagDays estimates how many days after dosing the mood response
// lands for maintenance medications: the daily dose-count series is
// cross-correlated with the daily mean mood score and the best non-negative
// lag wins. Days without entries stay missing rather than zero. Returns nil
// when no lag reaches the pair floor or every lag is degenerate.
func adherenceLagDays(doses []medication.Dose, entries []mood.Entry, window core.Window, minPairs int) *int {
	days := window.Days()
	if days < 2 {
		return nil
	}

	dayIndex := func(ts core.Timestamp) int {
		return int(ts.Time().Sub(window.From.Time()).Hours() / 24)
	}

	counts := make([]float64, days)
	moodSum := make([]float64, days)
	moodN := make([]int, days)
	for _, d := range doses {
		if i := dayIndex(d.Timestamp); i >= 0 && i < days {
			counts[i]++
		}
	}
	for _, e := range entries {
		if i := dayIndex(e.Timestamp); i >= 0 && i < days {
			moodSum[i] += e.MoodScore
			moodN[i]++
		}
	}
	daily := make([]float64, days)
	for i := range daily {
		if moodN[i] == 0 {
			daily[i] = math.NaN()
			continue
		}
		daily[i] = moodSum[i] / float64(moodN[i])
	}

	// The scan's lag unit is one series step, a day here
	points := engine.CrossCorrelate(counts, daily, maxAdherenceLagDays, stats.CrossCorrelationOptions{
		Method:   stats.MethodPearson,
		MinPairs: minPairs,
	})

	found := false
	var best stats.CrossCorrelationPoint
	for _, p := range points {
		if p.Lag < 0 || !p.MeetsMinPairs || p.IsDegenerate() {
			continue
		}
		if !found || math.Abs(p.R) > math.Abs(best.R) {
			best = p
			found = true
		}
	}
	if !found {
		return nil
	}
	lag := best.Lag.Hours()
	return &lag
}

// rangeFlag samples the window on a coarse grid and flags the medication
// when concentration exceeds the normalized therapeutic maximum for more
// than the threshold share of samples.
func rangeFlag(med medication.Medication, doses []medication.Dose, window core.Window, weightKg float64) (insight.RedFlag, bool) {
	if med.TherapeuticRange == nil || !med.TherapeuticRange.IsValid() {
		return insight.RedFlag{}, false
	}
	normalized, err := med.TherapeuticRange.Normalized()
	if err != nil {
		return insight.RedFlag{}, false
	}

	grid := pk.HourlyGrid(window, rangeSampleStep)
	if len(grid) == 0 {
		return insight.RedFlag{}, false
	}
	above := 0
	for _, at := range grid {
		if pk.Concentration(med, doses, at, weightKg) > normalized.Max {
			above++
		}
	}
	frac := float64(above) / float64(len(grid))
	if frac <= aboveRangeFraction {
		return insight.RedFlag{}, false
	}
	return insight.RedFlag{
		Kind:           insight.FlagAboveTherapeuticRange,
		MedicationID:   med.ID,
		MedicationName: med.Name,
		Severity:       insight.SeverityCritical,
		Summary:        insight.AboveRangeSummary(med.Name, frac, normalized.Max),
	}, true
}
