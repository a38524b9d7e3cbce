package pk

import (
	"math"
	"time"

	"medinsight/domain/core"
	"medinsight/domain/medication"
)

// Mode selects how a concentration series is sampled
type Mode string

const (
	// ModeInstant evaluates the raw model at each grid point
	ModeInstant Mode = "instant"
	// ModeTrend applies a centered moving average over instant samples,
	// window width derived from the medication's dosing class
	ModeTrend Mode = "trend"
)

// trendMinPoints is the fewest instant samples a trend window may average.
// Windows below it yield Undefined, distinguishing "not enough information"
// from "measured near-zero".
const trendMinPoints = 3

// Undefined is the sampler's NaN sentinel for "no value computable here"
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether a sample is the undefined sentinel
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// SampleSeries produces one concentration value per grid timestamp, in grid
// order. Instant mode reports the raw model value (0 when nothing is
// present); trend mode smooths over the class-derived window and reports
// Undefined where the window holds fewer than trendMinPoints samples. A
// pure function of its arguments: empty dose lists and unknown modes are
// handled, never panicked on.
func SampleSeries(med medication.Medication, doses []medication.Dose, grid []core.Timestamp, mode Mode, bodyWeightKg float64) []float64 {
	if mode == ModeTrend {
		window := medication.Classify(med, doses).TrendWindow()
		return TrendSeries(med, doses, grid, bodyWeightKg, window, trendMinPoints)
	}
	return instantSeries(med, doses, grid, bodyWeightKg)
}

// TrendSeries samples with an explicit smoothing window, for callers that
// tune windows away from the class defaults. minPoints floors at 1.
func TrendSeries(med medication.Medication, doses []medication.Dose, grid []core.Timestamp, bodyWeightKg float64, window time.Duration, minPoints int) []float64 {
	instant := instantSeries(med, doses, grid, bodyWeightKg)
	if minPoints < 1 {
		minPoints = 1
	}
	if window <= 0 {
		window = ClassWindowFallback
	}

	half := window / 2
	out := make([]float64, len(grid))
	for i := range grid {
		sum := 0.0
		count := 0
		for j := range grid {
			delta := grid[j].Time().Sub(grid[i].Time())
			if delta < -half || delta > half {
				continue
			}
			sum += instant[j]
			count++
		}
		if count < minPoints {
			out[i] = Undefined()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// ClassWindowFallback is used when a caller passes a non-positive window
const ClassWindowFallback = 12 * time.Hour

func instantSeries(med medication.Medication, doses []medication.Dose, grid []core.Timestamp, bodyWeightKg float64) []float64 {
	out := make([]float64, len(grid))
	for i, at := range grid {
		out[i] = Concentration(med, doses, at, bodyWeightKg)
	}
	return out
}

// HourlyGrid builds an evenly spaced grid across the window at the given
// step, including both endpoints' hours. Step floors at one hour.
func HourlyGrid(w core.Window, step time.Duration) []core.Timestamp {
	if !w.IsValid() {
		return nil
	}
	if step < time.Hour {
		step = time.Hour
	}
	var grid []core.Timestamp
	for t := w.From.Time(); !t.After(w.To.Time()); t = t.Add(step) {
		grid = append(grid, core.NewTimestamp(t))
	}
	return grid
}
