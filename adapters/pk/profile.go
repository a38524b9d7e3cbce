package pk

import (
	"math"
	"sort"
	"time"

	"medinsight/domain/core"
	"medinsight/domain/medication"
)

// ProfileResult summarizes a medication's concentration curve over a window
// under the same compartment model as point sampling. With instantaneous
// absorption the curve peaks at dose times and decays as one exponential
// after the last dose, so Cmax/Tmax and the negligibility horizon are exact.
type ProfileResult struct {
	MedicationID        core.MedicationID `json:"medicationId"`
	Valid               bool              `json:"valid"`
	DoseCount           int               `json:"doseCount"`
	CmaxNgPerML         float64           `json:"cmax"`
	Tmax                core.Timestamp    `json:"tmax"`
	EliminationConstant float64           `json:"eliminationConstant"`
	HalfLifeHours       float64           `json:"halfLife"`
	TimeInRangeFraction *float64          `json:"timeInRangeFraction,omitempty"`
	NegligibleAfter     *core.Timestamp   `json:"negligibleAfter,omitempty"`
}

// Profile computes curve metrics across the window. Invalid PK parameters
// yield Valid=false with zeroed metrics; an empty qualifying dose set yields
// Valid=true with DoseCount=0 and a flat-zero curve. Pure, never panics.
func Profile(med medication.Medication, doses []medication.Dose, w core.Window, bodyWeightKg float64) ProfileResult {
	result := ProfileResult{MedicationID: med.ID}
	if !med.HasValidPK() || !w.IsValid() {
		return result
	}
	result.Valid = true
	result.HalfLifeHours = med.HalfLifeHours
	result.EliminationConstant = med.EliminationConstant()

	relevant := RecentDoses(medication.ForMedication(doses, med.ID), w, med.HalfLifeHours)
	inWindow := medication.InWindow(relevant, w)
	result.DoseCount = len(inWindow)

	// Candidate peak times: the window start (carry-over from earlier
	// doses) and each dose instant inside the window.
	candidates := []core.Timestamp{w.From}
	for _, d := range inWindow {
		candidates = append(candidates, d.Timestamp)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Before(candidates[j])
	})

	for _, at := range candidates {
		c := Concentration(med, relevant, at, bodyWeightKg)
		if c > result.CmaxNgPerML {
			result.CmaxNgPerML = c
			result.Tmax = at
		}
	}

	if med.TherapeuticRange != nil {
		if frac, ok := timeInRange(med, relevant, w, bodyWeightKg); ok {
			result.TimeInRangeFraction = &frac
		}
	}

	if after, ok := negligibleAfter(med, relevant, w, bodyWeightKg); ok {
		result.NegligibleAfter = &after
	}
	return result
}

// timeInRange samples hourly and reports the fraction of samples inside the
// normalized therapeutic range. Returns false when the range is unusable.
func timeInRange(med medication.Medication, doses []medication.Dose, w core.Window, bodyWeightKg float64) (float64, bool) {
	normalized, err := med.TherapeuticRange.Normalized()
	if err != nil {
		return 0, false
	}
	grid := HourlyGrid(w, time.Hour)
	if len(grid) == 0 {
		return 0, false
	}
	inRange := 0
	for _, at := range grid {
		c := Concentration(med, doses, at, bodyWeightKg)
		if c >= normalized.Min && c <= normalized.Max {
			inRange++
		}
	}
	return float64(inRange) / float64(len(grid)), true
}

// negligibleAfter solves for the instant the post-last-dose decay falls
// under the display floor. Every dose shares the elimination constant, so
// total concentration after the final dose is a single exponential.
func negligibleAfter(med medication.Medication, doses []medication.Dose, w core.Window, bodyWeightKg float64) (core.Timestamp, bool) {
	var last core.Timestamp
	for _, d := range doses {
		if d.Timestamp.After(w.To) {
			continue
		}
		if last.IsZero() || d.Timestamp.After(last) {
			last = d.Timestamp
		}
	}
	if last.IsZero() {
		return core.Timestamp{}, false
	}

	atLast := Concentration(med, doses, last, bodyWeightKg)
	if atLast < NegligibleConcentration {
		return last, true
	}
	hours := math.Log(atLast/NegligibleConcentration) / med.EliminationConstant()
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return core.Timestamp{}, false
	}
	return last.Add(time.Duration(hours * float64(time.Hour))), true
}
