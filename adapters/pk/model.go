// Package pk implements the one-compartment pharmacokinetic model used for
// all concentration math: instantaneous absorption, first-order elimination,
// linear superposition across doses. Point concentration and reported peak
// metrics derive from this one model.
package pk

import (
	"math"
	"time"

	"medinsight/domain/core"
	"medinsight/domain/medication"
)

// DefaultBodyWeightKg is assumed when the caller supplies no usable weight
const DefaultBodyWeightKg = 70.0

// NegligibleConcentration is the display convention for "no measurably
// present drug" in ng/mL. Raw concentrations below it are still returned
// unclamped so trend and aggregation math stays unbiased.
const NegligibleConcentration = 0.01

// LookbackHalfLives bounds how much dose history matters at a query time.
// Past five half-lives a dose contributes ~3% of its peak.
const LookbackHalfLives = 5

// Concentration computes total plasma concentration in ng/mL at the query
// time: per-dose peak C0 = amountMg*1000*F/(Vd*weight), decayed by
// e^(-k*dt) and summed over every dose at or before the query time.
//
// Invalid PK parameters or an empty qualifying dose set yield exactly 0;
// callers gate repeated evaluation on Medication.HasValidPK rather than on
// an error. Doses recorded against a different medication are ignored.
// The result is never negative and never NaN.
func Concentration(med medication.Medication, doses []medication.Dose, at core.Timestamp, bodyWeightKg float64) float64 {
	if !med.HasValidPK() || at.IsZero() {
		return 0
	}
	weight := bodyWeightKg
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		weight = DefaultBodyWeightKg
	}

	k := med.EliminationConstant()
	total := 0.0
	for _, d := range doses {
		if d.MedicationID != med.ID {
			continue
		}
		if d.Timestamp.IsZero() || d.Timestamp.After(at) {
			continue
		}
		if math.IsNaN(d.AmountMg) || math.IsInf(d.AmountMg, 0) || d.AmountMg <= 0 {
			continue
		}
		dt := at.HoursSince(d.Timestamp)
		total += peakConcentration(med, d.AmountMg, weight) * math.Exp(-k*dt)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return 0
	}
	return total
}

// peakConcentration is the per-dose C0 in ng/mL
func peakConcentration(med medication.Medication, amountMg, weightKg float64) float64 {
	return amountMg * 1000 * med.Bioavailability / (med.VolumeOfDistributionL * weightKg)
}

// RecentDoses returns the doses that can still contribute measurably to any
// sample inside the window: those in [window.From - lookback, window.To]
// where the lookback spans LookbackHalfLives half-lives. Callers pre-filter
// with this before repeated sampling so per-sample cost stays bounded by
// recent history rather than total history. For a single query time, pass a
// window with From == To.
func RecentDoses(doses []medication.Dose, w core.Window, halfLifeHours float64) []medication.Dose {
	if math.IsNaN(halfLifeHours) || math.IsInf(halfLifeHours, 0) || halfLifeHours <= 0 {
		return nil
	}
	lookback := time.Duration(float64(time.Hour) * halfLifeHours * LookbackHalfLives)
	cutoff := w.From.Add(-lookback)

	out := make([]medication.Dose, 0, len(doses))
	for _, d := range doses {
		if d.Timestamp.After(w.To) || d.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// IsMeasurable reports whether a concentration is above the display floor
func IsMeasurable(concentration float64) bool {
	return concentration >= NegligibleConcentration
}
