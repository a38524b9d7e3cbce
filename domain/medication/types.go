package medication

import (
	"fmt"
	"math"
	"sort"

	"medinsight/domain/core"
)

// Concentration unit labels accepted in therapeutic ranges
const (
	UnitNanogramsPerML  = "ng/mL"
	UnitMicrogramsPerML = "mcg/mL"
	UnitMicrogramsAlt   = "µg/mL"
	UnitMilligramsPerL  = "mg/L"
)

// TherapeuticRange bounds plasma concentration in the recorded unit.
// Core comparisons always happen in ng/mL; call Normalized first.
type TherapeuticRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// IsValid reports whether the range is physically meaningful
func (r TherapeuticRange) IsValid() bool {
	if !isFinite(r.Min) || !isFinite(r.Max) {
		return false
	}
	if r.Min < 0 || r.Max <= r.Min {
		return false
	}
	_, err := unitFactor(r.Unit)
	return err == nil
}

// Normalized converts the range to ng/mL
func (r TherapeuticRange) Normalized() (TherapeuticRange, error) {
	factor, err := unitFactor(r.Unit)
	if err != nil {
		return TherapeuticRange{}, err
	}
	return TherapeuticRange{
		Min:  r.Min * factor,
		Max:  r.Max * factor,
		Unit: UnitNanogramsPerML,
	}, nil
}

func unitFactor(unit string) (float64, error) {
	switch unit {
	case UnitNanogramsPerML:
		return 1, nil
	case UnitMicrogramsPerML, UnitMicrogramsAlt, UnitMilligramsPerL:
		// 1 mcg/mL = 1 mg/L = 1000 ng/mL
		return 1000, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", core.ErrInvalidRange, unit)
	}
}

// Medication is immutable reference data supplied by collaborators.
// PK parameters describe a one-compartment model: halfLife drives the
// elimination constant, volumeOfDistribution and bioavailability scale the
// per-dose peak, absorptionRate gates validity.
type Medication struct {
	ID                    core.MedicationID `json:"id"`
	Name                  string            `json:"name"`
	HalfLifeHours         float64           `json:"halfLife"`
	VolumeOfDistributionL float64           `json:"volumeOfDistribution"`
	Bioavailability       float64           `json:"bioavailability"`
	AbsorptionRatePerHour float64           `json:"absorptionRate"`
	TherapeuticRange      *TherapeuticRange `json:"therapeuticRange,omitempty"`
}

// HasValidPK is the explicit validity predicate callers must check before
// repeated concentration evaluation: the model itself degrades silently to 0
// on invalid parameters rather than returning an error per sample.
func (m Medication) HasValidPK() bool {
	if !isFinite(m.HalfLifeHours) || m.HalfLifeHours <= 0 {
		return false
	}
	if !isFinite(m.VolumeOfDistributionL) || m.VolumeOfDistributionL <= 0 {
		return false
	}
	if !isFinite(m.Bioavailability) || m.Bioavailability <= 0 || m.Bioavailability > 1 {
		return false
	}
	if !isFinite(m.AbsorptionRatePerHour) || m.AbsorptionRatePerHour <= 0 {
		return false
	}
	return true
}

// Validate reports the first structural problem, for import/API surfaces.
// Analysis paths use HasValidPK instead and exclude rather than fail.
func (m Medication) Validate() error {
	if m.ID.IsEmpty() {
		return core.NewValidationError("id", "must not be empty")
	}
	if m.Name == "" {
		return core.NewValidationError("name", "must not be empty")
	}
	if !isFinite(m.HalfLifeHours) || m.HalfLifeHours <= 0 {
		return core.NewParameterError(core.ID(m.ID), "halfLife")
	}
	if !isFinite(m.VolumeOfDistributionL) || m.VolumeOfDistributionL <= 0 {
		return core.NewParameterError(core.ID(m.ID), "volumeOfDistribution")
	}
	if !isFinite(m.Bioavailability) || m.Bioavailability <= 0 || m.Bioavailability > 1 {
		return core.NewParameterError(core.ID(m.ID), "bioavailability")
	}
	if !isFinite(m.AbsorptionRatePerHour) || m.AbsorptionRatePerHour <= 0 {
		return core.NewParameterError(core.ID(m.ID), "absorptionRate")
	}
	if m.TherapeuticRange != nil && !m.TherapeuticRange.IsValid() {
		return fmt.Errorf("%w: medication %s", core.ErrInvalidRange, m.ID)
	}
	return nil
}

// EliminationConstant returns k = ln(2)/halfLife in 1/h, or 0 when invalid
func (m Medication) EliminationConstant() float64 {
	if !isFinite(m.HalfLifeHours) || m.HalfLifeHours <= 0 {
		return 0
	}
	return math.Ln2 / m.HalfLifeHours
}

// Dose is an append-only administration event
type Dose struct {
	MedicationID core.MedicationID `json:"medicationId"`
	Timestamp    core.Timestamp    `json:"timestamp"`
	AmountMg     float64           `json:"doseAmount"`
}

// Validate reports the first structural problem with the dose
func (d Dose) Validate() error {
	if d.MedicationID.IsEmpty() {
		return core.NewValidationError("medicationId", "must not be empty")
	}
	if d.Timestamp.IsZero() {
		return core.NewValidationError("timestamp", "must be set")
	}
	if !isFinite(d.AmountMg) || d.AmountMg <= 0 {
		return core.NewValidationError("doseAmount", "must be a positive amount in mg")
	}
	return nil
}

// ForMedication returns the doses belonging to one medication, input order kept
func ForMedication(doses []Dose, id core.MedicationID) []Dose {
	out := make([]Dose, 0, len(doses))
	for _, d := range doses {
		if d.MedicationID == id {
			out = append(out, d)
		}
	}
	return out
}

// InWindow returns the doses falling inside the analysis window, order kept
func InWindow(doses []Dose, w core.Window) []Dose {
	out := make([]Dose, 0, len(doses))
	for _, d := range doses {
		if w.Contains(d.Timestamp) {
			out = append(out, d)
		}
	}
	return out
}

// SortedByTime returns a time-ascending copy; inputs are never mutated
func SortedByTime(doses []Dose) []Dose {
	out := make([]Dose, len(doses))
	copy(out, doses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
