package excel

import (
	"fmt"
	"strconv"

	"medinsight/domain/core"
	"medinsight/domain/medication"
	"medinsight/domain/mood"
)

func decodeMedications(t *table) ([]medication.Medication, error) {
	if err := t.require("id", "name", "halfLife", "volumeOfDistribution", "bioavailability", "absorptionRate"); err != nil {
		return nil, err
	}
	meds := make([]medication.Medication, 0, len(t.rows))
	for i, rw := range t.rows {
		med, err := decodeMedication(rw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.name, t.rowNumber(i), err)
		}
		meds = append(meds, med)
	}
	return meds, nil
}

func decodeMedication(rw row) (medication.Medication, error) {
	med := medication.Medication{
		ID:   core.MedicationID(rw.get("id")),
		Name: rw.get("name"),
	}
	if med.ID.IsEmpty() {
		return medication.Medication{}, fmt.Errorf("id: empty value")
	}

	var err error
	if med.HalfLifeHours, err = floatCell(rw, "halfLife"); err != nil {
		return medication.Medication{}, err
	}
	if med.VolumeOfDistributionL, err = floatCell(rw, "volumeOfDistribution"); err != nil {
		return medication.Medication{}, err
	}
	if med.Bioavailability, err = floatCell(rw, "bioavailability"); err != nil {
		return medication.Medication{}, err
	}
	if med.AbsorptionRatePerHour, err = floatCell(rw, "absorptionRate"); err != nil {
		return medication.Medication{}, err
	}
	if med.TherapeuticRange, err = decodeRange(rw); err != nil {
		return medication.Medication{}, err
	}
	return med, nil
}

// decodeRange builds the optional therapeutic range. Both bounds must be
// present together; a missing unit defaults to ng/mL.
func decodeRange(rw row) (*medication.TherapeuticRange, error) {
	minRaw, maxRaw := rw.get("rangeMin"), rw.get("rangeMax")
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}
	if minRaw == "" || maxRaw == "" {
		return nil, fmt.Errorf("rangeMin and rangeMax must be given together")
	}

	rng := &medication.TherapeuticRange{Unit: rw.get("rangeUnit")}
	if rng.Unit == "" {
		rng.Unit = medication.UnitNanogramsPerML
	}
	var err error
	if rng.Min, err = parseFloat("rangeMin", minRaw); err != nil {
		return nil, err
	}
	if rng.Max, err = parseFloat("rangeMax", maxRaw); err != nil {
		return nil, err
	}
	return rng, nil
}

func decodeDoses(t *table) ([]medication.Dose, error) {
	if err := t.require("medicationId", "timestamp", "doseAmount"); err != nil {
		return nil, err
	}
	doses := make([]medication.Dose, 0, len(t.rows))
	for i, rw := range t.rows {
		d := medication.Dose{MedicationID: core.MedicationID(rw.get("medicationId"))}
		if d.MedicationID.IsEmpty() {
			return nil, fmt.Errorf("%s row %d: medicationId: empty value", t.name, t.rowNumber(i))
		}
		var err error
		if d.Timestamp, err = timeCell(rw, "timestamp"); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.name, t.rowNumber(i), err)
		}
		if d.AmountMg, err = floatCell(rw, "doseAmount"); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.name, t.rowNumber(i), err)
		}
		doses = append(doses, d)
	}
	return doses, nil
}

func decodeMoodEntries(t *table) ([]mood.Entry, error) {
	if err := t.require("timestamp", "moodScore"); err != nil {
		return nil, err
	}
	entries := make([]mood.Entry, 0, len(t.rows))
	for i, rw := range t.rows {
		e, err := decodeMoodEntry(rw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.name, t.rowNumber(i), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeMoodEntry(rw row) (mood.Entry, error) {
	var e mood.Entry
	var err error
	if e.Timestamp, err = timeCell(rw, "timestamp"); err != nil {
		return mood.Entry{}, err
	}
	if e.MoodScore, err = floatCell(rw, "moodScore"); err != nil {
		return mood.Entry{}, err
	}

	optionals := []struct {
		column string
		field  **float64
	}{
		{"anxietyLevel", &e.AnxietyLevel},
		{"energyLevel", &e.EnergyLevel},
		{"focusLevel", &e.FocusLevel},
		{"cognitiveScore", &e.CognitiveScore},
		{"attentionShift", &e.AttentionShift},
	}
	for _, opt := range optionals {
		if *opt.field, err = optionalFloatCell(rw, opt.column); err != nil {
			return mood.Entry{}, err
		}
	}
	return e, nil
}

// floatCell reads a required numeric cell
func floatCell(rw row, column string) (float64, error) {
	raw := rw.get(column)
	if raw == "" {
		return 0, fmt.Errorf("%s: empty value", column)
	}
	return parseFloat(column, raw)
}

// optionalFloatCell reads a numeric cell that may be absent or empty
func optionalFloatCell(rw row, column string) (*float64, error) {
	raw := rw.get(column)
	if raw == "" {
		return nil, nil
	}
	v, err := parseFloat(column, raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseFloat(column, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: cannot parse %q as a number", column, raw)
	}
	return v, nil
}

// timeCell reads a required timestamp cell, RFC3339 or epoch milliseconds
func timeCell(rw row, column string) (core.Timestamp, error) {
	raw := rw.get(column)
	if raw == "" {
		return core.Timestamp{}, fmt.Errorf("%s: empty value", column)
	}
	ts, err := core.ParseTimestamp(raw)
	if err != nil {
		return core.Timestamp{}, fmt.Errorf("%s: %w", column, err)
	}
	return ts, nil
}
