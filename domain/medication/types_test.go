package medication

import (
	"math"
	"testing"
	"time"

	"medinsight/domain/core"
)

func validMedication() Medication {
	return Medication{
		ID:                    "sertraline",
		Name:                  "Sertraline",
		HalfLifeHours:         26,
		VolumeOfDistributionL: 20,
		Bioavailability:       0.44,
		AbsorptionRatePerHour: 0.5,
	}
}

// TestHasValidPK tests the validity predicate over parameter boundaries
func TestHasValidPK(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Medication)
		want   bool
	}{
		{"valid", func(m *Medication) {}, true},
		{"zero half-life", func(m *Medication) { m.HalfLifeHours = 0 }, false},
		{"negative half-life", func(m *Medication) { m.HalfLifeHours = -1 }, false},
		{"NaN half-life", func(m *Medication) { m.HalfLifeHours = math.NaN() }, false},
		{"infinite Vd", func(m *Medication) { m.VolumeOfDistributionL = math.Inf(1) }, false},
		{"zero Vd", func(m *Medication) { m.VolumeOfDistributionL = 0 }, false},
		{"zero bioavailability", func(m *Medication) { m.Bioavailability = 0 }, false},
		{"bioavailability above one", func(m *Medication) { m.Bioavailability = 1.2 }, false},
		{"bioavailability exactly one", func(m *Medication) { m.Bioavailability = 1 }, true},
		{"zero absorption rate", func(m *Medication) { m.AbsorptionRatePerHour = 0 }, false},
	}

	for _, test := range tests {
		med := validMedication()
		test.mutate(&med)
		if got := med.HasValidPK(); got != test.want {
			t.Errorf("%s: HasValidPK() = %v, want %v", test.name, got, test.want)
		}
	}
}

// TestValidateReportsParameter tests that validation names the broken field
func TestValidateReportsParameter(t *testing.T) {
	med := validMedication()
	med.HalfLifeHours = -3

	err := med.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !core.IsValidationError(err) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

// TestTherapeuticRangeNormalized tests unit conversion to ng/mL
func TestTherapeuticRangeNormalized(t *testing.T) {
	tests := []struct {
		unit    string
		min     float64
		max     float64
		wantMin float64
		wantMax float64
	}{
		{UnitNanogramsPerML, 10, 200, 10, 200},
		{UnitMicrogramsPerML, 0.5, 1.2, 500, 1200},
		{UnitMilligramsPerL, 1, 4, 1000, 4000},
	}

	for _, test := range tests {
		r := TherapeuticRange{Min: test.min, Max: test.max, Unit: test.unit}
		got, err := r.Normalized()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", test.unit, err)
		}
		if got.Min != test.wantMin || got.Max != test.wantMax {
			t.Errorf("%s: got [%v, %v], want [%v, %v]", test.unit, got.Min, got.Max, test.wantMin, test.wantMax)
		}
		if got.Unit != UnitNanogramsPerML {
			t.Errorf("%s: expected normalized unit ng/mL, got %s", test.unit, got.Unit)
		}
	}

	if _, err := (TherapeuticRange{Min: 1, Max: 2, Unit: "furlongs"}).Normalized(); err == nil {
		t.Error("Expected error for unknown unit")
	}
}

// TestDoseValidate tests dose event validation
func TestDoseValidate(t *testing.T) {
	now := core.Now()

	good := Dose{MedicationID: "m1", Timestamp: now, AmountMg: 50}
	if err := good.Validate(); err != nil {
		t.Errorf("Unexpected error for valid dose: %v", err)
	}

	bad := []Dose{
		{MedicationID: "", Timestamp: now, AmountMg: 50},
		{MedicationID: "m1", AmountMg: 50},
		{MedicationID: "m1", Timestamp: now, AmountMg: 0},
		{MedicationID: "m1", Timestamp: now, AmountMg: math.NaN()},
	}
	for i, d := range bad {
		if err := d.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

// TestDoseFilters tests window and medication filtering
func TestDoseFilters(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	doses := []Dose{
		{MedicationID: "a", Timestamp: core.NewTimestamp(base), AmountMg: 10},
		{MedicationID: "b", Timestamp: core.NewTimestamp(base.Add(24 * time.Hour)), AmountMg: 20},
		{MedicationID: "a", Timestamp: core.NewTimestamp(base.Add(48 * time.Hour)), AmountMg: 10},
	}

	onlyA := ForMedication(doses, "a")
	if len(onlyA) != 2 {
		t.Fatalf("Expected 2 doses for medication a, got %d", len(onlyA))
	}

	w := core.Window{
		From: core.NewTimestamp(base.Add(12 * time.Hour)),
		To:   core.NewTimestamp(base.Add(72 * time.Hour)),
	}
	inWindow := InWindow(doses, w)
	if len(inWindow) != 2 {
		t.Fatalf("Expected 2 doses in window, got %d", len(inWindow))
	}

	shuffled := []Dose{doses[2], doses[0], doses[1]}
	sorted := SortedByTime(shuffled)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Before(sorted[i-1].Timestamp) {
			t.Fatal("SortedByTime did not order doses ascending")
		}
	}
	if !shuffled[0].Timestamp.Time().Equal(base.Add(48 * time.Hour)) {
		t.Error("SortedByTime mutated its input")
	}
}
