package testkit

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"medinsight/ports"
)

// TestKit holds one generated history and hands out sources and fixture
// files built from it, so every consumer in a test sees identical data.
type TestKit struct {
	config  ScenarioConfig
	history ports.History
}

// NewTestKit generates the default scenario
func NewTestKit() *TestKit {
	return NewTestKitWithConfig(DefaultScenarioConfig())
}

// NewTestKitWithConfig generates a custom scenario
func NewTestKitWithConfig(config ScenarioConfig) *TestKit {
	return &TestKit{
		config:  config,
		history: NewScenarioGenerator(config).Generate(),
	}
}

// Config returns the scenario configuration behind the history
func (t *TestKit) Config() ScenarioConfig {
	return t.config
}

// History returns the generated history
func (t *TestKit) History() ports.History {
	return t.history
}

// Source wraps the history in a HistorySource
func (t *TestKit) Source() ports.HistorySource {
	return StaticSource{History: t.history}
}

// StaticSource serves a fixed in-memory history
type StaticSource struct {
	History ports.History
	Err     error
}

// Load returns the fixed history
func (s StaticSource) Load(_ context.Context) (ports.History, error) {
	if s.Err != nil {
		return ports.History{}, s.Err
	}
	return s.History, nil
}

// Fixture column layouts shared with the spreadsheet reader
var (
	MedicationHeaders = []string{"id", "name", "halfLife", "volumeOfDistribution", "bioavailability", "absorptionRate", "rangeMin", "rangeMax", "rangeUnit"}
	DoseHeaders       = []string{"medicationId", "timestamp", "doseAmount"}
	MoodHeaders       = []string{"timestamp", "moodScore", "anxietyLevel", "energyLevel", "focusLevel", "cognitiveScore", "attentionShift"}
)

// WriteCSVFixtures writes medications.csv, doses.csv and mood_entries.csv
// into dir in the layout the CSV history source reads.
func (t *TestKit) WriteCSVFixtures(dir string) error {
	files := map[string][][]string{
		"medications.csv":  t.medicationRows(),
		"doses.csv":        t.doseRows(),
		"mood_entries.csv": t.moodRows(),
	}
	for name, rows := range files {
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return fmt.Errorf("write fixture %s: %w", name, err)
		}
	}
	return nil
}

// WriteWorkbookFixture writes a single .xlsx workbook with Medications,
// Doses and MoodEntries sheets in the layout the spreadsheet source reads.
func (t *TestKit) WriteWorkbookFixture(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][]string
	}{
		{"Medications", t.medicationRows()},
		{"Doses", t.doseRows()},
		{"MoodEntries", t.moodRows()},
	}

	f.SetSheetName("Sheet1", sheets[0].name)
	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet.name, err)
			}
		}
		for r, row := range sheet.rows {
			cells := make([]interface{}, len(row))
			for c, v := range row {
				cells[c] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.name, cell, &cells); err != nil {
				return fmt.Errorf("write sheet %s row %d: %w", sheet.name, r+1, err)
			}
		}
	}

	return f.SaveAs(path)
}

func (t *TestKit) medicationRows() [][]string {
	rows := [][]string{MedicationHeaders}
	for _, m := range t.history.Medications {
		rangeMin, rangeMax, rangeUnit := "", "", ""
		if m.TherapeuticRange != nil {
			rangeMin = formatFloat(m.TherapeuticRange.Min)
			rangeMax = formatFloat(m.TherapeuticRange.Max)
			rangeUnit = string(m.TherapeuticRange.Unit)
		}
		rows = append(rows, []string{
			string(m.ID),
			m.Name,
			formatFloat(m.HalfLifeHours),
			formatFloat(m.VolumeOfDistributionL),
			formatFloat(m.Bioavailability),
			formatFloat(m.AbsorptionRatePerHour),
			rangeMin,
			rangeMax,
			rangeUnit,
		})
	}
	return rows
}

func (t *TestKit) doseRows() [][]string {
	rows := [][]string{DoseHeaders}
	for _, d := range t.history.Doses {
		rows = append(rows, []string{
			string(d.MedicationID),
			d.Timestamp.String(),
			formatFloat(d.AmountMg),
		})
	}
	return rows
}

func (t *TestKit) moodRows() [][]string {
	rows := [][]string{MoodHeaders}
	for _, e := range t.history.MoodEntries {
		rows = append(rows, []string{
			e.Timestamp.String(),
			formatFloat(e.MoodScore),
			formatOptional(e.AnxietyLevel),
			formatOptional(e.EnergyLevel),
			formatOptional(e.FocusLevel),
			formatOptional(e.CognitiveScore),
			formatOptional(e.AttentionShift),
		})
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

var _ ports.HistorySource = StaticSource{}
