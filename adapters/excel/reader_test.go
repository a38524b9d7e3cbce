package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medinsight/domain/core"
	apperrors "medinsight/internal/errors"
	"medinsight/internal/testkit"
	"medinsight/ports"
)

// Minimal valid fixtures for the handwritten cases. The mood file omits
// every optional column on purpose.
const (
	validMedicationsCSV = "id,name,halfLife,volumeOfDistribution,bioavailability,absorptionRate,rangeMin,rangeMax,rangeUnit\nmed-a,Alpha,24,20,0.5,1.2,,,\n"
	validDosesCSV       = "medicationId,timestamp,doseAmount\nmed-a,2024-06-01T08:00:00Z,100\n"
	validMoodCSV        = "timestamp,moodScore\n2024-06-01T10:00:00Z,6.5\n"
)

func writeCSVDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// assertHistoriesEqual compares histories field by field. Timestamps are
// compared as instants because parsing never restores the original
// time.Time internals bit for bit.
func assertHistoriesEqual(t *testing.T, want, got ports.History) {
	t.Helper()

	assert.Equal(t, want.Medications, got.Medications)

	require.Len(t, got.Doses, len(want.Doses))
	for i := range want.Doses {
		w, g := want.Doses[i], got.Doses[i]
		assert.True(t, g.Timestamp.Time().Equal(w.Timestamp.Time()),
			"dose %d timestamp: want %s, got %s", i, w.Timestamp, g.Timestamp)
		w.Timestamp, g.Timestamp = core.Timestamp{}, core.Timestamp{}
		assert.Equal(t, w, g, "dose %d", i)
	}

	require.Len(t, got.MoodEntries, len(want.MoodEntries))
	for i := range want.MoodEntries {
		w, g := want.MoodEntries[i], got.MoodEntries[i]
		assert.True(t, g.Timestamp.Time().Equal(w.Timestamp.Time()),
			"mood entry %d timestamp: want %s, got %s", i, w.Timestamp, g.Timestamp)
		w.Timestamp, g.Timestamp = core.Timestamp{}, core.Timestamp{}
		assert.Equal(t, w, g, "mood entry %d", i)
	}
}

func TestLoadWorkbookRoundTrip(t *testing.T) {
	kit := testkit.NewTestKit()
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, kit.WriteWorkbookFixture(path))

	got, err := NewHistoryReader(path).Load(context.Background())
	require.NoError(t, err)

	assertHistoriesEqual(t, kit.History(), got)
}

func TestLoadCSVDirectoryRoundTrip(t *testing.T) {
	kit := testkit.NewTestKit()
	dir := t.TempDir()
	require.NoError(t, kit.WriteCSVFixtures(dir))

	got, err := NewHistoryReader(dir).Load(context.Background())
	require.NoError(t, err)

	assertHistoriesEqual(t, kit.History(), got)
}

// TestLoadHeaderAndCellForms exercises the looser forms the reader accepts:
// snake_case and mixed-case headers, epoch-millisecond timestamps, blank
// rows and empty optional cells.
func TestLoadHeaderAndCellForms(t *testing.T) {
	dir := writeCSVDir(t, map[string]string{
		FileMedications: "ID,Name,Half_Life,Volume_Of_Distribution,Bioavailability,Absorption_Rate\n" +
			"med-a,Alpha,24,20,0.5,1.2\n",
		FileDoses: "Medication_Id,Timestamp,Dose_Amount\n" +
			"med-a,1717236000000,100\n",
		FileMoodEntries: "Timestamp,Mood_Score,Anxiety_Level,Energy_Level,Focus_Level,Cognitive_Score,Attention_Shift\n" +
			"2024-06-01T10:00:00Z,6.5,,7,,,\n" +
			",,,,,,\n",
	})

	h, err := NewHistoryReader(dir).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, h.Medications, 1)
	med := h.Medications[0]
	assert.Equal(t, core.MedicationID("med-a"), med.ID)
	assert.Equal(t, 24.0, med.HalfLifeHours)
	assert.Equal(t, 1.2, med.AbsorptionRatePerHour)
	assert.Nil(t, med.TherapeuticRange)

	require.Len(t, h.Doses, 1)
	wantTime := core.FromUnixMilli(1717236000000)
	assert.True(t, h.Doses[0].Timestamp.Time().Equal(wantTime.Time()),
		"epoch-ms timestamp: want %s, got %s", wantTime, h.Doses[0].Timestamp)
	assert.Equal(t, 100.0, h.Doses[0].AmountMg)

	// The all-blank trailer row is dropped, not decoded
	require.Len(t, h.MoodEntries, 1)
	entry := h.MoodEntries[0]
	assert.Equal(t, 6.5, entry.MoodScore)
	assert.Nil(t, entry.AnxietyLevel)
	require.NotNil(t, entry.EnergyLevel)
	assert.Equal(t, 7.0, *entry.EnergyLevel)
	assert.Nil(t, entry.AttentionShift)
}

func TestLoadStructuralErrors(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "missing column",
			file:    FileMedications,
			content: "id,name,volumeOfDistribution,bioavailability,absorptionRate\nmed-a,Alpha,20,0.5,1.2\n",
			wantErr: `missing column "halfLife"`,
		},
		{
			name:    "bad number",
			file:    FileDoses,
			content: "medicationId,timestamp,doseAmount\nmed-a,2024-06-01T08:00:00Z,abc\n",
			wantErr: "row 2: doseAmount",
		},
		{
			name:    "bad timestamp",
			file:    FileMoodEntries,
			content: "timestamp,moodScore\nyesterday,6.5\n",
			wantErr: "row 2: timestamp",
		},
		{
			name:    "lone range bound",
			file:    FileMedications,
			content: "id,name,halfLife,volumeOfDistribution,bioavailability,absorptionRate,rangeMin,rangeMax\nmed-a,Alpha,24,20,0.5,1.2,10,\n",
			wantErr: "rangeMin and rangeMax must be given together",
		},
		{
			name:    "missing medication id",
			file:    FileDoses,
			content: "medicationId,timestamp,doseAmount\n,2024-06-01T08:00:00Z,100\n",
			wantErr: "medicationId: empty value",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			files := map[string]string{
				FileMedications: validMedicationsCSV,
				FileDoses:       validDosesCSV,
				FileMoodEntries: validMoodCSV,
			}
			files[tc.file] = tc.content
			dir := writeCSVDir(t, files)

			_, err := NewHistoryReader(dir).Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Equal(t, apperrors.CodeSourceError, apperrors.CodeOf(err))
		})
	}
}

func TestLoadRejectsUnsupportedPaths(t *testing.T) {
	plain := filepath.Join(t.TempDir(), "history.txt")
	require.NoError(t, os.WriteFile(plain, []byte("not a history"), 0o644))

	_, err := NewHistoryReader(plain).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported history format")
	assert.Equal(t, apperrors.CodeSourceError, apperrors.CodeOf(err))

	_, err = NewHistoryReader(filepath.Join(t.TempDir(), "nope.xlsx")).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSourceError, apperrors.CodeOf(err))
}
