// Package ports defines the boundaries between the analysis core and the
// outside world. Adapters implement these interfaces; the core never learns
// where its inputs came from.
package ports

import (
	"context"

	"medinsight/domain/medication"
	"medinsight/domain/mood"
)

// History bundles everything a report request runs over. The core treats
// it as immutable reference data.
type History struct {
	Medications []medication.Medication
	Doses       []medication.Dose
	MoodEntries []mood.Entry
}

// IsEmpty reports whether the history carries no events at all
func (h History) IsEmpty() bool {
	return len(h.Medications) == 0 && len(h.Doses) == 0 && len(h.MoodEntries) == 0
}

// HistorySource supplies dose and mood history from wherever it lives:
// a spreadsheet export, a CSV directory, or a test generator.
type HistorySource interface {
	// Load reads the full history. Implementations validate structure
	// (parseable timestamps, known columns) but leave range checks to
	// the domain.
	Load(ctx context.Context) (History, error)
}
