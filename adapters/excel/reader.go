// Package excel imports dose and mood history from collaborator exports:
// a single .xlsx workbook or a directory of CSV files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"medinsight/internal"
	apperrors "medinsight/internal/errors"
	"medinsight/ports"
)

// Workbook sheet names and CSV file names the reader expects
const (
	SheetMedications = "Medications"
	SheetDoses       = "Doses"
	SheetMoodEntries = "MoodEntries"

	FileMedications = "medications.csv"
	FileDoses       = "doses.csv"
	FileMoodEntries = "mood_entries.csv"
)

// HistoryReader loads a full history from a file path. A path ending in
// .xlsx is read as a workbook with Medications, Doses and MoodEntries
// sheets; a directory is read as medications.csv, doses.csv and
// mood_entries.csv. Column mapping is header-driven, so column order and
// header casing do not matter.
type HistoryReader struct {
	path   string
	logger *internal.Logger
}

// NewHistoryReader creates a reader for the given workbook or directory path
func NewHistoryReader(path string) *HistoryReader {
	return &HistoryReader{
		path:   path,
		logger: internal.DefaultLogger.Named("excel"),
	}
}

// Load reads the full history. Structural problems (missing columns,
// unparseable cells) fail the load; range checks stay with the domain.
func (r *HistoryReader) Load(ctx context.Context) (ports.History, error) {
	if err := ctx.Err(); err != nil {
		return ports.History{}, err
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return ports.History{}, apperrors.SourceError("history", err)
	}

	var h ports.History
	switch {
	case info.IsDir():
		h, err = r.loadCSVDir()
	case strings.EqualFold(filepath.Ext(r.path), ".xlsx"):
		h, err = r.loadWorkbook()
	default:
		err = fmt.Errorf("unsupported history format %q: want an .xlsx workbook or a directory of CSV files", filepath.Base(r.path))
	}
	if err != nil {
		return ports.History{}, apperrors.SourceError("history", err)
	}

	r.logger.Info("loaded %s: %d medications, %d doses, %d mood entries",
		filepath.Base(r.path), len(h.Medications), len(h.Doses), len(h.MoodEntries))
	return h, nil
}

func (r *HistoryReader) loadWorkbook() (ports.History, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return ports.History{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var h ports.History
	sheets := []struct {
		name   string
		decode func(*table) error
	}{
		{SheetMedications, func(t *table) (err error) { h.Medications, err = decodeMedications(t); return }},
		{SheetDoses, func(t *table) (err error) { h.Doses, err = decodeDoses(t); return }},
		{SheetMoodEntries, func(t *table) (err error) { h.MoodEntries, err = decodeMoodEntries(t); return }},
	}
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet.name)
		if err != nil {
			return ports.History{}, fmt.Errorf("read sheet %s: %w", sheet.name, err)
		}
		t, err := newTable("sheet "+sheet.name, rows)
		if err != nil {
			return ports.History{}, err
		}
		r.logger.Debug("%s: %d data rows", t.name, len(t.rows))
		if err := sheet.decode(t); err != nil {
			return ports.History{}, err
		}
	}
	return h, nil
}

func (r *HistoryReader) loadCSVDir() (ports.History, error) {
	var h ports.History
	files := []struct {
		name   string
		decode func(*table) error
	}{
		{FileMedications, func(t *table) (err error) { h.Medications, err = decodeMedications(t); return }},
		{FileDoses, func(t *table) (err error) { h.Doses, err = decodeDoses(t); return }},
		{FileMoodEntries, func(t *table) (err error) { h.MoodEntries, err = decodeMoodEntries(t); return }},
	}
	for _, file := range files {
		rows, err := readCSVFile(filepath.Join(r.path, file.name))
		if err != nil {
			return ports.History{}, fmt.Errorf("read %s: %w", file.name, err)
		}
		t, err := newTable(file.name, rows)
		if err != nil {
			return ports.History{}, err
		}
		r.logger.Debug("%s: %d data rows", t.name, len(t.rows))
		if err := file.decode(t); err != nil {
			return ports.History{}, err
		}
	}
	return h, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Ragged rows are tolerated; cells map to columns by header position
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

var _ ports.HistorySource = (*HistoryReader)(nil)
