package excel

import (
	"fmt"
	"strings"
)

// row holds one data row's cells keyed by normalized column name
type row map[string]string

// table is one parsed sheet or CSV file: a header row plus data rows.
// Blank rows are dropped at construction.
type table struct {
	name    string
	columns map[string]bool
	rows    []row
}

func newTable(name string, raw [][]string) (*table, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: missing header row", name)
	}

	normalized := make([]string, len(raw[0]))
	columns := make(map[string]bool, len(raw[0]))
	for i, header := range raw[0] {
		normalized[i] = normalizeHeader(header)
		if normalized[i] != "" {
			columns[normalized[i]] = true
		}
	}

	t := &table{name: name, columns: columns}
	for _, cells := range raw[1:] {
		if isBlankRow(cells) {
			continue
		}
		data := make(row, len(normalized))
		for j, cell := range cells {
			if j < len(normalized) && normalized[j] != "" {
				data[normalized[j]] = strings.TrimSpace(cell)
			}
		}
		t.rows = append(t.rows, data)
	}
	return t, nil
}

// require reports the first named column absent from the header row
func (t *table) require(columns ...string) error {
	for _, c := range columns {
		if !t.columns[normalizeHeader(c)] {
			return fmt.Errorf("%s: missing column %q", t.name, c)
		}
	}
	return nil
}

// rowNumber converts a data row index to the 1-based sheet row users see
func (t *table) rowNumber(i int) int {
	// +2: row 1 is the header and sheet rows are 1-based
	return i + 2
}

func (r row) get(column string) string {
	return r[normalizeHeader(column)]
}

// normalizeHeader makes matching insensitive to case, spacing and
// underscores, so halfLife, half_life and "Half Life" all map together.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.ReplaceAll(h, "_", "")
	return strings.ReplaceAll(h, " ", "")
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
