package tabular

import (
	"strings"
)

// Table is a header plus string rows read from a spreadsheet or CSV file.
// Rows may be ragged; use Cell for bounds-safe access.
type Table struct {
	Source string
	Sheet  string
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable creates a table from a header and rows. Header names are trimmed.
func NewTable(source string, header []string, rows [][]string) *Table {
	t := &Table{
		Source: source,
		Header: make([]string, len(header)),
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		t.Header[i] = name
		// first occurrence wins for duplicated headers
		if _, exists := t.index[name]; !exists && name != "" {
			t.index[name] = i
		}
	}
	return t
}

// Index returns the position of a column, or -1 if it is absent
func (t *Table) Index(column string) int {
	if i, ok := t.index[strings.TrimSpace(column)]; ok {
		return i
	}
	return -1
}

// Has reports whether the column exists
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Missing returns the requested columns that are absent, in request order
func (t *Table) Missing(columns ...string) []string {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the trimmed value at (row, col), or "" when the row is short
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Column returns every value of the named column, or nil if it is absent
func (t *Table) Column(column string) []string {
	idx := t.Index(column)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Cell(i, idx)
	}
	return values
}
