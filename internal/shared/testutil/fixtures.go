package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WorkbookFixtures writes small input files for tests into a temporary directory
type WorkbookFixtures struct {
	Dir string
}

// NewWorkbookFixtures creates a fixtures manager rooted in t.TempDir()
func NewWorkbookFixtures(t *testing.T) *WorkbookFixtures {
	t.Helper()
	return &WorkbookFixtures{Dir: t.TempDir()}
}

// Path returns the absolute path of a fixture file
func (f *WorkbookFixtures) Path(name string) string {
	return filepath.Join(f.Dir, name)
}

// WriteXLSX writes a single-sheet workbook with a header row and returns its path
func (f *WorkbookFixtures) WriteXLSX(t *testing.T, name, sheet string, header []string, rows [][]interface{}) string {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	require.NoError(t, wb.SetSheetName("Sheet1", sheet))

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &headerRow))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		values := row
		require.NoError(t, wb.SetSheetRow(sheet, cell, &values))
	}

	path := f.Path(name)
	require.NoError(t, wb.SaveAs(path))
	return path
}

// WriteCSV writes a CSV file with a header row and returns its path
func (f *WorkbookFixtures) WriteCSV(t *testing.T, name string, header []string, rows [][]string) string {
	t.Helper()

	path := f.Path(name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, w.Error())
	return path
}
