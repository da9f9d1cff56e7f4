package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerScanRows bounds how far down a sheet the header row is searched for
const headerScanRows = 20

// rawCells reads stored cell values instead of number-formatted display text
var rawCells = excelize.Options{RawCellValue: true}

// ReadOptions controls sheet and header discovery
type ReadOptions struct {
	// Sheet forces a worksheet; empty means discover it.
	Sheet string
	// Expect lists column names used to recognise the header row and sheet.
	Expect []string
	Logger *slog.Logger
}

// ReadFile reads an .xlsx or .csv file, choosing the reader by extension
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, opts)
	case ".csv":
		return ReadCSV(path, opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q: %s", filepath.Ext(path), path)
	}
}

// ReadXLSX reads a worksheet from an Excel workbook.
//
// Without an explicit sheet, the first sheet whose leading rows contain every
// expected column is used; failing that, the first sheet of the workbook.
func ReadXLSX(path string, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return readWorkbook(f, path, opts)
}

// ReadXLSXFrom reads a workbook from an arbitrary reader
func ReadXLSXFrom(r io.Reader, source string, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", source, err)
	}
	defer f.Close()

	return readWorkbook(f, source, opts)
}

func readWorkbook(f *excelize.File, source string, opts ReadOptions) (*Table, error) {
	logger := loggerOrDefault(opts.Logger)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", source)
	}

	if opts.Sheet != "" {
		rows, err := f.GetRows(opts.Sheet, rawCells)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %s: %w", opts.Sheet, source, err)
		}
		t := fromRows(source, rows, opts.Expect)
		t.Sheet = opts.Sheet
		return t, nil
	}

	for _, name := range sheets {
		rows, err := f.GetRows(name, rawCells)
		if err != nil {
			logger.Warn("Skipping unreadable sheet",
				slog.String("source", source),
				slog.String("sheet", name),
				slog.String("error", err.Error()))
			continue
		}
		if len(opts.Expect) > 0 && headerRow(rows, opts.Expect) < 0 {
			continue
		}
		t := fromRows(source, rows, opts.Expect)
		t.Sheet = name
		logger.Debug("Found data sheet",
			slog.String("source", source),
			slog.String("sheet", name),
			slog.Int("rows", t.Len()))
		return t, nil
	}

	// Nothing matched; fall back to the first sheet so that callers can
	// report exactly which columns are missing.
	rows, err := f.GetRows(sheets[0], rawCells)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], source, err)
	}
	t := fromRows(source, rows, opts.Expect)
	t.Sheet = sheets[0]
	return t, nil
}

// ReadCSV reads a comma-separated file. A UTF-8 BOM is tolerated.
func ReadCSV(path string, opts ReadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ReadCSVFrom(bytes.NewReader(data), path, opts)
}

// ReadCSVFrom reads CSV data from an arbitrary reader
func ReadCSVFrom(r io.Reader, source string, opts ReadOptions) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %s: %w", source, err)
	}
	return fromRows(source, rows, opts.Expect), nil
}

// fromRows locates the header row and builds a table of the rows below it
func fromRows(source string, rows [][]string, expect []string) *Table {
	idx := headerRow(rows, expect)
	if idx < 0 {
		idx = firstNonEmpty(rows)
	}
	if idx < 0 {
		return NewTable(source, nil, nil)
	}

	var data [][]string
	for _, row := range rows[idx+1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, row)
	}
	return NewTable(source, rows[idx], data)
}

// headerRow returns the index of the first row containing every expected
// column, or -1. With no expectations it returns -1.
func headerRow(rows [][]string, expect []string) int {
	if len(expect) == 0 {
		return -1
	}
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		present := make(map[string]bool, len(rows[i]))
		for _, cell := range rows[i] {
			present[strings.TrimSpace(cell)] = true
		}
		found := true
		for _, col := range expect {
			if !present[col] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

func firstNonEmpty(rows [][]string) int {
	for i, row := range rows {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
