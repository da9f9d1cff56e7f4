package exporter

import (
	"fmt"
	"log/slog"

	"ahtnremap/internal/codes"
	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tabular"
)

// Description columns added when heading labels are configured
const (
	ColumnChapterDesc = "Chap_desc"
	ColumnHeadingDesc = "Header_desc"
)

// HeadingLabel holds the descriptions of a heading and of its chapter
type HeadingLabel struct {
	Chapter string
	Heading string
}

// Headings maps 4-digit heading codes to their descriptions
type Headings map[string]HeadingLabel

// Label returns the descriptions of the heading of code, empty when unknown
func (h Headings) Label(code string) HeadingLabel {
	return h[codes.Split(code).Heading]
}

// LoadHeadings reads a chapter and heading description table
func LoadHeadings(path string, logger *slog.Logger) (Headings, error) {
	table, err := tabular.ReadFile(path, tabular.ReadOptions{
		Expect: []string{ColumnHeading, ColumnChapterDesc, ColumnHeadingDesc},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return HeadingsFromTable(table)
}

// HeadingsFromTable builds the lookup from Header_code, Chap_desc and
// Header_desc columns. Heading codes stored as numbers get their leading
// zero back.
func HeadingsFromTable(t *tabular.Table) (Headings, error) {
	if missing := t.Missing(ColumnHeading, ColumnChapterDesc, ColumnHeadingDesc); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(t.Source, missing...)
	}
	codeIdx := t.Index(ColumnHeading)
	chapIdx := t.Index(ColumnChapterDesc)
	headIdx := t.Index(ColumnHeadingDesc)

	headings := make(Headings, t.Len())
	var bad []string
	for i := 0; i < t.Len(); i++ {
		raw := t.Cell(i, codeIdx)
		if raw == "" {
			continue
		}
		code, err := codes.Normalize(raw, codes.HeadingWidth)
		if err != nil {
			bad = append(bad, fmt.Sprintf("row %d (%q)", i+2, raw))
			continue
		}
		headings[code] = HeadingLabel{
			Chapter: t.Cell(i, chapIdx),
			Heading: t.Cell(i, headIdx),
		}
	}
	if len(bad) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "invalid heading codes", bad)
	}
	return headings, nil
}
