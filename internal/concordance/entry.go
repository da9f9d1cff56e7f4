package concordance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ahtnremap/internal/codes"
	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tabular"
)

// Entry is one row of the correspondence table: the fraction of OldCode's
// value attributed to NewCode.
type Entry struct {
	OldCode string  `json:"old_code"`
	NewCode string  `json:"new_code"`
	Share   float64 `json:"share"`
}

// Columns names the correspondence table columns
type Columns struct {
	Old   string `yaml:"old" envconfig:"OLD" validate:"required"`
	New   string `yaml:"new" envconfig:"NEW" validate:"required"`
	Share string `yaml:"share" envconfig:"SHARE" validate:"required"`
}

// DefaultColumns returns the headers used by the AHTN 2017-2022 correlation table
func DefaultColumns() Columns {
	return Columns{Old: "AHTN 2017", New: "AHTN 2022", Share: "Share"}
}

// EntriesFromTable converts a correspondence table into entries, normalizing
// both codes to width digits. Rows keep their table order.
func EntriesFromTable(t *tabular.Table, cols Columns, width int) ([]Entry, error) {
	if missing := t.Missing(cols.Old, cols.New, cols.Share); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(t.Source, missing...)
	}
	if t.Len() == 0 {
		return nil, &apperrors.SchemaError{Source: t.Source, Message: "correspondence table has no rows"}
	}

	oldIdx, newIdx, shareIdx := t.Index(cols.Old), t.Index(cols.New), t.Index(cols.Share)

	entries := make([]Entry, 0, t.Len())
	var badCodes, badShares []string
	for i := 0; i < t.Len(); i++ {
		// spreadsheet row number, header being row 1
		rowRef := fmt.Sprintf("row %d", i+2)

		oldCode, errOld := codes.Normalize(t.Cell(i, oldIdx), width)
		newCode, errNew := codes.Normalize(t.Cell(i, newIdx), width)
		if errOld != nil || errNew != nil {
			badCodes = append(badCodes, fmt.Sprintf("%s (%q -> %q)", rowRef, t.Cell(i, oldIdx), t.Cell(i, newIdx)))
			continue
		}

		share, err := parseShare(t.Cell(i, shareIdx))
		if err != nil {
			badShares = append(badShares, fmt.Sprintf("%s -> %s", oldCode, newCode))
			continue
		}

		entries = append(entries, Entry{OldCode: oldCode, NewCode: newCode, Share: share})
	}

	if len(badCodes) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "invalid commodity codes", badCodes)
	}
	if len(badShares) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "share is not a number", badShares)
	}
	return entries, nil
}

func parseShare(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty share")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("share %q is not finite", raw)
	}
	return v, nil
}
