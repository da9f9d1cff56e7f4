package tradedata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"ahtnremap/internal/codes"
	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tabular"
)

// LoadSpec names the columns a trade table must provide
type LoadSpec struct {
	CodeColumn string
	Series     []string
	// CodeWidth is the digit width codes are normalized to.
	CodeWidth int
	// Extra lists optional descriptive columns carried as labels.
	Extra []string
}

// Required returns the code column followed by the series columns
func (s LoadSpec) Required() []string {
	return append([]string{s.CodeColumn}, s.Series...)
}

// Load converts a raw trade table into a code-sorted Frame.
//
// All required columns are checked first; a SchemaError lists exactly the
// missing ones. Empty cells (and "-" or "NaN") count as 0, thousands
// separators are ignored. Unparsable numbers and repeated codes are
// reported as a DataIntegrityError. The table is not modified.
func Load(t *tabular.Table, spec LoadSpec) (*Frame, error) {
	if len(spec.Series) == 0 {
		return nil, fmt.Errorf("no trade series requested for %s", t.Source)
	}
	if missing := t.Missing(spec.Required()...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(t.Source, missing...)
	}

	codeIdx := t.Index(spec.CodeColumn)
	seriesIdx := make([]int, len(spec.Series))
	for j, s := range spec.Series {
		seriesIdx[j] = t.Index(s)
	}

	type row struct {
		code string
		src  int
	}
	rows := make([]row, 0, t.Len())
	seen := make(map[string]bool, t.Len())
	var badCodes, duplicates []string

	for i := 0; i < t.Len(); i++ {
		raw := t.Cell(i, codeIdx)
		if raw == "" {
			// trailing totals and notes rows carry no code
			continue
		}
		code, err := codes.Normalize(raw, spec.CodeWidth)
		if err != nil {
			badCodes = append(badCodes, raw)
			continue
		}
		if seen[code] {
			duplicates = append(duplicates, code)
			continue
		}
		seen[code] = true
		rows = append(rows, row{code: code, src: i})
	}

	if len(badCodes) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "invalid commodity codes", badCodes)
	}
	if len(duplicates) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "duplicate commodity codes", duplicates)
	}
	if len(rows) == 0 {
		return nil, &apperrors.SchemaError{Source: t.Source, Message: "trade table has no data rows"}
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].code < rows[b].code })

	values := mat.NewDense(len(rows), len(spec.Series), nil)
	frameCodes := make([]string, len(rows))
	var badValues []string

	for i, r := range rows {
		frameCodes[i] = r.code
		for j, col := range seriesIdx {
			v, err := ParseValue(t.Cell(r.src, col))
			if err != nil {
				badValues = append(badValues, fmt.Sprintf("%s/%s=%q", r.code, spec.Series[j], t.Cell(r.src, col)))
				continue
			}
			values.Set(i, j, v)
		}
	}
	if len(badValues) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "non-numeric trade values", badValues)
	}

	frame, err := NewFrame(frameCodes, append([]string(nil), spec.Series...), values)
	if err != nil {
		return nil, err
	}
	for _, name := range spec.Extra {
		idx := t.Index(name)
		if idx < 0 {
			continue
		}
		col := make([]string, len(rows))
		for i, r := range rows {
			col[i] = t.Cell(r.src, idx)
		}
		frame.Labels[name] = col
	}
	return frame, nil
}

// ParseValue parses a trade value cell; missing markers read as 0
func ParseValue(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	switch strings.ToLower(s) {
	case "", "-", "nan", "n/a":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("value %q is not finite", raw)
	}
	return v, nil
}
