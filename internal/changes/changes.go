package changes

import (
	"fmt"
	"sort"

	"ahtnremap/internal/codes"
	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tabular"
	"ahtnremap/internal/tradedata"
)

// DefaultTopN is the number of partially changed rows ranked per series
const DefaultTopN = 10

// Ranked is one row of a top-N listing
type Ranked struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

// SeriesSummary aggregates one trade series
type SeriesSummary struct {
	Series        string   `json:"series"`
	Total         float64  `json:"total"`
	Complete      float64  `json:"complete"`
	Partial       float64  `json:"partial"`
	CompleteShare float64  `json:"complete_share"`
	PartialShare  float64  `json:"partial_share"`
	TopPartial    []Ranked `json:"top_partial"`
}

// Analysis describes how much trade falls under subheadings changed by the
// new edition.
type Analysis struct {
	Dataset string `json:"dataset"`
	// Rows lists the hierarchy of every code in the frame.
	Rows          []codes.Hierarchy `json:"-"`
	CompleteCodes int               `json:"complete_codes"`
	PartialCodes  int               `json:"partial_codes"`
	Series        []SeriesSummary   `json:"series"`
	// PartialRows holds the trade rows whose subheading is partially changed.
	PartialRows *tradedata.Frame `json:"-"`
}

// Lists holds the 6-digit subheadings that changed completely or partially
type Lists struct {
	Complete []string
	Partial  []string
}

// CodesFromTable reads a list of 6-digit subheadings from column. Values may
// be stored as decimals (0101.21 as 101.21) or as plain digits.
func CodesFromTable(t *tabular.Table, column string) ([]string, error) {
	if missing := t.Missing(column); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(t.Source, missing...)
	}
	idx := t.Index(column)

	var out, bad []string
	seen := make(map[string]bool)
	for i := 0; i < t.Len(); i++ {
		raw := t.Cell(i, idx)
		if raw == "" {
			continue
		}
		code, err := codes.FromDecimal(raw, codes.HeadingWidth, codes.SubheadingWidth-codes.HeadingWidth)
		if err != nil {
			bad = append(bad, raw)
			continue
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	if len(bad) > 0 {
		return nil, apperrors.NewDataIntegrityError(t.Source, "invalid subheading codes", bad)
	}
	sort.Strings(out)
	return out, nil
}

// Analyze sums each series over all codes, over completely changed
// subheadings and over partially changed ones, and ranks the topN partially
// changed rows per series. Shares are 0 when a series total is 0.
func Analyze(dataset string, f *tradedata.Frame, lists Lists, topN int) (*Analysis, error) {
	if f == nil || len(f.Series) == 0 {
		return nil, fmt.Errorf("%s: nothing to analyze", dataset)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	complete := toSet(lists.Complete)
	partial := toSet(lists.Partial)

	a := &Analysis{Dataset: dataset, Rows: make([]codes.Hierarchy, f.Len())}
	var isComplete, isPartial []bool
	for i, c := range f.Codes {
		h := codes.Split(c)
		a.Rows[i] = h
		isComplete = append(isComplete, complete[h.Subheading])
		isPartial = append(isPartial, partial[h.Subheading])
		if complete[h.Subheading] {
			a.CompleteCodes++
		}
		if partial[h.Subheading] {
			a.PartialCodes++
		}
	}

	totals := f.Totals()
	for j, s := range f.Series {
		sum := SeriesSummary{Series: s, Total: totals[j]}
		var ranked []Ranked
		for i, c := range f.Codes {
			v := f.Values.At(i, j)
			if isComplete[i] {
				sum.Complete += v
			}
			if isPartial[i] {
				sum.Partial += v
				ranked = append(ranked, Ranked{Code: c, Value: v})
			}
		}
		if sum.Total != 0 {
			sum.CompleteShare = sum.Complete / sum.Total
			sum.PartialShare = sum.Partial / sum.Total
		}
		sum.TopPartial = top(ranked, topN)
		a.Series = append(a.Series, sum)
	}

	a.PartialRows = f.Filter(func(code string) bool {
		return partial[codes.Split(code).Subheading]
	})
	return a, nil
}

// top sorts by value descending, ties by code, and keeps n rows
func top(rows []Ranked, n int) []Ranked {
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Value != rows[b].Value {
			return rows[a].Value > rows[b].Value
		}
		return rows[a].Code < rows[b].Code
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
