package remap

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"ahtnremap/internal/concordance"
	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tradedata"
)

// DefaultDiffTolerance is the absolute tolerance used when comparing the
// primary and alternate remappings.
const DefaultDiffTolerance = 1e-2

// ShareMode selects the shares used by the alternate computation
type ShareMode string

const (
	// ShareModeReciprocal splits each old code evenly over its entries.
	ShareModeReciprocal ShareMode = "reciprocal"
	// ShareModeExplicit uses the shares from the correspondence table.
	ShareModeExplicit ShareMode = "explicit"
)

// Valid reports whether the mode is known
func (s ShareMode) Valid() bool {
	return s == ShareModeReciprocal || s == ShareModeExplicit
}

// Mismatch is one cell whose difference exceeds the tolerance
type Mismatch struct {
	Code      string  `json:"code"`
	Series    string  `json:"series"`
	Primary   float64 `json:"primary"`
	Alternate float64 `json:"alternate"`
	Diff      float64 `json:"diff"`
}

// Report is the result of a cross-validation. A report with Equal false is
// a diagnostic, not a failure.
type Report struct {
	Dataset   string
	ShareMode ShareMode
	Equal     bool
	MaxDiff   float64
	Tolerance float64
	Codes     []string
	Series    []string
	// Differences holds |primary - alternate| per cell.
	Differences *mat.Dense
	Primary     *tradedata.Frame
	Alternate   *tradedata.Frame
	Mismatches  []Mismatch
}

// Err returns a ValidationMismatch when the computations diverged, nil otherwise
func (r *Report) Err() error {
	if r.Equal {
		return nil
	}
	return &apperrors.ValidationMismatch{
		Dataset:   r.Dataset,
		MaxDiff:   r.MaxDiff,
		Tolerance: r.Tolerance,
		Count:     len(r.Mismatches),
	}
}

// ValidateOption configures CrossValidate
type ValidateOption func(*validateOptions)

type validateOptions struct {
	mode      ShareMode
	tolerance float64
	dataset   string
}

// WithShareMode picks reciprocal or explicit shares
func WithShareMode(mode ShareMode) ValidateOption {
	return func(o *validateOptions) {
		o.mode = mode
	}
}

// WithDiffTolerance sets the absolute comparison tolerance
func WithDiffTolerance(tol float64) ValidateOption {
	return func(o *validateOptions) {
		o.tolerance = tol
	}
}

// WithDataset names the dataset in the report
func WithDataset(name string) ValidateOption {
	return func(o *validateOptions) {
		o.dataset = name
	}
}

// ReciprocalShares returns a copy of entries where each share is replaced by
// 1 / (number of entries of its old code).
func ReciprocalShares(entries []concordance.Entry) []concordance.Entry {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.OldCode]++
	}
	out := make([]concordance.Entry, len(entries))
	for i, e := range entries {
		out[i] = concordance.Entry{OldCode: e.OldCode, NewCode: e.NewCode, Share: 1 / float64(counts[e.OldCode])}
	}
	return out
}

// CrossValidate recomputes the remapping without the allocation matrix and
// compares it with primary.
//
// Every entry looks up its old code in raw (absent codes contribute 0),
// scales each series by the entry share and adds the result to its new code.
// New codes are emitted in sorted order, which is the matrix row order, so
// the alternate lines up with primary cell for cell. Cells are equal when
// |primary - alternate| <= tolerance.
func CrossValidate(entries []concordance.Entry, raw, primary *tradedata.Frame, opts ...ValidateOption) (*Report, error) {
	o := validateOptions{mode: ShareModeReciprocal, tolerance: DefaultDiffTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.mode.Valid() {
		return nil, fmt.Errorf("unknown share mode %q", o.mode)
	}
	if len(entries) == 0 {
		return nil, &apperrors.SchemaError{Source: o.dataset, Message: "correspondence table has no entries"}
	}

	cols := make([]int, len(primary.Series))
	var missing []string
	for j, s := range primary.Series {
		cols[j] = raw.SeriesIndex(s)
		if cols[j] < 0 {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(o.dataset, missing...)
	}

	if bad := nonFinite(raw, cols); len(bad) > 0 {
		return nil, apperrors.NewDataIntegrityError(o.dataset, "non-finite trade values", bad)
	}
	if bad := nonFinite(primary, nil); len(bad) > 0 {
		return nil, apperrors.NewDataIntegrityError(o.dataset, "non-finite remapped values", bad)
	}

	shared := entries
	if o.mode == ShareModeReciprocal {
		shared = ReciprocalShares(entries)
	}

	rawRow := make(map[string]int, raw.Len())
	for i, c := range raw.Codes {
		rawRow[c] = i
	}

	sums := make(map[string][]float64)
	for _, e := range shared {
		acc, ok := sums[e.NewCode]
		if !ok {
			acc = make([]float64, len(cols))
			sums[e.NewCode] = acc
		}
		i, ok := rawRow[e.OldCode]
		if !ok {
			continue
		}
		for j, c := range cols {
			acc[j] += raw.Values.At(i, c) * e.Share
		}
	}

	newCodes := make([]string, 0, len(sums))
	for c := range sums {
		newCodes = append(newCodes, c)
	}
	sort.Strings(newCodes)
	if err := checkAligned(primary.Codes, newCodes); err != nil {
		return nil, fmt.Errorf("alternate remapping: %w", err)
	}

	alt := mat.NewDense(len(newCodes), len(cols), nil)
	for i, c := range newCodes {
		alt.SetRow(i, sums[c])
	}
	alternate, err := tradedata.NewFrame(newCodes, append([]string(nil), primary.Series...), alt)
	if err != nil {
		return nil, err
	}
	if bad := nonFinite(alternate, nil); len(bad) > 0 {
		return nil, apperrors.NewDataIntegrityError(o.dataset, "non-finite alternate values", bad)
	}

	diff := mat.NewDense(len(newCodes), len(cols), nil)
	diff.Sub(primary.Values, alt)
	diff.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, diff)

	report := &Report{
		Dataset:     o.dataset,
		ShareMode:   o.mode,
		Tolerance:   o.tolerance,
		Codes:       primary.Codes,
		Series:      primary.Series,
		Differences: diff,
		Primary:     primary,
		Alternate:   alternate,
	}
	for i, code := range newCodes {
		for j, s := range primary.Series {
			d := diff.At(i, j)
			if d > report.MaxDiff {
				report.MaxDiff = d
			}
			// NaN fails every comparison, so test for agreement
			if !(d <= o.tolerance) {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Code:      code,
					Series:    s,
					Primary:   primary.Values.At(i, j),
					Alternate: alt.At(i, j),
					Diff:      d,
				})
			}
		}
	}
	report.Equal = len(report.Mismatches) == 0
	return report, nil
}

// nonFinite lists the "code/series" cells of f holding NaN or ±Inf. cols
// restricts the check to those columns; nil checks every series.
func nonFinite(f *tradedata.Frame, cols []int) []string {
	if f.Len() == 0 {
		return nil
	}
	if cols == nil {
		cols = make([]int, len(f.Series))
		for j := range cols {
			cols[j] = j
		}
	}
	var bad []string
	for i, code := range f.Codes {
		for _, j := range cols {
			if v := f.Values.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				bad = append(bad, code+"/"+f.Series[j])
			}
		}
	}
	return bad
}
