package concordance

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "ahtnremap/internal/errors"
)

// DefaultTolerance bounds how far an old code's column sum may drift from 1
const DefaultTolerance = 1e-6

// Flag marks whether a new code receives a fractional contribution
type Flag struct {
	NewCode string `json:"new_code"`
	Partial int    `json:"flag"`
}

// Duplicate records an (old, new) pair that appears more than once in the
// correspondence table. Shares are listed in table order; the last one is
// the value kept in the matrix.
type Duplicate struct {
	OldCode string    `json:"old_code"`
	NewCode string    `json:"new_code"`
	Shares  []float64 `json:"shares"`
}

// Matrix is the allocation matrix: rows are the sorted distinct new codes,
// columns the sorted distinct old codes, and each cell the share of the
// old code's value attributed to the new code.
//
// A Matrix is immutable once built and safe for concurrent reads.
type Matrix struct {
	newCodes []string
	oldCodes []string
	newIndex map[string]int
	oldIndex map[string]int

	shares     *mat.Dense
	partial    map[string]bool
	duplicates []Duplicate
}

// Option configures Build
type Option func(*buildOptions)

type buildOptions struct {
	tolerance float64
	source    string
	logger    *slog.Logger
}

// WithTolerance sets the allowed deviation of a column sum from 1
func WithTolerance(tol float64) Option {
	return func(o *buildOptions) {
		o.tolerance = tol
	}
}

// WithSource names the correspondence table in errors and logs
func WithSource(source string) Option {
	return func(o *buildOptions) {
		o.source = source
	}
}

// WithLogger sets the logger used for data-quality warnings
func WithLogger(logger *slog.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// Build constructs the allocation matrix from correspondence entries.
//
// Each entry sets its cell; when a pair is repeated the last share wins and
// the pair is reported by Duplicates. The partial flag of a new code is set
// when any of its entries, overwritten ones included, has a share other
// than exactly 1. Every column of the resulting matrix must sum to 1 within
// the tolerance, otherwise a DataIntegrityError lists the offending old codes.
func Build(entries []Entry, opts ...Option) (*Matrix, error) {
	o := buildOptions{tolerance: DefaultTolerance, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if len(entries) == 0 {
		return nil, &apperrors.SchemaError{Source: o.source, Message: "correspondence table has no entries"}
	}

	var outOfRange []string
	for _, e := range entries {
		if !(e.Share > 0 && e.Share <= 1) {
			outOfRange = append(outOfRange, fmt.Sprintf("%s -> %s (%g)", e.OldCode, e.NewCode, e.Share))
		}
	}
	if len(outOfRange) > 0 {
		return nil, apperrors.NewDataIntegrityError(o.source, "shares must lie in (0, 1]", outOfRange)
	}

	m := &Matrix{
		newCodes: distinctSorted(entries, func(e Entry) string { return e.NewCode }),
		oldCodes: distinctSorted(entries, func(e Entry) string { return e.OldCode }),
		partial:  make(map[string]bool),
	}
	m.newIndex = indexOf(m.newCodes)
	m.oldIndex = indexOf(m.oldCodes)
	m.shares = mat.NewDense(len(m.newCodes), len(m.oldCodes), nil)

	type pair struct{ old, new string }
	seen := make(map[pair][]float64, len(entries))
	var order []pair

	for _, e := range entries {
		m.shares.Set(m.newIndex[e.NewCode], m.oldIndex[e.OldCode], e.Share)
		m.partial[e.NewCode] = m.partial[e.NewCode] || e.Share != 1

		p := pair{e.OldCode, e.NewCode}
		if _, ok := seen[p]; !ok {
			order = append(order, p)
		}
		seen[p] = append(seen[p], e.Share)
	}

	for _, p := range order {
		if shares := seen[p]; len(shares) > 1 {
			m.duplicates = append(m.duplicates, Duplicate{OldCode: p.old, NewCode: p.new, Shares: shares})
		}
	}
	if len(m.duplicates) > 0 {
		o.logger.Warn("Duplicate correspondence pairs, last share kept",
			slog.String("source", o.source),
			slog.Int("count", len(m.duplicates)),
			slog.Any("first", m.duplicates[0]))
	}

	var unbalanced []string
	for j, sum := range m.ColumnSums() {
		if math.Abs(sum-1) > o.tolerance {
			unbalanced = append(unbalanced, fmt.Sprintf("%s (sum %g)", m.oldCodes[j], sum))
		}
	}
	if len(unbalanced) > 0 {
		return nil, apperrors.NewDataIntegrityError(o.source,
			fmt.Sprintf("shares do not sum to 1 within %g", o.tolerance), unbalanced)
	}

	rows, cols := m.shares.Dims()
	o.logger.Info("Allocation matrix built",
		slog.String("source", o.source),
		slog.Int("entries", len(entries)),
		slog.Int("new_codes", rows),
		slog.Int("old_codes", cols),
		slog.Int("partial_codes", m.partialCount()))

	return m, nil
}

// NewCodes returns the row labels in matrix order
func (m *Matrix) NewCodes() []string {
	return append([]string(nil), m.newCodes...)
}

// OldCodes returns the column labels in matrix order
func (m *Matrix) OldCodes() []string {
	return append([]string(nil), m.oldCodes...)
}

// Dims returns the number of new codes (rows) and old codes (columns)
func (m *Matrix) Dims() (rows, cols int) {
	return m.shares.Dims()
}

// Shares exposes the underlying dense matrix for read-only use
func (m *Matrix) Shares() mat.Matrix {
	return m.shares
}

// At returns the share of oldCode attributed to newCode, 0 when the pair
// has no entry or either code is unknown.
func (m *Matrix) At(newCode, oldCode string) float64 {
	i, okNew := m.newIndex[newCode]
	j, okOld := m.oldIndex[oldCode]
	if !okNew || !okOld {
		return 0
	}
	return m.shares.At(i, j)
}

// HasOldCode reports whether the code has a column in the matrix
func (m *Matrix) HasOldCode(code string) bool {
	_, ok := m.oldIndex[code]
	return ok
}

// ColumnSums returns the total allocation of each old code, in column order
func (m *Matrix) ColumnSums() []float64 {
	_, cols := m.shares.Dims()
	sums := make([]float64, cols)
	col := make([]float64, len(m.newCodes))
	for j := range sums {
		mat.Col(col, j, m.shares)
		sums[j] = floats.Sum(col)
	}
	return sums
}

// Flags returns the partial-allocation flag of every new code, in row order
func (m *Matrix) Flags() []Flag {
	flags := make([]Flag, len(m.newCodes))
	for i, code := range m.newCodes {
		flags[i] = Flag{NewCode: code}
		if m.partial[code] {
			flags[i].Partial = 1
		}
	}
	return flags
}

// Flag returns the partial-allocation flag of one new code
func (m *Matrix) Flag(newCode string) (int, bool) {
	if _, ok := m.newIndex[newCode]; !ok {
		return 0, false
	}
	if m.partial[newCode] {
		return 1, true
	}
	return 0, true
}

// Duplicates returns the (old, new) pairs that appeared more than once
func (m *Matrix) Duplicates() []Duplicate {
	return append([]Duplicate(nil), m.duplicates...)
}

func (m *Matrix) partialCount() int {
	n := 0
	for _, p := range m.partial {
		if p {
			n++
		}
	}
	return n
}

func distinctSorted(entries []Entry, key func(Entry) string) []string {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[key(e)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
