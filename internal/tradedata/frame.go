package tradedata

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Frame is a labelled numeric table: one row per commodity code and one
// column per trade series. Codes and Series always travel with Values so
// that positional alignment can be checked instead of assumed.
type Frame struct {
	Codes  []string
	Series []string
	Values *mat.Dense
	// Labels holds descriptive string columns aligned with Codes.
	Labels map[string][]string
}

// NewFrame creates a frame after checking that the labels match the
// dimensions of values.
func NewFrame(codes, series []string, values *mat.Dense) (*Frame, error) {
	if values == nil {
		return nil, fmt.Errorf("frame values are nil")
	}
	rows, cols := values.Dims()
	if values.IsEmpty() && len(codes) == 0 {
		rows, cols = 0, len(series)
	}
	if rows != len(codes) || cols != len(series) {
		return nil, fmt.Errorf("frame is %dx%d but has %d codes and %d series", rows, cols, len(codes), len(series))
	}
	return &Frame{
		Codes:  codes,
		Series: series,
		Values: values,
		Labels: make(map[string][]string),
	}, nil
}

// Len returns the number of codes
func (f *Frame) Len() int {
	return len(f.Codes)
}

// SeriesIndex returns the column of a series, or -1
func (f *Frame) SeriesIndex(series string) int {
	for i, s := range f.Series {
		if s == series {
			return i
		}
	}
	return -1
}

// Column returns a copy of one series, or nil if the series is unknown
func (f *Frame) Column(series string) []float64 {
	j := f.SeriesIndex(series)
	if j < 0 {
		return nil
	}
	if f.Len() == 0 {
		return []float64{}
	}
	return mat.Col(nil, j, f.Values)
}

// Value returns the value of a code in a series, 0 when either is unknown
func (f *Frame) Value(code, series string) float64 {
	j := f.SeriesIndex(series)
	if j < 0 {
		return 0
	}
	for i, c := range f.Codes {
		if c == code {
			return f.Values.At(i, j)
		}
	}
	return 0
}

// Totals returns the column sums, one per series
func (f *Frame) Totals() []float64 {
	totals := make([]float64, len(f.Series))
	if f.Len() == 0 {
		return totals
	}
	for j := range totals {
		totals[j] = floats.Sum(mat.Col(nil, j, f.Values))
	}
	return totals
}

// Label returns the descriptive value of a code, "" when absent
func (f *Frame) Label(column string, row int) string {
	values, ok := f.Labels[column]
	if !ok || row < 0 || row >= len(values) {
		return ""
	}
	return values[row]
}

// AlignReport describes how a frame was reindexed onto a target code list
type AlignReport struct {
	// Missing lists target codes absent from the frame; their rows are zero.
	Missing []string `json:"missing"`
	// Unmapped lists frame codes absent from the target; their value is
	// not carried over.
	Unmapped []string `json:"unmapped"`
	// UnmappedTotals sums the dropped values per series.
	UnmappedTotals []float64 `json:"unmapped_totals"`
}

// Leaks reports whether any non-zero value was dropped by the reindexing
func (r AlignReport) Leaks() bool {
	for _, v := range r.UnmappedTotals {
		if v != 0 {
			return true
		}
	}
	return false
}

// Reindex returns a new frame whose rows follow codes exactly. Codes absent
// from f become zero rows; rows of f whose code is not in codes are dropped
// and reported. f is not modified.
func (f *Frame) Reindex(codes []string) (*Frame, AlignReport) {
	pos := make(map[string]int, len(f.Codes))
	for i, c := range f.Codes {
		pos[c] = i
	}
	target := make(map[string]bool, len(codes))

	values := mat.NewDense(max(len(codes), 1), max(len(f.Series), 1), nil)
	report := AlignReport{UnmappedTotals: make([]float64, len(f.Series))}

	labels := make(map[string][]string, len(f.Labels))
	for name := range f.Labels {
		labels[name] = make([]string, len(codes))
	}

	for i, c := range codes {
		target[c] = true
		src, ok := pos[c]
		if !ok {
			report.Missing = append(report.Missing, c)
			continue
		}
		for j := range f.Series {
			values.Set(i, j, f.Values.At(src, j))
		}
		for name, col := range f.Labels {
			labels[name][i] = col[src]
		}
	}

	for i, c := range f.Codes {
		if target[c] {
			continue
		}
		report.Unmapped = append(report.Unmapped, c)
		for j := range f.Series {
			report.UnmappedTotals[j] += f.Values.At(i, j)
		}
	}

	out := &Frame{
		Codes:  append([]string(nil), codes...),
		Series: append([]string(nil), f.Series...),
		Values: trim(values, len(codes), len(f.Series)),
		Labels: labels,
	}
	return out, report
}

// DropZeroRows returns a frame keeping only codes with at least one
// positive value
func (f *Frame) DropZeroRows() *Frame {
	var keep []int
	for i := range f.Codes {
		for j := range f.Series {
			if f.Values.At(i, j) > 0 {
				keep = append(keep, i)
				break
			}
		}
	}
	return f.selectRows(keep)
}

// Filter returns a frame with the rows whose code satisfies keep
func (f *Frame) Filter(keep func(code string) bool) *Frame {
	var rows []int
	for i, c := range f.Codes {
		if keep(c) {
			rows = append(rows, i)
		}
	}
	return f.selectRows(rows)
}

func (f *Frame) selectRows(rows []int) *Frame {
	codes := make([]string, len(rows))
	values := mat.NewDense(max(len(rows), 1), max(len(f.Series), 1), nil)
	labels := make(map[string][]string, len(f.Labels))
	for name := range f.Labels {
		labels[name] = make([]string, len(rows))
	}

	for k, i := range rows {
		codes[k] = f.Codes[i]
		for j := range f.Series {
			values.Set(k, j, f.Values.At(i, j))
		}
		for name, col := range f.Labels {
			labels[name][k] = col[i]
		}
	}

	return &Frame{
		Codes:  codes,
		Series: append([]string(nil), f.Series...),
		Values: trim(values, len(rows), len(f.Series)),
		Labels: labels,
	}
}

// trim narrows a matrix allocated with at least one row and column (gonum
// rejects zero-sized allocations) to its logical size.
func trim(m *mat.Dense, rows, cols int) *mat.Dense {
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	return m
}
