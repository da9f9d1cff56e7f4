package remap

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"ahtnremap/internal/concordance"
	"ahtnremap/internal/tradedata"
)

// ErrMisaligned is returned when a frame's codes do not follow the
// allocation matrix column order.
var ErrMisaligned = errors.New("trade frame is not aligned with the allocation matrix")

// Align reorders a loaded trade frame into the column order of m.
// The report lists codes that were zero-filled or dropped.
func Align(m *concordance.Matrix, f *tradedata.Frame) (*tradedata.Frame, tradedata.AlignReport) {
	return f.Reindex(m.OldCodes())
}

// Apply remaps every series of f from old to new codes in one product:
// result = shares × values. f must already be aligned with m, see Align.
func Apply(m *concordance.Matrix, f *tradedata.Frame) (*tradedata.Frame, error) {
	if err := checkAligned(m.OldCodes(), f.Codes); err != nil {
		return nil, err
	}
	if len(f.Series) == 0 {
		return nil, fmt.Errorf("%w: frame has no series", ErrMisaligned)
	}

	rows, _ := m.Dims()
	values := mat.NewDense(rows, len(f.Series), nil)
	values.Mul(m.Shares(), f.Values)

	return tradedata.NewFrame(m.NewCodes(), append([]string(nil), f.Series...), values)
}

func checkAligned(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: matrix has %d old codes, frame has %d", ErrMisaligned, len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%w: position %d is %q in the matrix but %q in the frame", ErrMisaligned, i, want[i], got[i])
		}
	}
	return nil
}
