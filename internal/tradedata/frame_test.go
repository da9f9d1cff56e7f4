package tradedata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		[]string{"100", "101", "105"},
		[]string{"2019_M_Can", "2019_M_World"},
		mat.NewDense(3, 2, []float64{
			10, 100,
			20, 200,
			5, 0,
		}),
	)
	require.NoError(t, err)
	f.Labels["AHTN_desc"] = []string{"a", "b", "c"}
	return f
}

func TestNewFrame_DimensionCheck(t *testing.T) {
	_, err := NewFrame([]string{"1"}, []string{"s"}, mat.NewDense(2, 1, nil))
	assert.Error(t, err)

	_, err = NewFrame(nil, []string{"s"}, nil)
	assert.Error(t, err)

	empty, err := NewFrame(nil, []string{"s"}, &mat.Dense{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, empty.Totals())
	assert.Equal(t, []float64{}, empty.Column("s"))
}

func TestFrame_Accessors(t *testing.T) {
	f := sampleFrame(t)

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 1, f.SeriesIndex("2019_M_World"))
	assert.Equal(t, -1, f.SeriesIndex("2020_M_World"))
	assert.Equal(t, []float64{10, 20, 5}, f.Column("2019_M_Can"))
	assert.Nil(t, f.Column("missing"))
	assert.Equal(t, 200.0, f.Value("101", "2019_M_World"))
	assert.Equal(t, 0.0, f.Value("999", "2019_M_World"))
	assert.Equal(t, []float64{35, 300}, f.Totals())
	assert.Equal(t, "b", f.Label("AHTN_desc", 1))
	assert.Equal(t, "", f.Label("AHTN_desc", 7))
}

func TestFrame_Reindex(t *testing.T) {
	f := sampleFrame(t)

	out, report := f.Reindex([]string{"099", "100", "101"})

	assert.Equal(t, []string{"099", "100", "101"}, out.Codes)
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{
		0, 0,
		10, 100,
		20, 200,
	}), out.Values))
	assert.Equal(t, []string{"", "a", "b"}, out.Labels["AHTN_desc"])

	assert.Equal(t, []string{"099"}, report.Missing)
	assert.Equal(t, []string{"105"}, report.Unmapped)
	assert.Equal(t, []float64{5, 0}, report.UnmappedTotals)
	assert.True(t, report.Leaks())

	// source frame is unchanged
	assert.Equal(t, []string{"100", "101", "105"}, f.Codes)
}

func TestFrame_ReindexWithoutLeak(t *testing.T) {
	f := sampleFrame(t)
	f.Values.Set(2, 0, 0)

	_, report := f.Reindex([]string{"100", "101"})
	assert.Equal(t, []string{"105"}, report.Unmapped)
	assert.False(t, report.Leaks(), "dropping zero rows loses nothing")
}

func TestFrame_DropZeroRows(t *testing.T) {
	f, err := NewFrame(
		[]string{"1", "2", "3"},
		[]string{"a", "b"},
		mat.NewDense(3, 2, []float64{
			0, 0,
			0, 4,
			-1, 0,
		}),
	)
	require.NoError(t, err)

	out := f.DropZeroRows()
	assert.Equal(t, []string{"2"}, out.Codes)
	assert.Equal(t, []float64{0, 4}, out.Totals())

	none := out.DropZeroRows().DropZeroRows()
	assert.Equal(t, 1, none.Len())

	f.Values.Set(1, 1, 0)
	empty := f.DropZeroRows()
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, []float64{0, 0}, empty.Totals())
}

func TestFrame_Filter(t *testing.T) {
	f := sampleFrame(t)

	out := f.Filter(func(code string) bool { return code != "101" })
	assert.Equal(t, []string{"100", "105"}, out.Codes)
	assert.Equal(t, []string{"a", "c"}, out.Labels["AHTN_desc"])
	assert.Equal(t, []float64{15, 100}, out.Totals())

	none := f.Filter(func(string) bool { return false })
	assert.Equal(t, 0, none.Len())
}
