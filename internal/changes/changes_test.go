package changes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tabular"
	"ahtnremap/internal/tradedata"
)

func TestCodesFromTable(t *testing.T) {
	table := tabular.NewTable("Cor6DigPart.xlsx", []string{"V2017"}, [][]string{
		{"101.21"},
		{"101.2"},
		{"8471.3"},
		{"847130"},
		{""},
	})

	got, err := CodesFromTable(table, "V2017")
	require.NoError(t, err)
	assert.Equal(t, []string{"010120", "010121", "847130"}, got)
}

func TestCodesFromTable_Errors(t *testing.T) {
	_, err := CodesFromTable(tabular.NewTable("x", []string{"V2022"}, nil), "V2017")
	assert.True(t, apperrors.IsSchema(err))

	_, err = CodesFromTable(tabular.NewTable("x", []string{"V2017"}, [][]string{{"12.345"}}), "V2017")
	assert.True(t, apperrors.IsDataIntegrity(err))
}

func analysisFrame(t *testing.T) *tradedata.Frame {
	t.Helper()
	f, err := tradedata.NewFrame(
		[]string{"01012100", "01012900", "01019000", "02011000", "02012000"},
		[]string{"2019_M_Can", "2020_M_Can"},
		mat.NewDense(5, 2, []float64{
			10, 0,
			30, 5,
			20, 5,
			40, 10,
			0, 80,
		}),
	)
	require.NoError(t, err)
	return f
}

func TestAnalyze(t *testing.T) {
	lists := Lists{
		Complete: []string{"010121"},
		Partial:  []string{"010129", "010190", "020120"},
	}

	a, err := Analyze("CAM", analysisFrame(t), lists, 2)
	require.NoError(t, err)

	assert.Equal(t, "CAM", a.Dataset)
	assert.Equal(t, 1, a.CompleteCodes)
	assert.Equal(t, 3, a.PartialCodes)
	require.Len(t, a.Rows, 5)
	assert.Equal(t, "01", a.Rows[0].Chapter)
	assert.Equal(t, "0101", a.Rows[0].Heading)
	assert.Equal(t, "010121", a.Rows[0].Subheading)

	require.Len(t, a.Series, 2)
	s := a.Series[0]
	assert.Equal(t, "2019_M_Can", s.Series)
	assert.Equal(t, 100.0, s.Total)
	assert.Equal(t, 10.0, s.Complete)
	assert.Equal(t, 50.0, s.Partial)
	assert.InDelta(t, 0.1, s.CompleteShare, 1e-12)
	assert.InDelta(t, 0.5, s.PartialShare, 1e-12)
	assert.Equal(t, []Ranked{{"01012900", 30}, {"01019000", 20}}, s.TopPartial)

	s = a.Series[1]
	assert.Equal(t, []Ranked{{"02012000", 80}, {"01012900", 5}}, s.TopPartial, "ties break on code")

	assert.Equal(t, []string{"01012900", "01019000", "02012000"}, a.PartialRows.Codes)
}

func TestAnalyze_DefaultsAndZeroTotals(t *testing.T) {
	f, err := tradedata.NewFrame([]string{"01012100"}, []string{"s"}, mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)

	a, err := Analyze("x", f, Lists{Partial: []string{"010121"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.Series[0].PartialShare)
	assert.Len(t, a.Series[0].TopPartial, 1)

	_, err = Analyze("x", nil, Lists{}, 0)
	assert.Error(t, err)
}
