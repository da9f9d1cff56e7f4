package remap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahtnremap/internal/concordance"
	apperrors "ahtnremap/internal/errors"
)

func TestReciprocalShares(t *testing.T) {
	entries := []concordance.Entry{
		{OldCode: "100", NewCode: "200", Share: 0.3},
		{OldCode: "100", NewCode: "201", Share: 0.7},
		{OldCode: "101", NewCode: "201", Share: 1},
		{OldCode: "102", NewCode: "202", Share: 0.2},
		{OldCode: "102", NewCode: "203", Share: 0.2},
		{OldCode: "102", NewCode: "204", Share: 0.6},
	}

	got := ReciprocalShares(entries)

	require.Len(t, got, len(entries))
	want := []float64{0.5, 0.5, 1, 1.0 / 3, 1.0 / 3, 1.0 / 3}
	for i := range got {
		assert.Equal(t, entries[i].OldCode, got[i].OldCode)
		assert.Equal(t, entries[i].NewCode, got[i].NewCode)
		assert.InDelta(t, want[i], got[i].Share, 1e-12)
	}
	assert.Equal(t, 0.3, entries[0].Share, "input is not modified")
}

func uniformSplit(old string, newCodes ...string) []concordance.Entry {
	entries := make([]concordance.Entry, len(newCodes))
	for i, c := range newCodes {
		entries[i] = concordance.Entry{OldCode: old, NewCode: c, Share: 1 / float64(len(newCodes))}
	}
	return entries
}

func TestCrossValidate_UniformSplitsAgree(t *testing.T) {
	tests := []struct {
		name    string
		entries []concordance.Entry
		codes   []string
		series  []string
		values  []float64
	}{
		{
			name:    "halves and a one-to-one",
			entries: scenarioEntries(),
			codes:   []string{"100", "101"},
			series:  []string{"2019_M_Can", "2020_M_Can"},
			values: []float64{
				10, 3,
				20, 0,
			},
		},
		{
			name:    "large magnitudes",
			entries: scenarioEntries(),
			codes:   []string{"100", "101"},
			series:  []string{"2019_M_World", "2020_M_World", "2021_M_World"},
			values: []float64{
				9.87654321e11, 1e12, 0.01,
				3.3333333333e11, 7.77e10, 123456789.123,
			},
		},
		{
			name: "seven-way split merging into a shared code",
			entries: append(
				uniformSplit("100", "200", "201", "202", "203", "204", "205", "206"),
				append(uniformSplit("101", "206", "207", "208"), uniformSplit("102", "206")...)...,
			),
			codes:  []string{"100", "101", "102"},
			series: []string{"s1", "s2"},
			values: []float64{
				1e9, 17,
				4.5e8, 0,
				3, 2.5e10,
			},
		},
		{
			name:    "all zero",
			entries: uniformSplit("100", "200", "201", "202"),
			codes:   []string{"100"},
			series:  []string{"s"},
			values:  []float64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quietBuild(t, tt.entries)
			raw := frame(t, tt.codes, tt.series, tt.values...)
			primary, err := Apply(m, raw)
			require.NoError(t, err)

			report, err := CrossValidate(tt.entries, raw, primary, WithDataset("CAM"))
			require.NoError(t, err)

			assert.True(t, report.Equal)
			assert.Empty(t, report.Mismatches)
			assert.LessOrEqual(t, report.MaxDiff, DefaultDiffTolerance)
			assert.Equal(t, DefaultDiffTolerance, report.Tolerance)
			assert.Equal(t, ShareModeReciprocal, report.ShareMode)
			assert.Equal(t, m.NewCodes(), report.Alternate.Codes)
			assert.NoError(t, report.Err())
		})
	}
}

func TestCrossValidate_NonUniformSplitIsReported(t *testing.T) {
	entries := []concordance.Entry{
		{OldCode: "100", NewCode: "200", Share: 0.3},
		{OldCode: "100", NewCode: "201", Share: 0.7},
		{OldCode: "101", NewCode: "201", Share: 1},
	}
	m := quietBuild(t, entries)
	raw := frame(t, []string{"100", "101"}, []string{"2019_M_Can"}, 10, 20)
	primary, err := Apply(m, raw)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 27}, primary.Column("2019_M_Can"), 1e-9)

	t.Run("reciprocal", func(t *testing.T) {
		report, err := CrossValidate(entries, raw, primary, WithDataset("VN"))
		require.NoError(t, err)

		assert.False(t, report.Equal)
		assert.InDelta(t, 2, report.MaxDiff, 1e-9)
		require.Len(t, report.Mismatches, 2)
		assert.Equal(t, "200", report.Mismatches[0].Code)
		assert.InDelta(t, 3, report.Mismatches[0].Primary, 1e-9)
		assert.InDelta(t, 5, report.Mismatches[0].Alternate, 1e-9)

		err = report.Err()
		var mismatch *apperrors.ValidationMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "VN", mismatch.Dataset)
		assert.Equal(t, 2, mismatch.Count)
	})

	t.Run("explicit", func(t *testing.T) {
		report, err := CrossValidate(entries, raw, primary, WithShareMode(ShareModeExplicit))
		require.NoError(t, err)
		assert.True(t, report.Equal)
	})

	t.Run("loose tolerance", func(t *testing.T) {
		report, err := CrossValidate(entries, raw, primary, WithDiffTolerance(2.5))
		require.NoError(t, err)
		assert.True(t, report.Equal)
		assert.InDelta(t, 2, report.MaxDiff, 1e-9)
	})
}

func TestCrossValidate_RawCodesOutsideTable(t *testing.T) {
	entries := scenarioEntries()
	m := quietBuild(t, entries)
	raw := frame(t, []string{"100", "555"}, []string{"s"}, 10, 99)

	aligned, _ := Align(m, raw)
	primary, err := Apply(m, aligned)
	require.NoError(t, err)

	report, err := CrossValidate(entries, raw, primary)
	require.NoError(t, err)
	assert.True(t, report.Equal)
	assert.Equal(t, []float64{5, 5}, report.Alternate.Column("s"))
}

func TestCrossValidate_Errors(t *testing.T) {
	entries := scenarioEntries()
	m := quietBuild(t, entries)
	raw := frame(t, []string{"100", "101"}, []string{"a"}, 1, 2)
	primary, err := Apply(m, raw)
	require.NoError(t, err)

	_, err = CrossValidate(nil, raw, primary)
	assert.True(t, apperrors.IsSchema(err))

	other := frame(t, []string{"100", "101"}, []string{"b"}, 1, 2)
	_, err = CrossValidate(entries, other, primary)
	var schema *apperrors.SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Equal(t, []string{"a"}, schema.Columns)

	_, err = CrossValidate(entries, raw, primary, WithShareMode("average"))
	assert.Error(t, err)

	extra := append(scenarioEntries(), concordance.Entry{OldCode: "101", NewCode: "300", Share: 1})
	_, err = CrossValidate(extra, raw, primary)
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestCrossValidate_NonFiniteValues(t *testing.T) {
	entries := scenarioEntries()
	m := quietBuild(t, entries)

	t.Run("raw value", func(t *testing.T) {
		raw := frame(t, []string{"100", "101"}, []string{"s"}, math.Inf(1), 2)
		primary := frame(t, []string{"200", "201"}, []string{"s"}, 0, 0)

		_, err := CrossValidate(entries, raw, primary)
		var integrity *apperrors.DataIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, []string{"100/s"}, integrity.Codes)
	})

	t.Run("overflow in the product", func(t *testing.T) {
		raw := frame(t, []string{"100", "101"}, []string{"s"}, math.MaxFloat64, math.MaxFloat64)
		primary, err := Apply(m, raw)
		require.NoError(t, err)

		_, err = CrossValidate(entries, raw, primary)
		var integrity *apperrors.DataIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, []string{"201/s"}, integrity.Codes)
	})
}
