package exporter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ahtnremap/internal/errors"
	"ahtnremap/internal/tabular"
)

func TestHeadingsFromTable(t *testing.T) {
	header := []string{"Chap_code", ColumnHeading, ColumnChapterDesc, ColumnHeadingDesc}

	t.Run("restores leading zeros", func(t *testing.T) {
		table := tabular.NewTable("Chap+Headers2022.xlsx", header, [][]string{
			{"01", "101", "Live animals", "Live horses, asses, mules"},
			{"84", "8471", "Machinery", "Computers"},
			{"", "", "", ""},
		})

		headings, err := HeadingsFromTable(table)
		require.NoError(t, err)
		assert.Len(t, headings, 2)
		assert.Equal(t, HeadingLabel{Chapter: "Live animals", Heading: "Live horses, asses, mules"}, headings.Label("01012100"))
		assert.Equal(t, "Computers", headings.Label("84713020").Heading)
		assert.Equal(t, HeadingLabel{}, headings.Label("99999999"))
	})

	t.Run("missing column", func(t *testing.T) {
		table := tabular.NewTable("h.csv", []string{ColumnHeading, ColumnChapterDesc}, nil)
		_, err := HeadingsFromTable(table)
		var schema *apperrors.SchemaError
		require.ErrorAs(t, err, &schema)
		assert.Equal(t, []string{ColumnHeadingDesc}, schema.Columns)
	})

	t.Run("invalid code", func(t *testing.T) {
		table := tabular.NewTable("h.csv", header, [][]string{{"01", "Heading", "a", "b"}})
		_, err := HeadingsFromTable(table)
		assert.True(t, apperrors.IsDataIntegrity(err))
	})
}

func TestSink_WriteDataset_HeadingDescriptions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, SinkOptions{
		Format:            FormatCSV,
		DescriptionColumn: "AHTN_desc",
		Headings:          Headings{"0101": {Chapter: "Live animals", Heading: "Horses"}},
	})
	require.NoError(t, err)

	paths, err := s.WriteDataset(context.Background(), DatasetOutput{Name: "CAM", Remapped: remappedFrame(t)})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "CAM_Remapped.csv")}, paths)

	assert.Equal(t, [][]string{
		{"AHTN_code", "Chap_code", "Header_code", "Chap_desc", "Header_desc", "AHTN_desc", "2019_M_Can", "Flag"},
		{"01012100", "01", "0101", "Live animals", "Horses", "Pure-bred", "5", "0"},
		{"01012900", "01", "0101", "Live animals", "Horses", "Other", "25", "0"},
	}, readCSV(t, paths[0]))
}
