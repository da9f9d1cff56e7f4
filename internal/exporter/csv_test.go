package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
		want    [][]string
	}{
		{
			name: "headers and records",
			options: WriteOptions{
				Headers: []string{"AHTN_code", "Flag"},
				Records: [][]string{{"01012100", "0"}, {"01012900", "1"}},
			},
			want: [][]string{{"AHTN_code", "Flag"}, {"01012100", "0"}, {"01012900", "1"}},
		},
		{
			name: "with BOM",
			options: WriteOptions{
				Headers:   []string{"a"},
				Records:   [][]string{{"x, y"}},
				BOMPrefix: true,
			},
			wantBOM: true,
			want:    [][]string{{"a"}, {"x, y"}},
		},
		{
			name:    "records only",
			options: WriteOptions{Records: [][]string{{"1", "2"}}},
			want:    [][]string{{"1", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w := NewCSVWriter(dir)

			path, err := w.WriteCSV(filepath.Join("nested", "out.csv"), tt.options)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "nested", "out.csv"), path)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))
			assert.Equal(t, tt.want, readCSV(t, path))
		})
	}
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "abs.csv")

	path, err := NewCSVWriter("/does/not/matter").WriteSimpleCSV(target, []string{"h"}, nil)
	require.NoError(t, err)
	assert.Equal(t, target, path)
	assert.Equal(t, [][]string{{"h"}}, readCSV(t, target))
}

func TestStringRecords(t *testing.T) {
	got := stringRecords([][]interface{}{
		{"01012100", 0.5, 3, nil},
		{"x", 1e-7, -2, 12345678.25},
	})
	assert.Equal(t, [][]string{
		{"01012100", "0.5", "3", ""},
		{"x", "0.0000001", "-2", "12345678.25"},
	}, got)
}
