package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"ahtnremap/internal/changes"
	"ahtnremap/internal/concordance"
	"ahtnremap/internal/remap"
	"ahtnremap/internal/tradedata"
	"ahtnremap/pkg/contracts/domain"
)

func remappedFrame(t *testing.T) *tradedata.Frame {
	t.Helper()
	f, err := tradedata.NewFrame(
		[]string{"01012100", "01012900"},
		[]string{"2019_M_Can"},
		mat.NewDense(2, 1, []float64{5, 25}),
	)
	require.NoError(t, err)
	f.Labels["AHTN_desc"] = []string{"Pure-bred", "Other"}
	return f
}

func mismatchReport(t *testing.T, primary *tradedata.Frame) *remap.Report {
	t.Helper()
	alt, err := tradedata.NewFrame(primary.Codes, primary.Series, mat.NewDense(2, 1, []float64{15, 15}))
	require.NoError(t, err)
	return &remap.Report{
		Dataset:     "CAM",
		ShareMode:   remap.ShareModeReciprocal,
		Equal:       false,
		MaxDiff:     10,
		Tolerance:   0.01,
		Codes:       primary.Codes,
		Series:      primary.Series,
		Differences: mat.NewDense(2, 1, []float64{10, 10}),
		Primary:     primary,
		Alternate:   alt,
		Mismatches: []remap.Mismatch{
			{Code: "01012100", Series: "2019_M_Can", Primary: 5, Alternate: 15, Diff: 10},
			{Code: "01012900", Series: "2019_M_Can", Primary: 25, Alternate: 15, Diff: 10},
		},
	}
}

func TestNewSink_Format(t *testing.T) {
	_, err := NewSink(t.TempDir(), SinkOptions{Format: "parquet"})
	assert.Error(t, err)

	s, err := NewSink(filepath.Join(t.TempDir(), "out"), SinkOptions{})
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, s.opts.Format)
	assert.DirExists(t, s.Dir())
}

func TestSink_WriteDataset_XLSX(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, SinkOptions{DescriptionColumn: "AHTN_desc", WriteDifferences: true})
	require.NoError(t, err)

	frame := remappedFrame(t)
	paths, err := s.WriteDataset(context.Background(), DatasetOutput{
		Name:     "CAM",
		Remapped: frame,
		Flags:    map[string]int{"01012100": 1, "01012900": 0},
		Report:   mismatchReport(t, frame),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "CAM_Remapped.xlsx"),
		filepath.Join(dir, "CAM_validation.json"),
		filepath.Join(dir, "CAM_Differences.xlsx"),
	}, paths)

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	rows, err := f.GetRows(SheetRemapped)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, [][]string{
		{"AHTN_code", "Chap_code", "Header_code", "AHTN_desc", "2019_M_Can", "Flag"},
		{"01012100", "01", "0101", "Pure-bred", "5", "1"},
		{"01012900", "01", "0101", "Other", "25", "0"},
	}, rows)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	var report domain.ValidationReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.False(t, report.Equal)
	assert.Equal(t, 2, report.Mismatches)
	assert.Len(t, report.Differences, 2)

	diff, err := excelize.OpenFile(paths[2])
	require.NoError(t, err)
	defer diff.Close()
	assert.Equal(t, []string{SheetRemapped, SheetAlternate, SheetDifferences}, diff.GetSheetList())
	rows, err = diff.GetRows(SheetAlternate)
	require.NoError(t, err)
	assert.Equal(t, []string{"01012100", "01", "0101", "Pure-bred", "15"}, rows[1])
}

func TestSink_WriteDataset_CSVWithoutReport(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, SinkOptions{Format: FormatCSV})
	require.NoError(t, err)

	paths, err := s.WriteDataset(context.Background(), DatasetOutput{
		Name:     "VN",
		Remapped: remappedFrame(t),
		Flags:    map[string]int{"01012900": 1},
	})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "VN_Remapped.csv")}, paths)

	assert.Equal(t, [][]string{
		{"AHTN_code", "Chap_code", "Header_code", "2019_M_Can", "Flag"},
		{"01012100", "01", "0101", "5", "0"},
		{"01012900", "01", "0101", "25", "1"},
	}, readCSV(t, paths[0]))
}

func TestSink_WriteDataset_EqualSkipsDifferences(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, SinkOptions{WriteDifferences: true})
	require.NoError(t, err)

	frame := remappedFrame(t)
	report := mismatchReport(t, frame)
	report.Equal = true
	report.Mismatches = nil

	paths, err := s.WriteDataset(context.Background(), DatasetOutput{Name: "CAM", Remapped: frame, Report: report})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.NoFileExists(t, filepath.Join(dir, "CAM_Differences.xlsx"))
}

func TestSink_WriteDataset_NoFrame(t *testing.T) {
	s, err := NewSink(t.TempDir(), SinkOptions{})
	require.NoError(t, err)
	_, err = s.WriteDataset(context.Background(), DatasetOutput{Name: "X"})
	assert.Error(t, err)
}

func TestSink_WriteFlagsAndSummary(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, SinkOptions{})
	require.NoError(t, err)

	path, err := s.WriteFlags([]concordance.Flag{{NewCode: "200", Partial: 1}, {NewCode: "201", Partial: 0}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"AHTN_code", "Flag"}, {"200", "1"}, {"201", "0"}}, readCSV(t, path))

	summary := domain.RunSummary{
		RunID:    "c0ffee00-0000-4000-8000-000000000000",
		Datasets: []domain.DatasetSummary{{Name: "CAM", Status: domain.DatasetStatusOK}},
	}
	path, err = s.WriteRunSummary(summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, RunSummaryFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded domain.RunSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, summary.RunID, decoded.RunID)
	assert.Equal(t, domain.DatasetStatusOK, decoded.Datasets[0].Status)
}

func TestSink_WriteChangeAnalysis(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, SinkOptions{})
	require.NoError(t, err)

	a, err := changes.Analyze("CAM", remappedFrame(t), changes.Lists{Partial: []string{"010129"}}, 10)
	require.NoError(t, err)

	paths, err := s.WriteChangeAnalysis(a)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSummary, SheetPartial}, f.GetSheetList())

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"2019_M_Can", "30", "0", "0", "25"}, rows[1][:5])
	assert.Equal(t, "01012900", rows[1][6])

	rows, err = f.GetRows(SheetPartial)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestToValidationReport_Caps(t *testing.T) {
	frame := remappedFrame(t)
	r := mismatchReport(t, frame)
	r.Mismatches[0].Diff = 3

	out := ToValidationReport(r, 1)
	assert.Equal(t, 2, out.Mismatches)
	require.Len(t, out.Differences, 1)
	assert.Equal(t, "01012900", out.Differences[0].Code)
	assert.Equal(t, "reciprocal", out.ShareMode)
	assert.Equal(t, 2, out.Codes)
}
