package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSummary_Count(t *testing.T) {
	s := RunSummary{Datasets: []DatasetSummary{
		{Name: "CAM", Status: DatasetStatusOK},
		{Name: "LPDR", Status: DatasetStatusMismatch},
		{Name: "MYAN", Status: DatasetStatusOK},
	}}

	assert.Equal(t, 2, s.Count(DatasetStatusOK))
	assert.Equal(t, 1, s.Count(DatasetStatusMismatch))
	assert.True(t, s.Succeeded(), "mismatches are diagnostics")

	s.Datasets = append(s.Datasets, DatasetSummary{Name: "VN", Status: DatasetStatusFailed})
	assert.False(t, s.Succeeded())
}

func TestDatasetSummary_OmitsEmptySections(t *testing.T) {
	data, err := json.Marshal(DatasetSummary{Name: "CAM", Status: DatasetStatusOK})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "validation")
	assert.NotContains(t, fields, "alignment")
	assert.NotContains(t, fields, "error")
	assert.Equal(t, "ok", fields["status"])
}
