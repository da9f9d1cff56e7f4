package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SchemaError
		want string
	}{
		{
			name: "with source",
			err:  NewSchemaError("CAM_Trade.xlsx", "2019_M_Can", "2020_M_Can"),
			want: "[SCHEMA] CAM_Trade.xlsx: missing required columns: 2019_M_Can, 2020_M_Can",
		},
		{
			name: "without source",
			err:  NewSchemaError("", "Share"),
			want: "[SCHEMA] missing required columns: Share",
		},
		{
			name: "custom message",
			err:  &SchemaError{Source: "corr", Message: "table has no rows"},
			want: "[SCHEMA] corr: table has no rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDataIntegrityError_Error(t *testing.T) {
	err := NewDataIntegrityError("corr", "shares do not sum to 1", []string{"01012100", "01012900"})
	assert.Equal(t, "[DATA_INTEGRITY] corr: shares do not sum to 1 (2 codes: 01012100, 01012900)", err.Error())

	codes := make([]string, maxListed+5)
	for i := range codes {
		codes[i] = fmt.Sprintf("%08d", i)
	}
	long := NewDataIntegrityError("", "bad", codes)
	assert.Contains(t, long.Error(), "25 codes")
	assert.Contains(t, long.Error(), ", ...)")
	assert.NotContains(t, long.Error(), codes[maxListed])
}

func TestPredicates(t *testing.T) {
	schema := NewSchemaError("x", "a")
	integrity := NewDataIntegrityError("x", "bad", nil)
	mismatch := &ValidationMismatch{Dataset: "CAM", MaxDiff: 3, Tolerance: 0.01, Count: 2}

	wrapped := fmt.Errorf("loading dataset: %w", schema)

	assert.True(t, IsSchema(wrapped))
	assert.False(t, IsDataIntegrity(wrapped))
	assert.True(t, IsDataIntegrity(fmt.Errorf("build: %w", integrity)))
	assert.True(t, IsValidationMismatch(mismatch))
	assert.False(t, IsSchema(stderrors.New("plain")))

	assert.Equal(t, ErrTypeSchema, TypeOf(wrapped))
	assert.Equal(t, ErrTypeDataIntegrity, TypeOf(integrity))
	assert.Equal(t, ErrTypeMismatch, TypeOf(mismatch))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestValidationMismatch_Error(t *testing.T) {
	err := &ValidationMismatch{Dataset: "VN", MaxDiff: 0.5, Tolerance: 0.01, Count: 3}
	assert.Equal(t, "[VALIDATION_MISMATCH] VN: 3 cells differ, max difference 0.5 exceeds tolerance 0.01", err.Error())
}
