package operations

import (
	"errors"
	"time"

	"ahtnremap/internal/exporter"
	"ahtnremap/internal/files"
	"ahtnremap/internal/remap"
	"ahtnremap/internal/tradedata"
	"ahtnremap/pkg/contracts"
	"ahtnremap/pkg/contracts/domain"
)

// Step identifiers of the per-dataset pipeline, in execution order
const (
	StepLoad     = "load"
	StepAlign    = "align"
	StepApply    = "apply"
	StepValidate = "validate"
	StepWrite    = "write"
)

// Step identifiers of the run as a whole
const (
	StepConcordance = "concordance"
	StepDiscover    = "discover"
	StepSummary     = "summary"
	StepChanges     = "changes"
)

// Result is the outcome of processing one dataset
type Result struct {
	Dataset  files.Dataset
	Status   domain.DatasetStatus
	Err      error
	Series   []string
	Rows     int
	NewCodes int
	Align    *tradedata.AlignReport
	Report   *remap.Report
	Outputs  []string
	Duration time.Duration
}

// Step returns the step that failed, or "" when the dataset succeeded
func (r Result) Step() string {
	var opErr *OperationError
	if errors.As(r.Err, &opErr) {
		return opErr.Step
	}
	return ""
}

func (r *Result) fail(err error) {
	r.Err = err
	if GetErrorType(err) == ErrorTypeCancellation {
		r.Status = domain.DatasetStatusCancelled
		return
	}
	r.Status = domain.DatasetStatusFailed
}

// Summary converts the result into its run summary entry. Cell differences
// are left to the per-dataset validation report.
func (r Result) Summary() domain.DatasetSummary {
	s := domain.DatasetSummary{
		Name:       r.Dataset.Name,
		Source:     r.Dataset.Path,
		Status:     r.Status,
		Step:       r.Step(),
		Rows:       r.Rows,
		NewCodes:   r.NewCodes,
		Outputs:    r.Outputs,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
		s.ErrorType = string(GetErrorType(r.Err))
	}
	if r.Align != nil {
		a := &domain.Alignment{
			MissingCodes:  len(r.Align.Missing),
			UnmappedCodes: r.Align.Unmapped,
		}
		for j, total := range r.Align.UnmappedTotals {
			if total == 0 || j >= len(r.Series) {
				continue
			}
			if a.UnmappedTotals == nil {
				a.UnmappedTotals = make(map[string]float64)
			}
			a.UnmappedTotals[r.Series[j]] = total
		}
		s.Alignment = a
	}
	if r.Report != nil {
		v := exporter.ToValidationReport(r.Report, 0)
		v.Differences = nil
		s.Validation = &v
	}
	return s
}

func versionString() string {
	return contracts.Version
}
