package domain

import (
	"time"
)

// DatasetStatus is the outcome of remapping one dataset
type DatasetStatus string

const (
	// DatasetStatusOK means the dataset was remapped and, when requested,
	// cross-validated within tolerance.
	DatasetStatusOK DatasetStatus = "ok"
	// DatasetStatusMismatch means the output was written but the
	// cross-validation found differences above tolerance.
	DatasetStatusMismatch  DatasetStatus = "mismatch"
	DatasetStatusFailed    DatasetStatus = "failed"
	DatasetStatusCancelled DatasetStatus = "cancelled"
)

// CellDifference is one cell where the two remapping methods disagree
type CellDifference struct {
	Code      string  `json:"code"`
	Series    string  `json:"series"`
	Primary   float64 `json:"primary"`
	Alternate float64 `json:"alternate"`
	Diff      float64 `json:"diff"`
}

// ValidationReport is the machine-readable result of a cross-validation
type ValidationReport struct {
	Dataset     string           `json:"dataset" validate:"required"`
	ShareMode   string           `json:"share_mode" validate:"oneof=reciprocal explicit"`
	Equal       bool             `json:"equal"`
	MaxDiff     float64          `json:"max_diff" validate:"gte=0"`
	Tolerance   float64          `json:"tolerance" validate:"gt=0"`
	Codes       int              `json:"codes"`
	Series      []string         `json:"series"`
	Mismatches  int              `json:"mismatches"`
	Differences []CellDifference `json:"differences,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Alignment summarizes how a dataset matched the correspondence table
type Alignment struct {
	// MissingCodes counts table codes absent from the dataset (zero-filled).
	MissingCodes int `json:"missing_codes"`
	// UnmappedCodes lists dataset codes absent from the table.
	UnmappedCodes []string `json:"unmapped_codes,omitempty"`
	// UnmappedTotals maps series to the value of the unmapped codes.
	UnmappedTotals map[string]float64 `json:"unmapped_totals,omitempty"`
}

// DatasetSummary describes one dataset of a run
type DatasetSummary struct {
	Name       string            `json:"name" validate:"required"`
	Source     string            `json:"source"`
	Status     DatasetStatus     `json:"status"`
	Step       string            `json:"step,omitempty"`
	Error      string            `json:"error,omitempty"`
	ErrorType  string            `json:"error_type,omitempty"`
	Rows       int               `json:"rows"`
	NewCodes   int               `json:"new_codes"`
	Alignment  *Alignment        `json:"alignment,omitempty"`
	Validation *ValidationReport `json:"validation,omitempty"`
	Outputs    []string          `json:"outputs,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// ConcordanceSummary describes the correspondence table of a run
type ConcordanceSummary struct {
	Source         string `json:"source"`
	Entries        int    `json:"entries"`
	OldCodes       int    `json:"old_codes"`
	NewCodes       int    `json:"new_codes"`
	PartialCodes   int    `json:"partial_codes"`
	DuplicatePairs int    `json:"duplicate_pairs"`
}

// RunSummary is written once per run
type RunSummary struct {
	RunID       string             `json:"run_id" validate:"required,uuid"`
	Version     string             `json:"version"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Concordance ConcordanceSummary `json:"concordance"`
	Series      []string           `json:"series"`
	Datasets    []DatasetSummary   `json:"datasets"`
}

// Count returns how many datasets ended with status
func (s RunSummary) Count(status DatasetStatus) int {
	n := 0
	for _, d := range s.Datasets {
		if d.Status == status {
			n++
		}
	}
	return n
}

// Succeeded reports whether every dataset produced output
func (s RunSummary) Succeeded() bool {
	return s.Count(DatasetStatusFailed) == 0 && s.Count(DatasetStatusCancelled) == 0
}
