package exporter

import (
	"sort"
	"time"

	"ahtnremap/internal/remap"
	"ahtnremap/pkg/contracts/domain"
)

// DefaultMaxDifferences caps the cell differences listed in a validation report
const DefaultMaxDifferences = 100

// ToValidationReport converts a cross-validation report into its
// machine-readable form. Mismatches are listed largest first, at most
// maxDiffs of them; maxDiffs <= 0 lists all.
func ToValidationReport(r *remap.Report, maxDiffs int) domain.ValidationReport {
	out := domain.ValidationReport{
		Dataset:     r.Dataset,
		ShareMode:   string(r.ShareMode),
		Equal:       r.Equal,
		MaxDiff:     r.MaxDiff,
		Tolerance:   r.Tolerance,
		Codes:       len(r.Codes),
		Series:      append([]string(nil), r.Series...),
		Mismatches:  len(r.Mismatches),
		GeneratedAt: time.Now().UTC(),
	}

	mismatches := append([]remap.Mismatch(nil), r.Mismatches...)
	sort.SliceStable(mismatches, func(a, b int) bool {
		return mismatches[a].Diff > mismatches[b].Diff
	})
	if maxDiffs > 0 && len(mismatches) > maxDiffs {
		mismatches = mismatches[:maxDiffs]
	}
	for _, m := range mismatches {
		out.Differences = append(out.Differences, domain.CellDifference{
			Code:      m.Code,
			Series:    m.Series,
			Primary:   m.Primary,
			Alternate: m.Alternate,
			Diff:      m.Diff,
		})
	}
	return out
}
