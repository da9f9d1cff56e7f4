// Package operations runs the remapping pipeline over a directory of trade
// datasets.
//
// A run loads the correspondence table once (LoadCorrespondence), then a
// Runner processes every dataset through the steps load, align, apply,
// validate and write. Datasets are independent: a failure is recorded as an
// OperationError on that dataset's Result and the others carry on. Up to
// cfg.Workers datasets run in parallel; results keep the discovery order.
//
// Each dataset gets a span with one child span per step, and its outcome is
// recorded in the run metrics.
//
// Example usage:
//
//	summary, err := operations.Execute(ctx, cfg, logger, telemetry)
//	if summary != nil {
//	    fmt.Println(summary.Count(domain.DatasetStatusMismatch), "mismatches")
//	}
package operations
