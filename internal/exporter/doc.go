// Package exporter writes the outputs of a remapping run.
//
// CSVWriter and WorkbookWriter are the low-level writers (encoding/csv with an
// optional UTF-8 BOM for Excel, and excelize stream writers). Sink builds on
// them and knows the output layout of a run:
//
//	<dataset>_Remapped.xlsx     sheet Trade_New (or <dataset>_Remapped.csv)
//	<dataset>_validation.json   cross-validation report
//	<dataset>_Differences.xlsx  Trade_New, Trade_Test and Differences sheets,
//	                            only when the remappings diverge
//	partial_flags.csv           flag per new code
//	run_summary.json            status of every dataset
//
// Example usage:
//
//	sink, err := exporter.NewSink("output", exporter.SinkOptions{Format: exporter.FormatXLSX})
//	paths, err := sink.WriteDataset(ctx, exporter.DatasetOutput{
//	    Name:     "CAM",
//	    Remapped: frame,
//	    Flags:    flags,
//	    Report:   report,
//	})
package exporter
