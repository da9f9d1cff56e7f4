// Package tradedata loads raw trade tables into labelled, code-sorted frames.
//
// A Frame pairs a numeric matrix (codes × series) with its code and series
// labels. Keeping the labels next to the numbers lets the mapping engine
// verify alignment with the allocation matrix instead of trusting row
// positions.
//
// # Loading
//
//	frame, err := tradedata.Load(table, tradedata.LoadSpec{
//	    CodeColumn: "AHTN_code",
//	    Series:     []string{"2019_M_Can", "2020_M_Can", "2021_M_Can"},
//	    CodeWidth:  8,
//	})
//
// Missing columns yield an errors.SchemaError naming exactly those columns.
//
// # Alignment
//
// Reindex puts a frame into the column order of an allocation matrix. Codes
// the dataset does not contain become zero rows; dataset codes that have no
// correspondence entry are dropped and reported in the AlignReport with
// their totals, so value leakage is visible.
package tradedata
