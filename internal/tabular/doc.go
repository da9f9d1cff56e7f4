// Package tabular reads spreadsheet and CSV files into header-addressed tables.
//
// It is the data-source side of the remapping pipeline: correspondence tables,
// trade tables and change lists all arrive as workbooks or CSV exports whose
// header row is not always the first row and whose data sheet is not always
// the first sheet. ReadXLSX discovers both from the columns the caller
// expects, then returns a Table whose cells are trimmed strings.
//
// Basic usage:
//
//	table, err := tabular.ReadFile("CAM_Trade.xlsx", tabular.ReadOptions{
//	    Expect: []string{"AHTN_code", "2019_M_Can"},
//	})
//	if err != nil {
//	    return err
//	}
//	missing := table.Missing("AHTN_code", "2019_M_Can", "2020_M_Can")
//
// Numeric interpretation is left to the callers (tradedata, concordance).
package tabular
