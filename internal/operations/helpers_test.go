package operations

import (
	"testing"

	"ahtnremap/internal/config"
	"ahtnremap/internal/shared/testutil"
)

const testSeries = "2019_M_Can"

// scenario writes a correspondence table splitting 01012100 evenly over
// 01012110 and 01012120 and moving 01012900 to 01012120, plus a CAM dataset
// holding 10 and 20.
func scenario(t *testing.T) (*config.Config, *testutil.WorkbookFixtures) {
	t.Helper()
	fx := testutil.NewWorkbookFixtures(t)

	writeConcordance(t, fx, [][]interface{}{
		{"01012100", "01012110", 0.5},
		{"01012100", "01012120", 0.5},
		{"01012900", "01012120", 1},
	})
	fx.WriteXLSX(t, "CAM_Trade.xlsx", "Data",
		[]string{"AHTN_code", "AHTN_desc", testSeries},
		[][]interface{}{
			{"01012100", "Pure-bred", 10},
			{"01012900", "Other", 20},
		})

	cfg := config.Default()
	cfg.Paths.InputDir = fx.Dir
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.Concordance = "concordance.xlsx"
	cfg.Trade.Years = []int{2019}
	cfg.Trade.Partners = []config.Partner{config.PartnerCanada}
	return cfg, fx
}

func writeConcordance(t *testing.T, fx *testutil.WorkbookFixtures, rows [][]interface{}) {
	t.Helper()
	fx.WriteXLSX(t, "concordance.xlsx", "Correlation",
		[]string{"AHTN 2017", "AHTN 2022", "Share"}, rows)
}
