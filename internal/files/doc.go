// Package files discovers the trade datasets of a run.
//
// Datasets are tables named "<NAME><suffix>.<ext>" in the input directory,
// for example CAM_Trade.xlsx or VN_Trade.csv:
//
//	discovery := files.NewDiscovery("")
//	datasets, err := discovery.FindDatasets("data/raw", "_Trade", nil)
package files
