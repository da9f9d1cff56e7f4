// Package config loads and validates the remapping configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values (Default)
//	2. A YAML file (remap.yaml or configs/remap.yaml, or an explicit path)
//	3. Environment variables prefixed with REMAP_
//
// # Environment Variables
//
// Nested fields are joined with underscores:
//
//	REMAP_PATHS_INPUT_DIR=data/raw
//	REMAP_TRADE_YEARS=2019,2020,2021
//	REMAP_TRADE_PARTNERS=World,Can
//	REMAP_VALIDATION_SHARE_MODE=explicit
//	REMAP_WORKERS=4
//
// # Validation
//
// Load validates the result with go-playground/validator: log levels,
// output formats and share modes must be known values, tolerances positive,
// years plausible and partners drawn from KnownPartners without repeats.
//
// # Trade Series
//
// TradeConfig.SeriesNames expands years, flow and partners into the column
// names expected in every trade dataset, e.g. "2019_M_Can".
package config
