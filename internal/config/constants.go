package config

// Application info
const (
	AppName   = "ahtn-remap"
	EnvPrefix = "REMAP"
)

// Partner identifies a reporting partner in trade series names
type Partner string

// Partners of the AHTN 2017 trade datasets
const (
	PartnerWorld   Partner = "World"
	PartnerCanada  Partner = "Can"
	PartnerBrunei  Partner = "Brun"
	PartnerCambod  Partner = "Cam"
	PartnerIndo    Partner = "Ind"
	PartnerLaos    Partner = "LPDR"
	PartnerMalay   Partner = "Mal"
	PartnerMyanmar Partner = "Myan"
	PartnerPhil    Partner = "Phil"
	PartnerSing    Partner = "Sing"
	PartnerThai    Partner = "Thai"
	PartnerVietnam Partner = "VN"
)

// KnownPartners lists every partner in output order
var KnownPartners = []Partner{
	PartnerWorld, PartnerCanada, PartnerBrunei, PartnerCambod,
	PartnerIndo, PartnerLaos, PartnerMalay, PartnerMyanmar,
	PartnerPhil, PartnerSing, PartnerThai, PartnerVietnam,
}

// Valid reports whether p is a known partner
func (p Partner) Valid() bool {
	for _, k := range KnownPartners {
		if p == k {
			return true
		}
	}
	return false
}

// Trade flows
const (
	FlowImports = "M"
	FlowExports = "X"
)

// Default data layout
const (
	DefaultCodeWidth        = 8
	DefaultTradeCodeColumn  = "AHTN_code"
	DefaultDescription      = "AHTN_desc"
	DefaultDatasetSuffix    = "_Trade"
	DefaultConcordanceFile  = "Correlation_Table_AHTN_2017_2022.xlsx"
	DefaultShareTolerance   = 1e-6
	DefaultDiffTolerance    = 1e-2
	DefaultChangesColumn    = "V2017"
	DefaultChangesTopN      = 10
	DefaultRemappedSheet    = "Trade_New"
	DefaultRunSummaryFile   = "run_summary.json"
	DefaultPartialFlagsFile = "partial_flags.csv"
)

// Log settings
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = "logs/remap.log"
)
