package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"ahtnremap/internal/concordance"
)

// Config represents the complete remapping configuration
type Config struct {
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Concordance ConcordanceConfig `yaml:"concordance" envconfig:"CONCORDANCE"`
	Trade       TradeConfig       `yaml:"trade" envconfig:"TRADE"`
	Validation  ValidationConfig  `yaml:"validation" envconfig:"VALIDATION"`
	Output      OutputConfig      `yaml:"output" envconfig:"OUTPUT"`
	Changes     ChangesConfig     `yaml:"changes" envconfig:"CHANGES"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
	Workers     int               `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains input and output locations
type PathsConfig struct {
	InputDir    string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	Concordance string `yaml:"concordance" envconfig:"CONCORDANCE" validate:"required"`
	// Headings optionally names a table of chapter and heading descriptions.
	Headings string `yaml:"headings" envconfig:"HEADINGS"`
	// Datasets restricts the run to these dataset names; empty means all.
	Datasets []string `yaml:"datasets" envconfig:"DATASETS"`
}

// ConcordanceConfig describes the correspondence table
type ConcordanceConfig struct {
	Columns   concordance.Columns `yaml:"columns" envconfig:"COLUMNS"`
	Sheet     string              `yaml:"sheet" envconfig:"SHEET"`
	CodeWidth int                 `yaml:"code_width" envconfig:"CODE_WIDTH" validate:"gte=2,lte=12"`
}

// TradeConfig describes the trade datasets and the series to remap
type TradeConfig struct {
	CodeColumn        string    `yaml:"code_column" envconfig:"CODE_COLUMN" validate:"required"`
	DescriptionColumn string    `yaml:"description_column" envconfig:"DESCRIPTION_COLUMN"`
	Sheet             string    `yaml:"sheet" envconfig:"SHEET"`
	DatasetSuffix     string    `yaml:"dataset_suffix" envconfig:"DATASET_SUFFIX" validate:"required"`
	Years             []int     `yaml:"years" envconfig:"YEARS" validate:"required,min=1,dive,gte=1900,lte=2100"`
	Flow              string    `yaml:"flow" envconfig:"FLOW" validate:"oneof=M X"`
	Partners          []Partner `yaml:"partners" envconfig:"PARTNERS" validate:"required,min=1,dive,partner"`
}

// SeriesNames returns the trade columns "<year>_<flow>_<partner>", grouped by
// partner and ordered by year within each partner.
func (t TradeConfig) SeriesNames() []string {
	names := make([]string, 0, len(t.Years)*len(t.Partners))
	for _, p := range t.Partners {
		for _, y := range t.Years {
			names = append(names, strconv.Itoa(y)+"_"+t.Flow+"_"+string(p))
		}
	}
	return names
}

// ValidationConfig contains matrix and cross-validation tolerances
type ValidationConfig struct {
	ShareTolerance float64 `yaml:"share_tolerance" envconfig:"SHARE_TOLERANCE" validate:"gt=0,lt=1"`
	DiffTolerance  float64 `yaml:"diff_tolerance" envconfig:"DIFF_TOLERANCE" validate:"gt=0"`
	ShareMode      string  `yaml:"share_mode" envconfig:"SHARE_MODE" validate:"oneof=reciprocal explicit"`
	CrossValidate  bool    `yaml:"cross_validate" envconfig:"CROSS_VALIDATE"`
}

// OutputConfig controls what is written per dataset
type OutputConfig struct {
	Format           string `yaml:"format" envconfig:"FORMAT" validate:"oneof=xlsx csv"`
	Sheet            string `yaml:"sheet" envconfig:"SHEET" validate:"required"`
	DropZeroRows     bool   `yaml:"drop_zero_rows" envconfig:"DROP_ZERO_ROWS"`
	WriteDifferences bool   `yaml:"write_differences" envconfig:"WRITE_DIFFERENCES"`
}

// ChangesConfig configures the change analysis command
type ChangesConfig struct {
	CompleteFile string `yaml:"complete_file" envconfig:"COMPLETE_FILE"`
	PartialFile  string `yaml:"partial_file" envconfig:"PARTIAL_FILE"`
	Column       string `yaml:"column" envconfig:"COLUMN" validate:"required"`
	CodeColumn   string `yaml:"code_column" envconfig:"CODE_COLUMN" validate:"required"`
	TopN         int    `yaml:"top_n" envconfig:"TOP_N" validate:"gte=1"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	TraceFile   string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// REMAP_* environment variables, in increasing order of precedence.
// An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// findConfigFile returns the first config file found, or ""
func findConfigFile() string {
	locations := []string{
		"remap.yaml",
		"configs/remap.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks struct constraints and partner names
func (c *Config) Validate() error {
	v := newValidator()
	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	seen := make(map[Partner]bool)
	for _, p := range c.Trade.Partners {
		if seen[p] {
			return fmt.Errorf("partner %q listed twice", p)
		}
		seen[p] = true
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("partner", func(fl validator.FieldLevel) bool {
		return Partner(fl.Field().String()).Valid()
	})
	// use YAML names in messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default returns the configuration of the AHTN 2017 → 2022 remapping:
// three import years for twelve partners.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			InputDir:    ".",
			OutputDir:   "output",
			Concordance: DefaultConcordanceFile,
		},
		Concordance: ConcordanceConfig{
			Columns:   concordance.DefaultColumns(),
			CodeWidth: DefaultCodeWidth,
		},
		Trade: TradeConfig{
			CodeColumn:        DefaultTradeCodeColumn,
			DescriptionColumn: DefaultDescription,
			DatasetSuffix:     DefaultDatasetSuffix,
			Years:             []int{2019, 2020, 2021},
			Flow:              FlowImports,
			Partners:          append([]Partner(nil), KnownPartners...),
		},
		Validation: ValidationConfig{
			ShareTolerance: DefaultShareTolerance,
			DiffTolerance:  DefaultDiffTolerance,
			ShareMode:      "reciprocal",
			CrossValidate:  true,
		},
		Output: OutputConfig{
			Format:           "xlsx",
			Sheet:            DefaultRemappedSheet,
			WriteDifferences: true,
		},
		Changes: ChangesConfig{
			Column:     DefaultChangesColumn,
			CodeColumn: DefaultTradeCodeColumn,
			TopN:       DefaultChangesTopN,
		},
		Workers: 1,
	}
}
