package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"ahtnremap/internal/changes"
	"ahtnremap/internal/codes"
	"ahtnremap/internal/concordance"
	"ahtnremap/internal/remap"
	"ahtnremap/internal/tradedata"
	"ahtnremap/pkg/contracts/domain"
)

// Output formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Column and sheet names of the written tables
const (
	ColumnCode        = "AHTN_code"
	ColumnChapter     = "Chap_code"
	ColumnHeading     = "Header_code"
	ColumnFlag        = "Flag"
	SheetRemapped     = "Trade_New"
	SheetAlternate    = "Trade_Test"
	SheetDifferences  = "Differences"
	SheetPartial      = "Partial"
	SheetSummary      = "Summary"
	FlagsFile         = "partial_flags.csv"
	RunSummaryFile    = "run_summary.json"
	remappedSuffix    = "_Remapped"
	differencesSuffix = "_Differences"
	validationSuffix  = "_validation.json"
	changesSuffix     = "_Changes.xlsx"
)

// SinkOptions configures what a Sink writes
type SinkOptions struct {
	Format string
	// Sheet names the remapped sheet of xlsx output.
	Sheet string
	// DescriptionColumn is carried after the code columns when present.
	DescriptionColumn string
	// Headings adds chapter and heading descriptions when non-empty.
	Headings         Headings
	WriteDifferences bool
	MaxDifferences   int
	Logger           *slog.Logger
}

// DatasetOutput is everything written for one dataset
type DatasetOutput struct {
	Name     string
	Remapped *tradedata.Frame
	// Flags maps new codes to their partial-allocation flag.
	Flags  map[string]int
	Report *remap.Report
}

// Sink writes the per-dataset and per-run outputs into one directory. It is
// safe for concurrent use: every dataset writes to its own files.
type Sink struct {
	dir      string
	opts     SinkOptions
	csv      *CSVWriter
	workbook *WorkbookWriter
	logger   *slog.Logger
}

// NewSink creates a sink writing into dir
func NewSink(dir string, opts SinkOptions) (*Sink, error) {
	switch opts.Format {
	case "":
		opts.Format = FormatXLSX
	case FormatXLSX, FormatCSV:
	default:
		return nil, fmt.Errorf("unknown output format %q", opts.Format)
	}
	if opts.Sheet == "" {
		opts.Sheet = SheetRemapped
	}
	if opts.MaxDifferences == 0 {
		opts.MaxDifferences = DefaultMaxDifferences
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Sink{
		dir:      dir,
		opts:     opts,
		csv:      NewCSVWriter(dir),
		workbook: NewWorkbookWriter(dir),
		logger:   logger.With(slog.String("component", "exporter")),
	}, nil
}

// Dir returns the output directory
func (s *Sink) Dir() string {
	return s.dir
}

// WriteDataset writes the remapped table, the validation report and, on
// mismatch, the differences workbook. It returns the paths written.
func (s *Sink) WriteDataset(ctx context.Context, out DatasetOutput) ([]string, error) {
	if out.Remapped == nil {
		return nil, fmt.Errorf("%s: no remapped data to write", out.Name)
	}
	var written []string

	header, rows := s.remappedTable(out.Remapped, out.Flags)
	var (
		path string
		err  error
	)
	if s.opts.Format == FormatCSV {
		path, err = s.csv.WriteSimpleCSV(out.Name+remappedSuffix+".csv", header, stringRecords(rows))
	} else {
		path, err = s.workbook.Write(out.Name+remappedSuffix+".xlsx", Sheet{Name: s.opts.Sheet, Header: header, Rows: rows})
	}
	if err != nil {
		return written, fmt.Errorf("%s: %w", out.Name, err)
	}
	written = append(written, path)

	if out.Report == nil {
		return written, nil
	}
	if err := ctx.Err(); err != nil {
		return written, err
	}

	path, err = s.WriteJSON(out.Name+validationSuffix, ToValidationReport(out.Report, s.opts.MaxDifferences))
	if err != nil {
		return written, fmt.Errorf("%s: %w", out.Name, err)
	}
	written = append(written, path)

	if !out.Report.Equal && s.opts.WriteDifferences {
		path, err = s.writeDifferences(out)
		if err != nil {
			return written, fmt.Errorf("%s: %w", out.Name, err)
		}
		written = append(written, path)
	}

	s.logger.InfoContext(ctx, "Dataset outputs written",
		slog.String("dataset", out.Name),
		slog.Int("files", len(written)))
	return written, nil
}

// WriteFlags writes the partial-allocation flag of every new code
func (s *Sink) WriteFlags(flags []concordance.Flag) (string, error) {
	records := make([][]string, len(flags))
	for i, f := range flags {
		records[i] = []string{f.NewCode, formatInt(f.Partial)}
	}
	return s.csv.WriteSimpleCSV(FlagsFile, []string{ColumnCode, ColumnFlag}, records)
}

// WriteRunSummary writes the run summary as JSON
func (s *Sink) WriteRunSummary(summary domain.RunSummary) (string, error) {
	return s.WriteJSON(RunSummaryFile, summary)
}

// WriteJSON writes v indented into the output directory
func (s *Sink) WriteJSON(name string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// WriteChangeAnalysis writes a workbook with the per-series summary and the
// partially changed rows, plus the analysis as JSON.
func (s *Sink) WriteChangeAnalysis(a *changes.Analysis) ([]string, error) {
	summary := Sheet{
		Name: SheetSummary,
		Header: []string{"Series", "Total", "Complete", "Complete_share",
			"Partial", "Partial_share", "Top_partial"},
	}
	for _, ss := range a.Series {
		top := ""
		for i, r := range ss.TopPartial {
			if i > 0 {
				top += " "
			}
			top += r.Code
		}
		summary.Rows = append(summary.Rows, []interface{}{
			ss.Series, ss.Total, ss.Complete, ss.CompleteShare,
			ss.Partial, ss.PartialShare, top,
		})
	}

	partial := Sheet{Name: SheetPartial}
	partial.Header, partial.Rows = s.frameTable(a.PartialRows, nil)

	path, err := s.workbook.Write(a.Dataset+changesSuffix, summary, partial)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Dataset, err)
	}
	jsonPath, err := s.WriteJSON(a.Dataset+"_changes.json", a)
	if err != nil {
		return []string{path}, err
	}
	return []string{path, jsonPath}, nil
}

func (s *Sink) writeDifferences(out DatasetOutput) (string, error) {
	r := out.Report
	source := r.Primary
	if source == nil {
		source = out.Remapped
	}
	primary := Sheet{Name: SheetRemapped}
	primary.Header, primary.Rows = s.frameTable(source, nil)

	alternate := Sheet{Name: SheetAlternate}
	alternate.Header, alternate.Rows = s.frameTable(r.Alternate, nil)

	diffFrame, err := tradedata.NewFrame(r.Codes, r.Series, denseOrEmpty(r.Differences))
	if err != nil {
		return "", err
	}
	diffs := Sheet{Name: SheetDifferences}
	diffs.Header, diffs.Rows = s.frameTable(diffFrame, nil)

	return s.workbook.Write(out.Name+differencesSuffix+".xlsx", primary, alternate, diffs)
}

// remappedTable lays out code, chapter, heading, their descriptions, the
// code description, series and flag
func (s *Sink) remappedTable(f *tradedata.Frame, flags map[string]int) ([]string, [][]interface{}) {
	return s.frameTable(f, func(code string) interface{} {
		return flags[code]
	})
}

func (s *Sink) frameTable(f *tradedata.Frame, flag func(code string) interface{}) ([]string, [][]interface{}) {
	header := []string{ColumnCode, ColumnChapter, ColumnHeading}
	hasHeadings := len(s.opts.Headings) > 0
	if hasHeadings {
		header = append(header, ColumnChapterDesc, ColumnHeadingDesc)
	}
	_, hasDesc := f.Labels[s.opts.DescriptionColumn]
	hasDesc = hasDesc && s.opts.DescriptionColumn != ""
	if hasDesc {
		header = append(header, s.opts.DescriptionColumn)
	}
	header = append(header, f.Series...)
	if flag != nil {
		header = append(header, ColumnFlag)
	}

	rows := make([][]interface{}, f.Len())
	for i, code := range f.Codes {
		h := codes.Split(code)
		row := make([]interface{}, 0, len(header))
		row = append(row, code, h.Chapter, h.Heading)
		if hasHeadings {
			label := s.opts.Headings.Label(code)
			row = append(row, label.Chapter, label.Heading)
		}
		if hasDesc {
			row = append(row, f.Label(s.opts.DescriptionColumn, i))
		}
		for j := range f.Series {
			row = append(row, f.Values.At(i, j))
		}
		if flag != nil {
			row = append(row, flag(code))
		}
		rows[i] = row
	}
	return header, rows
}

func denseOrEmpty(m *mat.Dense) *mat.Dense {
	if m == nil {
		return &mat.Dense{}
	}
	return m
}
