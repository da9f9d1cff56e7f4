package operations

import (
	"context"
	"log/slog"

	"ahtnremap/internal/concordance"
	"ahtnremap/internal/config"
	"ahtnremap/internal/infrastructure"
	"ahtnremap/internal/tabular"
	"ahtnremap/pkg/contracts/domain"
)

// Correspondence is a loaded correspondence table with its allocation matrix
type Correspondence struct {
	Source  string
	Entries []concordance.Entry
	Matrix  *concordance.Matrix
}

// LoadCorrespondence reads the correspondence table named by cfg and builds
// the allocation matrix. Any failure is fatal for the run.
func LoadCorrespondence(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Correspondence, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return nil, NewCancellationError(StepConcordance, "")
	}

	path := cfg.Paths.ConcordancePath()
	cols := cfg.Concordance.Columns

	table, err := tabular.ReadFile(path, tabular.ReadOptions{
		Sheet:  cfg.Concordance.Sheet,
		Expect: []string{cols.Old, cols.New, cols.Share},
		Logger: logger,
	})
	if err != nil {
		return nil, fatal(err)
	}

	entries, err := concordance.EntriesFromTable(table, cols, cfg.Concordance.CodeWidth)
	if err != nil {
		return nil, fatal(err)
	}

	m, err := concordance.Build(entries,
		concordance.WithTolerance(cfg.Validation.ShareTolerance),
		concordance.WithSource(path),
		concordance.WithLogger(logger),
	)
	if err != nil {
		return nil, fatal(err)
	}

	return &Correspondence{Source: path, Entries: entries, Matrix: m}, nil
}

// Summary describes the table for the run summary
func (c *Correspondence) Summary() domain.ConcordanceSummary {
	rows, cols := c.Matrix.Dims()
	partial := 0
	for _, f := range c.Matrix.Flags() {
		partial += f.Partial
	}
	return domain.ConcordanceSummary{
		Source:         c.Source,
		Entries:        len(c.Entries),
		OldCodes:       cols,
		NewCodes:       rows,
		PartialCodes:   partial,
		DuplicatePairs: len(c.Matrix.Duplicates()),
	}
}

// Flags returns the partial flag of every new code keyed by code
func (c *Correspondence) Flags() map[string]int {
	flags := make(map[string]int)
	for _, f := range c.Matrix.Flags() {
		flags[f.NewCode] = f.Partial
	}
	return flags
}

// record publishes the table size to the run metrics
func (c *Correspondence) record(ctx context.Context, m *infrastructure.RunMetrics) {
	infrastructure.RecordConcordance(ctx, m, len(c.Entries), len(c.Matrix.Duplicates()))
}

func fatal(err error) *OperationError {
	opErr := WrapError(err, StepConcordance, "")
	if opErr.Type == ErrorTypeExecution {
		opErr.Type = ErrorTypeFatal
	}
	return opErr
}
