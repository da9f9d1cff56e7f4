package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ConcordancePath returns the correspondence table path. Relative paths are
// taken from the input directory.
func (p PathsConfig) ConcordancePath() string {
	return p.inInput(p.Concordance)
}

// HeadingsPath returns the heading description table path, "" when unset
func (p PathsConfig) HeadingsPath() string {
	return p.inInput(p.Headings)
}

// InputPath returns a file in the input directory
func (p PathsConfig) InputPath(name string) string {
	return p.inInput(name)
}

// OutputPath returns a file in the output directory
func (p PathsConfig) OutputPath(name string) string {
	return filepath.Join(p.OutputDir, name)
}

// EnsureOutputDir creates the output directory if it does not exist
func (p PathsConfig) EnsureOutputDir() error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", p.OutputDir, err)
	}
	slog.Debug("Ensured directory exists", slog.String("directory", p.OutputDir))
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func (p PathsConfig) inInput(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.InputDir, name)
}
