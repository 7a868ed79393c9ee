package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths resolves every file the pipeline writes.
// Relative locations are resolved against BaseDir.
type Paths struct {
	BaseDir   string
	OutputDir string
	LogsDir   string
}

// GetPaths resolves the configured directories against the working directory.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewPaths(base, cfg), nil
}

// NewPaths resolves the configured directories against base.
func NewPaths(base string, cfg PathsConfig) *Paths {
	resolve := func(p, def string) string {
		if p == "" {
			p = def
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}
	return &Paths{
		BaseDir:   base,
		OutputDir: resolve(cfg.OutputDir, DefaultOutputDir),
		LogsDir:   resolve(cfg.LogsDir, DefaultLogsDir),
	}
}

// EnsureDirectories creates the output and log directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve returns path unchanged when absolute, otherwise relative to BaseDir.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// GetOutputPath returns a file name inside the output directory.
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// DefaultOutputs derives output file names from the source file name, so
// data/titanic.csv becomes out/titanic_cleaned.csv and out/titanic_report.txt.
func (p *Paths) DefaultOutputs(source string) (csvPath, reportPath string) {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return p.GetOutputPath(stem + "_cleaned.csv"), p.GetOutputPath(stem + "_report.txt")
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
