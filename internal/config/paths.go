package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the directory layout rooted at the configured base
// directory. The upstream merge utility drops per-company tables into
// DataDir; analysis output lands in ResultsDir.
type Paths struct {
	BaseDir    string
	DataDir    string
	ResultsDir string
	LogsDir    string
}

// NewPaths builds the directory layout from configuration. An empty
// BaseDir defaults to the directory of the running executable.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate executable: %w", err)
		}
		base = filepath.Dir(exe)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolveDir(base, cfg.DataDir, "data"),
		ResultsDir: resolveDir(base, cfg.ResultsDir, "results"),
		LogsDir:    resolveDir(base, cfg.LogsDir, "logs"),
	}, nil
}

func resolveDir(base, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// EnsureDirectories creates all directories that the application writes to.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ResultsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDataPath returns the full path of a file in the data directory.
func (p *Paths) GetDataPath(name string) string {
	return filepath.Join(p.DataDir, name)
}

// GetResultPath returns the full path of a file in the results directory.
func (p *Paths) GetResultPath(name string) string {
	return filepath.Join(p.ResultsDir, name)
}

// GetLogPath returns the full path of a file in the logs directory.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
