package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Scan controls which files discovery yields.
type Scan struct {
	Extensions      []string `toml:"extensions"`
	CaseInsensitive bool     `toml:"case_insensitive"`
}

// Classify contains worker pool and threshold configuration.
type Classify struct {
	// Workers is the pool size. Zero means one worker per CPU.
	Workers            int    `toml:"workers"`
	PageThreshold      uint64 `toml:"page_threshold"`
	SizeThresholdBytes uint64 `toml:"size_threshold_bytes"`
	MinSizeBytes       uint64 `toml:"min_size_bytes"`
	// Isolation is either "process" (one child process per inspection) or "inline".
	Isolation             string `toml:"isolation"`
	InspectTimeoutSeconds int    `toml:"inspect_timeout_seconds"`
	ChildMemoryLimitMB    int    `toml:"child_memory_limit_mb"`
}

// Output describes the durable record store.
type Output struct {
	Path string `toml:"path"`
	// Format is "csv" or "sqlite". Empty selects by file extension.
	Format        string `toml:"format"`
	BatchSize     int    `toml:"batch_size"`
	QueueCapacity int    `toml:"queue_capacity"`
	Resume        bool   `toml:"resume"`
}

// Progress controls periodic throughput reporting.
type Progress struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File is an optional log file written alongside the console stream.
	File string `toml:"file"`
}

// Publish configures the optional post-run upload of the output store.
type Publish struct {
	GCSBucket      string `toml:"gcs_bucket"`
	GCSObject      string `toml:"gcs_object"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
}

// Config encapsulates all configuration values for pdftriage.
//
// Configuration sections by subsystem:
//   - Scan: extension filter and path case handling
//   - Classify: worker count, thresholds, inspection isolation
//   - Output: record store location, format, batching, resume
//   - Progress: reporting cadence
//   - Logging: log format, level, optional file
//   - Publish: optional Google Cloud Storage mirror
type Config struct {
	Scan     Scan     `toml:"scan"`
	Classify Classify `toml:"classify"`
	Output   Output   `toml:"output"`
	Progress Progress `toml:"progress"`
	Logging  Logging  `toml:"logging"`
	Publish  Publish  `toml:"publish"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pdftriage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pdftriage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of the output store and log file.
func (c *Config) EnsureDirectories() error {
	for _, target := range []string{c.Output.Path, c.Logging.File} {
		if strings.TrimSpace(target) == "" {
			continue
		}
		dir := filepath.Dir(target)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkerCount resolves the configured pool size.
func (c *Config) WorkerCount() int {
	if c.Classify.Workers > 0 {
		return c.Classify.Workers
	}
	return runtime.NumCPU()
}

// InspectTimeout returns the per-file inspection deadline.
func (c *Config) InspectTimeout() time.Duration {
	return time.Duration(c.Classify.InspectTimeoutSeconds) * time.Second
}

// ProgressInterval returns the progress reporting cadence.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Progress.IntervalSeconds) * time.Second
}

// OutputFormat resolves the store format, inferring it from the output
// extension when not set explicitly.
func (c *Config) OutputFormat() string {
	if c.Output.Format != "" {
		return c.Output.Format
	}
	return FormatForPath(c.Output.Path)
}

// FormatForPath infers a store format from a file name.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
