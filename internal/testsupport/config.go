package testsupport

import (
	"path/filepath"
	"testing"

	"pdftriage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose output store and log file live in a
// unique temp directory. Inspection defaults to inline so tests never
// re-execute the test binary by accident.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Output.Path = filepath.Join(base, "out", "pdf_analysis.csv")
	cfgVal.Classify.Workers = 2
	cfgVal.Classify.Isolation = config.IsolationInline
	cfgVal.Progress.IntervalSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classify.Workers = n
	}
}

// WithExtensions replaces the discovery extension list.
func WithExtensions(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Extensions = exts
	}
}

// WithSQLiteOutput switches the output store to sqlite.
func WithSQLiteOutput() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Path = filepath.Join(b.baseDir, "out", "pdf_analysis.db")
		b.cfg.Output.Format = config.FormatSQLite
	}
}

// WithBatching overrides batch size and queue capacity.
func WithBatching(batchSize, queueCapacity int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.BatchSize = batchSize
		b.cfg.Output.QueueCapacity = queueCapacity
	}
}

// WithLogFile routes a JSON copy of logs into the temp directory.
func WithLogFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.File = filepath.Join(b.baseDir, "logs", "pdftriage.log")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Output.Path))
}
