package pipeline

import (
	"time"

	"github.com/spf13/afero"

	"pdftriage/internal/config"
	"pdftriage/internal/discovery"
	"pdftriage/internal/inspect"
	"pdftriage/internal/record"
)

// Options configures a single run.
type Options struct {
	Root   string
	Output string
	// Format is "csv", "sqlite", or empty to infer from Output.
	Format           string
	Resume           bool
	Workers          int
	BatchSize        int
	QueueCapacity    int
	ProgressInterval time.Duration
	Scan             discovery.Options

	Inspector    inspect.Inspector
	Thresholds   record.Thresholds
	MinSizeBytes uint64

	// Fs is where discovery and classification read documents. Nil means
	// the OS filesystem. The output store always lives on disk.
	Fs afero.Fs
	// RunID tags the run in logs and in stores that keep it. Generated when empty.
	RunID string
}

// OptionsFromConfig maps a loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config, root string, inspector inspect.Inspector) Options {
	return Options{
		Root:             root,
		Output:           cfg.Output.Path,
		Format:           cfg.Output.Format,
		Resume:           cfg.Output.Resume,
		Workers:          cfg.WorkerCount(),
		BatchSize:        cfg.Output.BatchSize,
		QueueCapacity:    cfg.Output.QueueCapacity,
		ProgressInterval: cfg.ProgressInterval(),
		Scan: discovery.Options{
			Extensions:      cfg.Scan.Extensions,
			CaseInsensitive: cfg.Scan.CaseInsensitive,
		},
		Inspector: inspector,
		Thresholds: record.Thresholds{
			PageCount: cfg.Classify.PageThreshold,
			SizeBytes: cfg.Classify.SizeThresholdBytes,
		},
		MinSizeBytes: cfg.Classify.MinSizeBytes,
	}
}
