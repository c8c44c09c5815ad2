package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pdftriage/internal/config"
)

func TestLoadDefaultConfigExpandsOutputPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if !filepath.IsAbs(cfg.Output.Path) {
		t.Fatalf("expected absolute output path, got %q", cfg.Output.Path)
	}
	if filepath.Base(cfg.Output.Path) != "pdf_analysis.csv" {
		t.Fatalf("unexpected output path: %q", cfg.Output.Path)
	}
	if cfg.Output.BatchSize != 1000 || cfg.Output.QueueCapacity != 5000 {
		t.Fatalf("unexpected batching defaults: %+v", cfg.Output)
	}
	if cfg.Classify.PageThreshold != 100 || cfg.Classify.SizeThresholdBytes != 10*1024*1024 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Classify)
	}
	if cfg.Classify.MinSizeBytes != 100 {
		t.Fatalf("unexpected min size: %d", cfg.Classify.MinSizeBytes)
	}
	if cfg.Progress.IntervalSeconds != 3 {
		t.Fatalf("unexpected progress interval: %d", cfg.Progress.IntervalSeconds)
	}
	if !cfg.Output.Resume {
		t.Fatal("expected resume enabled by default")
	}
	if cfg.WorkerCount() != runtime.NumCPU() {
		t.Fatalf("expected worker count %d, got %d", runtime.NumCPU(), cfg.WorkerCount())
	}
	if cfg.OutputFormat() != config.FormatCSV {
		t.Fatalf("expected csv format, got %q", cfg.OutputFormat())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[scan]
extensions = ["PDF", ".Doc", ".pdf"]

[classify]
workers = 4
isolation = "INLINE"
page_threshold = 50

[output]
path = "~/scans/results.db"
batch_size = 10

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	wantExt := []string{".pdf", ".doc"}
	if strings.Join(cfg.Scan.Extensions, ",") != strings.Join(wantExt, ",") {
		t.Fatalf("unexpected extensions: %v", cfg.Scan.Extensions)
	}
	if cfg.WorkerCount() != 4 {
		t.Fatalf("unexpected workers: %d", cfg.WorkerCount())
	}
	if cfg.Classify.Isolation != config.IsolationInline {
		t.Fatalf("unexpected isolation: %q", cfg.Classify.Isolation)
	}
	if cfg.Classify.PageThreshold != 50 {
		t.Fatalf("unexpected page threshold: %d", cfg.Classify.PageThreshold)
	}
	if cfg.Output.Path != filepath.Join(tempHome, "scans", "results.db") {
		t.Fatalf("unexpected output path: %q", cfg.Output.Path)
	}
	if cfg.OutputFormat() != config.FormatSQLite {
		t.Fatalf("expected sqlite inferred from extension, got %q", cfg.OutputFormat())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[output]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative workers", func(c *config.Config) { c.Classify.Workers = -1 }, "classify.workers"},
		{"zero page threshold", func(c *config.Config) { c.Classify.PageThreshold = 0 }, "classify.page_threshold"},
		{"bad isolation", func(c *config.Config) { c.Classify.Isolation = "thread" }, "classify.isolation"},
		{"zero batch", func(c *config.Config) { c.Output.BatchSize = 0 }, "output.batch_size"},
		{"zero queue", func(c *config.Config) { c.Output.QueueCapacity = 0 }, "output.queue_capacity"},
		{"bad format", func(c *config.Config) { c.Output.Format = "parquet" }, "output.format"},
		{"zero interval", func(c *config.Config) { c.Progress.IntervalSeconds = 0 }, "progress.interval_seconds"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"publish attempts", func(c *config.Config) {
			c.Publish.GCSBucket = "bucket"
			c.Publish.MaxAttempts = 0
		}, "publish.max_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPublishBucketFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PDFTRIAGE_GCS_BUCKET", " scans-bucket ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Publish.GCSBucket != "scans-bucket" {
		t.Fatalf("unexpected bucket: %q", cfg.Publish.GCSBucket)
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if cfg.Output.BatchSize != 1000 {
		t.Fatalf("unexpected sample batch size: %d", cfg.Output.BatchSize)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]string{
		"out.csv":      config.FormatCSV,
		"out.DB":       config.FormatSQLite,
		"out.sqlite3":  config.FormatSQLite,
		"no-extension": config.FormatCSV,
		"dir/x.sqlite": config.FormatSQLite,
	}
	for input, want := range cases {
		if got := config.FormatForPath(input); got != want {
			t.Fatalf("FormatForPath(%q) = %q, want %q", input, got, want)
		}
	}
}
