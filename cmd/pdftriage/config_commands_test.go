package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdftriage/internal/config"
)

func TestConfigInitValidateShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "pdftriage", "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("init output should name the file: %q", out)
	}
	for _, want := range []string{"[output]", "[classify]", "one per CPU"} {
		if !strings.Contains(out, want) {
			t.Fatalf("init output missing %q: %q", want, out)
		}
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output: %q", out)
	}

	out, _, err = runCLI(t, target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, section := range []string{"[scan]", "[classify]", "[output]"} {
		if !strings.Contains(out, section) {
			t.Fatalf("config show missing %s: %q", section, out)
		}
	}
}

func TestConfigValidateReportsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[classify]\nthreads = 4\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, path, "config", "validate"); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}

func TestConfigInitSeedsOutputAndWorkers(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")
	store := filepath.Join(t.TempDir(), "scan.db")

	out, _, err := runCLI(t, "", "config", "init", "--path", target, "--output", store, "--workers", "6")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "path = "+store+" (sqlite store") || !strings.Contains(out, "workers = 6") {
		t.Fatalf("init output should describe the seeded values: %q", out)
	}

	cfg, _, _, err := config.Load(target)
	if err != nil {
		t.Fatalf("load seeded config: %v", err)
	}
	if cfg.Output.Path != store || cfg.Classify.Workers != 6 || cfg.OutputFormat() != config.FormatSQLite {
		t.Fatalf("unexpected seeded config: output %q workers %d", cfg.Output.Path, cfg.Classify.Workers)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", filepath.Join(t.TempDir(), "x.toml"), "--workers=-1"); err == nil {
		t.Fatal("expected negative workers to be rejected")
	}
}
