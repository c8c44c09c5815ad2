package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeScan()
	c.normalizeClassify()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizePublish()
	return nil
}

// Normalize re-applies normalization after flag overrides.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizeScan() {
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	exts := make([]string, 0, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultExtensions...)
	}
	c.Scan.Extensions = exts
}

func (c *Config) normalizeClassify() {
	c.Classify.Isolation = strings.ToLower(strings.TrimSpace(c.Classify.Isolation))
	if c.Classify.Isolation == "" {
		c.Classify.Isolation = defaultIsolation
	}
}

func (c *Config) normalizeOutput() error {
	if strings.TrimSpace(c.Output.Path) == "" {
		c.Output.Path = defaultOutputPath
	}
	var err error
	if c.Output.Path, err = expandPath(strings.TrimSpace(c.Output.Path)); err != nil {
		return fmt.Errorf("output.path: %w", err)
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "sqlite3" {
		c.Output.Format = FormatSQLite
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.GCSBucket = strings.TrimSpace(c.Publish.GCSBucket)
	if c.Publish.GCSBucket == "" {
		if value, ok := os.LookupEnv("PDFTRIAGE_GCS_BUCKET"); ok {
			c.Publish.GCSBucket = strings.TrimSpace(value)
		}
	}
	c.Publish.GCSObject = strings.TrimPrefix(strings.TrimSpace(c.Publish.GCSObject), "/")
}
