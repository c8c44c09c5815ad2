package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClassify(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateClassify() error {
	if c.Classify.Workers < 0 {
		return errors.New("classify.workers must be zero (auto) or positive")
	}
	if c.Classify.PageThreshold == 0 {
		return errors.New("classify.page_threshold must be positive")
	}
	if c.Classify.SizeThresholdBytes == 0 {
		return errors.New("classify.size_threshold_bytes must be positive")
	}
	switch c.Classify.Isolation {
	case IsolationProcess, IsolationInline:
	default:
		return fmt.Errorf("classify.isolation must be %q or %q", IsolationProcess, IsolationInline)
	}
	if c.Classify.InspectTimeoutSeconds <= 0 {
		return errors.New("classify.inspect_timeout_seconds must be positive")
	}
	if c.Classify.ChildMemoryLimitMB < 0 {
		return errors.New("classify.child_memory_limit_mb must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New("output.path must be set")
	}
	switch c.Output.Format {
	case "", FormatCSV, FormatSQLite:
	default:
		return fmt.Errorf("output.format must be %q or %q", FormatCSV, FormatSQLite)
	}
	if err := ensurePositive("output.batch_size", c.Output.BatchSize); err != nil {
		return err
	}
	return ensurePositive("output.queue_capacity", c.Output.QueueCapacity)
}

func (c *Config) validateProgress() error {
	return ensurePositive("progress.interval_seconds", c.Progress.IntervalSeconds)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.GCSBucket == "" {
		return nil
	}
	if err := ensurePositive("publish.timeout_seconds", c.Publish.TimeoutSeconds); err != nil {
		return err
	}
	return ensurePositive("publish.max_attempts", c.Publish.MaxAttempts)
}

func ensurePositive(key string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	return nil
}
