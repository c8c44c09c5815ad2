package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pdftriage/internal/config"
	"pdftriage/internal/inspect"
	"pdftriage/internal/logging"
	"pdftriage/internal/pipeline"
	"pdftriage/internal/progress"
	"pdftriage/internal/publish"
	"pdftriage/internal/record"
)

type scanFlags struct {
	output           string
	workers          int
	noResume         bool
	format           string
	isolation        string
	batchSize        int
	queueCapacity    int
	progressInterval time.Duration
	extensions       []string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "Output store path (.csv or .db)")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Number of classification workers (default: one per CPU)")
	flags.BoolVar(&f.noResume, "no-resume", false, "Classify every file even if the store already has a record for it")
	flags.StringVar(&f.format, "format", "", "Store format: csv or sqlite (default: from output extension)")
	flags.StringVar(&f.isolation, "isolation", "", "Inspection isolation: process or inline")
	flags.IntVar(&f.batchSize, "batch-size", 0, "Records per durable write")
	flags.IntVar(&f.queueCapacity, "queue-capacity", 0, "Records buffered between workers and the writer")
	flags.DurationVar(&f.progressInterval, "progress-interval", 0, "Progress log cadence, e.g. 3s")
	flags.StringSliceVar(&f.extensions, "ext", nil, "File extensions to scan (repeatable)")
}

// apply copies explicitly set flags onto cfg and re-validates it.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output.Path = f.output
	}
	if changed("workers") {
		cfg.Classify.Workers = f.workers
	}
	if changed("no-resume") {
		cfg.Output.Resume = !f.noResume
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("isolation") {
		cfg.Classify.Isolation = f.isolation
	}
	if changed("batch-size") {
		cfg.Output.BatchSize = f.batchSize
	}
	if changed("queue-capacity") {
		cfg.Output.QueueCapacity = f.queueCapacity
	}
	if changed("progress-interval") {
		cfg.Progress.IntervalSeconds = int(math.Max(1, math.Round(f.progressInterval.Seconds())))
	}
	if changed("ext") {
		cfg.Scan.Extensions = append([]string(nil), f.extensions...)
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return cfg.EnsureDirectories()
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Classify every document under a directory into the output store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *loaded
			cfg.Scan.Extensions = append([]string(nil), loaded.Scan.Extensions...)
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}

			logger, err := ctx.newLogger(&cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			inspector, err := newInspector(&cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, runErr := pipeline.Run(runCtx, pipeline.OptionsFromConfig(&cfg, args[0], inspector), logger)
			if errors.Is(runErr, pipeline.ErrSetup) {
				return runErr
			}

			out := cmd.OutOrStdout()
			printScanSummary(out, summary, shouldColorize(out))
			if runErr != nil {
				return runErr
			}

			if cfg.Publish.GCSBucket != "" {
				return publishStore(runCtx, out, &cfg, logger)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newInspector(cfg *config.Config) (inspect.Inspector, error) {
	if cfg.Classify.Isolation == config.IsolationInline {
		return inspect.NewPDFInspector(cfg.InspectTimeout()), nil
	}
	inspector, err := inspect.NewProcessInspector(cfg.InspectTimeout(), cfg.Classify.ChildMemoryLimitMB)
	if err != nil {
		return nil, fmt.Errorf("configure process isolation: %w", err)
	}
	return inspector, nil
}

func publishStore(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	timeout := time.Duration(cfg.Publish.TimeoutSeconds) * time.Second
	publisher, client, err := publish.NewGCSPublisher(ctx, cfg.Publish.GCSBucket, cfg.Publish.GCSObject, timeout, cfg.Publish.MaxAttempts, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	uri, err := publisher.Publish(ctx, cfg.Output.Path)
	if err != nil {
		logger.Error("store upload failed", logging.Error(err), logging.String("store", cfg.Output.Path))
		return err
	}
	fmt.Fprintln(out, renderStatusLine("Published", statusOK, uri, shouldColorize(out)))
	return nil
}

func printScanSummary(out io.Writer, s pipeline.Summary, colorize bool) {
	for _, line := range renderSectionHeader("Scan summary", colorize) {
		fmt.Fprintln(out, line)
	}
	status, message := statusOK, "Complete"
	if s.Interrupted {
		status, message = statusWarn, "Interrupted, resume to continue"
	}
	if s.Dropped > 0 {
		status, message = statusError, fmt.Sprintf("%d records not persisted", s.Dropped)
	}
	fmt.Fprintln(out, renderStatusLine("Status", status, message, colorize))
	fmt.Fprintln(out, renderStatusLine("Run ID", statusInfo, s.RunID, colorize))

	counts := []struct {
		label string
		value int64
	}{
		{"Processed", s.Processed},
		{"Written", s.Written},
		{"Resumed", s.Resumed},
		{"Duplicates", s.Duplicates},
		{"Traversal errors", s.TraversalErrors},
	}
	for _, c := range counts {
		kind := statusInfo
		if c.label == "Traversal errors" && c.value > 0 {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(c.label, kind, strconv.FormatInt(c.value, 10), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo,
		fmt.Sprintf("%s (%.1f files/s)", s.Elapsed.Round(time.Millisecond), progress.Rate(s.Processed, s.Elapsed)), colorize))

	rows := make([][]string, 0, len(record.Categories()))
	for _, cat := range record.Categories() {
		n := s.Categories[cat]
		rows = append(rows, []string{string(cat), strconv.FormatInt(n, 10), formatPercent(n, s.Processed)})
	}
	fmt.Fprintln(out, renderTable([]string{"Category", "Files", "Share"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
}
