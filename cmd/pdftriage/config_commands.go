package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pdftriage/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

type initOptions struct {
	path      string
	overwrite bool
	output    string
	workers   int
}

func newConfigInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter configuration file",
		Long: `Create a starter configuration file.

Without --output or --workers the commented sample is written. With either
flag the defaults are written with those values filled in, ready for a scan.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Overwrite existing configuration if present")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Record store to write into [output] path")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Worker count to write into [classify] workers")
	return cmd
}

func runConfigInit(out io.Writer, opts initOptions) error {
	if opts.workers < 0 {
		return errors.New("--workers must be zero (auto) or positive")
	}
	target, err := resolveInitTarget(opts.path)
	if err != nil {
		return err
	}
	if !opts.overwrite {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("check config path: %w", err)
		}
	}

	cfg := config.Default()
	if opts.output == "" && opts.workers == 0 {
		if err := config.CreateSample(target); err != nil {
			return fmt.Errorf("create sample config: %w", err)
		}
	} else {
		if opts.output != "" {
			cfg.Output.Path = strings.TrimSpace(opts.output)
		}
		cfg.Classify.Workers = opts.workers
		if err := writeSeededConfig(target, cfg); err != nil {
			return err
		}
	}

	workers := "one per CPU"
	if cfg.Classify.Workers > 0 {
		workers = strconv.Itoa(cfg.Classify.Workers)
	}
	fmt.Fprintf(out, "Wrote configuration to %s\n", target)
	fmt.Fprintf(out, "  [output]   path = %s (%s store, resume %t)\n", cfg.Output.Path, cfg.OutputFormat(), cfg.Output.Resume)
	fmt.Fprintf(out, "  [classify] workers = %s, isolation = %s\n", workers, cfg.Classify.Isolation)
	fmt.Fprintln(out, "Later scans resume from the store named in [output]; point it at a new file to start over.")
	return nil
}

func resolveInitTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		target, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return target, nil
	}
	target, err := config.ExpandPath(raw)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return target, nil
}

// writeSeededConfig validates cfg on a normalized copy, then writes it as
// given so relative paths stay relative.
func writeSeededConfig(target string, cfg config.Config) error {
	check := cfg
	check.Scan.Extensions = slices.Clone(cfg.Scan.Extensions)
	if err := check.Normalize(); err != nil {
		return fmt.Errorf("seeded config: %w", err)
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("seeded config: %w", err)
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
