package main

import (
	"time"

	"github.com/spf13/cobra"

	"pdftriage/internal/inspect"
)

// newInspectChildCommand is the child side of process isolation. It prints a
// single JSON reply on stdout and reports failures through its exit status.
func newInspectChildCommand() *cobra.Command {
	var limits inspect.ChildLimits

	cmd := &cobra.Command{
		Use:         inspect.ChildCommand + " <path>",
		Short:       "Inspect one document (internal)",
		Hidden:      true,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			code := inspect.RunChild(cmd.Context(), cmd.OutOrStdout(), args[0], limits)
			if code != inspect.ChildExitOK {
				return exitCodeError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limits.MemoryLimitMB, "memory-limit-mb", 0, "Address space limit in MiB (0 for none)")
	cmd.Flags().DurationVar(&limits.Timeout, "timeout", time.Duration(0), "Parse deadline (0 for none)")
	return cmd
}
