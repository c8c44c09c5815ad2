package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"pdftriage/internal/record"
	"pdftriage/internal/store"
)

type categoryTotals struct {
	files int64
	bytes uint64
	pages uint64
}

type storeReport struct {
	total      int64
	categories map[record.Category]*categoryTotals
	errors     map[string]int64
}

func buildReport(path, format string) (*storeReport, error) {
	rep := &storeReport{
		categories: make(map[record.Category]*categoryTotals, len(record.Categories())),
		errors:     make(map[string]int64),
	}
	for _, cat := range record.Categories() {
		rep.categories[cat] = &categoryTotals{}
	}
	err := store.ReadRecords(path, format, func(rec record.Record) error {
		rep.total++
		totals := rep.categories[rec.Category]
		if totals == nil {
			totals = rep.categories[record.Unknown]
		}
		totals.files++
		totals.bytes += rec.SizeBytes
		totals.pages += rec.PageCount
		if rec.HasError() {
			rep.errors[rec.Error]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	return rep, nil
}

type errorCount struct {
	message string
	count   int64
}

func (r *storeReport) topErrors(limit int) []errorCount {
	out := make([]errorCount, 0, len(r.errors))
	for msg, n := range r.errors {
		out = append(out, errorCount{message: msg, count: n})
	}
	slices.SortFunc(out, func(a, b errorCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.message, b.message)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *storeReport) render(out io.Writer, errorLimit int) {
	rows := make([][]string, 0, len(r.categories)+1)
	for _, cat := range record.Categories() {
		t := r.categories[cat]
		rows = append(rows, []string{
			string(cat),
			strconv.FormatInt(t.files, 10),
			formatPercent(t.files, r.total),
			formatBytes(t.bytes),
			strconv.FormatUint(t.pages, 10),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Files", "Share", "Size", "Pages"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Total records: %d\n", r.total)

	if errorLimit == 0 || len(r.errors) == 0 {
		return
	}
	errRows := make([][]string, 0, len(r.errors))
	for _, e := range r.topErrors(errorLimit) {
		errRows = append(errRows, []string{e.message, strconv.FormatInt(e.count, 10)})
	}
	fmt.Fprintln(out, renderTable([]string{"Error", "Files"}, errRows, []columnAlignment{alignLeft, alignRight}))
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var errorLimit int

	cmd := &cobra.Command{
		Use:   "report [store]",
		Short: "Summarize an existing output store by category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Output.Path
			if len(args) == 1 {
				path = args[0]
			}
			if !cmd.Flags().Changed("format") && len(args) == 0 {
				format = cfg.Output.Format
			}
			rep, err := buildReport(path, format)
			if err != nil {
				return err
			}
			rep.render(cmd.OutOrStdout(), errorLimit)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Store format: csv or sqlite (default: from extension)")
	cmd.Flags().IntVar(&errorLimit, "errors", 10, "Show the most common error messages (0 to hide, -1 for all)")
	return cmd
}
