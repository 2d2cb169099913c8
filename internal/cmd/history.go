package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/chrouter/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently routed files and ledger totals",
		Long: `Display the most recent entries of the routing ledger including:
  - Source file, format and metadata source
  - Action taken (exported, copied, skipped, failed)
  - Destination artifacts
  - Per-file errors

The ledger is read from historyPath. It records what happened; it is
never used to decide whether a file is routed again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return showHistory(cmd.Context(), cfg.HistoryPath, limit, cmd.OutOrStdout())
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().Int("limit", 20, "Number of entries to show (0 = all)")

	return cmd
}

// showHistory prints ledger entries and totals from dbPath
func showHistory(ctx context.Context, dbPath string, limit int, w io.Writer) error {
	if dbPath == "" {
		fmt.Fprintln(w, "History is disabled (historyPath is empty)")
		return nil
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(w, "No routing history found at %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("get recent entries: %w", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get history stats: %w", err)
	}

	printEntries(w, entries)
	printStats(w, stats)
	return nil
}

// printEntries formats ledger entries, most recent first
func printEntries(w io.Writer, entries []*history.Entry) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "\n=== Recent Routing (%d) ===\n\n", len(entries))
	if len(entries) == 0 {
		fmt.Fprintln(w, "No files routed yet")
		return
	}

	for i, e := range entries {
		actionColor(e.Action).Fprintf(w, "%s", e.Action)
		fmt.Fprintf(w, " %s\n", e.Path)

		fmt.Fprintf(w, "  Time: %s ", e.RecordedAt.Local().Format("2006-01-02 15:04:05"))
		gray.Fprintf(w, "(cycle %s)\n", shortCycleID(e.CycleID))
		fmt.Fprintf(w, "  Format: %s, metadata from %s\n", e.Format, e.Source)

		if m := e.Metadata; m.SampleName != "" || m.SampleDate != "" || m.AnalysisMethod != "" {
			fmt.Fprintf(w, "  Sample: %q %q method %q\n", m.SampleName, m.SampleDate, m.AnalysisMethod)
		}
		if e.XMLPath != "" {
			fmt.Fprintf(w, "  XML: %s\n", e.XMLPath)
		}
		if e.PDFPath != "" {
			fmt.Fprintf(w, "  PDF: %s\n", e.PDFPath)
		}
		for _, msg := range e.Errors {
			fmt.Fprintf(w, "  Error: ")
			red.Fprintf(w, "%s\n", strings.TrimSpace(msg))
		}

		if i < len(entries)-1 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
}

// printStats prints ledger totals with per-action counts in a stable order
func printStats(w io.Writer, stats *history.Stats) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "Totals:\n")
	fmt.Fprintf(w, "  Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "  Files: %d\n", stats.Outcomes)

	actions := make([]string, 0, len(stats.ByAction))
	for action := range stats.ByAction {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	for _, action := range actions {
		fmt.Fprintf(w, "  %s: %d\n", action, stats.ByAction[action])
	}

	fmt.Fprintf(w, "  With errors: ")
	if stats.Failed > 0 {
		red.Fprintf(w, "%d\n", stats.Failed)
	} else {
		fmt.Fprintf(w, "0\n")
	}

	if !stats.LastSeen.IsZero() {
		fmt.Fprintf(w, "  Last routed: %s (%s ago)\n",
			stats.LastSeen.Local().Format("2006-01-02 15:04:05"),
			time.Since(stats.LastSeen).Round(time.Second))
	}
}

// actionColor picks the color for a RouteOutcome action label
func actionColor(action string) *color.Color {
	switch action {
	case "exported", "copied", "exported+copied":
		return color.New(color.FgGreen)
	case "failed":
		return color.New(color.FgRed)
	case "skipped":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgHiBlack)
	}
}

func shortCycleID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
