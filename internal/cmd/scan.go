package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harrison/chrouter/internal/companion"
	"github.com/harrison/chrouter/internal/config"
	"github.com/harrison/chrouter/internal/display"
	"github.com/harrison/chrouter/internal/fileutil"
	"github.com/harrison/chrouter/internal/models"
	"github.com/harrison/chrouter/internal/signature"
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List candidate signal files without routing them",
		Long: `Walk sourcePath the way a routing cycle does and print every candidate
with its signature, format and whether its run directory has a companion
PDF report. Nothing is written.

With --all, subtrees normally pruned (DEFAULT, SNAPSHOT, DEMO) are walked
too and their files are marked as excluded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			return scanWithOutput(cfg, all, cmd.OutOrStdout())
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().Bool("all", false, "Include files in excluded subtrees")

	return cmd
}

// scanWithOutput lists candidates under cfg.SourcePath (for testing)
func scanWithOutput(cfg *config.Config, all bool, output io.Writer) error {
	if cfg.SourcePath == "" {
		return fmt.Errorf("%w: %s", config.ErrConfigMissing, config.KeySourcePath)
	}

	opts := fileutil.DefaultCandidateOptions(nil)
	if all {
		opts.ExcludeMarkers = nil
	}

	result, err := fileutil.ScanCandidates(cfg.SourcePath, opts)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(output, "\n=== Candidates in %s ===\n\n", cfg.SourcePath)

	counts := make(map[models.FormatKind]int)
	excluded := 0
	for _, path := range result.Files {
		sig := signature.Classify(path)
		counts[sig.Kind]++

		switch {
		case sig.Kind.CanReadSamples():
			green.Fprintf(output, "%-18s", sig.Kind)
		case sig.Kind.CanReadHeader():
			yellow.Fprintf(output, "%-18s", sig.Kind)
		default:
			gray.Fprintf(output, "%-18s", sig.Kind)
		}
		fmt.Fprintf(output, " %s", path)

		if doc, err := companion.Find(filepath.Dir(path)); err == nil && doc != "" {
			fmt.Fprintf(output, " [pdf]")
		}
		if all && excludedDir(cfg.SourcePath, filepath.Dir(path)) {
			excluded++
			yellow.Fprintf(output, " (excluded)")
		}
		if sig.Err != nil {
			red.Fprintf(output, " (%v)", sig.Err)
		}
		fmt.Fprintln(output)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(output)
		display.WarnUnreadableDirs(result.Errors).Display(output)
	}

	fmt.Fprintln(output)
	cyan.Fprintf(output, "Summary:\n")
	fmt.Fprintf(output, "  Candidates: %d\n", len(result.Files))
	for _, kind := range []models.FormatKind{models.FormatFullSample, models.FormatHeaderOnly, models.FormatHeaderOnlyAlt, models.FormatUnknown} {
		if counts[kind] > 0 {
			fmt.Fprintf(output, "  %s: %d\n", kind, counts[kind])
		}
	}
	if all {
		fmt.Fprintf(output, "  Excluded: %d\n", excluded)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(output, "  Unreadable directories: %d\n", len(result.Errors))
	}

	return nil
}

// excludedDir reports whether a regular cycle would have pruned dir.
// The root itself is never pruned.
func excludedDir(root, dir string) bool {
	return dir != filepath.Clean(root) && fileutil.Excluded(dir, fileutil.DefaultExcludeMarkers)
}
