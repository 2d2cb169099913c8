package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/harrison/chrouter/internal/models"
	"github.com/harrison/chrouter/internal/signature"
	"github.com/spf13/cobra"
)

// NewClassifyCommand creates the classify command
func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <file>...",
		Short: "Print the signature and format of signal files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyWithOutput(args, cmd.OutOrStdout())
		},
	}

	return cmd
}

// classifyWithOutput prints one line per file. Unreadable files classify as
// unknown and are reported, but only a run where every file failed is an error.
func classifyWithOutput(paths []string, output io.Writer) error {
	failed := 0
	for _, path := range paths {
		sig := signature.Classify(path)
		fmt.Fprintf(output, "%s: %s %s", path, models.FormatMagic(sig.Magic), sig.Kind)
		if v := sig.Kind.Version(); v != "" {
			fmt.Fprintf(output, " (version %s)", v)
		}
		if sig.Err != nil {
			failed++
			fmt.Fprintf(output, " - %v", sig.Err)
		}
		fmt.Fprintln(output)
	}

	if failed == len(paths) {
		return errors.New("no file could be classified")
	}
	return nil
}
