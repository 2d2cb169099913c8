package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harrison/chrouter/internal/config"
	"github.com/harrison/chrouter/internal/display"
	"github.com/harrison/chrouter/internal/filelock"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file and paths",
		Long: `Load the configuration and check:
  - sourcePath and destPath are set
  - Option values parse (pollInterval, logLevel, booleans)
  - sourcePath is a readable directory
  - destPath is a directory or can be created
  - No other chrouter holds the destination lock

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return validateConfigWithOutput(configPath, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	addConfigFlag(cmd)

	return cmd
}

// validateConfigWithOutput validates configPath with custom output writer (for testing)
func validateConfigWithOutput(configPath string, output io.Writer) error {
	fmt.Fprintf(output, "Validating %s:\n", configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		display.WarnConfigNotFound(configPath).Display(output)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(output, "✗ Failed to load configuration\n")
		fmt.Fprintf(output, "  Error: %v\n", err)
		return fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	fmt.Fprintf(output, "✓ Loaded %d option(s)\n", len(cfg.Options))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(output, "✗ %v\n", err)
		if errors.Is(err, config.ErrConfigMissing) {
			fmt.Fprintf(output, "  Add %s=<dir> and %s=<dir> to %s\n", config.KeySourcePath, config.KeyDestPath, configPath)
		}
		fmt.Fprintf(output, "\n✗ Validation failed\n")
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintf(output, "✓ Required options present\n")

	if err := cfg.CheckPaths(); err != nil {
		fmt.Fprintf(output, "✗ %v\n", err)
		fmt.Fprintf(output, "\n✗ Validation failed\n")
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintf(output, "✓ Source %s is readable\n", cfg.SourcePath)
	fmt.Fprintf(output, "✓ Destination %s is usable\n", cfg.DestPath)
	if warning, inside := display.WarnDestInsideSource(cfg.SourcePath, cfg.DestPath); inside {
		warning.Display(output)
	}

	lock, err := filelock.AcquireInstanceLock(cfg.DestPath)
	if err != nil {
		fmt.Fprintf(output, "✗ %v\n", err)
		fmt.Fprintf(output, "\n✗ Validation failed\n")
		return fmt.Errorf("destination is busy: %w", err)
	}
	lock.Unlock()
	fmt.Fprintf(output, "✓ Destination is not locked by another chrouter\n")

	home, err := config.EnsureHome()
	if err != nil {
		fmt.Fprintf(output, "✗ %v\n", err)
		fmt.Fprintf(output, "\n✗ Validation failed\n")
		return err
	}
	fmt.Fprintf(output, "✓ State directory %s\n", home)

	fmt.Fprintf(output, "  Poll interval: %s\n", cfg.PollInterval)
	fmt.Fprintf(output, "  Log level: %s\n", cfg.LogLevel)
	fmt.Fprintf(output, "  Log dir: %s\n", valueOrDisabled(cfg.LogDir))
	fmt.Fprintf(output, "  History: %s\n", valueOrDisabled(cfg.HistoryPath))
	fmt.Fprintf(output, "  Verify companion PDF: %t\n", cfg.VerifyCompanionPDF)
	fmt.Fprintf(output, "  Injection date as sample date: %t\n", cfg.InjectionDateAsSampleDate)

	fmt.Fprintf(output, "\n✓ Configuration is valid!\n")
	return nil
}

func valueOrDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
