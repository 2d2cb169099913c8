package cmd

import (
	"fmt"

	"github.com/harrison/chrouter/internal/config"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for chrouter
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chrouter",
		Short: "Route ChemStation signal files to an archive tree",
		Long: `chrouter watches an instrument data tree for ChemStation .ch signal
files, extracts each sample's name, date and method, exports the sample
record to XML and copies the run's companion PDF report into a
destination tree named after the sample.

Files are routed once per process; the source tree is never modified.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewClassifyCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewValidateCommand())

	return cmd
}

// addConfigFlag registers the --config flag shared by the subcommands.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", config.DefaultConfigFile, "Path to config file (key=value, or YAML by extension)")
}

// loadConfig loads the file named by --config. Callers validate.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, nil
}
