package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harrison/chrouter/internal/config"
	"github.com/harrison/chrouter/internal/display"
	"github.com/harrison/chrouter/internal/filelock"
	"github.com/harrison/chrouter/internal/fileutil"
	"github.com/harrison/chrouter/internal/history"
	"github.com/harrison/chrouter/internal/logger"
	"github.com/harrison/chrouter/internal/models"
	"github.com/harrison/chrouter/internal/pipeline"
	"github.com/harrison/chrouter/internal/router"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan the source tree and route signal files",
		Long: `Scan sourcePath for .ch signal files and route each one into destPath.

Header-only files are routed when their run directory holds a companion
PDF report; full-sample files are always exported to {destPath}/xml.
Metadata missing from the binary header is read from report00.csv.

The command runs a cycle, sleeps for pollInterval and repeats until
interrupted. SIGINT or SIGTERM stop it after the file being routed;
SIGHUP starts the next cycle immediately.

Configuration is loaded from config.ini unless --config is given.
CLI flags override configuration file settings.

Examples:
  chrouter run                          # Run until interrupted
  chrouter run --once                   # Route what is there now and exit
  chrouter run --interval 30s           # Poll every 30 seconds
  chrouter run --config /etc/chrouter.yaml --log-level debug`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	addConfigFlag(cmd)
	cmd.Flags().Bool("once", false, "Run a single scan cycle and exit")
	cmd.Flags().Duration("interval", 0, "Sleep between cycles (overrides pollInterval)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run logs")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Only flags the user actually set override the file
	var (
		intervalFlag *time.Duration
		levelFlag    *string
		logDirFlag   *string
	)
	if cmd.Flags().Changed("interval") {
		d, _ := cmd.Flags().GetDuration("interval")
		intervalFlag = &d
	}
	if cmd.Flags().Changed("log-level") {
		s, _ := cmd.Flags().GetString("log-level")
		levelFlag = &s
	}
	if cmd.Flags().Changed("log-dir") {
		s, _ := cmd.Flags().GetString("log-dir")
		logDirFlag = &s
	}
	cfg.MergeWithFlags(intervalFlag, levelFlag, logDirFlag)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.CheckPaths(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if warning, inside := display.WarnDestInsideSource(cfg.SourcePath, cfg.DestPath); inside {
		warning.Display(cmd.ErrOrStderr())
	}

	once, _ := cmd.Flags().GetBool("once")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	wake := make(chan struct{}, 1)
	go forwardWake(ctx, hup, wake)

	return runRouter(ctx, cfg, once, wake, cmd.OutOrStdout())
}

// forwardWake turns SIGHUP deliveries into non-blocking wake values.
func forwardWake(ctx context.Context, hup <-chan os.Signal, wake chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}

// runRouter wires the loop for a validated configuration and runs it.
func runRouter(ctx context.Context, cfg *config.Config, once bool, wake <-chan struct{}, output io.Writer) error {
	lock, err := filelock.AcquireInstanceLock(cfg.DestPath)
	if err != nil {
		return fmt.Errorf("failed to lock destination: %w", err)
	}
	defer lock.Unlock()

	// Console output always, run logs when a log directory is configured
	multiLog := &multiLogger{
		loggers: []pipeline.Logger{logger.NewConsoleLogger(output, cfg.LogLevel)},
	}
	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		multiLog.loggers = append(multiLog.loggers, fileLog)
		multiLog.LogDebug(fmt.Sprintf("run log: %s", fileLog.RunFile()))
	}

	// The ledger is audit-only; routing continues without it
	var recorder pipeline.Recorder
	if cfg.HistoryPath != "" {
		store, err := history.NewStore(cfg.HistoryPath)
		if err != nil {
			multiLog.LogWarn(fmt.Sprintf("history disabled: %v", err))
		} else {
			defer store.Close()
			recorder = store
		}
	}

	r := router.New(router.Options{
		DestPath:                  cfg.DestPath,
		InjectionDateAsSampleDate: cfg.InjectionDateAsSampleDate,
		VerifyCompanionPDF:        cfg.VerifyCompanionPDF,
		Logger:                    multiLog,
	}, fileutil.NewProcessedSet())

	loop := pipeline.New(cfg.SourcePath, cfg.PollInterval, r, multiLog, recorder)
	if once {
		loop.RunCycle(ctx)
		return nil
	}
	return loop.Run(ctx, wake)
}

// multiLogger implements pipeline.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []pipeline.Logger
}

// LogDebug forwards to all loggers
func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

// LogCycleStart forwards to all loggers
func (ml *multiLogger) LogCycleStart(report models.CycleReport) {
	for _, l := range ml.loggers {
		l.LogCycleStart(report)
	}
}

// LogRouteOutcome forwards to all loggers
func (ml *multiLogger) LogRouteOutcome(out models.RouteOutcome) {
	for _, l := range ml.loggers {
		l.LogRouteOutcome(out)
	}
}

// LogCycleSummary forwards to all loggers
func (ml *multiLogger) LogCycleSummary(report models.CycleReport) {
	for _, l := range ml.loggers {
		l.LogCycleSummary(report)
	}
}
