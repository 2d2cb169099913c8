package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/chrouter/internal/models"
)

// FileLogger logs cycles to timestamped per-run files in a log directory
// and maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a new FileLogger writing to logDir at the given level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== chrouter Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message))
}

// LogCycleStart logs the number of candidates found by a scan at INFO level.
func (fl *FileLogger) LogCycleStart(report models.CycleReport) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("\n[%s] %s (cycle %s)\n",
		time.Now().Format("15:04:05"), formatCycleStart(report), report.ID))
}

// LogRouteOutcome logs one routed file with its destination paths and
// per-file errors. Skipped files are logged at DEBUG.
func (fl *FileLogger) LogRouteOutcome(out models.RouteOutcome) {
	level := "info"
	if out.Skipped {
		level = "debug"
	}
	if !fl.shouldLog(level) {
		return
	}

	ts := time.Now().Format("15:04:05")
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s\n", ts, out.Action(), describeOutcome(out))
	fmt.Fprintf(&sb, "[%s]   magic: %s\n", ts, models.FormatMagic(out.Magic))
	if out.CompanionPath != "" {
		fmt.Fprintf(&sb, "[%s]   companion: %s\n", ts, out.CompanionPath)
	}
	if out.XMLPath != "" {
		fmt.Fprintf(&sb, "[%s]   xml: %s\n", ts, out.XMLPath)
	}
	if out.PDFPath != "" {
		fmt.Fprintf(&sb, "[%s]   pdf: %s\n", ts, out.PDFPath)
	}
	for _, e := range out.Errors {
		fmt.Fprintf(&sb, "[%s]   error: %s\n", ts, e.Error())
	}
	fl.writeRunLog(sb.String())
}

// LogCycleSummary logs the counts and every error of a cycle.
func (fl *FileLogger) LogCycleSummary(report models.CycleReport) {
	ts := time.Now().Format("15:04:05")
	errs := report.Errors()

	var sb strings.Builder
	if fl.shouldLog("info") {
		fmt.Fprintf(&sb, "[%s] === Cycle Summary ===\n", ts)
		fmt.Fprintf(&sb, "[%s] Cycle: %s\n", ts, report.ID)
		fmt.Fprintf(&sb, "[%s] Found: %d\n", ts, report.Found)
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatCounts(report, false))
		fmt.Fprintf(&sb, "[%s] Duration: %s\n", ts, formatDuration(report.Duration))
	}
	if len(errs) > 0 && fl.shouldLog("warn") {
		fmt.Fprintf(&sb, "[%s] Errors:\n", ts)
		for _, e := range errs {
			fmt.Fprintf(&sb, "[%s]   - %s\n", ts, e.Error())
		}
	}
	if sb.Len() > 0 {
		fl.writeRunLog(sb.String())
	}
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
