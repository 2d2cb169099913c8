// Package logger provides logging implementations for chrouter cycles.
//
// The logger package offers leveled messages plus structured logging of scan
// cycles, per-file routing outcomes and cycle summaries. Implementations are
// thread-safe and support console and file destinations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/chrouter/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs cycle progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive colors.
// NO_COLOR (via color.NoColor) always wins.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		level = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

// levelColor returns the color used for a level tag.
func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

// LogCycleStart logs the number of candidates found by a scan at INFO level.
// Format: "[HH:MM:SS] Cycle <id>: <n> candidate(s) in <root>"
func (cl *ConsoleLogger) LogCycleStart(report models.CycleReport) {
	cl.LogInfo(formatCycleStart(report))
}

// LogRouteOutcome logs one routed file. Skipped files are logged at DEBUG,
// everything else at INFO.
func (cl *ConsoleLogger) LogRouteOutcome(out models.RouteOutcome) {
	level := "info"
	if out.Skipped {
		level = "debug"
	}
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	action := out.Action()
	if cl.colorOutput {
		action = actionColor(out).Sprint(action)
	}
	fmt.Fprintf(cl.writer, "[%s] %s %s\n", timestamp(), action, describeOutcome(out))
}

// LogCycleSummary logs the counts and per-file errors of a cycle at INFO level.
// The error list is filtered at WARN, so it survives a warn log level.
func (cl *ConsoleLogger) LogCycleSummary(report models.CycleReport) {
	if cl.writer == nil {
		return
	}

	errs := report.Errors()
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var sb strings.Builder
	if cl.shouldLog("info") {
		header := "=== Cycle Summary ==="
		if cl.colorOutput {
			header = color.New(color.Bold).Sprint(header)
		}
		fmt.Fprintf(&sb, "[%s] %s\n", ts, header)
		fmt.Fprintf(&sb, "[%s] Found: %d\n", ts, report.Found)
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatCounts(report, cl.colorOutput))
		fmt.Fprintf(&sb, "[%s] Duration: %s\n", ts, formatDuration(report.Duration))
	}
	if len(errs) > 0 && cl.shouldLog("warn") {
		label := "Errors:"
		if cl.colorOutput {
			label = color.New(color.FgRed).Sprint(label)
		}
		fmt.Fprintf(&sb, "[%s] %s\n", ts, label)
		for _, e := range errs {
			fmt.Fprintf(&sb, "[%s]   - %s\n", ts, e.Error())
		}
	}
	cl.writer.Write([]byte(sb.String()))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string) {}
func (n *NoOpLogger) LogDebug(string) {}
func (n *NoOpLogger) LogInfo(string) {}
func (n *NoOpLogger) LogWarn(string) {}
func (n *NoOpLogger) LogError(string) {}
func (n *NoOpLogger) LogCycleStart(models.CycleReport) {}
func (n *NoOpLogger) LogRouteOutcome(models.RouteOutcome) {}
func (n *NoOpLogger) LogCycleSummary(models.CycleReport) {}
