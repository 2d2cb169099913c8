package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readRunLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(fl.RunFile())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	return string(data)
}

func TestNewFileLogger(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	fl, err := NewFileLogger(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer fl.Close()

	if !strings.HasPrefix(filepath.Base(fl.RunFile()), "run-") {
		t.Errorf("unexpected run file name %q", fl.RunFile())
	}

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("latest.log symlink missing: %v", err)
	}
	if target != filepath.Base(fl.RunFile()) {
		t.Errorf("latest.log -> %q, want %q", target, filepath.Base(fl.RunFile()))
	}

	if !strings.Contains(readRunLog(t, fl), "=== chrouter Run Log ===") {
		t.Error("run log header missing")
	}
}

func TestNewFileLogger_ReplacesLatestSymlink(t *testing.T) {
	logDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(logDir, "latest.log"), []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	fl, err := NewFileLogger(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer fl.Close()

	info, err := os.Lstat(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("latest.log should be a symlink")
	}
}

func TestFileLogger_CycleEvents(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "debug")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer fl.Close()

	report := sampleReport()
	fl.LogCycleStart(report)
	for _, out := range report.Outcomes {
		fl.LogRouteOutcome(out)
	}
	fl.LogCycleSummary(report)
	fl.LogTrace("hidden at debug")

	content := readRunLog(t, fl)
	for _, want := range []string{
		"(cycle 0f8fad5b-d9cb-469f-a165-70867728950e)",
		"exported /data/run1/FID1A.ch",
		"xml: /out/xml/a b.xml",
		"skipped /data/run3/FID1A.ch",
		"error: FallbackParseAbort /data/run2/FID1A.ch: report parse aborted",
		"Skipped: 1 | Exported: 1 | Copied: 0 | Failed: 1",
		"ScanError /data/locked: permission denied",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("run log missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "hidden at debug") {
		t.Error("trace message should be filtered at debug level")
	}
}

func TestFileLogger_CloseIsIdempotent(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "info")
	if err != nil {
		t.Fatal(err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	// Writes after Close are dropped.
	fl.LogInfo("after close")
}
