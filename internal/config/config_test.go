package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	t.Setenv(HomeEnv, "")
	cfg := DefaultConfig()

	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m", cfg.PollInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogDir != filepath.Join(".chrouter", "logs") {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, ".chrouter/logs")
	}
	if cfg.HistoryPath != filepath.Join(".chrouter", "history.db") {
		t.Errorf("HistoryPath = %q, want %q", cfg.HistoryPath, ".chrouter/history.db")
	}
	if cfg.VerifyCompanionPDF || cfg.InjectionDateAsSampleDate {
		t.Errorf("boolean options should default to false")
	}
}

func TestDefaultConfigHonorsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	cfg := DefaultConfig()
	if cfg.LogDir != filepath.Join(home, "logs") {
		t.Errorf("LogDir = %q, want under %q", cfg.LogDir, home)
	}
	if cfg.HistoryPath != filepath.Join(home, "history.db") {
		t.Errorf("HistoryPath = %q, want under %q", cfg.HistoryPath, home)
	}

	got, err := EnsureHome()
	if err != nil {
		t.Fatalf("EnsureHome() error = %v", err)
	}
	if got != home {
		t.Errorf("EnsureHome() = %q, want %q", got, home)
	}
}

// TestLoadConfigKeyValue tests the key=value format
func TestLoadConfigKeyValue(t *testing.T) {
	path := writeConfig(t, "config.ini", strings.Join([]string{
		"# chrouter settings",
		"sourcePath = C:\\Chem32\\1\\DATA",
		"destPath=/srv/out",
		"",
		"no equals sign here",
		"pollInterval=300000",
		"logLevel=DEBUG",
		"historyPath=",
		"destPath=/srv/routed # trailing comments drop the whole line",
		"injectionDateAsSampleDate=true",
		"extra=a=b",
	}, "\n"))

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.SourcePath != `C:\Chem32\1\DATA` {
		t.Errorf("SourcePath = %q", cfg.SourcePath)
	}
	if cfg.DestPath != "/srv/out" {
		t.Errorf("DestPath = %q, want /srv/out", cfg.DestPath)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m (300000ms)", cfg.PollInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.HistoryPath != "" {
		t.Errorf("HistoryPath = %q, want empty (disabled)", cfg.HistoryPath)
	}
	if !cfg.InjectionDateAsSampleDate {
		t.Errorf("InjectionDateAsSampleDate = false, want true")
	}
	if cfg.Options["extra"] != "a=b" {
		t.Errorf("Options[extra] = %q, want everything after the first '='", cfg.Options["extra"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestLoadConfigYAML tests loading the YAML variant
func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "chrouter.yaml", `sourcePath: /data
destPath: /out
pollInterval: 30s
verifyCompanionPDF: true
logDir: /var/log/chrouter
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.SourcePath != "/data" || cfg.DestPath != "/out" {
		t.Errorf("paths = %q, %q", cfg.SourcePath, cfg.DestPath)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if !cfg.VerifyCompanionPDF {
		t.Errorf("VerifyCompanionPDF = false, want true")
	}
	if cfg.LogDir != "/var/log/chrouter" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "bad interval", file: "config.ini", content: "pollInterval=soon"},
		{name: "bad bool", file: "config.ini", content: "verifyCompanionPDF=maybe"},
		{name: "malformed yaml", file: "config.yaml", content: "sourcePath: [unclosed"},
		{name: "nested yaml", file: "config.yml", content: "sourcePath:\n  nested: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.file, tt.content)); err == nil {
				t.Errorf("LoadConfig() expected error")
			}
		})
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.ini")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}

	err = cfg.Validate()
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("Validate() error = %v, want ErrConfigMissing", err)
	}
	if !strings.Contains(err.Error(), "sourcePath") || !strings.Contains(err.Error(), "destPath") {
		t.Errorf("Validate() error = %q, want both keys named", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.SourcePath = "/data"
		cfg.DestPath = "/out"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		missing bool
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing dest", mutate: func(c *Config) { c.DestPath = "" }, missing: true, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrConfigMissing) != tt.missing {
				t.Errorf("errors.Is(ErrConfigMissing) = %v, want %v", !tt.missing, tt.missing)
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	interval := 10 * time.Second
	level := "WARN"

	cfg.MergeWithFlags(&interval, &level, nil)

	if cfg.PollInterval != interval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, interval)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.LogDir != DefaultConfig().LogDir {
		t.Errorf("LogDir changed by nil flag: %q", cfg.LogDir)
	}
}

func TestCheckPaths(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.SourcePath = root
	cfg.DestPath = filepath.Join(root, "out", "nested")

	if err := cfg.CheckPaths(); err != nil {
		t.Fatalf("CheckPaths() error = %v", err)
	}
	if info, err := os.Stat(cfg.DestPath); err != nil || !info.IsDir() {
		t.Errorf("destination was not created: %v", err)
	}

	cfg.SourcePath = filepath.Join(root, "missing")
	if err := cfg.CheckPaths(); err == nil {
		t.Errorf("CheckPaths() expected error for missing source")
	}
}
