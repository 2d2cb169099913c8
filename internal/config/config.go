package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file read when --config is not given.
const DefaultConfigFile = "config.ini"

// Option names, shared by the key=value and YAML formats.
const (
	KeySourcePath                = "sourcePath"
	KeyDestPath                  = "destPath"
	KeyPollInterval              = "pollInterval"
	KeyLogLevel                  = "logLevel"
	KeyLogDir                    = "logDir"
	KeyHistoryPath               = "historyPath"
	KeyVerifyCompanionPDF        = "verifyCompanionPDF"
	KeyInjectionDateAsSampleDate = "injectionDateAsSampleDate"
)

// ErrConfigMissing is returned by Validate when a required option is absent.
var ErrConfigMissing = errors.New("required configuration option missing")

// Config represents chrouter configuration options
type Config struct {
	// SourcePath is the root of the tree scanned for signal files
	SourcePath string

	// DestPath is the root of the tree routed artifacts are written to
	DestPath string

	// PollInterval is the sleep between scan cycles
	PollInterval time.Duration

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string

	// LogDir is the directory where run logs are written; empty disables them
	LogDir string

	// HistoryPath is the SQLite routing ledger; empty disables it
	HistoryPath string

	// VerifyCompanionPDF validates companion documents before copying
	VerifyCompanionPDF bool

	// InjectionDateAsSampleDate maps the report's Injection Date to the
	// sample date instead of the analysis method
	InjectionDateAsSampleDate bool

	// Options holds every key=value pair read from the file, including
	// ones chrouter does not use
	Options map[string]string
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	home := Home()
	return &Config{
		PollInterval: 5 * time.Minute,
		LogLevel:     "info",
		LogDir:       filepath.Join(home, "logs"),
		HistoryPath:  filepath.Join(home, "history.db"),
		Options:      make(map[string]string),
	}
}

// LoadConfig loads configuration from the specified file path.
// Files ending in .yaml or .yml are parsed as YAML; anything else as
// key=value lines. A missing file yields the defaults; Validate then
// reports the missing required options.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var options map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		options, err = parseYAML(data)
	default:
		options, err = parseKeyValue(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for key, value := range options {
		if err := cfg.apply(key, value); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// parseKeyValue reads key=value lines. Lines containing '#', blank lines and
// lines without '=' are ignored. The value is everything after the first '='.
func parseKeyValue(data []byte) (map[string]string, error) {
	options := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		options[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return options, nil
}

// parseYAML reads a flat YAML mapping with the same option names.
func parseYAML(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	options := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			options[key] = ""
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("option %q must be a scalar", key)
		default:
			options[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return options, nil
}

// apply sets one option. Unknown keys are kept in Options only.
func (c *Config) apply(key, value string) error {
	c.Options[key] = value

	switch key {
	case KeySourcePath:
		c.SourcePath = value
	case KeyDestPath:
		c.DestPath = value
	case KeyPollInterval:
		d, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.PollInterval = d
	case KeyLogLevel:
		c.LogLevel = strings.ToLower(value)
	case KeyLogDir:
		c.LogDir = value
	case KeyHistoryPath:
		c.HistoryPath = value
	case KeyVerifyCompanionPDF, KeyInjectionDateAsSampleDate:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if key == KeyVerifyCompanionPDF {
			c.VerifyCompanionPDF = b
		} else {
			c.InjectionDateAsSampleDate = b
		}
	}
	return nil
}

// parseInterval accepts a Go duration ("5m") or a bare number of milliseconds.
func parseInterval(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(interval *time.Duration, logLevel *string, logDir *string) {
	if interval != nil {
		c.PollInterval = *interval
	}
	if logLevel != nil {
		c.LogLevel = strings.ToLower(*logLevel)
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
}

// Validate validates the configuration values
// Missing required options wrap ErrConfigMissing
func (c *Config) Validate() error {
	var missing []string
	if c.SourcePath == "" {
		missing = append(missing, KeySourcePath)
	}
	if c.DestPath == "" {
		missing = append(missing, KeyDestPath)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(missing, ", "))
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid %s %q, must be one of: trace, debug, info, warn, error", KeyLogLevel, c.LogLevel)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("%s must be > 0, got %v", KeyPollInterval, c.PollInterval)
	}

	return nil
}

// CheckPaths verifies that the source tree is a readable directory and that
// the destination is a directory or can be created.
func (c *Config) CheckPaths() error {
	info, err := os.Stat(c.SourcePath)
	if err != nil {
		return fmt.Errorf("%s: %w", KeySourcePath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", KeySourcePath, c.SourcePath)
	}
	if _, err := os.ReadDir(c.SourcePath); err != nil {
		return fmt.Errorf("%s: %w", KeySourcePath, err)
	}

	info, err = os.Stat(c.DestPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(c.DestPath, 0755); err != nil {
			return fmt.Errorf("%s: %w", KeyDestPath, err)
		}
	case err != nil:
		return fmt.Errorf("%s: %w", KeyDestPath, err)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory: %s", KeyDestPath, c.DestPath)
	}
	return nil
}
