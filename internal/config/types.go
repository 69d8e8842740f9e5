// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of log records written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects the field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the effective project configuration.
	Config struct {
		Context          string      `json:"context" toml:"context" mapstructure:"context"`
		Entry            string      `json:"entry" toml:"entry" mapstructure:"entry"`
		Output           string      `json:"output" toml:"output" mapstructure:"output"`
		ScriptExtensions []string    `json:"script_extensions" toml:"script_extensions" mapstructure:"script_extensions"`
		AssetExtensions  []string    `json:"asset_extensions" toml:"asset_extensions" mapstructure:"asset_extensions"`
		Watch            WatchConfig `json:"watch" toml:"watch" mapstructure:"watch"`
		Log              LogConfig   `json:"log" toml:"log" mapstructure:"log"`

		// Dir is the directory relative paths are resolved against: the
		// directory of the loaded file, or the base directory without one.
		Dir types.FilesystemPath `json:"-" toml:"-" mapstructure:"-"`
		// File is the loaded configuration file, empty when none was found.
		File types.FilesystemPath `json:"-" toml:"-" mapstructure:"-"`
	}

	// WatchConfig configures `minapack watch`.
	WatchConfig struct {
		Debounce string   `json:"debounce" toml:"debounce" mapstructure:"debounce"`
		Ignore   []string `json:"ignore" toml:"ignore" mapstructure:"ignore"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level LogLevel `json:"level" toml:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Context:          "src",
		Entry:            "app",
		Output:           "dist",
		ScriptExtensions: []string{".ts", ".js"},
		AssetExtensions:  []string{},
		Watch: WatchConfig{
			Debounce: "300ms",
			Ignore:   []string{},
		},
		Log: LogConfig{Level: LogLevelInfo},
	}
}

// Validate checks the fields CUE cannot: blank paths, durations and
// extensions supplied through the environment.
func (c *Config) Validate() error {
	var errs []error

	for name, value := range map[string]string{"context": c.Context, "entry": c.Entry, "output": c.Output} {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s: must not be empty", name))
		}
	}
	if len(c.ScriptExtensions) == 0 {
		errs = append(errs, errors.New("script_extensions: at least one extension is required"))
	}
	for _, field := range []struct {
		name string
		exts []string
	}{{"script_extensions", c.ScriptExtensions}, {"asset_extensions", c.AssetExtensions}} {
		for i, ext := range field.exts {
			if strings.Trim(ext, ". ") == "" || strings.ContainsAny(ext, `/\`) {
				errs = append(errs, fmt.Errorf("%s[%d]: invalid extension %q", field.name, i, ext))
			}
		}
	}
	if d, err := c.Watch.DebounceDuration(); err != nil {
		errs = append(errs, fmt.Errorf("watch.debounce: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must be positive, got %q", c.Watch.Debounce))
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// ProjectRoot returns the absolute context directory.
func (c *Config) ProjectRoot() types.FilesystemPath {
	return fspath.Resolve(c.Dir, c.Context)
}

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() types.FilesystemPath {
	return fspath.Resolve(c.Dir, c.Output)
}

// DebounceDuration parses Debounce.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(w.Debounce)
}

// Validate returns an InvalidLogLevelError for unknown levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Level converts l to a charmbracelet/log level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (l LogLevel) String() string { return string(l) }

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config (%d errors): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
