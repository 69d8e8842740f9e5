// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/minapack/minapack/internal/issue"
	"github.com/minapack/minapack/pkg/cueutil"
	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

const (
	// AppName is the application name.
	AppName = "minapack"
	// ConfigFileName is the name of the config file looked up in the base directory.
	ConfigFileName = "minapack.cue"
	// EnvPrefix prefixes every environment override, e.g. MINAPACK_CONTEXT.
	EnvPrefix = "MINAPACK"
)

//go:embed config_schema.cue
var configSchema []byte

// loadWithOptions performs option-driven config loading. Relative paths in
// the result resolve against the directory of the loaded file.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		baseDir = types.FilesystemPath(wd)
	}

	v := newViper()

	var file types.FilesystemPath
	switch {
	case opts.ConfigFilePath != "":
		file = fspath.Resolve(baseDir, string(opts.ConfigFilePath))
		if !fileExists(file) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(string(file)).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'minapack config show' without --config to see the defaults").
				Wrap(fmt.Errorf("config file not found: %s", file)).
				BuildError()
		}
	default:
		if candidate := fspath.JoinStr(baseDir, ConfigFileName); fileExists(candidate) {
			file = candidate
		}
	}

	dir := baseDir
	if file != "" {
		if err := loadCUEIntoViper(v, file); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(string(file)).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
		dir = fspath.Dir(file)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Dir = dir
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resourceName(file)).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// newViper returns a Viper instance holding the defaults and reading
// MINAPACK_* overrides. Nested keys use underscores: MINAPACK_WATCH_DEBOUNCE.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("context", defaults.Context)
	v.SetDefault("entry", defaults.Entry)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("script_extensions", defaults.ScriptExtensions)
	v.SetDefault("asset_extensions", defaults.AssetExtensions)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("log.level", string(defaults.Log.Level))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema and merges its contents into Viper. Fields are optional, so the
// value is only required to be concrete where it is set.
func loadCUEIntoViper(v *viper.Viper, path types.FilesystemPath) error {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	value, err := cueutil.Compile(configSchema, data, "#Config",
		cueutil.WithFilename(string(path)))
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := value.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, string(path))
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path types.FilesystemPath) bool {
	info, err := os.Stat(string(path))
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

func resourceName(file types.FilesystemPath) string {
	if file == "" {
		return "defaults and environment"
	}
	return string(file)
}
