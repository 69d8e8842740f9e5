// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/minapack/minapack/internal/config"
	"github.com/minapack/minapack/internal/engine"
	"github.com/minapack/minapack/internal/host"
	"github.com/minapack/minapack/internal/host/esbuildhost"
	"github.com/minapack/minapack/internal/issue"
	"github.com/minapack/minapack/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and builds its project through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		flags  rootFlagValues
	}

	// rootFlagValues holds the persistent flags of the root command.
	rootFlagValues struct {
		configPath string
		verbose    bool
		logLevel   string
	}

	// project is the per-invocation composition of configuration, logger,
	// engine and esbuild host.
	project struct {
		cfg      *config.Config
		logger   *log.Logger
		engine   *engine.Engine
		compiler *esbuildhost.Compiler
	}
)

// NewApp creates an App that loads configuration from disk and writes to
// the given streams.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		Config: config.NewProvider(),
		stdout: stdout,
		stderr: stderr,
	}
}

// loadConfig loads the configuration relative to the working directory.
// Failures are usage errors.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.flags.configPath),
		BaseDir:        types.FilesystemPath(wd),
	})
	if err != nil {
		return nil, &ExitError{Code: types.ExitUsage, Err: newServiceError(err, issue.ConfigLoadFailedId, "")}
	}
	return cfg, nil
}

// newLogger builds the root logger. --log-level wins over the config file,
// and --verbose selects debug when neither sets a level explicitly.
func (a *App) newLogger(cfg *config.Config) (*log.Logger, error) {
	level := cfg.Log.Level
	if a.flags.logLevel != "" {
		level = config.LogLevel(a.flags.logLevel)
	} else if a.flags.verbose && level == config.LogLevelInfo {
		level = config.LogLevelDebug
	}
	if err := level.Validate(); err != nil {
		return nil, &ExitError{Code: types.ExitUsage, Err: newServiceError(err, issue.ConfigLoadFailedId, "")}
	}

	return log.NewWithOptions(a.stderr, log.Options{
		Level:           level.Level(),
		ReportTimestamp: false,
	}), nil
}

// newProject loads the configuration and wires an engine onto a fresh
// esbuild host.
func (a *App) newProject(ctx context.Context) (*project, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := a.newLogger(cfg)
	if err != nil {
		return nil, err
	}
	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return nil, &ExitError{Code: types.ExitUsage, Err: newServiceError(err, issue.ConfigLoadFailedId, "")}
	}

	root := cfg.ProjectRoot()
	eng := engine.New(engine.Options{
		ProjectRoot:      root,
		Entry:            cfg.Entry,
		ScriptExtensions: cfg.ScriptExtensions,
		AssetExtensions:  cfg.AssetExtensions,
	}, engine.WithLogger(logger.WithPrefix("engine")))

	compiler := esbuildhost.New(esbuildhost.Options{
		ProjectRoot:     root,
		OutputDir:       cfg.OutputDir(),
		DefaultEntry:    host.SingleEntry{Name: engine.DefaultEntry, Path: "./" + engine.DefaultEntry},
		AssetExtensions: cfg.AssetExtensions,
		WatchDebounce:   debounce,
		WatchIgnore:     cfg.Watch.Ignore,
		Logger:          logger.WithPrefix("esbuild"),
	})
	eng.Apply(compiler)

	return &project{cfg: cfg, logger: logger, engine: eng, compiler: compiler}, nil
}

// fail turns an error of the named operation into a rendered service
// error with a generic failure exit code.
func fail(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := asExitError(err); ok {
		return err
	}
	return &ExitError{Code: types.ExitFailure, Err: wrapServiceError(operation, err)}
}

// renderError is the fang error handler of the command tree.
func (a *App) renderError(w io.Writer, err error) {
	if svcErr, ok := asServiceError(err); ok {
		renderServiceError(w, svcErr, a.flags.verbose)
		return
	}
	if exitErr, ok := asExitError(err); ok && exitErr.Err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))
}
