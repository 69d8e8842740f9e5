// SPDX-License-Identifier: MPL-2.0

package esbuildhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/minapack/minapack/internal/host"
	"github.com/minapack/minapack/internal/watch"
	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

type (
	// Options configures a Compiler.
	Options struct {
		// ProjectRoot is the working directory of the build. Entry paths are
		// relative to it and it is the base of the output layout.
		ProjectRoot types.FilesystemPath
		// OutputDir receives the emitted files.
		OutputDir types.FilesystemPath
		// DefaultEntry is declared when no entry-declaration hook handles
		// the declaration.
		DefaultEntry host.SingleEntry
		// AssetExtensions are bundled with the file loader.
		AssetExtensions []string
		// WatchDebounce and WatchIgnore configure Watch.
		WatchDebounce time.Duration
		WatchIgnore   []string
		// Logger receives build diagnostics. nil discards them.
		Logger *log.Logger
	}

	// Compiler bundles declared entries with esbuild. It implements host.Host.
	Compiler struct {
		opts   Options
		logger *log.Logger

		mu       sync.Mutex
		decl     host.Declarations
		declared bool

		declareHooks   []func(ctx context.Context) (bool, error)
		recompileHooks []func(ctx context.Context, changed []string) error
		compileHooks   []func(ctx context.Context, c host.Compilation)

		// buildMu serializes compilations.
		buildMu sync.Mutex
	}

	// Result describes one compilation.
	Result struct {
		// Chunks are the emitted chunks in output order.
		Chunks []host.Chunk
		// Suppressed names the chunks removed before emission.
		Suppressed []string
		// Warnings are the esbuild warnings of the compilation.
		Warnings []api.Message
		Duration time.Duration
	}

	compilation struct {
		emit []host.ChunkFunc
	}
)

var _ host.Host = (*Compiler)(nil)

// New creates a Compiler.
func New(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compiler{opts: opts, logger: logger}
}

// OnEntryDeclaration implements host.Hooks.
func (c *Compiler) OnEntryDeclaration(fn func(ctx context.Context) (bool, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.declareHooks = append(c.declareHooks, fn)
}

// OnRecompileTrigger implements host.Hooks.
func (c *Compiler) OnRecompileTrigger(fn func(ctx context.Context, changed []string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompileHooks = append(c.recompileHooks, fn)
}

// OnCompilationStart implements host.Hooks.
func (c *Compiler) OnCompilationStart(fn func(ctx context.Context, comp host.Compilation)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compileHooks = append(c.compileHooks, fn)
}

// DeclareEntries implements host.EntryDeclarer. The declarations replace
// the previous ones as a whole.
func (c *Compiler) DeclareEntries(_ context.Context, decl host.Declarations) error {
	for _, s := range decl.Singles {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("declare entries: incomplete entry %+v", s)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.decl = host.Declarations{
		Singles: slices.Clone(decl.Singles),
		Multi: host.MultiEntry{
			Name:  decl.Multi.Name,
			Paths: slices.Clone(decl.Multi.Paths),
		},
	}
	c.declared = true
	return nil
}

func (c *compilation) OnBeforeChunkEmission(fn host.ChunkFunc) {
	c.emit = append(c.emit, fn)
}

// Run declares the entries and compiles them once.
func (c *Compiler) Run(ctx context.Context) (*Result, error) {
	handled, err := c.declare(ctx)
	if err != nil {
		return nil, err
	}
	if !handled {
		if err := c.DeclareEntries(ctx, host.Declarations{Singles: []host.SingleEntry{c.opts.DefaultEntry}}); err != nil {
			return nil, err
		}
	}
	return c.compile(ctx)
}

// Watch runs Run, then recompiles on every debounced change under the
// project root until ctx is cancelled. report receives the outcome of every
// compilation, the first included; failures never stop the watch.
func (c *Compiler) Watch(ctx context.Context, report func(*Result, error)) error {
	if report == nil {
		report = func(*Result, error) {}
	}
	report(c.Run(ctx))

	w, err := watch.New(watch.Config{
		BaseDir:  c.opts.ProjectRoot,
		Ignore:   c.watchIgnores(),
		Debounce: c.opts.WatchDebounce,
		Logger:   c.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			res, err := c.recompile(ctx, changed)
			report(res, err)
			return err
		},
	})
	if err != nil {
		return err
	}
	c.logger.Info("watching for changes", "dir", c.opts.ProjectRoot)
	return w.Run(ctx)
}

func (c *Compiler) declare(ctx context.Context) (bool, error) {
	c.mu.Lock()
	hooks := slices.Clone(c.declareHooks)
	c.mu.Unlock()

	handled := false
	for _, fn := range hooks {
		ok, err := fn(ctx)
		if err != nil {
			return false, err
		}
		handled = handled || ok
	}
	return handled, nil
}

func (c *Compiler) recompile(ctx context.Context, changed []string) (*Result, error) {
	c.mu.Lock()
	hooks := slices.Clone(c.recompileHooks)
	c.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(ctx, changed); err != nil {
			return nil, err
		}
	}
	return c.compile(ctx)
}

// compile runs one compilation of the current declarations.
func (c *Compiler) compile(ctx context.Context) (*Result, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	c.mu.Lock()
	decl, declared := c.decl, c.declared
	hooks := slices.Clone(c.compileHooks)
	c.mu.Unlock()
	if !declared {
		return nil, errors.New("compile: no entries declared")
	}

	start := time.Now()
	comp := &compilation{}
	for _, fn := range hooks {
		fn(ctx, comp)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compile canceled: %w", err)
	}
	res := api.Build(c.buildOptions(decl))
	if len(res.Errors) > 0 {
		return nil, &BuildError{Messages: res.Errors}
	}
	for _, w := range res.Warnings {
		c.logger.Warn(describe(w))
	}

	outDir, err := fspath.Abs(c.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	chunks, contents := groupChunks(string(outDir), decl, res.OutputFiles)
	before := chunks.Names()

	for _, fn := range comp.emit {
		if err := fn(ctx, chunks); err != nil {
			return nil, err
		}
	}

	emitted := chunks.Items()
	for _, ch := range emitted {
		for _, file := range ch.Files {
			if err := writeFile(file, contents[file]); err != nil {
				return nil, err
			}
		}
	}

	result := &Result{
		Chunks:     emitted,
		Suppressed: removed(before, chunks.Names()),
		Warnings:   res.Warnings,
		Duration:   time.Since(start),
	}
	c.logger.Debug("compilation finished",
		"chunks", len(result.Chunks),
		"suppressed", len(result.Suppressed),
		"took", result.Duration.Round(time.Millisecond))
	return result, nil
}

func (c *Compiler) buildOptions(decl host.Declarations) api.BuildOptions {
	entries := make([]api.EntryPoint, 0, len(decl.Singles)+1)
	for _, s := range decl.Singles {
		entries = append(entries, api.EntryPoint{InputPath: s.Path, OutputPath: s.Name})
	}

	var plugins []api.Plugin
	if decl.Multi.Name != "" {
		entries = append(entries, api.EntryPoint{
			InputPath:  virtualPrefix + decl.Multi.Name,
			OutputPath: decl.Multi.Name,
		})
		plugins = append(plugins, multiEntryPlugin(string(c.opts.ProjectRoot), decl.Multi))
	}

	loaders := make(map[string]api.Loader, len(c.opts.AssetExtensions))
	for _, ext := range c.opts.AssetExtensions {
		loaders[fspath.NormalizeExt(ext)] = api.LoaderFile
	}

	return api.BuildOptions{
		AbsWorkingDir:       absOrSelf(c.opts.ProjectRoot),
		EntryPointsAdvanced: entries,
		Bundle:              true,
		Write:               false,
		Outdir:              absOrSelf(c.opts.OutputDir),
		Outbase:             absOrSelf(c.opts.ProjectRoot),
		Format:              api.FormatCommonJS,
		Platform:            api.PlatformNeutral,
		MainFields:          []string{"miniprogram", "module", "main"},
		Loader:              loaders,
		AssetNames:          "[dir]/[name]",
		Plugins:             plugins,
		LogLevel:            api.LogLevelSilent,
	}
}

// watchIgnores adds the output directory to the configured ignores when it
// lies inside the project root, so emitted files never trigger a rebuild.
func (c *Compiler) watchIgnores() []string {
	ignores := slices.Clone(c.opts.WatchIgnore)
	rel, err := fspath.Rel(types.FilesystemPath(absOrSelf(c.opts.ProjectRoot)), types.FilesystemPath(absOrSelf(c.opts.OutputDir)))
	if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, "../") {
		ignores = append(ignores, rel, rel+"/**")
	}
	return ignores
}

// groupChunks assigns every output file to a chunk. Entry outputs (and
// their source maps) belong to the chunk named after their entry; any other
// output, such as an extracted asset, is its own chunk named by its path
// relative to outDir.
func groupChunks(outDir string, decl host.Declarations, files []api.OutputFile) (*host.Chunks, map[string][]byte) {
	byPath := make(map[string]string, len(decl.Singles)+1)
	var order []string
	names := make([]string, 0, len(decl.Singles)+1)
	for _, s := range decl.Singles {
		names = append(names, s.Name)
	}
	if decl.Multi.Name != "" {
		names = append(names, decl.Multi.Name)
	}
	for _, name := range names {
		byPath[filepath.Join(outDir, filepath.FromSlash(name)+".js")] = name
	}

	grouped := make(map[string][]string)
	contents := make(map[string][]byte, len(files))
	for _, f := range files {
		contents[f.Path] = f.Contents

		name, ok := byPath[strings.TrimSuffix(f.Path, ".map")]
		if !ok {
			rel, err := filepath.Rel(outDir, f.Path)
			if err != nil {
				rel = f.Path
			}
			name = filepath.ToSlash(rel)
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], f.Path)
	}

	items := make([]host.Chunk, 0, len(order))
	for _, name := range order {
		items = append(items, host.Chunk{Name: name, Files: grouped[name]})
	}
	return host.NewChunks(items...), contents
}

func removed(before, after []string) []string {
	var out []string
	remaining := slices.Clone(after)
	for _, name := range before {
		if i := slices.Index(remaining, name); i >= 0 {
			remaining = slices.Delete(remaining, i, i+1)
			continue
		}
		out = append(out, name)
	}
	return out
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func absOrSelf(p types.FilesystemPath) string {
	abs, err := fspath.Abs(p)
	if err != nil {
		return string(p)
	}
	return string(abs)
}
