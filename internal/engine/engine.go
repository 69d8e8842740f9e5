// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/minapack/minapack/internal/entrygraph"
	"github.com/minapack/minapack/internal/host"
	"github.com/minapack/minapack/internal/materialize"
	"github.com/minapack/minapack/pkg/types"
)

// DefaultEntry is the root module used when Options.Entry is empty.
const DefaultEntry = "app"

type (
	// Options configures what a pass resolves.
	Options struct {
		// ProjectRoot is the directory the root entry, entry names and
		// entry paths are relative to.
		ProjectRoot types.FilesystemPath
		// Entry is the root module, relative to ProjectRoot. An extension
		// is allowed and ignored.
		Entry string
		// ScriptExtensions are tried in priority order for every module.
		ScriptExtensions []string
		// AssetExtensions select the files gathered into the aggregate entry.
		AssetExtensions []string
	}

	// Option configures an Engine.
	Option func(*Engine)

	// Engine runs passes and suppresses the aggregate chunk.
	Engine struct {
		opts     Options
		resolver *entrygraph.Resolver
		logger   *log.Logger

		// passMu serializes passes.
		passMu sync.Mutex

		mu       sync.Mutex
		state    State
		lastSet  *entrygraph.EntrySet
		lastPlan *materialize.Plan
		lastErr  error
	}
)

// WithLogger sets the engine logger. The resolver logs through it too.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine.
func New(opts Options, options ...Option) *Engine {
	if opts.Entry == "" {
		opts.Entry = DefaultEntry
	}
	e := &Engine{
		opts:   opts,
		logger: log.New(io.Discard),
	}
	for _, o := range options {
		o(e)
	}
	e.resolver = entrygraph.New(opts.ProjectRoot, entrygraph.WithLogger(e.logger))
	return e
}

// Apply subscribes the engine to h. Both the initial entry declaration and
// every recompile trigger run a full pass; the aggregate chunk is
// suppressed in every compilation h starts.
func (e *Engine) Apply(h host.Host) {
	lc := host.NewLifecycle(h)

	h.OnEntryDeclaration(func(ctx context.Context) (bool, error) {
		return true, e.Pass(ctx, lc)
	})
	h.OnRecompileTrigger(func(ctx context.Context, changed []string) error {
		e.logger.Debug("recompile triggered", "changed", len(changed))
		return e.Pass(ctx, lc)
	})
	lc.OnChunkGraphReady(e.suppress)
}

// Plan resolves and materializes the entry set without declaring anything.
// State and Err report the last pass again once Plan returns.
func (e *Engine) Plan(ctx context.Context) (*entrygraph.EntrySet, *materialize.Plan, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	e.mu.Lock()
	prevState, prevErr := e.state, e.lastErr
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.lastErr = prevErr
		e.mu.Unlock()
		e.transition(prevState)
	}()

	return e.plan(ctx)
}

// Pass runs one full pass and declares the result through lc. On failure
// nothing is declared and the error is returned unchanged.
func (e *Engine) Pass(ctx context.Context, lc host.Lifecycle) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	start := time.Now()
	set, plan, err := e.plan(ctx)
	if err != nil {
		return err
	}

	decl := plan.Declarations()
	if err := lc.DeclareEntries(ctx, decl); err != nil {
		err = fmt.Errorf("declare entries: %w", err)
		e.fail(err)
		return err
	}

	e.mu.Lock()
	e.lastSet, e.lastPlan, e.lastErr = set, plan, nil
	e.mu.Unlock()
	e.transition(StateAwaitingChunkGraph)

	e.logger.Info("entries declared",
		"modules", len(decl.Singles),
		"assets", len(decl.Multi.Paths),
		"took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (e *Engine) plan(ctx context.Context) (*entrygraph.EntrySet, *materialize.Plan, error) {
	e.transition(StateResolving)
	set, err := e.resolver.Resolve(ctx, e.opts.Entry)
	if err != nil {
		e.fail(err)
		return nil, nil, err
	}

	e.transition(StateMaterializing)
	plan, err := materialize.Materialize(set, materialize.Options{
		ProjectRoot:      e.opts.ProjectRoot,
		ScriptExtensions: e.opts.ScriptExtensions,
		AssetExtensions:  e.opts.AssetExtensions,
	})
	if err != nil {
		e.fail(err)
		return nil, nil, err
	}
	return set, plan, nil
}

// suppress runs once per compilation, after the chunk graph is built.
func (e *Engine) suppress(_ context.Context, chunks host.ChunkCollection) error {
	awaiting := e.State() == StateAwaitingChunkGraph
	if awaiting {
		e.transition(StateSuppressing)
	}

	removed, err := materialize.Suppress(chunks)
	if err != nil {
		e.fail(err)
		return err
	}
	if removed {
		e.logger.Debug("suppressed aggregate chunk", "name", materialize.AggregateEntryName)
	}

	if awaiting {
		e.transition(StateDone)
	}
	return nil
}

func (e *Engine) transition(s State) {
	e.mu.Lock()
	from := e.state
	e.state = s
	e.mu.Unlock()
	e.logger.Debug("pass state", "from", from, "to", s)
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.transition(StateFailed)
}

// State returns the state of the current or last pass.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastPlan returns the entry set and plan of the last successful pass.
func (e *Engine) LastPlan() (*entrygraph.EntrySet, *materialize.Plan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSet, e.lastPlan
}

// Err returns the error of the last pass, or nil if it succeeded.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
