// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minapack/minapack/internal/descriptor"
	"github.com/minapack/minapack/internal/host"
	"github.com/minapack/minapack/internal/materialize"
	"github.com/minapack/minapack/internal/testutil"
	"github.com/minapack/minapack/pkg/types"
)

type (
	fakeHost struct {
		mu         sync.Mutex
		declareFns []func(context.Context) (bool, error)
		recompile  []func(context.Context, []string) error
		compileFns []func(context.Context, host.Compilation)
		declared   []host.Declarations
		declareErr error
	}

	fakeCompilation struct {
		fns []host.ChunkFunc
	}
)

func (h *fakeHost) OnEntryDeclaration(fn func(context.Context) (bool, error)) {
	h.declareFns = append(h.declareFns, fn)
}

func (h *fakeHost) OnRecompileTrigger(fn func(context.Context, []string) error) {
	h.recompile = append(h.recompile, fn)
}

func (h *fakeHost) OnCompilationStart(fn func(context.Context, host.Compilation)) {
	h.compileFns = append(h.compileFns, fn)
}

func (h *fakeHost) DeclareEntries(_ context.Context, decl host.Declarations) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.declareErr != nil {
		return h.declareErr
	}
	h.declared = append(h.declared, decl)
	return nil
}

func (c *fakeCompilation) OnBeforeChunkEmission(fn host.ChunkFunc) {
	c.fns = append(c.fns, fn)
}

// declare fires the entry-declaration hooks like a bundler starting up.
func (h *fakeHost) declare(ctx context.Context) (handled bool, err error) {
	for _, fn := range h.declareFns {
		ok, err := fn(ctx)
		if err != nil {
			return false, err
		}
		handled = handled || ok
	}
	return handled, nil
}

// compile starts a compilation and runs its emission callbacks emit times.
func (h *fakeHost) compile(ctx context.Context, chunks host.ChunkCollection, emit int) error {
	c := &fakeCompilation{}
	for _, fn := range h.compileFns {
		fn(ctx, c)
	}
	for range emit {
		for _, fn := range c.fns {
			if err := fn(ctx, chunks); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeProject(t *testing.T, files map[string]string) types.FilesystemPath {
	t.Helper()
	return types.FilesystemPath(testutil.WriteProject(t, files))
}

func pageProject(t *testing.T) types.FilesystemPath {
	t.Helper()

	return writeProject(t, map[string]string{
		"app.json":              `{"pages": ["./pages/home/index"]}`,
		"app.js":                ``,
		"pages/home/index.json": `{}`,
		"pages/home/index.js":   ``,
		"pages/home/index.wxss": ``,
	})
}

func TestEngine_BuildLifecycle(t *testing.T) {
	t.Parallel()

	e := New(Options{
		ProjectRoot:     pageProject(t),
		AssetExtensions: []string{".wxss"},
	})
	if e.State() != StateIdle {
		t.Fatalf("initial State() = %v, want %v", e.State(), StateIdle)
	}

	h := &fakeHost{}
	e.Apply(h)

	ctx := context.Background()
	handled, err := h.declare(ctx)
	if err != nil {
		t.Fatalf("declare() error = %v", err)
	}
	if !handled {
		t.Error("entry declaration not reported as handled")
	}
	if e.State() != StateAwaitingChunkGraph {
		t.Errorf("State() = %v, want %v", e.State(), StateAwaitingChunkGraph)
	}
	if len(h.declared) != 1 {
		t.Fatalf("declared %d times, want 1", len(h.declared))
	}

	want := host.Declarations{
		Singles: []host.SingleEntry{
			{Name: "app", Path: "./app.js"},
			{Name: "pages/home/index", Path: "./pages/home/index.js"},
		},
		Multi: host.MultiEntry{
			Name:  materialize.AggregateEntryName,
			Paths: []string{"./pages/home/index.wxss"},
		},
	}
	if diff := cmp.Diff(want, h.declared[0]); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}

	chunks := host.NewChunks(
		host.Chunk{Name: "app"},
		host.Chunk{Name: materialize.AggregateEntryName},
		host.Chunk{Name: "pages/home/index"},
	)
	if err := h.compile(ctx, chunks, 1); err != nil {
		t.Fatalf("compile() error = %v", err)
	}
	if got := chunks.Names(); !slices.Equal(got, []string{"app", "pages/home/index"}) {
		t.Errorf("chunk names = %v", got)
	}
	if e.State() != StateDone {
		t.Errorf("State() = %v, want %v", e.State(), StateDone)
	}

	set, plan := e.LastPlan()
	if set == nil || plan == nil {
		t.Fatal("LastPlan() returned nil after a successful pass")
	}
	if set.Len() != 2 {
		t.Errorf("set.Len() = %d, want 2", set.Len())
	}
}

func TestEngine_SuppressesOncePerCompilation(t *testing.T) {
	t.Parallel()

	e := New(Options{ProjectRoot: pageProject(t)})
	h := &fakeHost{}
	e.Apply(h)

	ctx := context.Background()
	if _, err := h.declare(ctx); err != nil {
		t.Fatal(err)
	}

	// Two aggregate chunks: only one removal may happen per compilation.
	chunks := host.NewChunks(
		host.Chunk{Name: materialize.AggregateEntryName},
		host.Chunk{Name: "app"},
		host.Chunk{Name: materialize.AggregateEntryName},
	)
	if err := h.compile(ctx, chunks, 2); err != nil {
		t.Fatalf("compile() error = %v", err)
	}
	if got := chunks.Names(); !slices.Equal(got, []string{"app", materialize.AggregateEntryName}) {
		t.Errorf("after first compilation chunk names = %v", got)
	}

	if err := h.compile(ctx, chunks, 1); err != nil {
		t.Fatalf("compile() error = %v", err)
	}
	if got := chunks.Names(); !slices.Equal(got, []string{"app"}) {
		t.Errorf("after second compilation chunk names = %v", got)
	}
}

func TestEngine_SuppressWithoutAggregateChunk(t *testing.T) {
	t.Parallel()

	e := New(Options{ProjectRoot: pageProject(t)})
	h := &fakeHost{}
	e.Apply(h)

	ctx := context.Background()
	if _, err := h.declare(ctx); err != nil {
		t.Fatal(err)
	}
	chunks := host.NewChunks(host.Chunk{Name: "app"})
	if err := h.compile(ctx, chunks, 1); err != nil {
		t.Fatalf("compile() error = %v", err)
	}
	if got := chunks.Names(); !slices.Equal(got, []string{"app"}) {
		t.Errorf("chunk names = %v", got)
	}
	if e.State() != StateDone {
		t.Errorf("State() = %v, want %v", e.State(), StateDone)
	}
}

func TestEngine_MissingDescriptorDeclaresNothing(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"app.json": `{"pages": ["./pages/a/a"]}`,
		"app.js":   ``,
	})
	e := New(Options{ProjectRoot: root})
	h := &fakeHost{}
	e.Apply(h)

	_, err := h.declare(context.Background())
	if !errors.Is(err, descriptor.ErrDescriptorRead) {
		t.Fatalf("declare() error = %v, want ErrDescriptorRead", err)
	}
	if len(h.declared) != 0 {
		t.Errorf("declared %d times, want 0", len(h.declared))
	}
	if e.State() != StateFailed {
		t.Errorf("State() = %v, want %v", e.State(), StateFailed)
	}
	if !errors.Is(e.Err(), descriptor.ErrDescriptorRead) {
		t.Errorf("Err() = %v", e.Err())
	}
	if set, plan := e.LastPlan(); set != nil || plan != nil {
		t.Error("LastPlan() not nil after a failed first pass")
	}
}

func TestEngine_MissingScriptDeclaresNothing(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"app.json": `{}`,
		"app.css":  ``,
	})
	e := New(Options{ProjectRoot: root})
	h := &fakeHost{}
	e.Apply(h)

	_, err := h.declare(context.Background())
	if !errors.Is(err, materialize.ErrMissingScriptFile) {
		t.Fatalf("declare() error = %v, want ErrMissingScriptFile", err)
	}
	if len(h.declared) != 0 {
		t.Errorf("declared %d times, want 0", len(h.declared))
	}
}

func TestEngine_DeclareFailure(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("host refused")
	e := New(Options{ProjectRoot: pageProject(t)})
	h := &fakeHost{declareErr: sentinel}
	e.Apply(h)

	_, err := h.declare(context.Background())
	if !errors.Is(err, sentinel) {
		t.Fatalf("declare() error = %v, want %v", err, sentinel)
	}
	if e.State() != StateFailed {
		t.Errorf("State() = %v, want %v", e.State(), StateFailed)
	}
}

func TestEngine_RecompileRerunsPass(t *testing.T) {
	t.Parallel()

	root := pageProject(t)
	e := New(Options{ProjectRoot: root})
	h := &fakeHost{}
	e.Apply(h)

	ctx := context.Background()
	if _, err := h.declare(ctx); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"app.json":               `{"pages": ["./pages/home/index", "./pages/about/index"]}`,
		"pages/about/index.json": `{}`,
		"pages/about/index.ts":   ``,
	}
	for rel, content := range files {
		path := filepath.Join(string(root), filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for _, fn := range h.recompile {
		if err := fn(ctx, []string{"app.json"}); err != nil {
			t.Fatalf("recompile error = %v", err)
		}
	}
	if len(h.declared) != 2 {
		t.Fatalf("declared %d times, want 2", len(h.declared))
	}
	want := []host.SingleEntry{
		{Name: "app", Path: "./app.js"},
		{Name: "pages/home/index", Path: "./pages/home/index.js"},
		{Name: "pages/about/index", Path: "./pages/about/index.ts"},
	}
	if got := h.declared[1].Singles; !slices.Equal(got, want) {
		t.Errorf("Singles = %+v, want %+v", got, want)
	}
}

func TestEngine_FailedPassKeepsLastPlan(t *testing.T) {
	t.Parallel()

	root := pageProject(t)
	e := New(Options{ProjectRoot: root})
	h := &fakeHost{}
	e.Apply(h)

	ctx := context.Background()
	if _, err := h.declare(ctx); err != nil {
		t.Fatal(err)
	}
	_, before := e.LastPlan()

	if err := os.WriteFile(filepath.Join(string(root), "app.json"), []byte(`{"pages": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	err := h.recompile[0](ctx, nil)
	if !errors.Is(err, descriptor.ErrDescriptorParse) {
		t.Fatalf("recompile error = %v, want ErrDescriptorParse", err)
	}
	if _, after := e.LastPlan(); after != before {
		t.Error("LastPlan() changed after a failed pass")
	}
	if len(h.declared) != 1 {
		t.Errorf("declared %d times, want 1", len(h.declared))
	}
}

func TestEngine_Plan(t *testing.T) {
	t.Parallel()

	e := New(Options{ProjectRoot: pageProject(t), Entry: "app.json"})
	set, plan, err := e.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if set.Len() != 2 || len(plan.Scripts) != 2 {
		t.Errorf("Plan() = %d candidates, %d scripts; want 2, 2", set.Len(), len(plan.Scripts))
	}
	if got := e.State(); got != StateIdle {
		t.Errorf("State() after Plan = %v, want %v", got, StateIdle)
	}
}

func TestEngine_PlanKeepsPassState(t *testing.T) {
	t.Parallel()

	root := pageProject(t)
	e := New(Options{ProjectRoot: root})
	h := &fakeHost{}
	e.Apply(h)

	ctx := context.Background()
	if _, err := h.declare(ctx); err != nil {
		t.Fatal(err)
	}
	if got := e.State(); got != StateAwaitingChunkGraph {
		t.Fatalf("State() after pass = %v, want %v", got, StateAwaitingChunkGraph)
	}

	if err := os.Remove(filepath.Join(string(root), "pages", "home", "index.js")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Plan(ctx); !errors.Is(err, materialize.ErrMissingScriptFile) {
		t.Fatalf("Plan() error = %v, want ErrMissingScriptFile", err)
	}
	if got := e.State(); got != StateAwaitingChunkGraph {
		t.Errorf("State() after failed Plan = %v, want %v", got, StateAwaitingChunkGraph)
	}
	if err := e.Err(); err != nil {
		t.Errorf("Err() after failed Plan = %v, want nil", err)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{StateIdle, "idle", false},
		{StateResolving, "resolving", false},
		{StateMaterializing, "materializing", false},
		{StateAwaitingChunkGraph, "awaiting-chunk-graph", false},
		{StateSuppressing, "suppressing", false},
		{StateDone, "done", true},
		{StateFailed, "failed", true},
		{State(99), "unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.state.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}
