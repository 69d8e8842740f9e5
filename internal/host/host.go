// SPDX-License-Identifier: MPL-2.0

// Package host defines the boundary between the entry engine and the
// bundler that compiles the entries.
//
// The engine never talks to a concrete bundler. It subscribes to Hooks,
// declares entries through a Lifecycle and removes chunks through a
// ChunkCollection. Any bundler adapter implementing these interfaces can
// drive it; esbuildhost is the one shipped with minapack.
package host

import (
	"context"
	"errors"
	"fmt"
)

// ErrChunkIndex is returned by ChunkCollection.RemoveAt for an index out of range.
var ErrChunkIndex = errors.New("chunk index out of range")

type (
	// SingleEntry declares a bundle entry built from exactly one module.
	SingleEntry struct {
		// Name is the entry (and output) name, e.g. "pages/home/index".
		Name string
		// Path is the module path relative to the project root, e.g.
		// "./pages/home/index.js".
		Path string
	}

	// MultiEntry declares a bundle entry whose modules are all processed
	// together into one chunk.
	MultiEntry struct {
		Name  string
		Paths []string
	}

	// Declarations is the complete set of entries of one pass.
	Declarations struct {
		Singles []SingleEntry
		Multi   MultiEntry
	}

	// ChunkCollection is the mutable, ordered list of named output chunks of
	// a compilation.
	ChunkCollection interface {
		// FindIndexByName returns the index of the first chunk named name,
		// or -1.
		FindIndexByName(name string) int
		// RemoveAt removes the chunk at index; later chunks shift down.
		RemoveAt(index int) error
		// Names returns the chunk names in order.
		Names() []string
	}

	// Lifecycle is the port the engine drives during a pass.
	Lifecycle interface {
		// DeclareEntries replaces every previously declared entry. It must
		// apply all declarations or none of them.
		DeclareEntries(ctx context.Context, decl Declarations) error
		// OnChunkGraphReady registers fn to run once per compilation after
		// the chunk graph is built and before any chunk is emitted.
		OnChunkGraphReady(fn ChunkFunc)
	}

	// Compilation is one run of the bundler.
	Compilation interface {
		// OnBeforeChunkEmission registers fn for this compilation only.
		OnBeforeChunkEmission(fn ChunkFunc)
	}

	// Hooks are the bundler lifecycle events the engine subscribes to.
	Hooks interface {
		// OnEntryDeclaration runs when the bundler needs its entries. A
		// callback returning handled=true tells the bundler to skip its own
		// default entry handling.
		OnEntryDeclaration(fn func(ctx context.Context) (handled bool, err error))
		// OnRecompileTrigger runs before a triggered recompilation (for
		// example after watched files changed).
		OnRecompileTrigger(fn func(ctx context.Context, changed []string) error)
		// OnCompilationStart runs when a new compilation is created.
		OnCompilationStart(fn func(ctx context.Context, c Compilation))
	}

	// ChunkFunc receives the chunk collection of a compilation.
	ChunkFunc func(ctx context.Context, chunks ChunkCollection) error

	// Chunk is a named output unit with the files it will emit.
	Chunk struct {
		Name  string
		Files []string
	}

	// Chunks is a slice-backed ChunkCollection.
	Chunks struct {
		items []Chunk
	}
)

// Entries returns the number of declared entries, the multi entry included.
func (d Declarations) Entries() int {
	return len(d.Singles) + 1
}

// NewChunks returns a collection holding items in order.
func NewChunks(items ...Chunk) *Chunks {
	return &Chunks{items: append([]Chunk(nil), items...)}
}

// FindIndexByName implements ChunkCollection.
func (c *Chunks) FindIndexByName(name string) int {
	for i, ch := range c.items {
		if ch.Name == name {
			return i
		}
	}
	return -1
}

// RemoveAt implements ChunkCollection.
func (c *Chunks) RemoveAt(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrChunkIndex, index, len(c.items))
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// Names implements ChunkCollection.
func (c *Chunks) Names() []string {
	names := make([]string, len(c.items))
	for i, ch := range c.items {
		names[i] = ch.Name
	}
	return names
}

// Items returns the remaining chunks in order.
func (c *Chunks) Items() []Chunk {
	return append([]Chunk(nil), c.items...)
}
