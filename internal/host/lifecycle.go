// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"sync"
)

type (
	// EntryDeclarer accepts the entries of a pass.
	EntryDeclarer interface {
		DeclareEntries(ctx context.Context, decl Declarations) error
	}

	// Host is a bundler adapter: it emits lifecycle events and accepts
	// entry declarations.
	Host interface {
		Hooks
		EntryDeclarer
	}

	hostLifecycle struct {
		host Host
	}
)

// NewLifecycle adapts h to the Lifecycle port. OnChunkGraphReady callbacks
// are attached to every compilation h starts and run at most once per
// compilation, however often the compilation fires its emission event.
func NewLifecycle(h Host) Lifecycle {
	return &hostLifecycle{host: h}
}

func (l *hostLifecycle) DeclareEntries(ctx context.Context, decl Declarations) error {
	return l.host.DeclareEntries(ctx, decl)
}

func (l *hostLifecycle) OnChunkGraphReady(fn ChunkFunc) {
	l.host.OnCompilationStart(func(_ context.Context, c Compilation) {
		var once sync.Once
		c.OnBeforeChunkEmission(func(ctx context.Context, chunks ChunkCollection) error {
			var err error
			once.Do(func() { err = fn(ctx, chunks) })
			return err
		})
	})
}
