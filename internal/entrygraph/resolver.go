// SPDX-License-Identifier: MPL-2.0

package entrygraph

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/minapack/minapack/internal/descriptor"
	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

type (
	// ReadFunc loads the descriptor of a candidate.
	ReadFunc func(path types.FilesystemPath) (*descriptor.Document, error)

	// Option configures a Resolver.
	Option func(*Resolver)

	// Resolver walks descriptor references starting at a root module.
	// A Resolver holds no per-resolution state and may be reused.
	Resolver struct {
		projectRoot types.FilesystemPath
		read        ReadFunc
		logger      *log.Logger
	}
)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReader replaces descriptor.Read.
func WithReader(fn ReadFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.read = fn
		}
	}
}

// New creates a Resolver. The root entry passed to Resolve is interpreted
// relative to projectRoot.
func New(projectRoot types.FilesystemPath, opts ...Option) *Resolver {
	r := &Resolver{
		projectRoot: projectRoot,
		read:        descriptor.Read,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewCandidate normalizes ref, as written in a descriptor located in dir, into
// an entry candidate: resolved against dir, cleaned, extension removed.
func NewCandidate(dir types.FilesystemPath, ref string) Candidate {
	return Candidate(fspath.TrimExt(fspath.Resolve(dir, ref)))
}

// Resolve expands root into the set of all reachable modules. Traversal is
// depth-first in descriptor order; a candidate is appended the first time
// it is reached and its descriptor is read exactly once.
//
// A missing or malformed descriptor aborts the resolution with the
// descriptor error; no partial set is returned.
func (r *Resolver) Resolve(ctx context.Context, root string) (*EntrySet, error) {
	base, err := fspath.Abs(r.projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	set := newEntrySet()
	stack := []Candidate{NewCandidate(base, root)}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve entries canceled: %w", err)
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !set.add(current) {
			continue
		}

		doc, err := r.read(descriptor.PathFor(current.Path()))
		if err != nil {
			return nil, err
		}
		for _, s := range doc.Skipped {
			r.logger.Debug("skipping reference", "descriptor", doc.Path, "at", s.Path, "reason", s.Reason)
		}

		dir := current.Dir()
		children := make([]Candidate, 0, len(doc.References))
		for _, ref := range doc.References {
			child := NewCandidate(dir, ref.Target)
			set.edges = append(set.edges, Edge{From: current, To: child, Field: ref.Field, Key: ref.Key})
			children = append(children, child)
		}

		// Reverse so the first reference is popped first, matching the
		// visit order of a recursive walk.
		slices.Reverse(children)
		stack = append(stack, children...)
	}

	r.logger.Debug("resolved entries", "root", set.Root(), "count", set.Len(), "references", len(set.edges))
	return set, nil
}
