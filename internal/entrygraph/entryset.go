// SPDX-License-Identifier: MPL-2.0

package entrygraph

import (
	"slices"

	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

type (
	// Candidate is an absolute module path without extension. The module's
	// descriptor and source files share this basename.
	Candidate types.FilesystemPath

	// Edge records one reference from a module's descriptor.
	Edge struct {
		From Candidate
		To   Candidate
		// Field and Key locate the reference inside From's descriptor.
		Field string
		Key   string
	}

	// EntrySet is the ordered result of a resolution. Candidates appear in
	// order of first discovery and never twice.
	EntrySet struct {
		candidates []Candidate
		index      map[Candidate]int
		edges      []Edge
	}
)

// Path returns the candidate as a filesystem path.
func (c Candidate) Path() types.FilesystemPath { return types.FilesystemPath(c) }

// Dir returns the directory that relative references of this candidate
// resolve against.
func (c Candidate) Dir() types.FilesystemPath { return fspath.Dir(c.Path()) }

// String returns the candidate path.
func (c Candidate) String() string { return string(c) }

func newEntrySet() *EntrySet {
	return &EntrySet{index: make(map[Candidate]int)}
}

// add appends c and reports whether it was new.
func (s *EntrySet) add(c Candidate) bool {
	if _, ok := s.index[c]; ok {
		return false
	}
	s.index[c] = len(s.candidates)
	s.candidates = append(s.candidates, c)
	return true
}

// Root returns the first candidate, the module resolution started from.
func (s *EntrySet) Root() Candidate {
	if len(s.candidates) == 0 {
		return ""
	}
	return s.candidates[0]
}

// Candidates returns a copy of the candidates in discovery order.
func (s *EntrySet) Candidates() []Candidate {
	return slices.Clone(s.candidates)
}

// Len returns the number of distinct candidates.
func (s *EntrySet) Len() int { return len(s.candidates) }

// Contains reports whether c was discovered.
func (s *EntrySet) Contains(c Candidate) bool {
	_, ok := s.index[c]
	return ok
}

// Edges returns every reference followed during resolution, including
// references to candidates that had already been visited.
func (s *EntrySet) Edges() []Edge {
	return slices.Clone(s.edges)
}

// Children returns the candidates referenced by c's descriptor, in
// descriptor order. A candidate referenced twice by the same parent is
// listed once.
func (s *EntrySet) Children(c Candidate) []Candidate {
	var out []Candidate
	for _, e := range s.edges {
		if e.From == c && !slices.Contains(out, e.To) {
			out = append(out, e.To)
		}
	}
	return out
}
