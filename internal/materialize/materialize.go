// SPDX-License-Identifier: MPL-2.0

package materialize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minapack/minapack/internal/entrygraph"
	"github.com/minapack/minapack/internal/host"
	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

// AggregateEntryName names the synthetic entry holding every asset file.
// No module path can produce it as a logical name without colliding, which
// Materialize rejects.
const AggregateEntryName = "__minapack_assets__"

var (
	// DefaultScriptExtensions is used when Options.ScriptExtensions is empty.
	DefaultScriptExtensions = []string{".ts", ".js"}

	// ErrMissingScriptFile is the sentinel error wrapped by MissingScriptFileError.
	ErrMissingScriptFile = errors.New("missing script file")
	// ErrEntryNameCollision is returned when a module's logical name equals
	// AggregateEntryName.
	ErrEntryNameCollision = errors.New("entry name collides with the aggregate asset entry")
)

type (
	// Options configures Materialize.
	Options struct {
		// ProjectRoot is the directory entry names and paths are relative to.
		ProjectRoot types.FilesystemPath
		// ScriptExtensions are tried in order; the first existing file wins.
		ScriptExtensions []string
		// AssetExtensions are all collected; every existing file is an asset.
		AssetExtensions []string
	}

	// Script is a candidate resolved to its script file.
	Script struct {
		Candidate entrygraph.Candidate
		// Name is the logical entry name, e.g. "pages/home/index".
		Name string
		// File is the absolute script file.
		File types.FilesystemPath
		// Path is File relative to the project root, e.g. "./pages/home/index.js".
		Path string
	}

	// Plan is the result of materializing one entry set.
	Plan struct {
		Scripts []Script
		// AssetFiles are the absolute asset files in discovery order.
		AssetFiles []types.FilesystemPath
		// Assets are AssetFiles relative to the project root.
		Assets []string
	}

	// MissingScriptFileError is returned when a candidate has no file for
	// any configured script extension.
	MissingScriptFileError struct {
		Candidate  entrygraph.Candidate
		Extensions []string
	}
)

// Error implements the error interface.
func (e *MissingScriptFileError) Error() string {
	return fmt.Sprintf("no script file for %s (tried %s)", e.Candidate, strings.Join(e.Extensions, ", "))
}

// Unwrap returns ErrMissingScriptFile for errors.Is() compatibility.
func (e *MissingScriptFileError) Unwrap() error { return ErrMissingScriptFile }

// Materialize resolves every candidate of set to its script file and
// collects asset files. It fails on the first candidate without a script
// file; no partial plan is returned.
func Materialize(set *entrygraph.EntrySet, opts Options) (*Plan, error) {
	root, err := fspath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	scriptExts := opts.ScriptExtensions
	if len(scriptExts) == 0 {
		scriptExts = DefaultScriptExtensions
	}
	scripts := NewFirstMatch(scriptExts...)
	assets := NewAllMatches(opts.AssetExtensions...)

	plan := &Plan{}
	seenAssets := make(map[types.FilesystemPath]bool)

	for _, c := range set.Candidates() {
		name, err := fspath.Rel(root, c.Path())
		if err != nil {
			return nil, err
		}
		if name == AggregateEntryName {
			return nil, fmt.Errorf("%w: %s", ErrEntryNameCollision, c)
		}

		file, ok, err := scripts.Resolve(c.Path())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &MissingScriptFileError{Candidate: c, Extensions: []string(scripts)}
		}
		path, err := relPath(root, file)
		if err != nil {
			return nil, err
		}
		plan.Scripts = append(plan.Scripts, Script{Candidate: c, Name: name, File: file, Path: path})

		found, err := assets.Resolve(c.Path())
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if seenAssets[f] {
				continue
			}
			seenAssets[f] = true
			rel, err := relPath(root, f)
			if err != nil {
				return nil, err
			}
			plan.AssetFiles = append(plan.AssetFiles, f)
			plan.Assets = append(plan.Assets, rel)
		}
	}
	return plan, nil
}

// Declarations converts the plan into host entry declarations: one single
// entry per script and the aggregate asset entry, which may be empty.
func (p *Plan) Declarations() host.Declarations {
	decl := host.Declarations{
		Singles: make([]host.SingleEntry, 0, len(p.Scripts)),
		Multi: host.MultiEntry{
			Name:  AggregateEntryName,
			Paths: append([]string{}, p.Assets...),
		},
	}
	for _, s := range p.Scripts {
		decl.Singles = append(decl.Singles, host.SingleEntry{Name: s.Name, Path: s.Path})
	}
	return decl
}

// Suppress removes the aggregate asset chunk from chunks. It reports whether
// a chunk was removed; an absent chunk is not an error.
func Suppress(chunks host.ChunkCollection) (bool, error) {
	idx := chunks.FindIndexByName(AggregateEntryName)
	if idx < 0 {
		return false, nil
	}
	if err := chunks.RemoveAt(idx); err != nil {
		return false, fmt.Errorf("remove aggregate chunk: %w", err)
	}
	return true, nil
}

func relPath(root, file types.FilesystemPath) (string, error) {
	rel, err := fspath.Rel(root, file)
	if err != nil {
		return "", err
	}
	return "./" + rel, nil
}
