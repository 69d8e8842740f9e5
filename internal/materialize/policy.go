// SPDX-License-Identifier: MPL-2.0

package materialize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

type (
	// FirstMatch resolves a module to the first existing file over an
	// ordered extension list. Earlier extensions take priority.
	FirstMatch []string

	// AllMatches resolves a module to every existing file over an
	// extension list, in list order.
	AllMatches []string
)

// NewFirstMatch returns a FirstMatch policy over exts with normalized dots
// and duplicates removed.
func NewFirstMatch(exts ...string) FirstMatch { return FirstMatch(normalizeExts(exts)) }

// NewAllMatches returns an AllMatches policy over exts with normalized dots
// and duplicates removed.
func NewAllMatches(exts ...string) AllMatches { return AllMatches(normalizeExts(exts)) }

// Resolve returns the first file module+ext that exists as a regular file.
// ok is false when no extension matches.
func (p FirstMatch) Resolve(module types.FilesystemPath) (file types.FilesystemPath, ok bool, err error) {
	for _, ext := range p {
		candidate := fspath.WithExt(module, ext)
		found, err := isFile(candidate)
		if err != nil {
			return "", false, err
		}
		if found {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// Resolve returns every file module+ext that exists as a regular file.
func (p AllMatches) Resolve(module types.FilesystemPath) ([]types.FilesystemPath, error) {
	var files []types.FilesystemPath
	for _, ext := range p {
		candidate := fspath.WithExt(module, ext)
		found, err := isFile(candidate)
		if err != nil {
			return nil, err
		}
		if found {
			files = append(files, candidate)
		}
	}
	return files, nil
}

func isFile(path types.FilesystemPath) (bool, error) {
	info, err := os.Stat(string(path))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = fspath.NormalizeExt(ext)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
