// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath, plus the extension helpers used to
// turn module references into entry candidates.
package fspath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minapack/minapack/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean wraps filepath.Clean for FilesystemPath.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// Resolve returns ref as an absolute, cleaned path. Relative references are
// resolved against base, absolute references are only cleaned.
func Resolve(base types.FilesystemPath, ref string) types.FilesystemPath {
	if filepath.IsAbs(ref) {
		return types.FilesystemPath(filepath.Clean(ref))
	}
	return types.FilesystemPath(filepath.Join(string(base), ref))
}

// Rel wraps filepath.Rel and converts the result to forward slashes, the
// form used for bundle entry names and declared entry paths.
func Rel(base, target types.FilesystemPath) (string, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", fmt.Errorf("relativizing %s against %s: %w", target, base, err)
	}
	return filepath.ToSlash(rel), nil
}

// TrimExt removes the final extension of the last path element, if any.
// Dots in directory names are left alone.
func TrimExt(p types.FilesystemPath) types.FilesystemPath {
	ext := filepath.Ext(string(p))
	if ext == "" {
		return p
	}
	return types.FilesystemPath(strings.TrimSuffix(string(p), ext))
}

// WithExt appends ext to p. A missing leading dot is added.
func WithExt(p types.FilesystemPath, ext string) types.FilesystemPath {
	return types.FilesystemPath(string(p) + NormalizeExt(ext))
}

// NormalizeExt returns ext with exactly one leading dot. The empty string is
// returned unchanged.
func NormalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	return "." + strings.TrimLeft(ext, ".")
}
