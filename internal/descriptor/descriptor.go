// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/minapack/minapack/pkg/cueutil"
	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

const (
	// Ext is the fixed descriptor extension.
	Ext = ".json"

	// FieldPages lists the pages of an app.
	FieldPages = "pages"
	// FieldUsingComponents maps component tags to component modules.
	FieldUsingComponents = "usingComponents"
)

//go:embed descriptor_schema.cue
var schema []byte

var (
	// ErrDescriptorRead is the sentinel error wrapped by ReadError.
	ErrDescriptorRead = errors.New("descriptor read failed")
	// ErrDescriptorParse is the sentinel error wrapped by ParseError.
	ErrDescriptorParse = errors.New("descriptor parse failed")

	// referenceFields are interpreted in this order.
	referenceFields = []string{FieldPages, FieldUsingComponents}
)

type (
	// Reference is one module reference found in a descriptor.
	Reference struct {
		// Field is the descriptor field the reference came from.
		Field string
		// Key is the record key, or the decimal index for list-shaped fields.
		Key string
		// Target is the raw reference as written, relative or absolute.
		Target string
	}

	// Skipped describes a reference value that was ignored.
	Skipped struct {
		// Path is the JSON path of the ignored value (e.g. "usingComponents.nav").
		Path   string
		Reason string
	}

	// Document is a parsed descriptor.
	Document struct {
		// Path is the descriptor file the document was read from.
		Path types.FilesystemPath
		// References holds the references of all recognized fields in
		// document order, pages first.
		References []Reference
		// Skipped lists values that were present but not usable.
		Skipped []Skipped
	}

	// ReadError is returned when a descriptor file is absent or unreadable.
	ReadError struct {
		Path types.FilesystemPath
		Err  error
	}

	// ParseError is returned when a descriptor is not a valid JSON object.
	ParseError struct {
		Path types.FilesystemPath
		Err  error
	}
)

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ReadError) Unwrap() []error { return []error{ErrDescriptorRead, e.Err} }

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrDescriptorParse, e.Err} }

// PathFor returns the descriptor path of an extension-less module path.
func PathFor(module types.FilesystemPath) types.FilesystemPath {
	return fspath.WithExt(module, Ext)
}

// Read reads and parses the descriptor at path.
func Read(path types.FilesystemPath) (*Document, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse parses descriptor data. path is used for error messages and is
// recorded on the returned document.
func Parse(path types.FilesystemPath, data []byte) (*Document, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, &ParseError{Path: path, Err: errors.New("empty document")}
	}

	v, err := cueutil.Compile(schema, data, "#Descriptor",
		cueutil.WithFilename(string(path)),
		cueutil.WithConcrete(true),
		cueutil.WithJSON(),
	)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	doc := &Document{Path: path}
	for _, field := range referenceFields {
		fv := v.LookupPath(cue.MakePath(cue.Str(field)))
		if !fv.Exists() {
			continue
		}
		if err := doc.collect(field, fv); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}
	return doc, nil
}

// collect appends the references held by a field value. Values of any shape
// other than list or record are recorded as skipped.
func (d *Document) collect(field string, v cue.Value) error {
	switch v.Kind() {
	case cue.StructKind:
		it, err := v.Fields()
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		for it.Next() {
			d.add(field, it.Selector().Unquoted(), it.Value())
		}
	case cue.ListKind:
		it, err := v.List()
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		for i := 0; it.Next(); i++ {
			d.add(field, strconv.Itoa(i), it.Value())
		}
	default:
		d.Skipped = append(d.Skipped, Skipped{
			Path:   field,
			Reason: fmt.Sprintf("expected list or record, got %s", v.Kind()),
		})
	}
	return nil
}

func (d *Document) add(field, key string, v cue.Value) {
	path := field + "." + key
	if v.Kind() != cue.StringKind {
		d.Skipped = append(d.Skipped, Skipped{Path: path, Reason: fmt.Sprintf("expected string, got %s", v.Kind())})
		return
	}
	target, err := v.String()
	if err != nil {
		d.Skipped = append(d.Skipped, Skipped{Path: path, Reason: err.Error()})
		return
	}
	switch {
	case strings.TrimSpace(target) == "":
		d.Skipped = append(d.Skipped, Skipped{Path: path, Reason: "empty reference"})
	case hasScheme(target):
		d.Skipped = append(d.Skipped, Skipped{Path: path, Reason: "platform reference " + target})
	default:
		d.References = append(d.References, Reference{Field: field, Key: key, Target: target})
	}
}

// hasScheme reports whether ref looks like "plugin://..." rather than a path.
func hasScheme(ref string) bool {
	scheme, _, ok := strings.Cut(ref, "://")
	if !ok || scheme == "" {
		return false
	}
	for _, c := range scheme {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}
