// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/json"
)

// DefaultMaxFileSize bounds the size of any document compiled through this
// package (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

type (
	// Option configures Compile.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
		concrete    bool
		json        bool
	}
)

func defaultOptions() options {
	return options{maxFileSize: DefaultMaxFileSize}
}

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithConcrete requires every value of the unified result to be concrete.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// WithJSON decodes data as strict JSON instead of CUE source. A key that
// repeats within an object keeps its last value.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// Compile compiles data, unifies it with the definition at schemaPath in
// schema and validates the result. Errors carry the filename and the JSON
// path of the offending field.
func Compile(schema, data []byte, schemaPath string, opts ...Option) (cue.Value, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	var userValue cue.Value
	if o.json {
		expr, err := json.Extract(filename, data)
		if err != nil {
			return cue.Value{}, FormatError(err, filename)
		}
		keepLastFields(expr)
		userValue = ctx.BuildExpr(expr, cue.Filename(filename))
	} else {
		userValue = ctx.CompileBytes(data, cue.Filename(filename))
	}
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}

	return unified, nil
}

// keepLastFields drops every object field that is followed by a field with
// the same name in the same object.
func keepLastFields(expr ast.Expr) {
	ast.Walk(expr, nil, func(n ast.Node) {
		lit, ok := n.(*ast.StructLit)
		if !ok {
			return
		}

		last := make(map[string]int, len(lit.Elts))
		for i, elt := range lit.Elts {
			if name, ok := fieldName(elt); ok {
				last[name] = i
			}
		}
		if len(last) == len(lit.Elts) {
			return
		}

		elts := lit.Elts[:0]
		for i, elt := range lit.Elts {
			if name, ok := fieldName(elt); ok && last[name] != i {
				continue
			}
			elts = append(elts, elt)
		}
		lit.Elts = elts
	})
}

func fieldName(elt ast.Decl) (string, bool) {
	f, ok := elt.(*ast.Field)
	if !ok {
		return "", false
	}
	name, _, err := ast.LabelName(f.Label)
	return name, err == nil
}
