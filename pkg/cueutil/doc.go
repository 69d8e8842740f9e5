// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE compile-and-validate flow shared by the
// configuration loader and the descriptor reader.
//
// JSON is a subset of CUE, so descriptor documents written as plain JSON go
// through the same path as minapack.cue:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with the schema definition
//  3. Validate, returning errors prefixed with file and field path
//
// Usage:
//
//	//go:embed descriptor_schema.cue
//	var schema []byte
//
//	v, err := cueutil.Compile(schema, data, "#Descriptor",
//	    cueutil.WithFilename("app.json"), cueutil.WithConcrete(true))
package cueutil
