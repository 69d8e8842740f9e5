// SPDX-License-Identifier: MPL-2.0

// Package engine connects entry discovery to a bundler host.
//
// An Engine subscribes to the host's entry-declaration and recompile
// events. Each event runs one pass: resolve the entry set from the root
// module, materialize it into entry declarations and declare them. When the
// host later builds the chunk graph of a compilation, the engine removes the
// aggregate asset chunk before anything is emitted.
//
// Passes are rebuilt from scratch every time and never overlap.
package engine
