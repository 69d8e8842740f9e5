// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the catalog of known
// problems that `minapack explain` renders.
//
// An ActionableError says what minapack was doing, which file was involved
// and what the user can try next. When the failure matches a catalog entry,
// the error carries its Id so the CLI can point at the longer Markdown
// guidance.
package issue
