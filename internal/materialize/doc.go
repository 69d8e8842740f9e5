// SPDX-License-Identifier: MPL-2.0

// Package materialize turns a resolved entry set into bundle entry
// declarations.
//
// Every candidate becomes one single entry named by its project-relative
// path, pointing at its script file (FirstMatch policy). Asset files found
// next to candidates (AllMatches policy) are gathered into one aggregate
// entry named AggregateEntryName, whose chunk is removed again by Suppress
// before the bundler emits files.
package materialize
