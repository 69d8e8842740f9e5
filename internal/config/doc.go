// SPDX-License-Identifier: MPL-2.0

// Package config handles project configuration using Viper with CUE as the
// file format.
//
// Configuration is layered: built-in defaults, then minapack.cue (from the
// working directory or an explicit path), then MINAPACK_* environment
// variables. The file is validated against an embedded CUE schema
// (config_schema.cue) before it reaches Viper; values that CUE cannot check
// (durations, blank strings) are validated by Config.Validate.
package config
