// SPDX-License-Identifier: MPL-2.0

// Package esbuildhost is a host.Host backed by esbuild.
//
// Every declared single entry is bundled into its own CommonJS file. The
// multi entry becomes a virtual module importing each of its paths; asset
// files are loaded with esbuild's file loader and extracted next to the
// scripts under their project-relative path. Output files are grouped into
// chunks, passed through the before-emission callbacks and written to the
// output directory.
package esbuildhost
