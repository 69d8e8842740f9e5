// SPDX-License-Identifier: MPL-2.0

// Package descriptor reads the sidecar JSON documents that declare a
// module's child references.
//
// Every module of a project has a descriptor next to its source file with
// the same basename (app.json beside app.js). Two fields are recognized:
// "pages" (a list or record of references) and "usingComponents" (a record
// of references). All other fields are ignored.
package descriptor
