// SPDX-License-Identifier: MPL-2.0

// Package entrygraph expands a root module into the ordered, deduplicated
// set of modules reachable through descriptor references.
//
// Each module is identified by its extension-less absolute path (a
// Candidate). The resolver reads the module's descriptor, follows the
// "pages" and "usingComponents" references relative to the module's own
// directory, and visits every candidate at most once. Reference cycles and
// diamonds terminate on the visited set.
package entrygraph
