// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// The main helpers build mini-program fixtures on disk (WriteProject,
// WriteTree); the Must* helpers fail the test on filesystem errors.
package testutil
