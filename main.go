// SPDX-License-Identifier: MPL-2.0

// Command minapack discovers mini-program entries and bundles them.
package main

import cmd "github.com/minapack/minapack/cmd/minapack"

func main() {
	cmd.Execute()
}
