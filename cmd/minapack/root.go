// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the minapack command tree.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via -ldflags.
	Version = "dev"
	// Commit is set at build time via -ldflags.
	Commit = "unknown"
	// BuildDate is set at build time via -ldflags.
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minapack",
		Short: "Mini-program entry discovery and bundling",
		Long: TitleStyle.Render("minapack") + SubtitleStyle.Render(" - mini-program bundler") + `

minapack walks the JSON descriptors of a mini-program, starting at the
app descriptor, and turns every reachable page and component into its own
bundle entry. Style and template files next to each module are emitted as
plain assets.

Quick start:
  ` + CmdStyle.Render("minapack entries") + `        Show what would be bundled
  ` + CmdStyle.Render("minapack build") + `          Bundle into the output directory
  ` + CmdStyle.Render("minapack watch") + `          Rebuild on every change`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is ./minapack.cue)")
	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config file)")

	rootCmd.AddCommand(
		newBuildCommand(app),
		newWatchCommand(app),
		newEntriesCommand(app),
		newGraphCommand(app),
		newConfigCommand(app),
		newExplainCommand(),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the command tree with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := NewApp(stdout, stderr)
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			app.renderError(w, err)
		}),
	)
	return int(exitCode(err))
}

// Execute runs minapack with the process arguments and exits.
// This is called by main.main().
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
