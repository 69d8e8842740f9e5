// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/minapack/minapack/internal/host/esbuildhost"
)

func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Discover entries and bundle them once",
		Long: `Resolve the descriptor graph from the root entry, declare one entry per
module plus the asset entry, and bundle everything into the output
directory. The asset entry itself is never written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.newProject(cmd.Context())
			if err != nil {
				return err
			}
			res, err := p.compiler.Run(cmd.Context())
			if err != nil {
				return fail("build project", err)
			}
			printBuildSummary(cmd.OutOrStdout(), p.cfg.Output, res, app.flags.verbose)
			return nil
		},
	}
}

// printBuildSummary prints one line per build plus, in verbose mode, the
// emitted and suppressed chunks.
func printBuildSummary(w io.Writer, outDir string, res *esbuildhost.Result, verbose bool) {
	fmt.Fprintf(w, "%s Built %d %s into %s %s\n",
		SuccessStyle.Render("✓"),
		len(res.Chunks),
		plural(len(res.Chunks), "chunk", "chunks"),
		pathStyle.Render(outDir),
		SubtitleStyle.Render("("+res.Duration.Round(time.Millisecond).String()+")"))

	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("  %d %s", len(res.Warnings), plural(len(res.Warnings), "warning", "warnings"))))
	}
	if !verbose {
		return
	}
	for _, ch := range res.Chunks {
		fmt.Fprintf(w, "  %s %s\n", entryNameStyle.Render(ch.Name), VerboseStyle.Render(fmt.Sprint(ch.Files)))
	}
	for _, name := range res.Suppressed {
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render(name), VerboseStyle.Render("(suppressed)"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
