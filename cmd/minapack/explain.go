// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minapack/minapack/internal/issue"
	"github.com/minapack/minapack/pkg/types"
)

func newExplainCommand() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain an error and how to fix it",
		Long: `Render the guidance for an issue. Errors printed by other commands name
their issue, e.g. "minapack explain descriptor-not-found". Without an
argument, every known issue is listed.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, i := range issue.Values() {
				names = append(names, i.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(w, TitleStyle.Render("Issues"))
				for _, i := range issue.Values() {
					fmt.Fprintf(w, "  %s\n", CmdStyle.Render(i.Name()))
				}
				return nil
			}

			entry := issue.Lookup(args[0])
			if entry == nil {
				unknown := issue.NewActionableError("explain issue")
				unknown.Cause = fmt.Errorf("unknown issue %q", args[0])
				unknown.Suggestions = []string{"Run 'minapack explain' to list issues"}
				return &ExitError{Code: types.ExitUsage, Err: unknown}
			}
			rendered, err := entry.Render(style)
			if err != nil {
				return issue.WrapWithContext(err, "render issue", entry.Name())
			}
			fmt.Fprint(w, rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or ascii")
	return cmd
}
