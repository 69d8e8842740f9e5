// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/minapack/minapack/internal/host/esbuildhost"
)

func newWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild on every change",
		Long: `Build once, then watch the project root and rerun the whole discovery
pass and bundle after every debounced batch of changes. Failed builds are
reported and watching continues. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.newProject(cmd.Context())
			if err != nil {
				return err
			}

			report := func(res *esbuildhost.Result, err error) {
				if err != nil {
					renderServiceError(cmd.ErrOrStderr(), wrapServiceError("rebuild project", err), app.flags.verbose)
					return
				}
				printBuildSummary(cmd.OutOrStdout(), p.cfg.Output, res, app.flags.verbose)
			}

			err = p.compiler.Watch(cmd.Context(), report)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fail("watch project", err)
			}
			return nil
		},
	}
}
