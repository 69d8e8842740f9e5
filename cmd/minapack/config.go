// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minapack/minapack/internal/config"
	"github.com/minapack/minapack/pkg/types"
)

func newConfigCommand(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Long: `Inspect the configuration minapack runs with: defaults, overlaid by
minapack.cue (or --config), overlaid by MINAPACK_* environment variables.`,
	}
	configCmd.AddCommand(newConfigShowCommand(app), newConfigPathCommand(app))
	return configCmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			out, err := config.Encode(cfg, config.Format(format))
			if err != nil {
				return &ExitError{Code: types.ExitUsage, Err: err}
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(config.FormatCUE), "output format: cue, toml or json")
	return cmd
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.File == "" {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("no "+config.ConfigFileName+" found, using defaults"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.File)
			return nil
		},
	}
}
