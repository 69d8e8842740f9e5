// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/minapack/minapack/internal/host"
	"github.com/minapack/minapack/pkg/types"
)

type (
	entriesReport struct {
		Entries []entryJSON `json:"entries"`
		Assets  assetsJSON  `json:"assets"`
	}

	entryJSON struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}

	assetsJSON struct {
		Name  string   `json:"name"`
		Paths []string `json:"paths"`
	}

	entriesFlagValues struct {
		format string
	}
)

func newEntriesCommand(app *App) *cobra.Command {
	flags := &entriesFlagValues{}
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Print the entries a build would declare",
		Long: `Resolve and materialize the entry graph without bundling anything.

Every reachable module is listed with the script file it resolved to,
followed by the asset files gathered into the aggregate entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.format != "text" && flags.format != "json" {
				return &ExitError{Code: types.ExitUsage, Err: fmt.Errorf("invalid format %q (valid: text, json)", flags.format)}
			}

			p, err := app.newProject(cmd.Context())
			if err != nil {
				return err
			}
			_, plan, err := p.engine.Plan(cmd.Context())
			if err != nil {
				return fail("resolve entries", err)
			}

			decl := plan.Declarations()
			if flags.format == "json" {
				return writeEntriesJSON(cmd.OutOrStdout(), decl)
			}
			writeEntriesText(cmd.OutOrStdout(), decl)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text or json")
	return cmd
}

func writeEntriesJSON(w io.Writer, decl host.Declarations) error {
	report := entriesReport{
		Entries: make([]entryJSON, 0, len(decl.Singles)),
		Assets:  assetsJSON{Name: decl.Multi.Name, Paths: append([]string{}, decl.Multi.Paths...)},
	}
	for _, e := range decl.Singles {
		report.Entries = append(report.Entries, entryJSON(e))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeEntriesText(w io.Writer, decl host.Declarations) {
	width := 0
	for _, e := range decl.Singles {
		width = max(width, len(e.Name))
	}

	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Entries"), SubtitleStyle.Render(fmt.Sprintf("(%d)", len(decl.Singles))))
	for _, e := range decl.Singles {
		fmt.Fprintf(w, "  %s  %s\n", entryNameStyle.Render(fmt.Sprintf("%-*s", width, e.Name)), pathStyle.Render(e.Path))
	}

	fmt.Fprintf(w, "\n%s %s %s\n",
		TitleStyle.Render("Assets"),
		VerboseStyle.Render("→ "+decl.Multi.Name),
		SubtitleStyle.Render(fmt.Sprintf("(%d)", len(decl.Multi.Paths))))
	for _, p := range decl.Multi.Paths {
		fmt.Fprintf(w, "  %s\n", pathStyle.Render(p))
	}
}
