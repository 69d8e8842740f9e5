// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/minapack/minapack/internal/dag"
	"github.com/minapack/minapack/internal/entrygraph"
	"github.com/minapack/minapack/pkg/fspath"
	"github.com/minapack/minapack/pkg/types"
)

type graphFlagValues struct {
	order bool
}

func newGraphCommand(app *App) *cobra.Command {
	flags := &graphFlagValues{}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the module reference tree",
		Long: `Resolve the entry graph and print it as a tree rooted at the root entry.
A module referenced from several places is expanded once; later
occurrences are marked. Reference cycles are reported after the tree.

With --order the modules are listed leaves first, the order in which a
runtime has to register them. Ordering fails when the graph has a cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.newProject(cmd.Context())
			if err != nil {
				return err
			}
			set, _, err := p.engine.Plan(cmd.Context())
			if err != nil {
				return fail("resolve entries", err)
			}

			root := p.cfg.ProjectRoot()
			g := referenceGraph(root, set)
			if flags.order {
				return writeLoadOrder(cmd.OutOrStdout(), g)
			}
			writeGraph(cmd.OutOrStdout(), root, set, g)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.order, "order", false, "list modules leaves first instead of printing the tree")
	return cmd
}

// referenceGraph converts the resolved references into a dag.Graph keyed by
// project-relative module names.
func referenceGraph(root types.FilesystemPath, set *entrygraph.EntrySet) *dag.Graph {
	g := dag.New()
	for _, c := range set.Candidates() {
		g.AddNode(moduleLabel(root, c))
	}
	for _, e := range set.Edges() {
		g.AddEdge(moduleLabel(root, e.From), moduleLabel(root, e.To))
	}
	return g
}

func writeGraph(w io.Writer, root types.FilesystemPath, set *entrygraph.EntrySet, g *dag.Graph) {
	expanded := make(map[entrygraph.Candidate]bool, set.Len())
	onPath := make(map[entrygraph.Candidate]bool)

	var build func(c entrygraph.Candidate) *tree.Tree
	build = func(c entrygraph.Candidate) *tree.Tree {
		expanded[c] = true
		onPath[c] = true
		defer delete(onPath, c)

		t := tree.Root(entryNameStyle.Render(moduleLabel(root, c))).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(SubtitleStyle)
		for _, child := range set.Children(c) {
			label := moduleLabel(root, child)
			switch {
			case onPath[child]:
				t.Child(WarningStyle.Render(label + " ↺"))
			case expanded[child]:
				t.Child(pathStyle.Render(label + " (see above)"))
			case len(set.Children(child)) == 0:
				expanded[child] = true
				t.Child(entryNameStyle.Render(label))
			default:
				t.Child(build(child))
			}
		}
		return t
	}

	fmt.Fprintln(w, build(set.Root()).String())
	fmt.Fprintf(w, "\n%s\n", SubtitleStyle.Render(fmt.Sprintf("%d %s, %d %s",
		set.Len(), plural(set.Len(), "module", "modules"),
		len(set.Edges()), plural(len(set.Edges()), "reference", "references"))))

	cycles := g.Cycles()
	if len(cycles) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", WarningStyle.Render("Reference cycles"), SubtitleStyle.Render(fmt.Sprintf("(%d)", len(cycles))))
	for _, cycle := range cycles {
		fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " → "))
	}
}

func writeLoadOrder(w io.Writer, g *dag.Graph) error {
	order, err := g.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return &ExitError{Code: types.ExitFailure, Err: err}
		}
		return err
	}
	slices.Reverse(order)
	for i, name := range order {
		fmt.Fprintf(w, "%3d  %s\n", i+1, name)
	}
	return nil
}

// moduleLabel names a candidate relative to the project root, falling back
// to the absolute path for candidates outside it.
func moduleLabel(root types.FilesystemPath, c entrygraph.Candidate) string {
	rel, err := fspath.Rel(root, c.Path())
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return c.String()
	}
	return rel
}
