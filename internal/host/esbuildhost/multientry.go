// SPDX-License-Identifier: MPL-2.0

package esbuildhost

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/minapack/minapack/internal/host"
)

const (
	virtualPrefix    = "minapack-multi:"
	virtualNamespace = "minapack-multi"
)

// multiEntryPlugin serves the multi entry as a virtual module that imports
// every path of the entry, resolved from root.
func multiEntryPlugin(root string, entry host.MultiEntry) api.Plugin {
	return api.Plugin{
		Name: "minapack-multi-entry",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(virtualPrefix)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, virtualPrefix),
						Namespace: virtualNamespace,
					}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: virtualNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if args.Path != entry.Name {
						return api.OnLoadResult{}, fmt.Errorf("unknown multi entry %q", args.Path)
					}
					contents := multiEntrySource(entry.Paths)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

// multiEntrySource imports every path and exports the results, so each
// module stays referenced.
func multiEntrySource(paths []string) string {
	var sb strings.Builder
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = fmt.Sprintf("m%d", i)
		fmt.Fprintf(&sb, "import %s from %q;\n", names[i], p)
	}
	fmt.Fprintf(&sb, "export default [%s];\n", strings.Join(names, ", "))
	return sb.String()
}
