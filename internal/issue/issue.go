// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	DescriptorNotFoundId Id = iota + 1
	DescriptorParseErrorId
	MissingScriptFileId
	EntryNameCollisionId
	ConfigLoadFailedId
	BuildFailedId
	WatchFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // stable name accepted by `minapack explain`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

// Name returns the kebab-case name of the issue, e.g. "descriptor-not-found".
func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with the glamour style at stylePath ("dark",
// "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			fmt.Fprintf(&md, "- <%s>\n", link)
		}
		for _, link := range i.extLinks {
			fmt.Fprintf(&md, "- <%s>\n", link)
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	descriptorNotFoundIssue = &Issue{
		id:   DescriptorNotFoundId,
		name: "descriptor-not-found",
		mdMsg: `
# Descriptor file not found!

Every module reachable from the root entry needs a descriptor next to it:
the module path with a ` + "`.json`" + ` extension. A page or component was
referenced but its descriptor does not exist.

## Things you can try:
- Check the reference in the parent descriptor. Relative references resolve
  against the directory of the descriptor that contains them.
- Create an empty descriptor if the module has no children:
~~~
$ echo '{}' > src/pages/home/index.json
~~~
- Run ` + "`minapack graph`" + ` to see which descriptor references the module.`,
		extLinks: []HttpLink{
			"https://developers.weixin.qq.com/miniprogram/en/dev/reference/configuration/app.html",
		},
	}

	descriptorParseErrorIssue = &Issue{
		id:   DescriptorParseErrorId,
		name: "descriptor-parse-error",
		mdMsg: `
# Descriptor is not valid JSON!

A descriptor must be a JSON object. ` + "`pages`" + ` may be a list or an
object of module references, ` + "`usingComponents`" + ` an object of module
references. Other fields are ignored.

## Example:
~~~json
{
  "pages": ["pages/home/index", "pages/about/index"],
  "usingComponents": {
    "nav-bar": "/components/nav-bar/index"
  }
}
~~~

## Things you can try:
- Look for trailing commas and unquoted keys
- Make sure the file is not empty`,
	}

	missingScriptFileIssue = &Issue{
		id:   MissingScriptFileId,
		name: "missing-script-file",
		mdMsg: `
# Module has no script file!

A referenced module has a descriptor but no script file with any of the
configured script extensions (` + "`.ts`, `.js`" + ` by default).

## Things you can try:
- Add the script, even an empty one
- Add its extension to ` + "`scriptExtensions`" + ` in minapack.cue:
~~~cue
scriptExtensions: [".ts", ".js", ".mjs"]
~~~`,
	}

	entryNameCollisionIssue = &Issue{
		id:   EntryNameCollisionId,
		name: "entry-name-collision",
		mdMsg: `
# Entry name collides with the asset entry!

minapack reserves one entry name for the bundle of asset files. A module
resolved to the same name.

## Things you can try:
- Rename or move the module`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

minapack reads ` + "`minapack.cue`" + ` from the working directory (or the
file given with ` + "`--config`" + `) and ` + "`MINAPACK_*`" + ` environment
variables.

## Things you can try:
- Print the effective configuration:
~~~
$ minapack config show
~~~
- Check the CUE syntax and field types:
~~~cue
context: "src"
entry:   "app"
output:  "dist"
assetExtensions: [".wxss", ".wxml"]
watch: debounce: "300ms"
log: level: "info"
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	buildFailedIssue = &Issue{
		id:   BuildFailedId,
		name: "build-failed",
		mdMsg: `
# Build failed!

The entries were discovered but the bundler reported errors.

## Things you can try:
- Read the bundler messages above, they point at file and line
- Run ` + "`minapack entries`" + ` to check which modules are compiled
- Run with ` + "`--verbose`" + ` for the full error chain`,
		extLinks: []HttpLink{"https://esbuild.github.io/api/"},
	}

	watchFailedIssue = &Issue{
		id:   WatchFailedId,
		name: "watch-failed",
		mdMsg: `
# File watching failed!

The file watcher stopped and minapack cannot rebuild on change.

## Things you can try:
- On Linux, raise the inotify watch limit:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Add large generated directories to ` + "`watch.ignore`" + ` in minapack.cue`,
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		name: "permission-denied",
		mdMsg: `
# Permission denied!

minapack could not read a source file or write to the output directory.

## Things you can try:
- Check the permissions of the project and ` + "`output`" + ` directories
- Make sure no other process holds the output files`,
	}

	issues = map[Id]*Issue{
		descriptorNotFoundIssue.Id():   descriptorNotFoundIssue,
		descriptorParseErrorIssue.Id(): descriptorParseErrorIssue,
		missingScriptFileIssue.Id():    missingScriptFileIssue,
		entryNameCollisionIssue.Id():   entryNameCollisionIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		buildFailedIssue.Id():          buildFailedIssue,
		watchFailedIssue.Id():          watchFailedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every issue, ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup returns the issue with the given name, or nil.
func Lookup(name string) *Issue {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, i := range issues {
		if i.name == name {
			return i
		}
	}
	return nil
}
