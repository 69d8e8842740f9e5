// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pelletier/go-toml/v2"

	"github.com/minapack/minapack/internal/issue"
	"github.com/minapack/minapack/pkg/types"
)

func writeConfig(t *testing.T, content string) types.FilesystemPath {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return types.FilesystemPath(dir)
}

func load(t *testing.T, opts LoadOptions) (*Config, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	dir := types.FilesystemPath(t.TempDir())
	cfg, err := load(t, LoadOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got, want := GenerateCUE(cfg), GenerateCUE(DefaultConfig()); got != want {
		t.Errorf("Load() =\n%s\nwant\n%s", got, want)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}
	if got := cfg.ProjectRoot(); got != types.FilesystemPath(filepath.Join(string(dir), "src")) {
		t.Errorf("ProjectRoot() = %q", got)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `
context: "miniprogram"
entry:   "app.json"
asset_extensions: [".wxss", "wxml"]
watch: debounce: "1s"
log: level: "debug"
`)

	cfg, err := load(t, LoadOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Context != "miniprogram" || cfg.Entry != "app.json" {
		t.Errorf("Context, Entry = %q, %q", cfg.Context, cfg.Entry)
	}
	if cfg.Output != "dist" {
		t.Errorf("Output = %q, want default", cfg.Output)
	}
	if !slices.Equal(cfg.ScriptExtensions, []string{".ts", ".js"}) {
		t.Errorf("ScriptExtensions = %v", cfg.ScriptExtensions)
	}
	if !slices.Equal(cfg.AssetExtensions, []string{".wxss", "wxml"}) {
		t.Errorf("AssetExtensions = %v", cfg.AssetExtensions)
	}
	if cfg.Log.Level.Level() != log.DebugLevel {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if want := types.FilesystemPath(filepath.Join(string(dir), ConfigFileName)); cfg.File != want {
		t.Errorf("File = %q, want %q", cfg.File, want)
	}
}

func TestLoad_ExplicitFileResolvesAgainstItsDirectory(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	sub := filepath.Join(base, "configs")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "dev.cue"), []byte(`output: "../build"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(t, LoadOptions{BaseDir: types.FilesystemPath(base), ConfigFilePath: "configs/dev.cue"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := cfg.OutputDir(), types.FilesystemPath(filepath.Join(base, "build")); got != want {
		t.Errorf("OutputDir() = %q, want %q", got, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `context: "src"`)
	t.Setenv("MINAPACK_CONTEXT", "app")
	t.Setenv("MINAPACK_ASSET_EXTENSIONS", ".wxss,.wxml")
	t.Setenv("MINAPACK_LOG_LEVEL", "warn")
	t.Setenv("MINAPACK_WATCH_DEBOUNCE", "50ms")

	cfg, err := load(t, LoadOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Context != "app" {
		t.Errorf("Context = %q, want env override", cfg.Context)
	}
	if !slices.Equal(cfg.AssetExtensions, []string{".wxss", ".wxml"}) {
		t.Errorf("AssetExtensions = %v", cfg.AssetExtensions)
	}
	if cfg.Log.Level != LogLevelWarn {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Watch.Debounce != "50ms" {
		t.Errorf("Watch.Debounce = %q", cfg.Watch.Debounce)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "syntax error", content: `context: "src`, want: "minapack.cue"},
		{name: "unknown field", content: `contxt: "src"`, want: "contxt"},
		{name: "wrong type", content: `entry: 42`, want: "entry"},
		{name: "invalid level", content: `log: level: "trace"`, want: "level"},
		{name: "invalid extension", content: `script_extensions: ["a/b"]`, want: "script_extensions"},
		{name: "invalid duration", content: `watch: debounce: "5 parsecs"`, want: "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := load(t, LoadOptions{BaseDir: writeConfig(t, tt.content)})
			if err == nil {
				t.Fatal("Load() expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{
		BaseDir:        types.FilesystemPath(t.TempDir()),
		ConfigFilePath: "nope.cue",
	})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{BaseDir: "  ", ConfigFilePath: "\t"})
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Fatalf("Load() error = %v, want ErrInvalidLoadOptions", err)
	}
	var optsErr *InvalidLoadOptionsError
	if !errors.As(err, &optsErr) || len(optsErr.FieldErrors) != 2 {
		t.Errorf("expected 2 field errors, got %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	cfg := DefaultConfig()
	cfg.Context = " "
	cfg.ScriptExtensions = nil
	cfg.AssetExtensions = []string{"."}
	cfg.Watch.Debounce = "-1s"
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
	}
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error should be *InvalidConfigError, got %T", err)
	}
	if len(cfgErr.FieldErrors) != 5 {
		t.Errorf("got %d field errors, want 5: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	if !errors.Is(cfg.Log.Level.Validate(), ErrInvalidLogLevel) {
		t.Error("unknown level should wrap ErrInvalidLogLevel")
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.AssetExtensions = []string{".wxss", ".wxml"}
	cfg.Watch.Ignore = []string{"dist/**"}
	cfg.Log.Level = LogLevelError

	dir := writeConfig(t, GenerateCUE(cfg))
	loaded, err := load(t, LoadOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	loaded.Dir, loaded.File = "", ""
	if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	out, err := Encode(cfg, FormatJSON)
	if err != nil {
		t.Fatalf("Encode(json) error = %v", err)
	}
	var fromJSON map[string]any
	if err := json.Unmarshal(out, &fromJSON); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if fromJSON["context"] != "src" {
		t.Errorf("json context = %v", fromJSON["context"])
	}
	if _, ok := fromJSON["Dir"]; ok {
		t.Error("json output should not contain Dir")
	}

	out, err = Encode(cfg, FormatTOML)
	if err != nil {
		t.Fatalf("Encode(toml) error = %v", err)
	}
	var fromTOML Config
	if err := toml.Unmarshal(out, &fromTOML); err != nil {
		t.Fatalf("invalid toml: %v\n%s", err, out)
	}
	if fromTOML.Watch.Debounce != "300ms" {
		t.Errorf("toml watch.debounce = %q", fromTOML.Watch.Debounce)
	}

	out, err = Encode(cfg, FormatCUE)
	if err != nil || !strings.Contains(string(out), `entry:   "app"`) {
		t.Errorf("Encode(cue) = %q, %v", out, err)
	}

	if _, err := Encode(cfg, "yaml"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Encode(yaml) error = %v, want ErrInvalidFormat", err)
	}
}

// TestSchemaMatchesConfig keeps config_schema.cue and the json tags of the
// config structs in sync.
func TestSchemaMatchesConfig(t *testing.T) {
	t.Parallel()

	schema := cuecontext.New().CompileBytes(configSchema)
	if schema.Err() != nil {
		t.Fatalf("compile schema: %v", schema.Err())
	}

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#WatchConfig", reflect.TypeFor[WatchConfig]()},
		{"#LogConfig", reflect.TypeFor[LogConfig]()},
	}
	for _, tt := range tests {
		cueFields := schemaFields(t, schema.LookupPath(cue.ParsePath(tt.def)))
		goFields := jsonTags(tt.typ)
		slices.Sort(cueFields)
		slices.Sort(goFields)
		if !slices.Equal(cueFields, goFields) {
			t.Errorf("%s: schema fields %v, Go fields %v", tt.def, cueFields, goFields)
		}
	}
}

func schemaFields(t *testing.T, v cue.Value) []string {
	t.Helper()

	iter, err := v.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	var names []string
	for iter.Next() {
		names = append(names, strings.TrimSuffix(iter.Selector().String(), "?"))
	}
	return names
}

func jsonTags(typ reflect.Type) []string {
	var names []string
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			names = append(names, name)
		}
	}
	return names
}
