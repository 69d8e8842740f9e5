// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/minapack/minapack/pkg/types"
)

func targets(doc *Document) []string {
	out := make([]string, 0, len(doc.References))
	for _, ref := range doc.References {
		out = append(out, ref.Target)
	}
	return out
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        string
		wantTargets []string
		wantSkipped int
	}{
		{
			name:        "empty object",
			data:        `{}`,
			wantTargets: []string{},
		},
		{
			name:        "pages as list keeps order",
			data:        `{"pages": ["pages/index/index", "pages/logs/logs"]}`,
			wantTargets: []string{"pages/index/index", "pages/logs/logs"},
		},
		{
			name:        "pages as record keeps document order",
			data:        `{"pages": {"z": "./z", "a": "./a", "m": "./m"}}`,
			wantTargets: []string{"./z", "./a", "./m"},
		},
		{
			name:        "pages before usingComponents",
			data:        `{"usingComponents": {"nav": "/components/nav"}, "pages": ["p"]}`,
			wantTargets: []string{"p", "/components/nav"},
		},
		{
			name:        "unknown fields ignored",
			data:        `{"window": {"navigationBarTitleText": "x"}, "component": true}`,
			wantTargets: []string{},
		},
		{
			name:        "wrong field shape tolerated",
			data:        `{"pages": "pages/index/index", "usingComponents": 3}`,
			wantTargets: []string{},
			wantSkipped: 2,
		},
		{
			name:        "non-string and empty values skipped",
			data:        `{"usingComponents": {"a": 1, "b": "", "c": null, "d": "./d"}}`,
			wantTargets: []string{"./d"},
			wantSkipped: 3,
		},
		{
			name:        "platform plugin components skipped",
			data:        `{"usingComponents": {"map": "plugin://maps/map", "card": "../card/card"}}`,
			wantTargets: []string{"../card/card"},
			wantSkipped: 1,
		},
		{
			name:        "repeated key keeps the last value",
			data:        `{"pages": ["old"], "usingComponents": {"c": "./x", "c": "./y"}, "pages": ["new"]}`,
			wantTargets: []string{"new", "./y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse("app.json", []byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := targets(doc); !slices.Equal(got, tt.wantTargets) {
				t.Errorf("targets = %v, want %v", got, tt.wantTargets)
			}
			if len(doc.Skipped) != tt.wantSkipped {
				t.Errorf("skipped = %v, want %d entries", doc.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestParse_ReferenceKeys(t *testing.T) {
	t.Parallel()

	doc, err := Parse("index.json", []byte(`{"pages": ["a"], "usingComponents": {"my-card": "./card"}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []Reference{
		{Field: FieldPages, Key: "0", Target: "a"},
		{Field: FieldUsingComponents, Key: "my-card", Target: "./card"},
	}
	if !slices.Equal(doc.References, want) {
		t.Errorf("References = %+v, want %+v", doc.References, want)
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, data := range []string{
		``,
		`{"pages": [`,
		`["pages"]`,
		`"app"`,
		`{"pages": ["a"],}`,
		"// app\n{\"pages\": [\"a\"]}",
		`{pages: ["a"]}`,
	} {
		_, err := Parse("bad.json", []byte(data))
		if err == nil {
			t.Errorf("Parse(%q) expected error", data)
			continue
		}
		if !errors.Is(err, ErrDescriptorParse) {
			t.Errorf("Parse(%q) error should wrap ErrDescriptorParse, got %v", data, err)
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) || parseErr.Path != "bad.json" {
			t.Errorf("Parse(%q) error should be *ParseError for bad.json, got %T", data, err)
		}
	}
}

func TestRead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	module := types.FilesystemPath(filepath.Join(dir, "app"))
	if err := os.WriteFile(string(PathFor(module)), []byte(`{"pages": ["pages/home/index"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Read(PathFor(module))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Path != PathFor(module) {
		t.Errorf("Path = %q, want %q", doc.Path, PathFor(module))
	}
	if got := targets(doc); !slices.Equal(got, []string{"pages/home/index"}) {
		t.Errorf("targets = %v", got)
	}
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()

	path := types.FilesystemPath(filepath.Join(t.TempDir(), "missing.json"))
	_, err := Read(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrDescriptorRead) {
		t.Errorf("error should wrap ErrDescriptorRead, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestHasScheme(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"plugin://maps/map":   true,
		"weui-x://button":     true,
		"./plugin/index":      false,
		"/components/a":       false,
		"://nothing":          false,
		"dir with:// colon/x": false,
	}
	for in, want := range tests {
		if got := hasScheme(in); got != want {
			t.Errorf("hasScheme(%q) = %v, want %v", in, got, want)
		}
	}
}
