// SPDX-License-Identifier: MPL-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	FormatCUE  Format = "cue"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrInvalidFormat is returned by Encode for an unknown Format.
var ErrInvalidFormat = errors.New("invalid config format")

// Format is an output format of `minapack config show`.
type Format string

// Encode renders cfg in the given format.
func Encode(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatCUE, "":
		return []byte(GenerateCUE(cfg)), nil
	case FormatTOML:
		out, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("encode config as toml: %w", err)
		}
		return out, nil
	case FormatJSON:
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode config as json: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w %q (valid: cue, toml, json)", ErrInvalidFormat, format)
	}
}

// GenerateCUE generates a minapack.cue document equivalent to cfg.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// minapack configuration\n\n")

	fmt.Fprintf(&sb, "context: %q\n", cfg.Context)
	fmt.Fprintf(&sb, "entry:   %q\n", cfg.Entry)
	fmt.Fprintf(&sb, "output:  %q\n", cfg.Output)
	fmt.Fprintf(&sb, "\nscript_extensions: %s\n", cueList(cfg.ScriptExtensions))
	fmt.Fprintf(&sb, "asset_extensions:  %s\n", cueList(cfg.AssetExtensions))

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce)
	fmt.Fprintf(&sb, "\tignore: %s\n", cueList(cfg.Watch.Ignore))
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
