// SPDX-License-Identifier: MPL-2.0

package esbuildhost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrBuildFailed is the sentinel error wrapped by BuildError.
var ErrBuildFailed = errors.New("build failed")

// BuildError carries the error messages reported by esbuild.
type BuildError struct {
	Messages []api.Message
}

func (e *BuildError) Error() string {
	switch len(e.Messages) {
	case 0:
		return "build failed"
	case 1:
		return "build failed: " + describe(e.Messages[0])
	default:
		return fmt.Sprintf("build failed with %d errors: %s (and %d more)",
			len(e.Messages), describe(e.Messages[0]), len(e.Messages)-1)
	}
}

func (e *BuildError) Unwrap() error { return ErrBuildFailed }

// Details renders every message the way the esbuild CLI prints them.
func (e *BuildError) Details() string {
	return strings.Join(api.FormatMessages(e.Messages, api.FormatMessagesOptions{
		Kind: api.ErrorMessage,
	}), "")
}

func describe(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}
