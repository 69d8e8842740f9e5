// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/minapack/minapack/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode returns the process exit code for an error returned by the
// command tree. Errors that are not ExitErrors are generic failures.
func exitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	if exitErr, ok := asExitError(err); ok {
		return exitErr.Code
	}
	return types.ExitFailure
}
