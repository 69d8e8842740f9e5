// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/minapack/minapack/internal/config"
	"github.com/minapack/minapack/internal/descriptor"
	"github.com/minapack/minapack/internal/host/esbuildhost"
	"github.com/minapack/minapack/internal/issue"
	"github.com/minapack/minapack/internal/materialize"
	"github.com/minapack/minapack/internal/watch"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Always create via newServiceError to enforce the
// Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps an engine, host or config error to its catalog entry.
// It returns 0 when no entry applies.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae != nil && ae.Issue != 0 {
		return ae.Issue
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	case errors.Is(err, descriptor.ErrDescriptorRead):
		return issue.DescriptorNotFoundId
	case errors.Is(err, descriptor.ErrDescriptorParse):
		return issue.DescriptorParseErrorId
	case errors.Is(err, materialize.ErrMissingScriptFile):
		return issue.MissingScriptFileId
	case errors.Is(err, materialize.ErrEntryNameCollision):
		return issue.EntryNameCollisionId
	case errors.Is(err, esbuildhost.ErrBuildFailed):
		return issue.BuildFailedId
	case errors.Is(err, watch.ErrInvalidWatchConfig), errors.Is(err, watch.ErrWatcherBroken):
		return issue.WatchFailedId
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidLogLevel),
		errors.Is(err, config.ErrInvalidLoadOptions):
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

// actionableError attaches the failed operation, the catalog entry and
// remediation hints to err. An ActionableError already in the chain is
// returned as is.
func actionableError(operation string, err error) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae != nil {
		return ae
	}

	id := classifyError(err)
	if id == 0 {
		return issue.WrapWithOperation(err, operation)
	}

	ctx := issue.NewErrorContext().WithOperation(operation).WithIssue(id).Wrap(err)
	switch id {
	case issue.DescriptorNotFoundId:
		ctx.WithSuggestions(
			"Create the descriptor next to the page or component",
			"Fix the path in the referencing pages or usingComponents entry",
		)
	case issue.DescriptorParseErrorId:
		ctx.WithSuggestion("Make the descriptor a single JSON object without comments or trailing commas")
	case issue.MissingScriptFileId:
		var missing *materialize.MissingScriptFileError
		if errors.As(err, &missing) && len(missing.Extensions) > 0 {
			ctx.WithSuggestion("Add a script with one of the extensions " + strings.Join(missing.Extensions, ", "))
		} else {
			ctx.WithSuggestion("Add a script file next to the descriptor")
		}
	case issue.EntryNameCollisionId:
		ctx.WithSuggestion("Rename the module so it does not clash with the asset entry name")
	case issue.BuildFailedId:
		ctx.WithSuggestion("Fix the esbuild errors listed below and run the command again")
	case issue.WatchFailedId:
		ctx.WithSuggestions(
			"Check the watch patterns in the configuration",
			"Raise fs.inotify.max_user_watches on Linux",
		)
	case issue.PermissionDeniedId:
		ctx.WithSuggestion("Check the file permissions of the project tree")
	case issue.ConfigLoadFailedId:
		ctx.WithSuggestion("Run 'minapack config show' to inspect the effective configuration")
	}
	return ctx.Build()
}

// wrapServiceError turns err into an ActionableError for operation,
// classifies it and attaches the build diagnostics when esbuild produced
// any.
func wrapServiceError(operation string, err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	ae := actionableError(operation, err)
	styled := ""
	var buildErr *esbuildhost.BuildError
	if errors.As(err, &buildErr) {
		styled = ErrorStyle.Render("Error: ") + ae.Format(false) + "\n\n" + buildErr.Details()
	}
	return newServiceError(ae, classifyError(ae), styled)
}

// renderServiceError prints the styled message (or the formatted error)
// followed by a pointer to the catalog entry. In verbose mode the catalog
// entry itself is rendered.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, verbose bool) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprintln(stderr, svcErr.StyledMessage)
	} else {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(svcErr.Err, verbose))
	}

	if svcErr.IssueID == 0 {
		return
	}
	catalogEntry := issue.Get(svcErr.IssueID)
	if catalogEntry == nil {
		return
	}

	if verbose {
		rendered, err := catalogEntry.Render("dark")
		if err == nil {
			fmt.Fprint(stderr, rendered)
			return
		}
	}
	fmt.Fprintf(stderr, "\n%s\n", SubtitleStyle.Render("Run "+CmdStyle.Render("minapack explain "+catalogEntry.Name())+" for details."))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae != nil {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

func asExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	ok := errors.As(err, &exitErr)
	return exitErr, ok
}

func asServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
