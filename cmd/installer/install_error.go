// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/invowk/installer/internal/install"
	"github.com/invowk/installer/internal/issue"
)

// failureKind describes how one fatal error class is presented.
type failureKind struct {
	target      error
	operation   string
	issue       issue.Id
	suggestions []string
}

// failureKinds is checked in order; the first matching target wins.
var failureKinds = []failureKind{
	{
		target:      context.Canceled,
		operation:   "complete the installation (interrupted)",
		suggestions: []string{"Re-run the installer; nothing was left behind in the staging directory"},
	},
	{
		target:      install.ErrNotRoot,
		operation:   "check privileges",
		issue:       issue.NotRootId,
		suggestions: []string{"Re-run the installer with sudo"},
	},
	{
		target:    install.ErrUnsupportedOS,
		operation: "check platform support",
		issue:     issue.PlatformNotSupportedId,
	},
	{
		target:    install.ErrUnsupportedArch,
		operation: "check platform support",
		issue:     issue.PlatformNotSupportedId,
	},
	{
		target:      install.ErrNoTransport,
		operation:   "select a download transport",
		issue:       issue.NoTransportId,
		suggestions: []string{"Use --transport auto to fall back to the built-in HTTP client"},
	},
	{
		target:      install.ErrReleaseLookup,
		operation:   "resolve the latest release",
		issue:       issue.ReleaseLookupFailedId,
		suggestions: []string{"Set GITHUB_TOKEN if the API rate limit was exceeded"},
	},
	{
		target:    install.ErrDownload,
		operation: "download the release archive",
		issue:     issue.DownloadFailedId,
	},
	{
		target:      install.ErrChecksum,
		operation:   "verify the archive checksum",
		issue:       issue.ChecksumMismatchId,
		suggestions: []string{"Retry the installation"},
	},
	{
		target:    install.ErrSignature,
		operation: "verify the archive signature",
		issue:     issue.SignatureInvalidId,
	},
	{
		target:    install.ErrExtract,
		operation: "extract the binary",
		issue:     issue.ExtractFailedId,
	},
	{
		target:    install.ErrCopy,
		operation: "install the binary",
		issue:     issue.InstallFailedId,
	},
	{
		target:    install.ErrNotInvocable,
		operation: "run the installed binary",
		issue:     issue.NotInvocableId,
	},
	{
		target:      install.ErrHandoff,
		operation:   "start the initialization command",
		issue:       issue.HandoffFailedId,
		suggestions: []string{"The binary is installed; run the initialization command yourself"},
	},
}

// toActionable converts a fatal error into an ActionableError linked to its
// troubleshooting guide. Errors that are already actionable keep their context.
func toActionable(err error) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	for _, kind := range failureKinds {
		if errors.Is(err, kind.target) {
			return issue.NewErrorContext().
				WithOperation(kind.operation).
				WithSuggestions(kind.suggestions...).
				WithIssue(kind.issue).
				Wrap(err).
				Build()
		}
	}

	return issue.NewErrorContext().
		WithOperation("install invowk").
		WithSuggestions("Re-run with --verbose for details").
		Wrap(err).
		Build()
}

// renderError writes the error and, when one exists, its troubleshooting guide.
func renderError(w io.Writer, err error, verbose bool) {
	ae := toActionable(err)
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+ae.Format(verbose))

	guide := ae.Guide()
	if guide == nil {
		return
	}
	rendered, renderErr := guide.Render("auto")
	if renderErr != nil {
		fmt.Fprintln(w, string(guide.MarkdownMsg()))
		return
	}
	fmt.Fprint(w, rendered)
}
