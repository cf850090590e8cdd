// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/invowk/installer/internal/install"
	"github.com/invowk/installer/internal/issue"
)

func TestToActionable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
		wantOp    string
	}{
		{"not root", fmt.Errorf("%w (effective uid 1000)", install.ErrNotRoot), issue.NotRootId, "check privileges"},
		{"unsupported os", fmt.Errorf("%w: alpine 3.19", install.ErrUnsupportedOS), issue.PlatformNotSupportedId, "check platform support"},
		{"unsupported arch", install.ErrUnsupportedArch, issue.PlatformNotSupportedId, "check platform support"},
		{"no transport", install.ErrNoTransport, issue.NoTransportId, "select a download transport"},
		{"checksum", fmt.Errorf("%w: mismatch", install.ErrChecksum), issue.ChecksumMismatchId, "verify the archive checksum"},
		{"copy", install.ErrCopy, issue.InstallFailedId, "install the binary"},
		{"handoff", install.ErrHandoff, issue.HandoffFailedId, "start the initialization command"},
		{"interrupt wins over step", fmt.Errorf("%w: %w", install.ErrDownload, context.Canceled), 0, "complete the installation (interrupted)"},
		{"unknown", errors.New("boom"), 0, "install invowk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ae := toActionable(tt.err)
			if ae.Issue != tt.wantIssue {
				t.Errorf("Issue = %v, want %v", ae.Issue, tt.wantIssue)
			}
			if ae.Operation != tt.wantOp {
				t.Errorf("Operation = %q, want %q", ae.Operation, tt.wantOp)
			}
			if !errors.Is(ae, tt.err) {
				t.Error("ActionableError does not wrap the original error")
			}
		})
	}
}

func TestToActionable_KeepsExistingContext(t *testing.T) {
	t.Parallel()

	orig := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource("/etc/invowk/install.cue").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(errors.New("syntax error")).
		Build()

	ae := toActionable(fmt.Errorf("wrapped: %w", orig))
	if ae != orig {
		t.Fatal("toActionable replaced an existing ActionableError")
	}
	if ae.Issue != issue.ConfigLoadFailedId || ae.Resource != "/etc/invowk/install.cue" {
		t.Errorf("toActionable() = %+v, want original context kept", ae)
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderError(&out, fmt.Errorf("%w (effective uid 1000)", install.ErrNotRoot), false)

	got := out.String()
	if !strings.Contains(got, "failed to check privileges") {
		t.Errorf("output missing operation:\n%s", got)
	}
	if !strings.Contains(got, "Re-run the installer with sudo") {
		t.Errorf("output missing suggestion:\n%s", got)
	}
	if strings.Contains(got, "Error chain:") {
		t.Error("non-verbose output includes the error chain")
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	if got := (&ExitError{Code: 1, Err: inner}).Error(); got != "inner" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&ExitError{Code: 1}).Error(); got != "exit status 1" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(&ExitError{Code: 1, Err: inner}, inner) {
		t.Error("ExitError does not unwrap")
	}
}
