// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var errChecksumMismatch = errors.New("checksum mismatch")

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ae   *ActionableError
		want string
	}{
		{
			name: "privilege check",
			ae:   &ActionableError{Operation: "check privileges", Cause: errors.New("effective uid 1000")},
			want: "failed to check privileges: effective uid 1000",
		},
		{
			name: "config file with path",
			ae: &ActionableError{
				Operation: "load configuration",
				Resource:  "/etc/invowk/install.cue",
				Cause:     errors.New("expected '}', found EOF"),
			},
			want: "failed to load configuration: /etc/invowk/install.cue: expected '}', found EOF",
		},
		{
			name: "no cause",
			ae:   &ActionableError{Operation: "select a download transport"},
			want: "failed to select a download transport",
		},
		{
			name: "missing operation",
			ae:   &ActionableError{Cause: errors.New("boom")},
			want: "failed to install invowk: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.ae.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_MatchesWrappedSentinel(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("%w: invowk_1.0.0_linux_amd64.tar.gz", errChecksumMismatch)
	var err error = NewErrorContext().
		WithOperation("verify the archive checksum").
		Wrap(cause).
		Build()

	if !errors.Is(err, errChecksumMismatch) {
		t.Error("errors.Is() lost the sentinel through ActionableError")
	}
	var ae *ActionableError
	if !errors.As(fmt.Errorf("install: %w", err), &ae) || ae.Operation != "verify the archive checksum" {
		t.Errorf("errors.As() = %+v", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	ae := NewErrorContext().
		WithOperation("verify the archive checksum").
		WithResource("invowk_1.0.0_linux_amd64.tar.gz").
		WithSuggestions("Retry the installation").
		WithSuggestions("Report the release if it keeps failing").
		Wrap(fmt.Errorf("%w: sha256 differs", errChecksumMismatch)).
		Build()

	t.Run("concise", func(t *testing.T) {
		t.Parallel()

		got := ae.Format(false)
		want := "failed to verify the archive checksum: invowk_1.0.0_linux_amd64.tar.gz: checksum mismatch: sha256 differs\n" +
			"\n  • Retry the installation" +
			"\n  • Report the release if it keeps failing"
		if got != want {
			t.Errorf("Format(false) =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("verbose lists the chain", func(t *testing.T) {
		t.Parallel()

		got := ae.Format(true)
		for _, want := range []string{
			"Error chain:",
			"\n  1. checksum mismatch: sha256 differs",
			"\n  2. checksum mismatch",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("Format(true) missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("no suggestions", func(t *testing.T) {
		t.Parallel()

		bare := &ActionableError{Operation: "extract the binary"}
		if got := bare.Format(true); got != "failed to extract the binary" {
			t.Errorf("Format(true) = %q", got)
		}
	})
}

func TestActionableError_Guide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   Id
	}{
		{"not root", NotRootId},
		{"checksum mismatch", ChecksumMismatchId},
		{"config load", ConfigLoadFailedId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ae := NewErrorContext().WithOperation("install invowk").WithIssue(tt.id).Build()
			guide := ae.Guide()
			if guide == nil {
				t.Fatalf("Guide() = nil for issue %d", tt.id)
			}
			if guide.Id() != tt.id {
				t.Errorf("Guide().Id() = %d, want %d", guide.Id(), tt.id)
			}
			if strings.TrimSpace(string(guide.MarkdownMsg())) == "" {
				t.Error("linked guide has no text")
			}
		})
	}

	t.Run("unlinked", func(t *testing.T) {
		t.Parallel()

		if g := (&ActionableError{Operation: "install invowk"}).Guide(); g != nil {
			t.Errorf("Guide() = %v, want nil", g.Id())
		}
	})
}

func TestErrorContext_BuildCopiesSuggestions(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().
		WithOperation("resolve the latest release").
		WithSuggestions("Set GITHUB_TOKEN if the API rate limit was exceeded")

	first := ctx.Build()
	second := ctx.WithSuggestions("Check network access to api.github.com").Build()

	if first == second {
		t.Fatal("Build() returned the same pointer twice")
	}
	if len(first.Suggestions) != 1 {
		t.Errorf("first.Suggestions = %q, later additions leaked in", first.Suggestions)
	}
	if len(second.Suggestions) != 2 {
		t.Errorf("second.Suggestions = %q, want 2", second.Suggestions)
	}
}
