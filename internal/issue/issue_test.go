// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func passthroughRender(t *testing.T) {
	t.Helper()

	original := render
	t.Cleanup(func() { render = original })
	render = func(in string, _ string) (string, error) { return in, nil }
}

func TestId_StartsAtOneAndIsUnique(t *testing.T) {
	if NotRootId != 1 {
		t.Errorf("NotRootId = %d, want 1", NotRootId)
	}

	seen := make(map[Id]bool)
	for _, i := range Values() {
		if seen[i.Id()] {
			t.Errorf("duplicate ID: %d", i.Id())
		}
		seen[i.Id()] = true
	}
}

func TestValues_OrderedAndComplete(t *testing.T) {
	values := Values()
	if len(values) != int(ConfigLoadFailedId) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), ConfigLoadFailedId)
	}
	for i, v := range values {
		if v.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, v.Id(), i+1)
		}
		if v.MarkdownMsg() == "" {
			t.Errorf("issue %d has empty MarkdownMsg", v.Id())
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	if Get(0) != nil || Get(Id(9999)) != nil {
		t.Error("Get() should return nil for unknown IDs")
	}
}

func TestIssue_Render(t *testing.T) {
	passthroughRender(t)

	rendered, err := Get(NotRootId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "sudo") {
		t.Error("Render() output should mention sudo")
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}

	withLinks, err := Get(DownloadFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(withLinks, "See also") || !strings.Contains(withLinks, string(releasesLink)) {
		t.Error("Render() with links should list them under 'See also'")
	}
}

func TestIssue_DocLinksReturnsClone(t *testing.T) {
	i := Get(PlatformNotSupportedId)
	links := i.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links")
	}
	links[0] = "modified"
	if i.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
}

func TestAllIssuesRenderWithGlamour(t *testing.T) {
	for _, i := range Values() {
		rendered, err := i.Render("notty")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", i.Id(), err)
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("issue %d rendered to empty string", i.Id())
		}
	}
}

func TestActionableError_Guide(t *testing.T) {
	err := NewErrorContext().
		WithOperation("verify checksum").
		WithIssue(ChecksumMismatchId).
		Wrap(errors.New("mismatch")).
		Build()

	if g := err.Guide(); g == nil || g.Id() != ChecksumMismatchId {
		t.Errorf("Guide() = %v, want checksum guide", g)
	}

	plain := NewErrorContext().WithOperation("x").Build()
	if plain.Guide() != nil {
		t.Error("Guide() should be nil without an issue")
	}
}
