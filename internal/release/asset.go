// SPDX-License-Identifier: MPL-2.0

package release

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidPattern indicates an asset pattern that renders to an unusable name.
var ErrInvalidPattern = errors.New("invalid asset pattern")

// AssetVars are the values substituted into asset and URL patterns.
type AssetVars struct {
	Name    string // tool name, e.g. "invowk"
	Version string // version without "v"
	Tag     string // tag as published
	OS      string
	Arch    string
	Owner   string
	Repo    string
}

// Render replaces {{name}}, {{version}}, {{tag}}, {{os}}, {{arch}},
// {{owner}} and {{repo}} placeholders in pattern.
func (v AssetVars) Render(pattern string) string {
	return strings.NewReplacer(
		"{{name}}", v.Name,
		"{{version}}", v.Version,
		"{{tag}}", v.Tag,
		"{{os}}", v.OS,
		"{{arch}}", v.Arch,
		"{{owner}}", v.Owner,
		"{{repo}}", v.Repo,
	).Replace(pattern)
}

// AssetName renders the archive file name for the release and platform.
// The result must be a bare file name with every placeholder resolved.
func AssetName(pattern string, vars AssetVars) (string, error) {
	name := vars.Render(pattern)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: %q renders empty", ErrInvalidPattern, pattern)
	case strings.Contains(name, "{{"):
		return "", fmt.Errorf("%w: %q has unknown placeholders", ErrInvalidPattern, pattern)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q is not a file name", ErrInvalidPattern, name)
	}
	return name, nil
}

// AssetURL joins the rendered download base, the tag and the asset name.
// The base pattern accepts the same placeholders as AssetVars.Render.
func AssetURL(basePattern string, vars AssetVars, asset string) string {
	base := strings.TrimRight(vars.Render(basePattern), "/")
	return base + "/" + url.PathEscape(vars.Tag) + "/" + url.PathEscape(asset)
}
