// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// Supported means the (family, version) pair is on the allow-list.
	Supported Verdict = iota
	// UntestedVersion means the family is known but the version is not listed.
	UntestedVersion
)

// supportMatrix is the allow-list of OS families and their tested versions.
var supportMatrix = map[string][]string{
	"ubuntu":    {"20.04", "22.04", "24.04"},
	"debian":    {"11", "12"},
	"fedora":    {"39", "40", "41"},
	"rhel":      {"8", "9"},
	"centos":    {"8", "9"},
	"rocky":     {"8", "9"},
	"almalinux": {"8", "9"},
	"amzn":      {"2", "2023"},
}

// Verdict is the outcome of a support check that did not fail.
type Verdict int

// String returns a short name for the verdict.
func (v Verdict) String() string {
	switch v {
	case Supported:
		return "supported"
	case UntestedVersion:
		return "untested-version"
	}
	return "unknown"
}

// Check looks the descriptor up in the support matrix. Unknown families
// return ErrUnsupportedOS.
func Check(d Descriptor) (Verdict, error) {
	versions, ok := supportMatrix[d.ID]
	if !ok {
		return Supported, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedOS, d.Name(), strings.Join(Families(), ", "))
	}

	if slices.Contains(versions, d.VersionID) {
		return Supported, nil
	}

	// Point releases of a listed major (rhel 9.4, debian 12.5) count as listed.
	major, _, _ := strings.Cut(d.VersionID, ".")
	if major != d.VersionID && slices.Contains(versions, major) {
		return Supported, nil
	}

	return UntestedVersion, nil
}

// Families returns the supported OS families in sorted order.
func Families() []string {
	return slices.Sorted(maps.Keys(supportMatrix))
}

// SupportedVersions returns the tested versions of family, or nil if the
// family is not on the allow-list.
func SupportedVersions(family string) []string {
	return slices.Clone(supportMatrix[family])
}
