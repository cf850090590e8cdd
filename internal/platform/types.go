// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
)

const (
	// Linux is the only runtime.GOOS value the installer accepts.
	Linux = "linux"

	// ArchAMD64 is the canonical token for 64-bit x86 hosts.
	ArchAMD64 = "amd64"
	// ArchARM64 is the canonical token for 64-bit ARM hosts.
	ArchARM64 = "arm64"

	// UnknownID is reported when no release-metadata file could be read.
	UnknownID = "unknown"

	// OSReleasePath is the freedesktop release-metadata file.
	OSReleasePath = "/etc/os-release"
	// LSBReleasePath is the legacy release-metadata file.
	LSBReleasePath = "/etc/lsb-release"
)

var (
	// ErrUnsupportedArch is returned for CPU identifiers outside the two supported buckets.
	ErrUnsupportedArch = errors.New("unsupported CPU architecture")

	// ErrUnsupportedOS is returned for non-Linux hosts and unknown OS families.
	ErrUnsupportedOS = errors.New("unsupported operating system")
)

// Descriptor is the platform identity read once per run.
type Descriptor struct {
	ID         string // lowercase os-release ID, e.g. "ubuntu"
	VersionID  string // os-release VERSION_ID, e.g. "22.04"
	PrettyName string // human-readable name, e.g. "Ubuntu 22.04.4 LTS"
	Arch       string // canonical architecture token ("amd64" or "arm64")
	ArchRaw    string // identifier as reported by the kernel
}

// Name returns the pretty name when known, otherwise "<id> <version>".
func (d Descriptor) Name() string {
	if d.PrettyName != "" {
		return d.PrettyName
	}
	if d.VersionID == "" {
		return d.ID
	}
	return d.ID + " " + d.VersionID
}

// String returns a one-line summary suitable for log output.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s/%s)", d.Name(), Linux, d.Arch)
}

// NormalizeArch maps a CPU identifier to its canonical token. Both the
// kernel spelling and the Go spelling of each bucket are accepted.
func NormalizeArch(raw string) (string, error) {
	switch raw {
	case "x86_64", "amd64":
		return ArchAMD64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	default:
		return "", fmt.Errorf("%w: %s (supported: x86_64, aarch64)", ErrUnsupportedArch, raw)
	}
}
