// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"

	"github.com/invowk/installer/internal/fetch"
	"github.com/invowk/installer/internal/handoff"
	"github.com/invowk/installer/internal/platform"
)

var (
	// ErrNotRoot indicates the process lacks the privileges to write the install directory.
	ErrNotRoot = errors.New("installer must run as root")
	// ErrUnsupportedOS indicates a host outside the support matrix.
	ErrUnsupportedOS = platform.ErrUnsupportedOS
	// ErrUnsupportedArch indicates a CPU without published binaries.
	ErrUnsupportedArch = platform.ErrUnsupportedArch
	// ErrNoTransport indicates no usable download tool.
	ErrNoTransport = fetch.ErrNoTransport
	// ErrReleaseLookup indicates the latest release could not be resolved.
	ErrReleaseLookup = errors.New("release lookup failed")
	// ErrDownload indicates the archive could not be retrieved.
	ErrDownload = errors.New("download failed")
	// ErrChecksum indicates a fetched checksum could not be applied or did not match.
	ErrChecksum = errors.New("checksum verification failed")
	// ErrSignature indicates a configured signature check failed.
	ErrSignature = errors.New("signature verification failed")
	// ErrExtract indicates the binary could not be extracted from the archive.
	ErrExtract = errors.New("extraction failed")
	// ErrCopy indicates the binary could not be placed in the install directory.
	ErrCopy = errors.New("copy failed")
	// ErrNotInvocable indicates the installed binary did not run.
	ErrNotInvocable = errors.New("installed binary is not invocable")
	// ErrHandoff indicates the post-install command could not be started.
	ErrHandoff = handoff.ErrHandoff
)
