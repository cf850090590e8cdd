// SPDX-License-Identifier: MPL-2.0

// Package platform identifies the host the installer runs on and decides
// whether that host is supported.
//
// Detection reads the distribution identity from /etc/os-release, falling back
// to the legacy /etc/lsb-release, and reports "unknown" when neither exists.
// The CPU identifier comes from the kernel (uname -m) and is normalized to one
// of two canonical tokens, "amd64" or "arm64". Any other identifier is fatal.
//
// Support is a static allow-list of (OS family, version) pairs. A known family
// running an unlisted version is reported as UntestedVersion, which callers
// surface as a warning; an unknown family is an error.
package platform
