// SPDX-License-Identifier: MPL-2.0

// Package fetch provides the transport capability used to retrieve release
// metadata and artifacts.
//
// Three interchangeable transports are available: the in-process HTTP client
// and the external curl and wget tools. They differ only in how a GET is
// issued. Select probes availability and returns the first usable one, so the
// rest of the installer never needs to know which mechanism moved the bytes.
package fetch
