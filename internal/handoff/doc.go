// SPDX-License-Identifier: MPL-2.0

// Package handoff implements the post-install step: asking whether to run the
// installed tool's initialization command and, if so, replacing the installer
// process with it.
package handoff
