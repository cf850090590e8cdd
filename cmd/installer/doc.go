// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the invowk-install command line: flag parsing,
// configuration loading, the install pipeline and the post-install handoff.
package cmd
