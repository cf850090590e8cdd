// SPDX-License-Identifier: MPL-2.0

// Package install runs the installation pipeline: privilege check, platform
// detection and support check, transport selection, release resolution,
// download, verification, extraction, placement of the binary and its alias,
// and a final invocation of the installed binary.
//
// Every fatal condition is reported as an error wrapping one of the sentinel
// errors below. Non-fatal conditions are logged as warnings and recorded in
// the Result. The staging directory is removed before Run returns, whatever
// the outcome.
package install
