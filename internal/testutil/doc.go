// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test fixtures shared across packages: a fake
// release host, release archive builders and filesystem assertions.
package testutil
