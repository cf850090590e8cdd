// SPDX-License-Identifier: MPL-2.0

// Package checksum verifies downloaded artifacts against published digests
// and, optionally, detached OpenPGP signatures.
//
// Checksum companion files follow sha256sum/sha512sum output. A file that
// records a single digest under a name different from the remote asset name
// (or with no name at all) still applies to the asset; Resolve reconciles it.
package checksum
