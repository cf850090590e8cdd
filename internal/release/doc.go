// SPDX-License-Identifier: MPL-2.0

// Package release resolves the latest published release of the tool and
// derives the names and URLs of its downloadable artifacts.
package release
