// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

const (
	// SHA256 is the default digest published next to release archives.
	SHA256 Algorithm = "sha256"
	// SHA512 is accepted when the companion file carries 128-character digests.
	SHA512 Algorithm = "sha512"

	sha256HexLen = 64
	sha512HexLen = 128
)

type (
	// Algorithm names a digest algorithm.
	Algorithm string

	// Digester computes file digests. It is the digest capability probed
	// before retrieval; an installer without one skips verification.
	Digester interface {
		FileDigest(path string, algo Algorithm) (string, error)
	}

	// StdDigester hashes in-process.
	StdDigester struct{}
)

// AlgorithmFor infers the algorithm from a hex digest's length.
func AlgorithmFor(digest string) (Algorithm, error) {
	switch len(digest) {
	case sha256HexLen:
		return SHA256, nil
	case sha512HexLen:
		return SHA512, nil
	}
	return "", fmt.Errorf("%w: %d hex characters", ErrUnsupportedDigest, len(digest))
}

// FileDigest streams the file through the algorithm and returns the lowercase
// hex digest.
func (StdDigester) FileDigest(path string, algo Algorithm) (string, error) {
	var h hash.Hash
	switch algo {
	case SHA256:
		h = sha256.New()
	case SHA512:
		h = sha512.New()
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDigest, algo)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only file handle

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
