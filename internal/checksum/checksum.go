// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the computed digest does not match the expected one.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrAssetNotFound indicates the requested file name was not found in the checksum file.
	ErrAssetNotFound = errors.New("asset not found in checksums")

	// ErrNoEntries indicates the checksum file contained no parseable entries.
	ErrNoEntries = errors.New("no valid checksum entries found")

	// ErrUnsupportedDigest indicates a digest whose length matches no known algorithm.
	ErrUnsupportedDigest = errors.New("unsupported digest length")
)

type (
	// Entry is one digest from a checksum file. Filename is empty for a file
	// holding only a bare digest.
	Entry struct {
		Digest   string // lowercase hex
		Filename string
	}

	// ChecksumError provides details about a verification failure. It wraps
	// ErrChecksumMismatch so callers can use errors.Is for classification.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}
)

// Error returns a description showing both digests.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// Parse reads a checksum file. Accepted line forms:
//
//	<hex>  name     text mode
//	<hex> *name     binary mode
//	<hex>           bare digest
//
// Empty lines, "#" comments and lines with malformed digests are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		digest, rest, _ := strings.Cut(line, " ")
		if !isValidHexDigest(digest) {
			continue
		}

		name := strings.TrimLeft(rest, " ")
		name = strings.TrimPrefix(name, "*")

		entries = append(entries, Entry{
			Digest:   strings.ToLower(digest),
			Filename: strings.TrimSpace(name),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	return entries, nil
}

// Resolve returns the entry for name. Entries match on the full recorded
// name or its base name. When nothing matches but the file holds exactly one
// entry, that entry is returned: a single-digest companion applies to its
// asset whatever name it was recorded under.
func Resolve(entries []Entry, name string) (Entry, error) {
	for _, e := range entries {
		if e.Filename == name || path.Base(e.Filename) == name {
			return e, nil
		}
	}

	if len(entries) == 1 {
		return entries[0], nil
	}

	return Entry{}, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
}

// Verify computes the digest of the file at filePath with d, picking the
// algorithm from the expected digest's length, and compares the two.
func Verify(d Digester, filePath, expected string) error {
	algo, err := AlgorithmFor(expected)
	if err != nil {
		return err
	}

	got, err := d.FileDigest(filePath, algo)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, expected) {
		return &ChecksumError{
			Filename: filePath,
			Expected: strings.ToLower(expected),
			Got:      got,
		}
	}

	return nil
}

// isValidHexDigest checks for a hex string of SHA-256 or SHA-512 length.
func isValidHexDigest(s string) bool {
	if len(s) != sha256HexLen && len(s) != sha512HexLen {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
