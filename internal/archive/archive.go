// SPDX-License-Identifier: MPL-2.0

// Package archive extracts a single named executable from a compressed
// release tarball.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// DefaultMaxBinaryBytes is the upper bound on the extracted binary size (500 MB).
const DefaultMaxBinaryBytes = 500 << 20

const (
	// TarGz is a gzip-compressed tarball (.tar.gz or .tgz).
	TarGz Format = iota + 1
	// TarZst is a zstd-compressed tarball.
	TarZst
	// TarXz is an xz-compressed tarball.
	TarXz
)

var (
	// ErrUnsupportedFormat indicates an archive suffix with no known decoder.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrBinaryNotFound indicates the archive holds no regular file with the
	// requested name.
	ErrBinaryNotFound = errors.New("binary not found in archive")

	// ErrTooLarge indicates the binary exceeds the extractor's size cap.
	ErrTooLarge = errors.New("binary exceeds size limit")
)

type (
	// Format identifies an archive compression.
	Format int

	// Extractor pulls one file out of a tarball.
	Extractor struct {
		maxBytes int64
	}

	// Option configures an Extractor.
	Option func(*Extractor)
)

// DetectFormat infers the format from a file name suffix.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return TarGz, nil
	case strings.HasSuffix(lower, ".tar.zst"):
		return TarZst, nil
	case strings.HasSuffix(lower, ".tar.xz"):
		return TarXz, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Ext returns the canonical file suffix for the format.
func (f Format) Ext() string {
	switch f {
	case TarGz:
		return ".tar.gz"
	case TarZst:
		return ".tar.zst"
	case TarXz:
		return ".tar.xz"
	}
	return ""
}

// WithMaxBytes overrides the size cap.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		e.maxBytes = n
	}
}

// NewExtractor creates an Extractor capped at DefaultMaxBinaryBytes.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxBytes: DefaultMaxBinaryBytes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract finds the regular file whose base name is binaryName inside the
// archive at archivePath and writes it to destDir/binaryName. Both flat
// archives and nested layouts (invowk_1.0.0_linux_amd64/invowk) match. Entry
// paths are never used to build output paths.
func (e *Extractor) Extract(archivePath, binaryName, destDir string) (_ string, err error) {
	if binaryName == "" || binaryName != filepath.Base(binaryName) || binaryName == "." || binaryName == ".." {
		return "", fmt.Errorf("invalid binary name %q", binaryName)
	}

	format, err := DetectFormat(archivePath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	stream, closeStream, err := decompress(format, f)
	if err != nil {
		return "", err
	}
	defer closeStream()

	tr := tar.NewReader(stream)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return "", fmt.Errorf("reading tar entry: %w", nextErr)
		}

		if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != binaryName {
			continue
		}

		return e.writeEntry(tr, filepath.Join(destDir, binaryName))
	}

	return "", fmt.Errorf("%w: %q in %s", ErrBinaryNotFound, binaryName, filepath.Base(archivePath))
}

func (e *Extractor) writeEntry(r io.Reader, dest string) (_ string, err error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("extracting binary: %w", err)
	}
	if n > e.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, e.maxBytes)
	}

	return dest, nil
}

func decompress(format Format, r io.Reader) (io.Reader, func(), error) {
	switch format {
	case TarGz:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gr, func() { _ = gr.Close() }, nil
	case TarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	case TarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return xr, func() {}, nil
	}
	return nil, nil, ErrUnsupportedFormat
}
