// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type tarEntry struct {
	name     string
	body     string
	typeflag byte
}

func buildTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		hdr := &tar.Header{Name: e.name, Mode: 0o755, Size: int64(len(e.body)), Typeflag: typeflag}
		if typeflag != tar.TypeReg {
			hdr.Size = 0
			hdr.Linkname = "/etc/passwd"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing header: %v", err)
		}
		if typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("writing body: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	return buf.Bytes()
}

func compress(t *testing.T, format Format, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch format {
	case TarGz:
		w = gzip.NewWriter(&buf)
	case TarZst:
		w, err = zstd.NewWriter(&buf)
	case TarXz:
		w, err = xz.NewWriter(&buf)
	}
	if err != nil {
		t.Fatalf("creating writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compressing: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, name string, format Format, entries []tarEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, compress(t, format, buildTar(t, entries)), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}
	return path
}

func TestExtract_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file   string
		format Format
	}{
		{"invowk.tar.gz", TarGz},
		{"invowk.tgz", TarGz},
		{"invowk.tar.zst", TarZst},
		{"invowk.tar.xz", TarXz},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()

			archivePath := writeArchive(t, tt.file, tt.format, []tarEntry{
				{name: "README.md", body: "docs"},
				{name: "invowk_1.0.0_linux_amd64/invowk", body: "#!binary"},
			})
			dest := t.TempDir()

			got, err := NewExtractor().Extract(archivePath, "invowk", dest)
			if err != nil {
				t.Fatalf("Extract() unexpected error: %v", err)
			}
			if got != filepath.Join(dest, "invowk") {
				t.Errorf("Extract() path = %q", got)
			}
			data, err := os.ReadFile(got)
			if err != nil {
				t.Fatalf("reading extracted binary: %v", err)
			}
			if string(data) != "#!binary" {
				t.Errorf("extracted content = %q", data)
			}
		})
	}
}

func TestExtract_IgnoresLinksAndTraversal(t *testing.T) {
	t.Parallel()

	archivePath := writeArchive(t, "invowk.tar.gz", TarGz, []tarEntry{
		{name: "invowk", typeflag: tar.TypeSymlink},
		{name: "../../invowk", body: "real"},
	})
	dest := t.TempDir()

	got, err := NewExtractor().Extract(archivePath, "invowk", dest)
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if filepath.Dir(got) != dest {
		t.Errorf("Extract() wrote outside destination: %q", got)
	}
	info, err := os.Lstat(got)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.Mode().IsRegular() {
		t.Errorf("extracted entry is not a regular file: %v", info.Mode())
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Parallel()

	t.Run("binary missing", func(t *testing.T) {
		t.Parallel()

		archivePath := writeArchive(t, "invowk.tar.gz", TarGz, []tarEntry{{name: "other", body: "x"}})
		_, err := NewExtractor().Extract(archivePath, "invowk", t.TempDir())
		if !errors.Is(err, ErrBinaryNotFound) {
			t.Errorf("Extract() error = %v, want ErrBinaryNotFound", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()

		archivePath := writeArchive(t, "invowk.tar.gz", TarGz, []tarEntry{{name: "invowk", body: "0123456789"}})
		dest := t.TempDir()
		_, err := NewExtractor(WithMaxBytes(4)).Extract(archivePath, "invowk", dest)
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("Extract() error = %v, want ErrTooLarge", err)
		}
		if _, statErr := os.Stat(filepath.Join(dest, "invowk")); !errors.Is(statErr, os.ErrNotExist) {
			t.Errorf("partial binary left behind: %v", statErr)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		_, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "invowk.zip"), "invowk", t.TempDir())
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Extract() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("corrupt stream", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "invowk.tar.gz")
		if err := os.WriteFile(path, []byte("not gzip"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewExtractor().Extract(path, "invowk", t.TempDir()); err == nil {
			t.Error("Extract() expected error for corrupt archive")
		}
	})

	t.Run("binary name with separator", func(t *testing.T) {
		t.Parallel()

		if _, err := NewExtractor().Extract("x.tar.gz", "../invowk", t.TempDir()); err == nil {
			t.Error("Extract() expected error for path-like binary name")
		}
	})
}

func TestFormatExt(t *testing.T) {
	t.Parallel()

	for _, f := range []Format{TarGz, TarZst, TarXz} {
		got, err := DetectFormat("x" + f.Ext())
		if err != nil || got != f {
			t.Errorf("DetectFormat(%q) = %v, %v; want %v", f.Ext(), got, err, f)
		}
	}
}
