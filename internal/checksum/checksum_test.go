// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	hashA = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	hashB = "f7a8b9c0d1e2f7a8b9c0d1e2f7a8b9c0d1e2f7a8b9c0d1e2f7a8b9c0d1e2f7a8"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "invowk.tar.gz")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}
	return path
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestParse_LineForms(t *testing.T) {
	t.Parallel()

	input := strings.NewReader(
		"# generated by release tooling\n" +
			hashA + "  invowk_1.1.0_linux_amd64.tar.gz\n" +
			"\n" +
			strings.ToUpper(hashB) + " *invowk_1.1.0_linux_arm64.tar.gz\n" +
			"abcdef1234  too_short.tar.gz\n" +
			"zzzz" + hashA[4:] + "  not_hex.tar.gz\n",
	)

	entries, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	want := []Entry{
		{Digest: hashA, Filename: "invowk_1.1.0_linux_amd64.tar.gz"},
		{Digest: hashB, Filename: "invowk_1.1.0_linux_arm64.tar.gz"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Parse() returned %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParse_BareDigest(t *testing.T) {
	t.Parallel()

	entries, err := Parse(strings.NewReader(hashA + "\n"))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Filename != "" || entries[0].Digest != hashA {
		t.Errorf("Parse() = %+v, want one bare entry", entries)
	}
}

func TestParse_NoEntries(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("# nothing here\n\n"))
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("Parse() error = %v, want ErrNoEntries", err)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	multi := []Entry{
		{Digest: hashA, Filename: "dist/invowk_1.0.0_linux_amd64.tar.gz"},
		{Digest: hashB, Filename: "invowk_1.0.0_linux_arm64.tar.gz"},
	}

	tests := []struct {
		name    string
		entries []Entry
		lookup  string
		want    string
		wantErr bool
	}{
		{"exact name", multi, "invowk_1.0.0_linux_arm64.tar.gz", hashB, false},
		{"base name of recorded path", multi, "invowk_1.0.0_linux_amd64.tar.gz", hashA, false},
		{"missing from multi-entry file", multi, "invowk.tar.gz", "", true},
		{"single entry under another name", []Entry{{Digest: hashA, Filename: "invowk.tar.gz"}}, "invowk_1.0.0_linux_amd64.tar.gz", hashA, false},
		{"single bare digest", []Entry{{Digest: hashB}}, "invowk_1.0.0_linux_amd64.tar.gz", hashB, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.entries, tt.lookup)
			if tt.wantErr {
				if !errors.Is(err, ErrAssetNotFound) {
					t.Fatalf("Resolve() error = %v, want ErrAssetNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got.Digest != tt.want {
				t.Errorf("Resolve() digest = %q, want %q", got.Digest, tt.want)
			}
		})
	}
}

func TestVerify_ReconciledNameMatches(t *testing.T) {
	t.Parallel()

	const content = "release archive bytes"
	path := writeArtifact(t, content)

	// Companion recorded under the remote asset name; the local file is saved
	// under a different name.
	entries, err := Parse(strings.NewReader(sha256Hex(content) + "  invowk_1.2.0_linux_amd64.tar.gz\n"))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	entry, err := Resolve(entries, filepath.Base(path))
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	if err := Verify(StdDigester{}, path, entry.Digest); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}
}

func TestVerify_WrongBytesFail(t *testing.T) {
	t.Parallel()

	path := writeArtifact(t, "tampered bytes")

	err := Verify(StdDigester{}, path, sha256Hex("release archive bytes"))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Verify() error = %v, want ErrChecksumMismatch", err)
	}

	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatalf("Verify() error is not a *ChecksumError: %T", err)
	}
	if ce.Got != sha256Hex("tampered bytes") {
		t.Errorf("ChecksumError.Got = %q", ce.Got)
	}
}

func TestVerify_SHA512(t *testing.T) {
	t.Parallel()

	const content = "payload"
	path := writeArtifact(t, content)
	sum := sha512.Sum512([]byte(content))

	if err := Verify(StdDigester{}, path, strings.ToUpper(hex.EncodeToString(sum[:]))); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}
}

func TestVerify_UnsupportedDigest(t *testing.T) {
	t.Parallel()

	err := Verify(StdDigester{}, writeArtifact(t, "x"), "abcdef")
	if !errors.Is(err, ErrUnsupportedDigest) {
		t.Errorf("Verify() error = %v, want ErrUnsupportedDigest", err)
	}
}

func TestStdDigester_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := StdDigester{}.FileDigest(filepath.Join(t.TempDir(), "absent"), SHA256)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("FileDigest() error = %v, want os.ErrNotExist", err)
	}
}
