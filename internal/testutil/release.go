// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// ReleaseServer is a fake release host. It serves:
//   - GET /repos/{owner}/{repo}/releases/latest -> Tag and ReleasePage()
//   - GET /download/{Tag}/{Asset} -> Archive
//   - GET /download/{Tag}/{Asset}.sha256 -> Checksum, 404 when empty, or
//     ChecksumStatus when set
//   - GET /download/{Tag}/{Asset}.sig -> Signature, or 404 when nil
//
// Fields may be changed after construction and before the first request.
type ReleaseServer struct {
	*httptest.Server

	Tag       string
	Asset     string
	Archive   []byte
	Checksum  string
	Signature []byte

	// ChecksumStatus, when non-zero, is returned for the checksum file
	// instead of its content.
	ChecksumStatus int

	// OnAsset, when set, handles the archive request instead. Returning
	// false falls through to serving Archive.
	OnAsset func(w http.ResponseWriter, r *http.Request) bool

	// Requests counts every request received.
	Requests atomic.Int32
}

// NewReleaseServer starts a release host for owner/repo serving archive as
// asset under tag. The checksum file records the digest under the asset
// name. The server is closed by t.Cleanup.
func NewReleaseServer(t testing.TB, owner, repo, tag, asset string, archive []byte) *ReleaseServer {
	t.Helper()

	rs := &ReleaseServer{
		Tag:      tag,
		Asset:    asset,
		Archive:  archive,
		Checksum: SHA256Hex(archive) + "  " + asset + "\n",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+owner+"/"+repo+"/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		rs.Requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tag_name":%q,"name":%q,"html_url":%q}`, rs.Tag, rs.Tag, rs.ReleasePage())
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		rs.Requests.Add(1)
		name, ok := strings.CutPrefix(r.URL.Path, "/download/"+rs.Tag+"/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch name {
		case rs.Asset:
			if rs.OnAsset != nil && rs.OnAsset(w, r) {
				return
			}
			_, _ = w.Write(rs.Archive)
		case rs.Asset + ".sha256":
			if rs.ChecksumStatus != 0 {
				w.WriteHeader(rs.ChecksumStatus)
				return
			}
			if rs.Checksum == "" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(rs.Checksum))
		case rs.Asset + ".sig":
			if rs.Signature == nil {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(rs.Signature)
		default:
			http.NotFound(w, r)
		}
	})

	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

// DownloadURL is the base to configure as repo.download_url.
func (rs *ReleaseServer) DownloadURL() string {
	return rs.URL + "/download"
}

// ReleasePage is the html_url reported for the release.
func (rs *ReleaseServer) ReleasePage() string {
	return rs.URL + "/releases/tag/" + rs.Tag
}
