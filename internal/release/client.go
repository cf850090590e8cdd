// SPDX-License-Identifier: MPL-2.0

package release

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/invowk/installer/internal/fetch"
	"golang.org/x/mod/semver"
)

const (
	// DefaultAPIURL is the public GitHub REST API.
	DefaultAPIURL = "https://api.github.com"

	// maxJSONResponseBytes is the upper bound on the release metadata size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

var (
	// ErrNoTag indicates the release metadata carried no tag name.
	ErrNoTag = errors.New("release has no tag")

	// ErrInvalidVersion indicates the tag is not a valid semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrResponseTooLarge indicates the metadata exceeded maxJSONResponseBytes.
	ErrResponseTooLarge = errors.New("release metadata too large")
)

type (
	// Release is the resolved latest release.
	Release struct {
		TagName string // Tag as published, e.g. "v1.4.0"
		Version string // Tag without the leading "v", used in asset names
		Name    string
		HTMLURL string
	}

	// githubRelease is the JSON wire format of /releases/latest.
	githubRelease struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
		HTMLURL string `json:"html_url"`
	}

	// Client queries the releases endpoint through a fetch.Transport.
	Client struct {
		transport fetch.Transport
		owner     string
		repo      string
		baseURL   string
		token     string
		userAgent string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// cappedBuffer refuses writes beyond max bytes.
	cappedBuffer struct {
		bytes.Buffer
		max int
	}
)

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets a bearer token attached to API-host requests only.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRepo overrides the repository owner and name.
func WithRepo(owner, repo string) ClientOption {
	return func(c *Client) {
		c.owner = owner
		c.repo = repo
	}
}

// NewClient creates a Client that retrieves metadata with transport.
// Defaults: owner="invowk", repo="invowk", baseURL=DefaultAPIURL.
func NewClient(transport fetch.Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		owner:     "invowk",
		repo:      "invowk",
		baseURL:   DefaultAPIURL,
		userAgent: "invowk-install/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the latest published release and validates its tag.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	latestURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req := c.Request(latestURL)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	body := &cappedBuffer{max: maxJSONResponseBytes}
	if err := c.transport.Fetch(ctx, req, body); err != nil {
		return nil, fmt.Errorf("querying latest release of %s/%s: %w", c.owner, c.repo, err)
	}

	var gr githubRelease
	if err := json.Unmarshal(body.Bytes(), &gr); err != nil {
		return nil, fmt.Errorf("decoding latest release: %w", err)
	}

	tag := strings.TrimSpace(gr.TagName)
	if tag == "" {
		return nil, ErrNoTag
	}

	norm, err := normalizeVersion(tag)
	if err != nil {
		return nil, err
	}

	return &Release{
		TagName: tag,
		Version: strings.TrimPrefix(norm, "v"),
		Name:    gr.Name,
		HTMLURL: gr.HTMLURL,
	}, nil
}

// Request builds a fetch request for rawURL with the client's User-Agent.
// The token is attached only when the URL targets a known GitHub host, so a
// redirect to a third-party CDN never sees it.
func (c *Client) Request(rawURL string) fetch.Request {
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)

	if c.token != "" {
		if u, err := url.Parse(rawURL); err == nil && isGitHubHost(u, c.baseURL) {
			header.Set("Authorization", "Bearer "+c.token)
		}
	}

	return fetch.Request{URL: rawURL, Header: header}
}

// Write implements io.Writer.
func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.Len()+len(p) > b.max {
		return 0, ErrResponseTooLarge
	}
	return b.Buffer.Write(p)
}

// normalizeVersion ensures the version string has a "v" prefix as required by
// the semver package and validates the result.
func normalizeVersion(v string) (string, error) {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}

// isGitHubHost reports whether reqURL targets the configured API host or, when
// the API is api.github.com, the github.com download host.
func isGitHubHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(reqURL.Host, base.Host) {
		return true
	}
	return strings.EqualFold(base.Host, "api.github.com") && strings.EqualFold(reqURL.Host, "github.com")
}
