// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

type (
	// NativeTransport issues requests with net/http.
	NativeTransport struct {
		client *http.Client
	}

	// NativeOption configures a NativeTransport.
	NativeOption func(*NativeTransport)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) NativeOption {
	return func(n *NativeTransport) {
		n.client = c
	}
}

// NewNativeTransport creates a transport backed by http.DefaultClient.
func NewNativeTransport(opts ...NativeOption) *NativeTransport {
	n := &NativeTransport{client: http.DefaultClient}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns "native".
func (n *NativeTransport) Name() string { return PreferNative }

// Available is always true; the client is compiled in.
func (n *NativeTransport) Available() bool { return true }

// Fetch performs a GET and copies the body into w.
func (n *NativeTransport) Fetch(ctx context.Context, req Request, w io.Writer) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("GET %s: %w", redactURL(req.URL), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: redactURL(req.URL), StatusCode: resp.StatusCode}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading %s: %w", redactURL(req.URL), err)
	}
	return nil
}
