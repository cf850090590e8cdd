// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// PreferAuto selects the first available transport in default order.
	PreferAuto = "auto"
	// PreferNative selects the in-process HTTP client.
	PreferNative = "native"
	// PreferCurl selects the external curl tool.
	PreferCurl = "curl"
	// PreferWget selects the external wget tool.
	PreferWget = "wget"
)

// ErrNoTransport is returned by Select when no candidate can be used.
var ErrNoTransport = errors.New("no usable download tool")

type (
	// Request describes a single GET.
	Request struct {
		URL    string
		Header http.Header
	}

	// Transport retrieves the body at a URL into a writer.
	Transport interface {
		// Name identifies the transport in logs and configuration.
		Name() string
		// Available reports whether the transport can be used on this host.
		Available() bool
		// Fetch streams the response body for req into w. Non-success
		// responses are errors.
		Fetch(ctx context.Context, req Request, w io.Writer) error
	}

	// StatusError reports an unexpected HTTP status from the native transport.
	StatusError struct {
		URL        string
		StatusCode int
	}
)

// Error formats the status with the redacted URL.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the native transport.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Defaults returns the built-in transports in selection order.
func Defaults() []Transport {
	return []Transport{NewNativeTransport(), NewCurlTransport(), NewWgetTransport()}
}

// Select picks a transport. With PreferAuto the first available candidate
// wins; otherwise the candidate with the preferred name must be available.
func Select(preference string, candidates ...Transport) (Transport, error) {
	pref := strings.ToLower(strings.TrimSpace(preference))
	if pref == "" {
		pref = PreferAuto
	}

	var tried []string
	for _, t := range candidates {
		if pref != PreferAuto && t.Name() != pref {
			continue
		}
		if t.Available() {
			return t, nil
		}
		tried = append(tried, t.Name())
	}

	if len(tried) == 0 {
		return nil, fmt.Errorf("%w: transport %q is not known", ErrNoTransport, pref)
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoTransport, strings.Join(tried, ", "))
}

// redactURL strips query parameters and fragments from a URL for safe
// inclusion in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
