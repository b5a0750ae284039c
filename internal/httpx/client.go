// Package httpx builds the shared outbound HTTP client used for manifest
// and segment requests.
package httpx

import (
	"net/http"
	"time"
)

// HeaderTransport injects static headers into every outgoing request.
// Needed for CDNs that gate segments behind referer or cookie headers.
type HeaderTransport struct {
	Headers   map[string]string
	UserAgent string
	Base      http.RoundTripper
}

// RoundTrip implements http.RoundTripper. The request is cloned before
// mutation per the RoundTripper contract.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if len(t.Headers) == 0 && t.UserAgent == "" {
		return base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for k, v := range t.Headers {
		clone.Header.Set(k, v)
	}
	if t.UserAgent != "" {
		clone.Header.Set("User-Agent", t.UserAgent)
	}
	return base.RoundTrip(clone)
}

// NewClient returns a redirect-following client with the given per-request
// timeout and static header set.
func NewClient(timeout time.Duration, userAgent string, headers map[string]string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &HeaderTransport{
			Headers:   headers,
			UserAgent: userAgent,
		},
	}
}
