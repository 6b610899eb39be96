package common

import (
	"crypto/tls"
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip sets the default User-Agent unless the request already carries
// one; the SofarCloud endpoints expect the vendor app's okhttp User-Agent,
// which callers set per request.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original request's headers
	// which might be shared or reused
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client with a default user-agent set. When
// insecure is true, TLS certificate validation is skipped entirely; that
// defeats transport trust, so it has to be opted into explicitly and is
// logged at startup.
func HTTPClient(timeout time.Duration, insecure bool) *http.Client {
	v := strings.TrimSpace(version)
	userAgent := "SofarBridge/" + v

	transport := http.RoundTripper(http.DefaultTransport)
	if insecure {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}

	return &http.Client{
		Transport: &userAgentTransport{
			transport: transport,
			userAgent: userAgent,
		},
		Timeout: timeout,
	}
}
