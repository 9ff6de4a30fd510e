package oauth

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds outbound calls to the identity provider so a
// misbehaving provider fails rather than hangs.
const DefaultTimeout = 5 * time.Second

// HTTPClient defines the interface for making HTTP requests.
// This abstraction allows for testing and custom implementations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultHTTPClient is a production HTTP client with sensible defaults.
type defaultHTTPClient struct {
	client *http.Client
}

// newDefaultHTTPClient creates an HTTP client optimized for provider calls.
func newDefaultHTTPClient(timeout time.Duration, tlsConfig *tls.Config) HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	customTLS := tlsConfig
	if customTLS == nil {
		customTLS = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	} else {
		// Clone to avoid modifying the original
		customTLS = tlsConfig.Clone()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       customTLS,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	return &defaultHTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &retryTransport{base: transport},
		},
	}
}

// Do executes the HTTP request.
func (c *defaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// retryTransport wraps an http.RoundTripper with retry logic for transient
// failures.
type retryTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper with retry logic. The caller's
// request is never mutated: retries that re-send a body operate on a
// clone rewound through GetBody.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	const maxRetries = 3
	const initialBackoff = 100 * time.Millisecond

	backoff := initialBackoff

	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq = req.Clone(req.Context())
			attemptReq.Body = body
		}

		resp, err := t.base.RoundTrip(attemptReq)
		if err == nil && !shouldRetry(resp) {
			return resp, nil
		}

		// Out of attempts: hand back the final result as-is so callers
		// keep the provider's status and body.
		if attempt == maxRetries-1 {
			return resp, err
		}

		if resp != nil {
			resp.Body.Close()
		}

		time.Sleep(backoff)
		backoff *= 2
	}
}

// shouldRetry determines if an HTTP response indicates a transient failure.
func shouldRetry(resp *http.Response) bool {
	if resp == nil {
		return true
	}
	return resp.StatusCode == 429 || resp.StatusCode >= 500
}
