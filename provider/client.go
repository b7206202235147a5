package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultUserAgent identifies this client to upstream providers.
const DefaultUserAgent = "go-finance-cache/1.0 (+https://github.com/goliatone/go-finance-cache)"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 2 << 20

// HTTPError captures unexpected status codes and a prefix of the body.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s: %s", e.StatusCode, e.URL, string(e.Body))
}

// Temporary reports whether the status suggests the upstream may recover.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// userAgentRoundTripper sets the client identifier header on every request.
type userAgentRoundTripper struct {
	wrapped   http.RoundTripper
	userAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.userAgent)
	return rt.wrapped.RoundTrip(clone)
}

// Client performs plain HTTPS GETs against upstream providers.
// Timeouts come from the caller's context; the chain gives every source its own.
type Client struct {
	http *http.Client
}

// NewClient wraps base (or a fresh client when nil) with the identifier header.
func NewClient(userAgent string, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	wrapped := *base
	wrapped.Transport = &userAgentRoundTripper{wrapped: transport, userAgent: userAgent}
	return &Client{http: &wrapped}
}

// Get fetches rawURL with query merged into its query string and returns the
// body of a 2xx response.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := target.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("get %s after %s: %w", target.Host, time.Since(start).Round(time.Millisecond), ctxErr)
		}
		// url.Error repeats the full URL, query keys included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("get %s: %w", target.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", target.Host, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// keys travel in query strings; report the host only
		return nil, &HTTPError{URL: target.Host, StatusCode: resp.StatusCode, Body: truncate(body, 256)}
	}

	return body, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
