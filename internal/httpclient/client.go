// Package httpclient provides the HTTP client used to reach calendar feeds,
// the lock vendor API and the messaging gateway.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout is used when no timeout is configured
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize bounds the size of a response body (100 MB)
	MaxResponseSize int64 = 100 * 1024 * 1024

	// UserAgent is sent with every request
	UserAgent = "reservations-server/1.0"

	defaultAccept = "application/json"
)

// Client performs HTTP requests and returns the response body
type Client interface {
	// Get fetches url and returns the body of a 2xx response
	Get(ctx context.Context, url string) ([]byte, error)
	// PostForm posts form as application/x-www-form-urlencoded and returns the body of a 2xx response
	PostForm(ctx context.Context, url string, form url.Values) ([]byte, error)
}

// DefaultClient is the net/http backed Client
type DefaultClient struct {
	client  *http.Client
	accept  string
	maxSize int64
}

var _ Client = (*DefaultClient)(nil)

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithAccept overrides the Accept header
func WithAccept(accept string) Option {
	return func(c *DefaultClient) {
		c.accept = accept
	}
}

// WithHTTPClient replaces the underlying http.Client, e.g. one that
// authenticates requests. Its timeout is kept when set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *DefaultClient) {
		if hc == nil {
			return
		}
		timeout := c.client.Timeout
		c.client = hc
		if c.client.Timeout == 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithMaxResponseSize overrides the maximum accepted response body size
func WithMaxResponseSize(n int64) Option {
	return func(c *DefaultClient) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// NewDefaultClient creates a client with the given timeout.
// A zero timeout selects DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client:  &http.Client{Timeout: timeout},
		accept:  defaultAccept,
		maxSize: MaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Client
func (c *DefaultClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// PostForm implements Client
func (c *DefaultClient) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *DefaultClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", c.accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, NewHTTPError(resp.StatusCode, req.URL.String(), strings.TrimSpace(string(body)))
	}

	if resp.ContentLength > c.maxSize {
		return nil, &SizeLimitError{Limit: c.maxSize}
	}

	// Read one byte past the limit to detect oversized bodies without a Content-Length
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxSize {
		return nil, &SizeLimitError{Limit: c.maxSize}
	}

	return body, nil
}
