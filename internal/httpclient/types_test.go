package httpclient_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pickarooms/reservations-server/internal/httpclient"
)

func TestHTTPErrorMessage(t *testing.T) {
	t.Parallel()

	err := httpclient.NewHTTPError(404, "https://feeds.example.com/room-1.ics", "calendar not found")
	assert.EqualError(t, err, "HTTP 404 for URL https://feeds.example.com/room-1.ics: calendar not found")

	wrapped := fmt.Errorf("fetch room-1/booking: %w", err)
	var httpErr *httpclient.HTTPError
	assert.ErrorAs(t, wrapped, &httpErr)
	assert.Equal(t, 404, httpErr.StatusCode)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "network failure", err: errors.New("connection reset by peer"), want: true},
		{name: "request timeout", err: httpclient.NewHTTPError(408, "u", ""), want: true},
		{name: "throttled", err: httpclient.NewHTTPError(429, "u", ""), want: true},
		{name: "server error", err: httpclient.NewHTTPError(502, "u", ""), want: true},
		{name: "bad request", err: httpclient.NewHTTPError(400, "u", ""), want: false},
		{name: "unauthorized", err: httpclient.NewHTTPError(401, "u", ""), want: false},
		{name: "oversized body", err: &httpclient.SizeLimitError{Limit: 1024}, want: false},
		{
			name: "wrapped server error",
			err:  fmt.Errorf("archive search: %w", httpclient.NewHTTPError(503, "u", "")),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, httpclient.IsRetryable(tt.err))
		})
	}
}

func TestSizeLimitError(t *testing.T) {
	t.Parallel()

	err := &httpclient.SizeLimitError{Limit: 5 * 1024 * 1024}
	assert.EqualError(t, err, "response body exceeds maximum allowed size of 5.00 MB")
}
