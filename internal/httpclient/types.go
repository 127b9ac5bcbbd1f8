package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents an HTTP error
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// IsRetryable reports whether a request failure is worth retrying later:
// network failures, timeouts, throttling and server errors are, client
// errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout ||
			httpErr.StatusCode >= http.StatusInternalServerError
	}
	var sizeErr *SizeLimitError
	return !errors.As(err, &sizeErr)
}

// SizeLimitError is returned when a response body is larger than allowed
type SizeLimitError struct {
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("response body exceeds maximum allowed size of %.2f MB", float64(e.Limit)/(1024*1024))
}
