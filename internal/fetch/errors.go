package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchFailed wraps every error returned by a Fetcher once retries are
// exhausted or a non-retryable status is seen. The crawl loop treats it as a
// per-URL failure.
var ErrFetchFailed = errors.New("fetch failed")

// ErrInvalidProxy is returned by NewHTTPClient for unsupported proxy URLs.
var ErrInvalidProxy = errors.New("invalid proxy URL: expected socks5://, http:// or https://")

// StatusError reports an unsuccessful HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Retryable reports whether the status is worth retrying:
// 429 and the gateway-style 5xx codes.
func (e *StatusError) Retryable() bool {
	return IsRetryableStatus(e.StatusCode)
}

// IsRetryableStatus reports whether code is 429, 500, 502, 503 or 504.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
