package openrouter

import (
	"errors"
	"net/http"
	"strings"
)

// Classification labels for failed summarization calls.
const (
	ErrRateLimited = "Rate limited"
	ErrAuth        = "Authentication failed"
	ErrServer      = "Server error"
	ErrUnknown     = "Unknown error"
)

// Classify maps an upstream failure to a short label. The HTTP status code
// is authoritative when the error carries one; otherwise the error text is
// matched for status substrings, 429 before 401 before 500.
func Classify(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusUnauthorized:
			return ErrAuth
		case http.StatusInternalServerError:
			return ErrServer
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"):
		return ErrRateLimited
	case strings.Contains(msg, "401"):
		return ErrAuth
	case strings.Contains(msg, "500"):
		return ErrServer
	}
	return ErrUnknown
}
