package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind categorizes inference failures for logging.
type ErrorKind string

const (
	ErrKindAuth      ErrorKind = "auth_error"   // 401/403, bad or missing key
	ErrKindRateLimit ErrorKind = "rate_limit"   // 429
	ErrKindServer    ErrorKind = "server_error" // 5xx
	ErrKindRequest   ErrorKind = "bad_request"  // other 4xx
	ErrKindTimeout   ErrorKind = "timeout"
	ErrKindEmpty     ErrorKind = "empty_answer"
	ErrKindUnknown   ErrorKind = "unknown"
)

// ErrEmptyAnswer is returned when the model answers with no usable text.
var ErrEmptyAnswer = errors.New("model returned no answer")

// APIError is a non-2xx answer from an inference endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ClassifyError maps an inference error to a coarse kind.
func ClassifyError(err error) ErrorKind {
	var apiErr *APIError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyAnswer):
		return ErrKindEmpty
	case errors.As(err, &apiErr):
		return kindForStatus(apiErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrKindTimeout
	case containsAny(err.Error(), "timeout", "deadline exceeded"):
		return ErrKindTimeout
	case containsAny(err.Error(), "429", "rate limit", "resource_exhausted"):
		return ErrKindRateLimit
	case containsAny(err.Error(), "401", "403", "unauthenticated", "permission_denied", "api key"):
		return ErrKindAuth
	case containsAny(err.Error(), "500", "502", "503", "504", "unavailable", "internal error"):
		return ErrKindServer
	default:
		return ErrKindUnknown
	}
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrKindAuth
	case code == http.StatusTooManyRequests:
		return ErrKindRateLimit
	case code >= 500:
		return ErrKindServer
	case code >= 400:
		return ErrKindRequest
	default:
		return ErrKindUnknown
	}
}

func containsAny(s string, patterns ...string) bool {
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
