package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	// KindAuthConfig is a missing or rejected API key or an incomplete provider
	// configuration. Never retried.
	KindAuthConfig ErrorKind = "auth_config"

	// KindRateLimited is HTTP 429 or a quota/rate-limit signal. Retryable.
	KindRateLimited ErrorKind = "rate_limited"

	// KindProviderProtocol is an error status or a malformed/empty reply body.
	KindProviderProtocol ErrorKind = "provider_protocol"

	// KindTransport is a network failure before any response was read.
	KindTransport ErrorKind = "transport"
)

// Error is the error type returned by adapters.
type Error struct {
	Err        error
	Provider   ProviderID
	Kind       ErrorKind
	StatusCode int
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindProviderProtocol:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("AI returned invalid response: %v", e.Err)
	case KindRateLimited:
		return fmt.Sprintf("%s rate limit exceeded: %v", e.Provider, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrMissingAPIKey is wrapped by the AuthConfig error raised before any
// network attempt when the selected provider has no key.
var ErrMissingAPIKey = errors.New("API key is missing, please set it in settings")

// NewAuthError builds an AuthConfig error.
func NewAuthError(provider ProviderID, err error) *Error {
	return &Error{Provider: provider, Kind: KindAuthConfig, Err: err}
}

// NewProtocolError builds a ProviderProtocol error for a malformed or empty body.
func NewProtocolError(provider ProviderID, format string, args ...any) *Error {
	return &Error{Provider: provider, Kind: KindProviderProtocol, Err: fmt.Errorf(format, args...)}
}

// NewTransportError wraps a network failure.
func NewTransportError(provider ProviderID, err error) *Error {
	return &Error{Provider: provider, Kind: KindTransport, Err: err}
}

// rateLimitMarkers are body fragments vendors use for quota exhaustion,
// sometimes with a non-429 status.
var rateLimitMarkers = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"quota",
	"resource_exhausted",
	"resource exhausted",
	"too many requests",
}

// ClassifyStatus builds an error for a non-2xx response.
func ClassifyStatus(provider ProviderID, status int, body string) *Error {
	body = strings.TrimSpace(body)
	detail := body
	if detail == "" {
		detail = http.StatusText(status)
	}

	kind := KindProviderProtocol
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuthConfig
	case status == http.StatusTooManyRequests || mentionsRateLimit(body):
		kind = KindRateLimited
	}

	return &Error{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Err:        errors.New(detail),
	}
}

func mentionsRateLimit(s string) bool {
	s = strings.ToLower(s)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return KindOf(err) == KindRateLimited
}
