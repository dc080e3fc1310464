package timecamp

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New("TIMECAMP_API_TOKEN environment variable not set")

// Kind classifies an upstream failure.
type Kind int

// Failure kinds, by upstream HTTP status or transport outcome.
const (
	KindAPI                Kind = iota // other 4xx/5xx; Status carries the code
	KindInvalidCredentials             // 401
	KindNotFound                       // 404
	KindRateLimited                    // 429
	KindUnavailable                    // 5xx
	KindNetwork                        // connection failure or timeout
	KindDecode                         // response body could not be parsed
)

// String returns a short stable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	default:
		return "api"
	}
}

// Error is a classified upstream failure. Its message is stable and safe to
// show to users; the underlying cause is available through Unwrap.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "Invalid API token. Check TimeCamp settings"
	case KindNotFound:
		return "Resource not found"
	case KindRateLimited:
		return "Rate limit exceeded. Wait 60 seconds"
	case KindUnavailable:
		return "TimeCamp unavailable. Try again later"
	case KindNetwork:
		if e.Err != nil {
			return "Network error: " + e.Err.Error()
		}
		return "Network error"
	case KindDecode:
		return "Unexpected response from TimeCamp"
	default:
		return fmt.Sprintf("API error: %d", e.Status)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx HTTP status to an Error.
func classifyStatus(status int) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindInvalidCredentials, Status: status}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Status: status}
	case status >= 500 && status < 600:
		return &Error{Kind: KindUnavailable, Status: status}
	default:
		return &Error{Kind: KindAPI, Status: status}
	}
}

// KindOf reports the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}
