package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyInput is a caller-side guard; it never reaches the network layer.
	ErrEmptyInput = errors.New("location query is empty")

	// ErrNotFound is returned when the provider does not know the requested city.
	ErrNotFound = errors.New("city not found")
)

// ProviderError is a non-success upstream response other than not-found.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("weather provider returned status %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure. Err never carries the request URL.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RateLimitedError is returned while the provider's cool-down is in effect.
type RateLimitedError struct {
	RetryAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by provider until %s", e.RetryAt.UTC().Format(time.RFC3339))
}

// ErrorKind is the error taxonomy surfaced to callers.
type ErrorKind string

const (
	KindEmptyInput    ErrorKind = "empty_input"
	KindNotFound      ErrorKind = "not_found"
	KindProviderError ErrorKind = "provider_error"
	KindNetworkError  ErrorKind = "network_error"
	KindRateLimited   ErrorKind = "rate_limited"
)

// KindOf maps err onto the taxonomy. Unknown errors are treated as network errors.
func KindOf(err error) ErrorKind {
	var (
		provErr *ProviderError
		rateErr *RateLimitedError
	)
	switch {
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.As(err, &rateErr):
		return KindRateLimited
	case errors.As(err, &provErr):
		return KindProviderError
	default:
		return KindNetworkError
	}
}

// ErrorDetail is the payload of a Failed query state.
type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// DetailOf builds an ErrorDetail from err.
func DetailOf(err error) ErrorDetail {
	return ErrorDetail{Kind: KindOf(err), Message: err.Error()}
}
