package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "empty input", err: ErrEmptyInput, want: KindEmptyInput},
		{name: "not found", err: ErrNotFound, want: KindNotFound},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", ErrNotFound), want: KindNotFound},
		{name: "provider", err: &ProviderError{StatusCode: 401, Message: "Invalid API key"}, want: KindProviderError},
		{name: "network", err: &NetworkError{Err: errors.New("connection refused")}, want: KindNetworkError},
		{name: "rate limited", err: &RateLimitedError{RetryAt: time.Now()}, want: KindRateLimited},
		{name: "unknown", err: context.DeadlineExceeded, want: KindNetworkError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "weather provider returned status 502", (&ProviderError{StatusCode: 502}).Error())
	assert.Equal(t, "weather provider returned status 401: Invalid API key",
		(&ProviderError{StatusCode: 401, Message: "Invalid API key"}).Error())

	inner := errors.New("connection reset")
	netErr := &NetworkError{Err: inner}
	assert.True(t, errors.Is(netErr, inner))

	detail := DetailOf(ErrNotFound)
	assert.Equal(t, KindNotFound, detail.Kind)
	assert.Equal(t, "city not found", detail.Message)
}
