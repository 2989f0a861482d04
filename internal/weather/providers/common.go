package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultBackoff is used when a client is built without explicit backoff settings.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 300 * time.Millisecond,
	MaxInterval:     3 * time.Second,
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errMissingAPIKey = errors.New("api key is not configured")
)

// serverError is a 5xx response that survived every retry.
type serverError struct {
	statusCode int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: status %d", e.statusCode)
}

// callerDoneError marks a request abandoned because the caller's context ended.
// It says nothing about the provider's health.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: breakerSuccess,
	})
}

// breakerSuccess keeps caller cancellations out of the failure count.
func breakerSuccess(err error) bool {
	var done *callerDoneError
	return err == nil || errors.As(err, &done)
}

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker. Only transport failures and 5xx responses are retried and
// counted against the breaker; any other response is handed back to the caller as is.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, &callerDoneError{err: ctxErr}
				}
				return nil, stripURL(execErr)
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, &serverError{statusCode: resp.StatusCode}
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		var done *callerDoneError
		if errors.As(err, &done) {
			return nil, done.err
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// stripURL drops the request URL (and with it any appid/apiKey) from transport errors.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request: %w", uerr.Op, uerr.Err)
	}
	return err
}

// toWeatherError maps a doRequestWithResilience failure onto the weather error taxonomy.
func toWeatherError(err error) error {
	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return &weather.ProviderError{StatusCode: srvErr.statusCode, Message: http.StatusText(srvErr.statusCode)}
	}
	return &weather.NetworkError{Err: err}
}

// redactURL hides credentials before a URL is logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	for _, key := range []string{"appid", "apiKey", "key"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// cooldown suppresses outbound calls after the provider answered 429.
type cooldown struct {
	mu       sync.Mutex
	until    time.Time
	fallback time.Duration
	now      func() time.Time
}

func newCooldown(fallback time.Duration) *cooldown {
	return &cooldown{fallback: fallback, now: time.Now}
}

// check returns a RateLimitedError while the deadline has not passed.
func (c *cooldown) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.until.IsZero() && c.now().Before(c.until) {
		return &weather.RateLimitedError{RetryAt: c.until}
	}
	c.until = time.Time{}
	return nil
}

// arm starts the cool-down, honouring a Retry-After header given in seconds.
func (c *cooldown) arm(retryAfter string) error {
	wait := c.fallback
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		wait = time.Duration(secs) * time.Second
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until = c.now().Add(wait)
	return &weather.RateLimitedError{RetryAt: c.until}
}

// RetryAt reports the active deadline, zero when calls are allowed.
func (c *cooldown) RetryAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Before(c.until) {
		return c.until
	}
	return time.Time{}
}
