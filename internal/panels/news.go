package panels

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// NewsSource supplies weather headlines.
type NewsSource interface {
	Headlines(ctx context.Context) ([]providers.Article, error)
}

// NewsPanel serves cached headlines and honours the provider's rate limit across restarts
// by persisting the cool-down deadline in the cache.
type NewsPanel struct {
	source NewsSource
	cache  store.Store
	ttl    time.Duration
	now    func() time.Time
}

func NewNewsPanel(source NewsSource, cache store.Store, ttl time.Duration) *NewsPanel {
	return &NewsPanel{source: source, cache: cache, ttl: ttl, now: time.Now}
}

// Get returns fresh cached headlines or fetches new ones.
func (p *NewsPanel) Get(ctx context.Context) ([]providers.Article, error) {
	cached, err := store.Get[[]providers.Article](ctx, p.cache, store.KeyNews, p.ttl, p.now())
	if err == nil {
		return cached, nil
	}
	return p.Refresh(ctx)
}

// Refresh fetches headlines unless a cool-down is active. During a cool-down, or
// when the fetch fails, the last cached headlines are served if there are any.
func (p *NewsPanel) Refresh(ctx context.Context) ([]providers.Article, error) {
	if until, ok := p.resetDeadline(ctx); ok {
		return p.stale(ctx, &weather.RateLimitedError{RetryAt: until})
	}

	articles, err := p.source.Headlines(ctx)
	if err != nil {
		var rateErr *weather.RateLimitedError
		if errors.As(err, &rateErr) {
			if setErr := store.Set(ctx, p.cache, store.KeyNewsResetTime, rateErr.RetryAt, p.now()); setErr != nil {
				logger.Warn("panels: could not persist news reset time: " + setErr.Error())
			}
			logger.WithFields(logrus.Fields{"retryAt": rateErr.RetryAt}).Warn("panels: news api rate limited")
		} else {
			logger.WithFields(logrus.Fields{"kind": weather.KindOf(err)}).Warnf("panels: news fetch failed: %v", err)
		}
		return p.stale(ctx, err)
	}

	if err := store.Set(ctx, p.cache, store.KeyNews, articles, p.now()); err != nil {
		logger.Warn("panels: news cache write failed: " + err.Error())
	}
	return articles, nil
}

// CheckReset clears an elapsed cool-down and refetches. It reports whether it did.
func (p *NewsPanel) CheckReset(ctx context.Context) bool {
	snap, err := store.Load[time.Time](ctx, p.cache, store.KeyNewsResetTime)
	if err != nil || p.now().Before(snap.Value) {
		return false
	}
	if err := p.cache.Delete(ctx, store.KeyNewsResetTime); err != nil {
		logger.Warn("panels: could not clear news reset time: " + err.Error())
		return false
	}
	logger.Info("panels: news api cool-down elapsed; refetching")
	if _, err := p.Refresh(ctx); err != nil {
		logger.Warn("panels: news refetch after reset failed: " + err.Error())
	}
	return true
}

// RateLimitedUntil returns the active cool-down deadline, if any.
func (p *NewsPanel) RateLimitedUntil(ctx context.Context) (time.Time, bool) {
	return p.resetDeadline(ctx)
}

func (p *NewsPanel) resetDeadline(ctx context.Context) (time.Time, bool) {
	snap, err := store.Load[time.Time](ctx, p.cache, store.KeyNewsResetTime)
	if err != nil {
		return time.Time{}, false
	}
	if !p.now().Before(snap.Value) {
		return time.Time{}, false
	}
	return snap.Value, true
}

func (p *NewsPanel) stale(ctx context.Context, cause error) ([]providers.Article, error) {
	snap, err := store.Load[[]providers.Article](ctx, p.cache, store.KeyNews)
	if err != nil {
		return nil, cause
	}
	return snap.Value, nil
}
