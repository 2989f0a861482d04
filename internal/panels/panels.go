// Package panels holds the dashboard's auxiliary panels: major cities, news and current location.
package panels

import (
	"context"
	"time"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
)

const jobTimeout = 30 * time.Second

// Panels groups the auxiliary panels.
type Panels struct {
	Cities   *CityPanel
	News     *NewsPanel
	Location *LocationPanel
}

// Schedule registers the periodic panel jobs: a refresh of cities and news every
// refresh, and a check of the news cool-down every resetCheck.
func (p *Panels) Schedule(s *scheduler.Scheduler, refresh, resetCheck time.Duration) error {
	if err := s.Every("panels-refresh", refresh, p.refresh); err != nil {
		return err
	}
	return s.Every("news-reset-check", resetCheck, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		p.News.CheckReset(ctx)
	})
}

func (p *Panels) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := p.Cities.Refresh(ctx); err != nil {
		logger.Warn("panels: scheduled city refresh failed: " + err.Error())
	}
	if _, err := p.News.Refresh(ctx); err != nil {
		logger.Warn("panels: scheduled news refresh failed: " + err.Error())
	}
}
