package panels

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// HighTemperature is the threshold (provider units) above which a city is flagged.
const HighTemperature = 35

// CityWeather is one tile of the major-cities panel.
type CityWeather struct {
	Name            string                    `json:"name"`
	Query           string                    `json:"query"`
	Temp            int                       `json:"temp"`
	Weather         string                    `json:"weather"`
	Condition       weather.ConditionCategory `json:"condition"`
	Rain            bool                      `json:"rain"`
	PreviousWeather string                    `json:"previousWeather,omitempty"`
	Alert           string                    `json:"alert,omitempty"`
}

// CityPanel shows current conditions for a fixed list of cities.
type CityPanel struct {
	fetcher weather.Fetcher
	cache   store.Store
	queries []string
	ttl     time.Duration
	now     func() time.Time
}

// NewCityPanel builds the panel for cities, each qualified with country ("Mumbai,in").
func NewCityPanel(fetcher weather.Fetcher, cache store.Store, cities []string, country string, ttl time.Duration) *CityPanel {
	queries := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if country != "" {
			c = c + "," + country
		}
		queries = append(queries, c)
	}
	return &CityPanel{
		fetcher: fetcher,
		cache:   cache,
		queries: queries,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached tiles while fresh, otherwise refreshes them.
func (p *CityPanel) Get(ctx context.Context) ([]CityWeather, error) {
	cached, err := store.Get[[]CityWeather](ctx, p.cache, store.KeyCityWeather, p.ttl, p.now())
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrExpired) {
		logger.Warn("panels: city cache read failed: " + err.Error())
	}
	return p.Refresh(ctx)
}

// Refresh fetches every city concurrently. Failed cities are left out; when
// every city fails the previous tiles are returned unchanged.
func (p *CityPanel) Refresh(ctx context.Context) ([]CityWeather, error) {
	if len(p.queries) == 0 {
		return nil, nil
	}

	previous := map[string]string{}
	prevSnap, prevErr := store.Load[[]CityWeather](ctx, p.cache, store.KeyCityWeather)
	if prevErr == nil {
		for _, c := range prevSnap.Value {
			previous[c.Name] = c.Weather
		}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]*CityWeather, len(p.queries))
		firstErr error
	)

	for i, q := range p.queries {
		i, q := i, q
		wg.Add(1)
		go func() {
			defer wg.Done()

			rec, err := p.fetcher.FetchWeather(ctx, q)
			if err != nil {
				logger.WithFields(logrus.Fields{"city": q, "kind": weather.KindOf(err)}).Warnf("panels: city fetch failed: %v", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			tile := cityTile(q, rec, previous[rec.City])
			mu.Lock()
			results[i] = &tile
			mu.Unlock()
		}()
	}

	wg.Wait()

	tiles := make([]CityWeather, 0, len(results))
	for _, r := range results {
		if r != nil {
			tiles = append(tiles, *r)
		}
	}

	if len(tiles) == 0 {
		if prevErr == nil {
			logger.Warn("panels: no city succeeded; keeping previous tiles")
			return prevSnap.Value, nil
		}
		return nil, fmt.Errorf("refresh city panel: %w", firstErr)
	}

	if err := store.Set(ctx, p.cache, store.KeyCityWeather, tiles, p.now()); err != nil {
		logger.Warn("panels: city cache write failed: " + err.Error())
	}
	return tiles, nil
}

func cityTile(query string, rec weather.WeatherRecord, previous string) CityWeather {
	label := rec.Primary().Label
	tile := CityWeather{
		Name:            rec.City,
		Query:           query,
		Temp:            int(math.Round(rec.Temperature)),
		Weather:         label,
		Condition:       rec.Condition(),
		Rain:            strings.Contains(strings.ToLower(label), "rain"),
		PreviousWeather: previous,
	}

	if previous != "" && previous != label {
		switch {
		case tile.Rain:
			tile.Alert = fmt.Sprintf("Rain Alert: %s changed from %s to %s", tile.Name, previous, label)
		case tile.Temp > HighTemperature:
			tile.Alert = fmt.Sprintf("High Temperature: %s %d° with %s", tile.Name, tile.Temp, label)
		}
	}
	return tile
}
