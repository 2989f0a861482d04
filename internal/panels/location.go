package panels

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umahmood/haversine"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// SameLocationKm is how far the caller may move before the cached location weather is ignored.
const SameLocationKm = 10.0

// CoordFetcher fetches current conditions by coordinates.
type CoordFetcher interface {
	FetchWeatherAt(ctx context.Context, at weather.Coord) (weather.WeatherRecord, error)
}

// PlaceNamer labels coordinates with a human readable place name.
type PlaceNamer interface {
	PlaceName(ctx context.Context, at weather.Coord) (string, error)
}

// LocationWeather is the current-location panel payload.
type LocationWeather struct {
	Coord     weather.Coord             `json:"coord"`
	Label     string                    `json:"label"`
	Record    weather.WeatherRecord     `json:"record"`
	Condition weather.ConditionCategory `json:"condition"`
}

// LocationPanel shows the weather where the user is.
type LocationPanel struct {
	fetcher CoordFetcher
	namer   PlaceNamer
	cache   store.Store
	ttl     time.Duration
	now     func() time.Time
}

// NewLocationPanel builds the panel. namer may be nil.
func NewLocationPanel(fetcher CoordFetcher, namer PlaceNamer, cache store.Store, ttl time.Duration) *LocationPanel {
	return &LocationPanel{fetcher: fetcher, namer: namer, cache: cache, ttl: ttl, now: time.Now}
}

// Get returns the cached weather when it is fresh and close to at, otherwise fetches it.
func (p *LocationPanel) Get(ctx context.Context, at weather.Coord) (LocationWeather, error) {
	cached, err := store.Get[LocationWeather](ctx, p.cache, store.KeyCurrentLocation, p.ttl, p.now())
	if err == nil && distanceKm(cached.Coord, at) < SameLocationKm {
		return cached, nil
	}

	rec, err := p.fetcher.FetchWeatherAt(ctx, at)
	if err != nil {
		return LocationWeather{}, err
	}

	label := rec.City
	if p.namer != nil {
		if name, err := p.namer.PlaceName(ctx, at); err == nil && name != "" {
			label = name
		} else if err != nil {
			logger.WithFields(logrus.Fields{"lat": at.Lat, "lon": at.Lon}).Debugf("panels: place name lookup failed: %v", err)
		}
	}

	lw := LocationWeather{Coord: at, Label: label, Record: rec, Condition: rec.Condition()}
	if err := store.Set(ctx, p.cache, store.KeyCurrentLocation, lw, p.now()); err != nil {
		logger.Warn("panels: location cache write failed: " + err.Error())
	}
	return lw, nil
}

func distanceKm(a, b weather.Coord) float64 {
	_, km := haversine.Distance(haversine.Coord{Lat: a.Lat, Lon: a.Lon}, haversine.Coord{Lat: b.Lat, Lon: b.Lon})
	return km
}
