package weather

import (
	"context"
	"fmt"
	"strings"
)

// Client is everything the dashboard asks of the weather provider.
type Client interface {
	Fetcher
	FetchWeatherAt(ctx context.Context, at Coord) (WeatherRecord, error)
	FetchTrend(ctx context.Context, query string, points int) ([]TrendPoint, error)
	FetchAirQuality(ctx context.Context, at Coord) (AirQuality, error)
}

// Suggester resolves partial city names.
type Suggester interface {
	Suggest(ctx context.Context, text string, near *Coord) ([]CitySuggestion, error)
}

// Service groups the direct lookups with the dashboard's query coordinator.
type Service struct {
	client      Client
	suggester   Suggester
	coordinator *Coordinator
}

// NewService creates a new Service.
func NewService(client Client, suggester Suggester, coordinator *Coordinator) *Service {
	return &Service{
		client:      client,
		suggester:   suggester,
		coordinator: coordinator,
	}
}

// Coordinator returns the dashboard's query coordinator.
func (s *Service) Coordinator() *Coordinator {
	return s.coordinator
}

// Current fetches current conditions for city, bypassing the coordinator.
func (s *Service) Current(ctx context.Context, city string) (WeatherRecord, error) {
	if strings.TrimSpace(city) == "" {
		return WeatherRecord{}, ErrEmptyInput
	}
	return s.client.FetchWeather(ctx, city)
}

// Trend returns the short-range temperature trend for city.
func (s *Service) Trend(ctx context.Context, city string, points int) ([]TrendPoint, error) {
	if strings.TrimSpace(city) == "" {
		return nil, ErrEmptyInput
	}
	if points <= 0 {
		return nil, fmt.Errorf("points must be greater than zero")
	}
	return s.client.FetchTrend(ctx, city, points)
}

// AirQuality returns pollutant levels at the given coordinates.
func (s *Service) AirQuality(ctx context.Context, at Coord) (AirQuality, error) {
	return s.client.FetchAirQuality(ctx, at)
}

// Suggest returns city candidates for partial input, optionally ordered by distance to near.
func (s *Service) Suggest(ctx context.Context, text string, near *Coord) ([]CitySuggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	return s.suggester.Suggest(ctx, text, near)
}
