package weather

import (
	"context"
)

//go:generate mockgen -source=provider.go -destination=mock/mock.go Fetcher

// Fetcher retrieves current conditions for a free-text location query
// (e.g. "London" or "London,GB").
type Fetcher interface {
	FetchWeather(ctx context.Context, query string) (WeatherRecord, error)
}
