package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/i474232898/weather-dashboard/internal/assistant"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/panels"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// components is the wired dashboard core.
type components struct {
	cfg          *config.AppConfig
	client       *providers.OpenWeatherClient
	geocoding    *providers.GeocodingClient
	service      *weather.Service
	coordinator  *weather.Coordinator
	assistant    *assistant.Assistant
	conversation *assistant.Conversation
	panels       *panels.Panels
	cache        store.Store
}

// loadConfig loads configuration and installs the configured logger.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(l)
	logger.CaptureStdLog()
	return cfg, nil
}

func build(ctx context.Context, cfg *config.AppConfig) (*components, error) {
	// Shared HTTP client for outbound OpenWeather calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	client := providers.NewOpenWeatherClient(providers.OpenWeatherConfig{
		BaseURL: cfg.OpenWeatherBaseURL,
		APIKey:  cfg.OpenWeatherAPIKey,
		Units:   cfg.Units,
		HTTP: providers.HTTPClientConfig{
			Client:  httpClient,
			Backoff: providers.DefaultBackoff,
		},
	})
	geo := providers.NewGeocodingClient(providers.GeocodingConfig{
		BaseURL:      cfg.OpenWeatherBaseURL,
		APIKey:       cfg.OpenWeatherAPIKey,
		Timeout:      cfg.HTTPTimeout,
		GoogleAPIKey: cfg.GoogleGeocoderAPIKey,
	})
	news := providers.NewNewsClient(providers.NewsConfig{
		BaseURL:           cfg.NewsBaseURL,
		APIKey:            cfg.NewsAPIKey,
		Timeout:           cfg.HTTPTimeout,
		RateLimitCooldown: cfg.RateLimitCooldown,
	})

	cache, err := store.Open(ctx, store.Options{
		Backend:       cfg.CacheBackend,
		MaxEntries:    cfg.CacheMaxEntries,
		SQLitePath:    cfg.SQLitePath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	coordinator := weather.NewCoordinator(client, weather.CoordinatorConfig{
		RefreshInterval: cfg.RefreshInterval,
		RequestTimeout:  cfg.HTTPTimeout,
	})
	asst := assistant.New(client, cfg.Units)

	return &components{
		cfg:          cfg,
		client:       client,
		geocoding:    geo,
		service:      weather.NewService(client, geo, coordinator),
		coordinator:  coordinator,
		assistant:    asst,
		conversation: assistant.NewConversation(asst),
		panels: &panels.Panels{
			Cities:   panels.NewCityPanel(client, cache, cfg.PanelCities, cfg.PanelCountry, cfg.PanelCacheTTL),
			News:     panels.NewNewsPanel(news, cache, cfg.PanelCacheTTL),
			Location: panels.NewLocationPanel(client, geo, cache, cfg.LocationCacheTTL),
		},
		cache: cache,
	}, nil
}

func (c *components) Close() {
	c.coordinator.Close()
	if err := c.cache.Close(); err != nil {
		logger.Warn("cli: closing cache: " + err.Error())
	}
}
