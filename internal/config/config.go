package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-dashboard/internal/logger"
)

// DefaultPanelCities are the major Indian cities shown on the cities panel.
var DefaultPanelCities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata",
	"Hyderabad", "Pune", "Ahmedabad", "Jaipur", "Lucknow",
}

type AppConfig struct {
	OpenWeatherAPIKey    string
	OpenWeatherBaseURL   string `validate:"omitempty,url"`
	NewsAPIKey           string
	NewsBaseURL          string `validate:"omitempty,url"`
	GoogleGeocoderAPIKey string

	Units       string        `validate:"oneof=metric imperial standard"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	// RefreshInterval is the coordinator's auto-refresh period.
	RefreshInterval time.Duration `validate:"gt=0"`

	PanelRefreshInterval   time.Duration `validate:"gt=0"`
	LocationCacheTTL       time.Duration `validate:"gt=0"`
	PanelCacheTTL          time.Duration `validate:"gt=0"`
	RateLimitCooldown      time.Duration `validate:"gt=0"`
	RateLimitCheckInterval time.Duration `validate:"gt=0"`

	PanelCities  []string
	PanelCountry string

	CacheBackend    string `validate:"oneof=memory sqlite mongo"`
	CacheMaxEntries int    `validate:"gte=0"`
	SQLitePath      string `validate:"required_if=CacheBackend sqlite"`
	MongoURI        string `validate:"required_if=CacheBackend mongo"`
	MongoDatabase   string `validate:"required_if=CacheBackend mongo"`

	LogLevel  string
	LogFormat string `validate:"oneof=json text"`

	Port string `validate:"required,numeric"`
}

// Load reads configuration from .env, an optional YAML file named by CONFIG_FILE,
// and the environment. Environment variables win over the file.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("config: no .env file found or error loading it: " + err.Error())
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyConfigFile(path); err != nil {
			return nil, err
		}
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey:    os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL:   os.Getenv("OPENWEATHER_BASE_URL"),
		NewsAPIKey:           os.Getenv("NEWS_API_KEY"),
		NewsBaseURL:          os.Getenv("NEWS_BASE_URL"),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		Units:                getenvDefault("WEATHER_UNITS", "metric"),
		PanelCountry:         getenvDefault("PANEL_COUNTRY", "in"),
		CacheBackend:         getenvDefault("CACHE_BACKEND", "memory"),
		SQLitePath:           getenvDefault("SQLITE_PATH", "weather-dashboard.db"),
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDatabase:        getenvDefault("MONGO_DATABASE", "weather_dashboard"),
		LogLevel:             getenvDefault("LOG_LEVEL", "info"),
		LogFormat:            getenvDefault("LOG_FORMAT", "json"),
		Port:                 getenvDefault("PORT", "8080"),
		CacheMaxEntries:      getenvInt("CACHE_MAX_ENTRIES", 0),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"REFRESH_INTERVAL", "60s", &cfg.RefreshInterval},
		{"PANEL_REFRESH_INTERVAL", "5m", &cfg.PanelRefreshInterval},
		{"LOCATION_CACHE_TTL", "24h", &cfg.LocationCacheTTL},
		{"PANEL_CACHE_TTL", "5m", &cfg.PanelCacheTTL},
		{"RATE_LIMIT_COOLDOWN", "12h", &cfg.RateLimitCooldown},
		{"RATE_LIMIT_CHECK_INTERVAL", "1m", &cfg.RateLimitCheckInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	cfg.PanelCities = splitList(os.Getenv("PANEL_CITIES"))
	if len(cfg.PanelCities) == 0 {
		cfg.PanelCities = append([]string(nil), DefaultPanelCities...)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyConfigFile exports the YAML file's keys as environment variables that are not already set.
func applyConfigFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	values := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for key, value := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if _, set := os.LookupEnv(key); set {
			continue
		}
		var s string
		switch v := value.(type) {
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			s = strings.Join(parts, ",")
		case nil:
			continue
		default:
			s = fmt.Sprint(v)
		}
		if err := os.Setenv(key, s); err != nil {
			return fmt.Errorf("apply %s from config file: %w", key, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
