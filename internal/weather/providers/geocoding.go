package providers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelvins/geocoder"
	"github.com/sirupsen/logrus"
	"github.com/umahmood/haversine"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MaxSuggestions caps the number of candidates returned by Suggest.
const MaxSuggestions = 5

// GeocodingClient resolves partial city names and coordinates through the OpenWeather geocoding API.
type GeocodingClient struct {
	client *resty.Client
	apiKey string

	googleKey string
}

// GeocodingConfig configures a GeocodingClient.
type GeocodingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// GoogleAPIKey enables Google reverse geocoding for place labels. Optional.
	GoogleAPIKey string
}

func NewGeocodingClient(cfg GeocodingConfig) *GeocodingClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &GeocodingClient{
		client:    resty.New().SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).SetTimeout(cfg.Timeout),
		apiKey:    cfg.APIKey,
		googleKey: cfg.GoogleAPIKey,
	}
}

type geoItem struct {
	Name    string  `json:"name"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Suggest returns up to MaxSuggestions cities matching text. When near is set the
// candidates are ordered by distance to it.
func (g *GeocodingClient) Suggest(ctx context.Context, text string, near *weather.Coord) ([]weather.CitySuggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, weather.ErrEmptyInput
	}

	var items []geoItem
	err := g.get(ctx, "/geo/1.0/direct", map[string]string{
		"q":     text,
		"limit": strconv.Itoa(MaxSuggestions),
	}, &items)
	if err != nil {
		return nil, err
	}

	suggestions := make([]weather.CitySuggestion, 0, len(items))
	for _, it := range items {
		suggestions = append(suggestions, weather.CitySuggestion(it))
	}
	if near != nil {
		SortByDistance(suggestions, *near)
	}
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions, nil
}

// SortByDistance orders suggestions by great-circle distance to ref, nearest first.
func SortByDistance(suggestions []weather.CitySuggestion, ref weather.Coord) {
	origin := haversine.Coord{Lat: ref.Lat, Lon: ref.Lon}
	sort.SliceStable(suggestions, func(i, j int) bool {
		_, di := haversine.Distance(origin, haversine.Coord{Lat: suggestions[i].Lat, Lon: suggestions[i].Lon})
		_, dj := haversine.Distance(origin, haversine.Coord{Lat: suggestions[j].Lat, Lon: suggestions[j].Lon})
		return di < dj
	})
}

// PlaceName labels a coordinate pair as "City, Country". Google reverse geocoding is
// used when a key is configured, otherwise OpenWeather's reverse endpoint.
func (g *GeocodingClient) PlaceName(ctx context.Context, at weather.Coord) (string, error) {
	if g.googleKey != "" {
		label, err := g.googlePlaceName(at)
		if err == nil {
			return label, nil
		}
		logger.WithFields(logrus.Fields{"lat": at.Lat, "lon": at.Lon}).Warnf("geocoding: google reverse lookup failed: %v", err)
	}

	var items []geoItem
	err := g.get(ctx, "/geo/1.0/reverse", map[string]string{
		"lat":   strconv.FormatFloat(at.Lat, 'f', 4, 64),
		"lon":   strconv.FormatFloat(at.Lon, 'f', 4, 64),
		"limit": "1",
	}, &items)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", weather.ErrNotFound
	}
	return joinPlace(items[0].Name, items[0].Country), nil
}

// The geocoder package keeps its key in a package variable.
var googleKeyMu sync.Mutex

func (g *GeocodingClient) googlePlaceName(at weather.Coord) (string, error) {
	googleKeyMu.Lock()
	geocoder.ApiKey = g.googleKey
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: at.Lat, Longitude: at.Lon})
	googleKeyMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("google reverse geocoding: %w", stripURL(err))
	}
	for _, addr := range addresses {
		if addr.City != "" {
			return joinPlace(addr.City, addr.Country), nil
		}
	}
	return "", weather.ErrNotFound
}

func joinPlace(city, country string) string {
	if country == "" {
		return city
	}
	return city + ", " + country
}

func (g *GeocodingClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	if g.apiKey == "" {
		return &weather.ProviderError{StatusCode: http.StatusUnauthorized, Message: "geocoding " + errMissingAPIKey.Error()}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("appid", g.apiKey).
		SetResult(out).
		Get(path)
	if err != nil {
		return &weather.NetworkError{Err: stripURL(err)}
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return weather.ErrNotFound
	case resp.StatusCode() == http.StatusTooManyRequests:
		return &weather.RateLimitedError{RetryAt: time.Now().Add(time.Minute)}
	case !resp.IsSuccess():
		return &weather.ProviderError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	return nil
}
