package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherConfig configures an OpenWeatherClient.
type OpenWeatherConfig struct {
	BaseURL string
	APIKey  string
	Units   string // metric, imperial or standard

	HTTP HTTPClientConfig

	// RateLimitCooldown applies after a 429 without a usable Retry-After header.
	RateLimitCooldown time.Duration
}

// OpenWeatherClient talks to the OpenWeather current, forecast and air pollution APIs.
// It never caches; every call goes to the network unless the rate-limit cool-down is active.
type OpenWeatherClient struct {
	baseURL string
	apiKey  string
	units   string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *cooldown
}

var _ weather.Fetcher = (*OpenWeatherClient)(nil)

func NewOpenWeatherClient(cfg OpenWeatherConfig) *OpenWeatherClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.HTTP.Client == nil {
		cfg.HTTP.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.HTTP.Backoff == (BackoffConfig{}) {
		cfg.HTTP.Backoff = DefaultBackoff
	}
	if cfg.RateLimitCooldown <= 0 {
		cfg.RateLimitCooldown = time.Minute
	}

	return &OpenWeatherClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		httpCfg: cfg.HTTP,
		circuit: newCircuitBreaker("openweather"),
		limiter: newCooldown(cfg.RateLimitCooldown),
	}
}

// FetchWeather returns current conditions for a free-text query such as "London" or "London,GB".
func (c *OpenWeatherClient) FetchWeather(ctx context.Context, query string) (weather.WeatherRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return weather.WeatherRecord{}, weather.ErrEmptyInput
	}

	var payload currentPayload
	if err := c.get(ctx, "/data/2.5/weather", url.Values{"q": {query}}, &payload); err != nil {
		return weather.WeatherRecord{}, err
	}
	return payload.record(), nil
}

// FetchWeatherAt returns current conditions at the given coordinates.
func (c *OpenWeatherClient) FetchWeatherAt(ctx context.Context, at weather.Coord) (weather.WeatherRecord, error) {
	var payload currentPayload
	if err := c.get(ctx, "/data/2.5/weather", coordValues(at), &payload); err != nil {
		return weather.WeatherRecord{}, err
	}
	return payload.record(), nil
}

// FetchTrend returns up to points 3-hourly temperature samples for query.
func (c *OpenWeatherClient) FetchTrend(ctx context.Context, query string, points int) ([]weather.TrendPoint, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, weather.ErrEmptyInput
	}
	if points <= 0 {
		points = 8
	}

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
		} `json:"list"`
		City struct {
			Timezone int `json:"timezone"`
		} `json:"city"`
	}
	params := url.Values{"q": {query}, "cnt": {strconv.Itoa(points)}}
	if err := c.get(ctx, "/data/2.5/forecast", params, &payload); err != nil {
		return nil, err
	}

	zone := time.FixedZone("local", payload.City.Timezone)
	trend := make([]weather.TrendPoint, 0, points)
	for _, item := range payload.List {
		if len(trend) == points {
			break
		}
		ts := time.Unix(item.Dt, 0)
		trend = append(trend, weather.TrendPoint{
			Time:        ts.UTC(),
			Temperature: item.Main.Temp,
			Label:       ts.In(zone).Format("15:04"),
		})
	}
	return trend, nil
}

// FetchAirQuality returns the current pollutant concentrations at the given coordinates.
func (c *OpenWeatherClient) FetchAirQuality(ctx context.Context, at weather.Coord) (weather.AirQuality, error) {
	var payload struct {
		List []struct {
			Components struct {
				CO   float64 `json:"co"`
				SO2  float64 `json:"so2"`
				PM25 float64 `json:"pm2_5"`
				PM10 float64 `json:"pm10"`
			} `json:"components"`
		} `json:"list"`
	}
	if err := c.get(ctx, "/data/2.5/air_pollution", coordValues(at), &payload); err != nil {
		return weather.AirQuality{}, err
	}
	if len(payload.List) == 0 {
		return weather.AirQuality{}, weather.ErrNotFound
	}

	comp := payload.List[0].Components
	aqi := weather.AQIFromPM25(comp.PM25)
	return weather.AirQuality{
		PM25:  comp.PM25,
		PM10:  comp.PM10,
		CO:    comp.CO,
		SO2:   comp.SO2,
		AQI:   aqi,
		Label: weather.AQILabel(aqi),
	}, nil
}

// RateLimitedUntil reports the active cool-down deadline; zero when calls are allowed.
func (c *OpenWeatherClient) RateLimitedUntil() time.Time {
	return c.limiter.RetryAt()
}

// get performs a GET against path and decodes a successful body into out.
func (c *OpenWeatherClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		return &weather.ProviderError{StatusCode: http.StatusUnauthorized, Message: "openweather " + errMissingAPIKey.Error()}
	}
	if err := c.limiter.check(); err != nil {
		return err
	}

	params.Set("units", c.units)
	params.Set("appid", c.apiKey)
	rawURL := c.baseURL + path + "?" + params.Encode()

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}

	start := time.Now()
	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		logger.WithFields(logrus.Fields{"url": redactURL(rawURL)}).Warnf("openweather: request failed: %v", err)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return &weather.NetworkError{Err: ctxErr}
		}
		return toWeatherError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &weather.NetworkError{Err: stripURL(err)}
	}

	logger.WithFields(logrus.Fields{
		"url":     redactURL(rawURL),
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("openweather: response")

	if resp.StatusCode == http.StatusTooManyRequests {
		return c.limiter.arm(resp.Header.Get("Retry-After"))
	}

	var envelope struct {
		Cod     providerCode `json:"cod"`
		Message string       `json:"message"`
	}
	// Error bodies are not guaranteed to be JSON.
	_ = json.Unmarshal(body, &envelope)

	if resp.StatusCode == http.StatusNotFound || envelope.Cod == "404" {
		return weather.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &weather.ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}
	if envelope.Cod != "" && envelope.Cod != "200" {
		code, _ := strconv.Atoi(string(envelope.Cod))
		return &weather.ProviderError{StatusCode: code, Message: envelope.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &weather.ProviderError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func coordValues(at weather.Coord) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(at.Lat, 'f', 4, 64)},
		"lon": {strconv.FormatFloat(at.Lon, 'f', 4, 64)},
	}
}

// providerCode accepts "cod" as either a JSON string or a number.
type providerCode string

func (p *providerCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = providerCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = providerCode(n.String())
	return nil
}

type currentPayload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Weather    []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int          `json:"timezone"`
	Cod      providerCode `json:"cod"`
}

func (p currentPayload) record() weather.WeatherRecord {
	conditions := make([]weather.ConditionDescriptor, 0, len(p.Weather))
	for _, w := range p.Weather {
		conditions = append(conditions, weather.ConditionDescriptor{
			Code:        w.ID,
			Label:       w.Main,
			Description: w.Description,
			Icon:        w.Icon,
		})
	}
	if len(conditions) == 0 {
		conditions = append(conditions, weather.DefaultDescriptor)
	}

	status := http.StatusOK
	if code, err := strconv.Atoi(string(p.Cod)); err == nil {
		status = code
	}

	return weather.WeatherRecord{
		City:           p.Name,
		Country:        p.Sys.Country,
		Temperature:    p.Main.Temp,
		FeelsLike:      p.Main.FeelsLike,
		Humidity:       p.Main.Humidity,
		Pressure:       p.Main.Pressure,
		WindSpeed:      p.Wind.Speed,
		WindDeg:        p.Wind.Deg,
		Visibility:     p.Visibility,
		Conditions:     conditions,
		Sunrise:        p.Sys.Sunrise,
		Sunset:         p.Sys.Sunset,
		TimezoneOffset: p.Timezone,
		Lat:            p.Coord.Lat,
		Lon:            p.Coord.Lon,
		StatusCode:     status,
	}
}
