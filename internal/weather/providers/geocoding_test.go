package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/sirupsen/logrus"
	"github.com/tj/assert"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

func geoServer(t *testing.T, handler http.HandlerFunc) *GeocodingClient {
	t.Helper()
	srv := httptest.NewServer(jsonHandler(handler))
	t.Cleanup(srv.Close)
	return NewGeocodingClient(GeocodingConfig{BaseURL: srv.URL, APIKey: testKey})
}

// resty only decodes bodies labelled as JSON.
func jsonHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

func TestSuggestCapsResults(t *testing.T) {
	client := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Spring", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[
			{"name":"Springfield","state":"Illinois","country":"US","lat":39.8,"lon":-89.6},
			{"name":"Springfield","state":"Missouri","country":"US","lat":37.2,"lon":-93.3},
			{"name":"Springfield","state":"Massachusetts","country":"US","lat":42.1,"lon":-72.6},
			{"name":"Springs","country":"ZA","lat":-26.2,"lon":28.4},
			{"name":"Springvale","country":"AU","lat":-37.9,"lon":145.1},
			{"name":"Springwood","country":"AU","lat":-33.7,"lon":150.5}
		]`)
	})

	got, err := client.Suggest(context.Background(), " Spring ", nil)
	assert.NoError(t, err)
	assert.Len(t, got, MaxSuggestions)
	assert.Equal(t, weather.CitySuggestion{Name: "Springfield", State: "Illinois", Country: "US", Lat: 39.8, Lon: -89.6}, got[0])
}

func TestSuggestNearestFirst(t *testing.T) {
	client := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name":"Paris","country":"US","state":"Texas","lat":33.66,"lon":-95.55},
			{"name":"Paris","country":"FR","lat":48.85,"lon":2.35}
		]`)
	})

	london := weather.Coord{Lat: 51.5, Lon: -0.12}
	got, err := client.Suggest(context.Background(), "Paris", &london)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "FR", got[0].Country)
	assert.Equal(t, "US", got[1].Country)
}

func TestSuggestEmptyInput(t *testing.T) {
	client := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	_, err := client.Suggest(context.Background(), "  ", nil)
	assert.True(t, errors.Is(err, weather.ErrEmptyInput))
}

func TestSuggestErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   weather.ErrorKind
	}{
		{name: "not found", status: http.StatusNotFound, want: weather.KindNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, want: weather.KindRateLimited},
		{name: "unauthorized", status: http.StatusUnauthorized, want: weather.KindProviderError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := client.Suggest(context.Background(), "Paris", nil)
			assert.Equal(t, tc.want, weather.KindOf(err))
		})
	}
}

func TestPlaceNameReverse(t *testing.T) {
	client := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/reverse", r.URL.Path)
		assert.Equal(t, "48.8566", r.URL.Query().Get("lat"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[{"name":"Paris","country":"FR","lat":48.8566,"lon":2.3522}]`)
	})

	label, err := client.PlaceName(context.Background(), weather.Coord{Lat: 48.8566, Lon: 2.3522})
	assert.NoError(t, err)
	assert.Equal(t, "Paris, FR", label)
}

func TestPlaceNameGoogleFailureHidesKey(t *testing.T) {
	const googleKey = "GOOGLE-SECRET-123"

	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	prev := logger.Default()
	logger.SetDefault(l)
	restore := logger.CaptureStdLog()
	prevURL := geocoder.ApiUrl
	geocoder.ApiUrl = "http://127.0.0.1:1/geocode/json?"
	t.Cleanup(func() {
		geocoder.ApiUrl = prevURL
		restore()
		logger.SetDefault(prev)
	})

	srv := httptest.NewServer(jsonHandler(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"Paris","country":"FR","lat":48.8566,"lon":2.3522}]`)
	}))
	t.Cleanup(srv.Close)
	client := NewGeocodingClient(GeocodingConfig{BaseURL: srv.URL, APIKey: testKey, GoogleAPIKey: googleKey})

	_, err := client.googlePlaceName(weather.Coord{Lat: 48.8566, Lon: 2.3522})
	assert.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), googleKey), err.Error())

	label, err := client.PlaceName(context.Background(), weather.Coord{Lat: 48.8566, Lon: 2.3522})
	assert.NoError(t, err)
	assert.Equal(t, "Paris, FR", label)

	out := buf.String()
	assert.True(t, strings.Contains(out, "google reverse lookup failed"), out)
	assert.True(t, strings.Contains(out, "stdlog"), out)
	assert.False(t, strings.Contains(out, googleKey), out)
}

func TestPlaceNameNoMatch(t *testing.T) {
	client := geoServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	_, err := client.PlaceName(context.Background(), weather.Coord{Lat: 0, Lon: -160})
	assert.True(t, errors.Is(err, weather.ErrNotFound))
}

func TestSortByDistance(t *testing.T) {
	suggestions := []weather.CitySuggestion{
		{Name: "Sydney", Lat: -33.87, Lon: 151.21},
		{Name: "Berlin", Lat: 52.52, Lon: 13.40},
		{Name: "Madrid", Lat: 40.42, Lon: -3.70},
	}

	SortByDistance(suggestions, weather.Coord{Lat: 48.85, Lon: 2.35})
	assert.Equal(t, "Berlin", suggestions[0].Name)
	assert.Equal(t, "Madrid", suggestions[1].Name)
	assert.Equal(t, "Sydney", suggestions[2].Name)
}
