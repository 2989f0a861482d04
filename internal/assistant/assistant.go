// Package assistant answers free-text weather questions.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const promptReply = `Please tell me which city you'd like the weather for, e.g. "weather in London".`

// Assistant turns questions into weather lookups and human-readable replies.
type Assistant struct {
	fetcher weather.Fetcher
	units   string
}

// New creates an Assistant. units is the provider unit system used for labels.
func New(fetcher weather.Fetcher, units string) *Assistant {
	return &Assistant{fetcher: fetcher, units: units}
}

// Respond answers text. It never fails: lookup errors become apologetic replies.
func (a *Assistant) Respond(ctx context.Context, text string) string {
	city := ExtractLocation(text)
	if city == "" {
		return promptReply
	}

	record, err := a.fetcher.FetchWeather(ctx, city)
	if err != nil {
		logger.WithFields(logrus.Fields{"city": city, "kind": weather.KindOf(err)}).Warnf("assistant: lookup failed: %v", err)
		switch {
		case errors.Is(err, weather.ErrNotFound):
			return fmt.Sprintf("Sorry, I couldn't find a city called %q. Please check the spelling and try again.", city)
		case errors.Is(err, weather.ErrEmptyInput):
			return promptReply
		default:
			return fmt.Sprintf("Sorry, I couldn't get the weather for %s right now (%v). Please try again in a moment.", city, err)
		}
	}

	return a.format(record)
}

func (a *Assistant) format(r weather.WeatherRecord) string {
	tempUnit, speedUnit := unitLabels(a.units)

	place := r.City
	if r.Country != "" {
		place += ", " + r.Country
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Current weather in %s:\n", place)
	fmt.Fprintf(&sb, "Temperature: %s%s (feels like %s%s)\n", number(r.Temperature), tempUnit, number(r.FeelsLike), tempUnit)
	fmt.Fprintf(&sb, "Conditions: %s\n", r.Primary().Description)
	fmt.Fprintf(&sb, "Humidity: %s%%\n", number(r.Humidity))
	fmt.Fprintf(&sb, "Wind: %s %s\n", number(r.WindSpeed), speedUnit)
	fmt.Fprintf(&sb, "Sunrise: %s, sunset: %s (local time)", r.SunriseTime().Format("15:04"), r.SunsetTime().Format("15:04"))
	return sb.String()
}

func unitLabels(units string) (temp, speed string) {
	switch units {
	case "imperial":
		return "°F", "mph"
	case "standard":
		return "K", "m/s"
	default:
		return "°C", "m/s"
	}
}

// number renders v with at most one decimal, dropping a trailing ".0".
func number(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
