package weather

import (
	"time"
)

// ConditionCategory is the closed set of visual/semantic conditions the dashboard knows about.
type ConditionCategory string

const (
	ConditionClear        ConditionCategory = "Clear"
	ConditionClouds       ConditionCategory = "Clouds"
	ConditionRain         ConditionCategory = "Rain"
	ConditionDrizzle      ConditionCategory = "Drizzle"
	ConditionSnow         ConditionCategory = "Snow"
	ConditionMist         ConditionCategory = "Mist"
	ConditionFog          ConditionCategory = "Fog"
	ConditionHaze         ConditionCategory = "Haze"
	ConditionThunderstorm ConditionCategory = "Thunderstorm"
	ConditionDust         ConditionCategory = "Dust"
	ConditionSmoke        ConditionCategory = "Smoke"
	ConditionDefault      ConditionCategory = "Default"
)

// ConditionDescriptor is a provider-supplied (code, label, description) triple.
type ConditionDescriptor struct {
	Code        int    `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// DefaultDescriptor stands in for an empty provider condition list.
var DefaultDescriptor = ConditionDescriptor{
	Code:        0,
	Label:       "Default",
	Description: "unknown",
}

// WeatherRecord is the normalized current-conditions view for one location.
// It is built once per successful fetch and never mutated afterwards.
type WeatherRecord struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"windSpeed"`
	WindDeg     float64 `json:"windDeg"`
	Visibility  int     `json:"visibility"`

	// Conditions always holds at least one entry; the first one is the primary condition.
	Conditions []ConditionDescriptor `json:"conditions"`

	Sunrise int64 `json:"sunrise"` // unix seconds
	Sunset  int64 `json:"sunset"`  // unix seconds

	// TimezoneOffset is the city's shift from UTC in seconds.
	TimezoneOffset int `json:"timezoneOffset"`

	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	StatusCode int `json:"statusCode"`
}

// Primary returns the first condition descriptor.
func (r WeatherRecord) Primary() ConditionDescriptor {
	if len(r.Conditions) == 0 {
		return DefaultDescriptor
	}
	return r.Conditions[0]
}

// Condition classifies the record's primary descriptor.
func (r WeatherRecord) Condition() ConditionCategory {
	return Classify(r.Primary().Label)
}

// Location returns the city's fixed time zone.
func (r WeatherRecord) Location() *time.Location {
	return time.FixedZone(r.City, r.TimezoneOffset)
}

// SunriseTime returns sunrise in the city's local time.
func (r WeatherRecord) SunriseTime() time.Time {
	return time.Unix(r.Sunrise, 0).In(r.Location())
}

// SunsetTime returns sunset in the city's local time.
func (r WeatherRecord) SunsetTime() time.Time {
	return time.Unix(r.Sunset, 0).In(r.Location())
}

// CitySuggestion is a geocoding candidate for partial city input.
type CitySuggestion struct {
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Coord is a latitude/longitude pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TrendPoint is one sample of the short-range temperature trend.
type TrendPoint struct {
	Time        time.Time `json:"time"` // always UTC
	Temperature float64   `json:"temperature"`
	Label       string    `json:"label"`
}

// AirQuality holds pollutant concentrations and a 0-500 index derived from PM2.5.
type AirQuality struct {
	PM25  float64 `json:"pm2_5"`
	PM10  float64 `json:"pm10"`
	CO    float64 `json:"co"`
	SO2   float64 `json:"so2"`
	AQI   int     `json:"aqi"`
	Label string  `json:"label"`
}
