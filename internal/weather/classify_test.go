package weather

import (
	"testing"

	"github.com/tj/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		label string
		want  ConditionCategory
	}{
		{name: "clear", label: "Clear", want: ConditionClear},
		{name: "clouds", label: "few clouds", want: ConditionClouds},
		{name: "rain", label: "Rain", want: ConditionRain},
		{name: "drizzle", label: "light intensity drizzle", want: ConditionDrizzle},
		{name: "snow", label: "Snow", want: ConditionSnow},
		{name: "mist", label: "Mist", want: ConditionMist},
		{name: "fog", label: "Fog", want: ConditionFog},
		{name: "haze", label: "Haze", want: ConditionHaze},
		{name: "thunderstorm", label: "Thunderstorm", want: ConditionThunderstorm},
		{name: "dust", label: "Dust", want: ConditionDust},
		{name: "smoke", label: "Smoke", want: ConditionSmoke},
		{name: "upper case", label: "HEAVY RAIN", want: ConditionRain},
		{name: "unknown", label: "Tornado", want: ConditionDefault},
		{name: "empty", label: "", want: ConditionDefault},
		{name: "rain before mist", label: "light rain and mist", want: ConditionRain},
		{name: "misty rain", label: "misty rain", want: ConditionRain},
		{name: "clear before cloud", label: "clearing clouds", want: ConditionClear},
		{name: "rain before thunder", label: "thunderstorm with rain", want: ConditionRain},
		{name: "synthetic descriptor", label: DefaultDescriptor.Label, want: ConditionDefault},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.label))
		})
	}
}

func TestRecordCondition(t *testing.T) {
	rec := WeatherRecord{Conditions: []ConditionDescriptor{
		{Code: 500, Label: "Rain", Description: "light rain"},
		{Code: 701, Label: "Mist", Description: "mist"},
	}}
	assert.Equal(t, ConditionRain, rec.Condition())

	assert.Equal(t, ConditionDefault, WeatherRecord{}.Condition())
	assert.Equal(t, DefaultDescriptor, WeatherRecord{}.Primary())
}

func TestRecordLocalTimes(t *testing.T) {
	rec := WeatherRecord{
		City:           "London",
		Sunrise:        1700000000,
		Sunset:         1700030000,
		TimezoneOffset: 3600,
	}

	_, offset := rec.SunriseTime().Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, int64(1700030000), rec.SunsetTime().Unix())
}
