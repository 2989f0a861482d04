package weather

import "math"

type aqiBreakpoint struct {
	concLo, concHi float64
	aqiLo, aqiHi   int
}

// US EPA PM2.5 (24h, µg/m³) breakpoints.
var pm25Breakpoints = []aqiBreakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// AQIFromPM25 converts a PM2.5 concentration into a 0-500 air quality index.
func AQIFromPM25(pm25 float64) int {
	if pm25 <= 0 || math.IsNaN(pm25) {
		return 0
	}
	c := math.Floor(pm25*10) / 10
	for _, bp := range pm25Breakpoints {
		if c <= bp.concHi {
			if c < bp.concLo {
				c = bp.concLo
			}
			ratio := float64(bp.aqiHi-bp.aqiLo) / (bp.concHi - bp.concLo)
			return int(math.Round(ratio*(c-bp.concLo))) + bp.aqiLo
		}
	}
	return 500
}

// AQILabel names the band an index falls into.
func AQILabel(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
