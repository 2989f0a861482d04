package weather

import "math"

// TrendSummary condenses a temperature trend.
type TrendSummary struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	// Delta is last minus first sample; positive means warming.
	Delta float64 `json:"delta"`
}

// SummarizeTrend combines trend samples into min/max/average and overall change.
func SummarizeTrend(points []TrendPoint) TrendSummary {
	if len(points) == 0 {
		return TrendSummary{}
	}

	var sum float64
	minTemp, maxTemp := math.Inf(1), math.Inf(-1)

	for _, p := range points {
		sum += p.Temperature
		if p.Temperature < minTemp {
			minTemp = p.Temperature
		}
		if p.Temperature > maxTemp {
			maxTemp = p.Temperature
		}
	}

	return TrendSummary{
		Min:     minTemp,
		Max:     maxTemp,
		Average: sum / float64(len(points)),
		Delta:   points[len(points)-1].Temperature - points[0].Temperature,
	}
}
