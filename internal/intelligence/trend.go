package intelligence

import "math"

// Trend direction labels shared with the decision engine's snapshot types.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// trendSlopeFloor is the minimum per-step slope, relative to the series
// mean, treated as a real trend rather than noise.
const trendSlopeFloor = 0.02

// TrendDescriptor summarizes the direction of an hourly series with a
// goodness-of-fit confidence and a one-step-ahead forecast.
type TrendDescriptor struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Forecast   float64 `json:"forecast"`
}

// ComputeTrend fits a least-squares line over the series indexed 0..n-1.
// Direction is stable when the relative slope is within the noise floor,
// confidence is the R² of the fit, and the forecast is the fitted value at
// index n. Series shorter than two points are stable with zero confidence.
func ComputeTrend(series []float64) TrendDescriptor {
	n := len(series)
	if n < 2 {
		d := TrendDescriptor{Direction: TrendStable}
		if n == 1 {
			d.Forecast = series[0]
		}
		return d
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	mean := sumY / fn

	// R² against the mean model.
	var ssRes, ssTot float64
	for i, y := range series {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - mean) * (y - mean)
	}
	confidence := 0.0
	if ssTot > 0 {
		confidence = 1 - ssRes/ssTot
		if confidence < 0 {
			confidence = 0
		}
	}

	direction := TrendStable
	if mean != 0 && math.Abs(slope/mean) > trendSlopeFloor {
		if slope > 0 {
			direction = TrendIncreasing
		} else {
			direction = TrendDecreasing
		}
	}

	forecast := intercept + slope*fn
	if forecast < 0 {
		forecast = 0
	}
	return TrendDescriptor{Direction: direction, Confidence: confidence, Forecast: forecast}
}
