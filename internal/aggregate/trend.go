package aggregate

import (
	"fmt"

	"github.com/cinar/indicator"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"

	// trendMomentumThreshold is the smoothed change that counts as a move
	trendMomentumThreshold = 0.05
)

// Trend smooths snapshot means (oldest first) with a simple moving average
// and reports the direction of the latest change
func Trend(means []float64, period int) (models.SentimentTrend, error) {
	if len(means) == 0 {
		return models.SentimentTrend{}, fmt.Errorf("no datapoints for trend")
	}
	if period < 1 {
		return models.SentimentTrend{}, fmt.Errorf("invalid period %d", period)
	}
	if period > len(means) {
		period = len(means)
	}

	smoothed := indicator.Sma(period, means)

	trend := models.SentimentTrend{
		Current:    smoothed[len(smoothed)-1],
		Previous:   smoothed[len(smoothed)-1],
		Direction:  TrendStable,
		Smoothed:   smoothed,
		Datapoints: append([]float64(nil), means...),
	}
	if len(smoothed) > 1 {
		trend.Previous = smoothed[len(smoothed)-2]
	}

	trend.Momentum = trend.Current - trend.Previous
	switch {
	case trend.Momentum > trendMomentumThreshold:
		trend.Direction = TrendImproving
	case trend.Momentum < -trendMomentumThreshold:
		trend.Direction = TrendDeclining
	}

	return trend, nil
}
