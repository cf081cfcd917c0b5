package aggregate

import (
	"math"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// DefaultBins is the histogram resolution used by the dashboard
const DefaultBins = 20

// BreakdownSlice is one segment of the polarity pie chart
type BreakdownSlice struct {
	Label   Label   `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Breakdown returns positive, neutral and negative counts in that order.
// Percentages are 0 for an empty set.
func Breakdown(scored []models.ScoredArticle, t Thresholds) []BreakdownSlice {
	s := SummarizeWith(scored, t)

	return []BreakdownSlice{
		{Label: LabelPositive, Count: s.PositiveCount, Percent: s.PositivePct},
		{Label: LabelNeutral, Count: s.NeutralCount, Percent: s.NeutralPct},
		{Label: LabelNegative, Count: s.NegativeCount, Percent: s.NegativePct},
	}
}

// HistogramBin counts scores in [Low, High); the last bin also includes 1.0
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram buckets scores into equal-width bins over [-1, 1]. Non-positive
// bin counts fall back to DefaultBins.
func Histogram(scored []models.ScoredArticle, bins int) []HistogramBin {
	if bins <= 0 {
		bins = DefaultBins
	}

	width := 2.0 / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Low = roundTo(-1+float64(i)*width, 6)
		out[i].High = roundTo(-1+float64(i+1)*width, 6)
	}

	for _, a := range scored {
		// edge scores such as -0.9 land exactly on Low after snapping
		idx := int(math.Floor(roundTo((a.Sentiment+1)/width, 9)))
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}

	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
