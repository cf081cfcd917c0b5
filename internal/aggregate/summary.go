package aggregate

import (
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// Summarize computes summary statistics with the default thresholds
func Summarize(scored []models.ScoredArticle) models.AggregateSummary {
	return SummarizeWith(scored, DefaultThresholds())
}

// SummarizeWith computes summary statistics. An empty set yields zero counts
// and an undefined mean; it never fails.
func SummarizeWith(scored []models.ScoredArticle, t Thresholds) models.AggregateSummary {
	summary := models.AggregateSummary{Total: len(scored)}
	if len(scored) == 0 {
		return summary
	}

	var sum float64
	minScore, maxScore := scored[0].Sentiment, scored[0].Sentiment

	for _, a := range scored {
		sum += a.Sentiment
		if a.Sentiment > maxScore {
			maxScore = a.Sentiment
		}
		if a.Sentiment < minScore {
			minScore = a.Sentiment
		}

		switch t.Classify(a.Sentiment) {
		case LabelPositive:
			summary.PositiveCount++
		case LabelNegative:
			summary.NegativeCount++
		default:
			summary.NeutralCount++
		}
	}

	mean := sum / float64(len(scored))
	summary.MeanSentiment = &mean
	summary.MaxSentiment = &maxScore
	summary.MinSentiment = &minScore
	summary.Label = MeanLabel(&mean)

	total := float64(len(scored))
	summary.PositivePct = float64(summary.PositiveCount) / total * 100
	summary.NegativePct = float64(summary.NegativeCount) / total * 100
	summary.NeutralPct = float64(summary.NeutralCount) / total * 100

	return summary
}
