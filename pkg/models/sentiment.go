package models

// AggregateSummary describes a set of scored articles. Mean and extrema are nil
// when the set is empty.
type AggregateSummary struct {
	MeanSentiment *float64 `json:"mean_sentiment"`
	MaxSentiment  *float64 `json:"max_sentiment"`
	MinSentiment  *float64 `json:"min_sentiment"`
	Label         string   `json:"label,omitempty"`
	Total         int      `json:"total"`
	PositiveCount int      `json:"positive_count"`
	NegativeCount int      `json:"negative_count"`
	NeutralCount  int      `json:"neutral_count"`
	PositivePct   float64  `json:"positive_pct"`
	NegativePct   float64  `json:"negative_pct"`
	NeutralPct    float64  `json:"neutral_pct"`
}

// HasMean reports whether the summary was computed over a non-empty set
func (s AggregateSummary) HasMean() bool {
	return s.MeanSentiment != nil
}

// Mean returns the mean sentiment or 0 when undefined
func (s AggregateSummary) Mean() float64 {
	if s.MeanSentiment == nil {
		return 0
	}
	return *s.MeanSentiment
}

// SentimentTrend represents the direction of mean sentiment across snapshots
type SentimentTrend struct {
	Current    float64   `json:"current"`
	Previous   float64   `json:"previous"`
	Direction  string    `json:"direction"` // improving, declining, stable
	Momentum   float64   `json:"momentum"`
	Smoothed   []float64 `json:"smoothed"`
	Datapoints []float64 `json:"datapoints"`
}
