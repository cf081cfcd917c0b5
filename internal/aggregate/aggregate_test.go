package aggregate

import (
	"math"
	"testing"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

func scoredArticle(title string, score float64) models.ScoredArticle {
	return models.ScoredArticle{
		ArticleRecord: models.ArticleRecord{Title: title, URL: "https://example.com/" + title},
		Sentiment:     score,
	}
}

func sampleArticles() []models.ScoredArticle {
	return []models.ScoredArticle{
		scoredArticle("Tech Stocks Surge", 0.3182),
		scoredArticle("Fed Raises Rates", 0),
		scoredArticle("Crypto Falls", -0.25),
		scoredArticle("Markets Boom", 0.4404),
		scoredArticle("Oil Prices Slump", -0.5994),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize_Scenario(t *testing.T) {
	scored := []models.ScoredArticle{
		scoredArticle("Tech Stocks Surge", 0.3182),
		scoredArticle("Fed Raises Rates", 0),
	}

	s := Summarize(scored)

	if !s.HasMean() || !approxEqual(s.Mean(), 0.1591) {
		t.Errorf("Expected mean 0.1591, got %v", s.MeanSentiment)
	}
	if s.PositiveCount != 1 || s.NeutralCount != 1 || s.NegativeCount != 0 {
		t.Errorf("Unexpected counts: +%d =%d -%d", s.PositiveCount, s.NeutralCount, s.NegativeCount)
	}
	if *s.MaxSentiment != 0.3182 || *s.MinSentiment != 0 {
		t.Errorf("Unexpected extrema: %v %v", *s.MaxSentiment, *s.MinSentiment)
	}
	if s.Label != "Positive" {
		t.Errorf("Expected Positive label, got %q", s.Label)
	}
	if s.PositivePct != 50 || s.NeutralPct != 50 || s.NegativePct != 0 {
		t.Errorf("Unexpected percentages: %v %v %v", s.PositivePct, s.NeutralPct, s.NegativePct)
	}
}

func TestSummarize_Empty(t *testing.T) {
	for _, input := range [][]models.ScoredArticle{nil, {}} {
		s := Summarize(input)

		if s.HasMean() || s.MaxSentiment != nil || s.MinSentiment != nil {
			t.Error("Expected undefined mean and extrema")
		}
		if s.Total != 0 || s.PositiveCount != 0 || s.NegativeCount != 0 || s.NeutralCount != 0 {
			t.Errorf("Expected zero counts, got %+v", s)
		}
		if s.PositivePct != 0 || s.Label != "" {
			t.Errorf("Expected zero percentages and no label, got %+v", s)
		}
	}
}

func TestSummarize_CountsAddUp(t *testing.T) {
	s := Summarize(sampleArticles())

	if s.PositiveCount+s.NegativeCount+s.NeutralCount != s.Total {
		t.Errorf("Counts do not add up to total: %+v", s)
	}
	if s.Total != 5 {
		t.Errorf("Expected total 5, got %d", s.Total)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score    float64
		expected Label
	}{
		{score: 0.05, expected: LabelNeutral},
		{score: 0.0500001, expected: LabelPositive},
		{score: -0.05, expected: LabelNeutral},
		{score: -0.0500001, expected: LabelNegative},
		{score: 0, expected: LabelNeutral},
		{score: 1, expected: LabelPositive},
		{score: -1, expected: LabelNegative},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.expected {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.expected)
		}
	}
}

func TestSummarizeWith_CustomThresholds(t *testing.T) {
	custom := Thresholds{Positive: 0.3, Negative: -0.3}

	s := SummarizeWith(sampleArticles(), custom)

	if s.PositiveCount != 2 || s.NegativeCount != 1 || s.NeutralCount != 2 {
		t.Errorf("Unexpected counts with custom thresholds: %+v", s)
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("Default thresholds invalid: %v", err)
	}
	if err := (Thresholds{Positive: -0.1, Negative: 0.1}).Validate(); err == nil {
		t.Error("Expected error for inverted thresholds")
	}
	if err := (Thresholds{Positive: 1.5, Negative: 0}).Validate(); err == nil {
		t.Error("Expected error for out of range threshold")
	}
}

func TestMeanLabel(t *testing.T) {
	neg, zero := -0.2, 0.0

	if MeanLabel(nil) != "" {
		t.Error("Undefined mean should have no label")
	}
	if MeanLabel(&neg) != "Negative" {
		t.Errorf("Expected Negative, got %q", MeanLabel(&neg))
	}
	if MeanLabel(&zero) != "Neutral" {
		t.Errorf("Expected Neutral, got %q", MeanLabel(&zero))
	}
}
