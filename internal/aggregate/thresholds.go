package aggregate

import "fmt"

const (
	// PositiveThreshold is the score a positive article must exceed
	PositiveThreshold = 0.05
	// NegativeThreshold is the score a negative article must fall below
	NegativeThreshold = -0.05
)

// Label is the polarity class of a score
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNeutral  Label = "Neutral"
	LabelNegative Label = "Negative"
)

// Thresholds bound the closed neutral interval [Negative, Positive]
type Thresholds struct {
	Positive float64
	Negative float64
}

// DefaultThresholds returns the ±0.05 classification bounds
func DefaultThresholds() Thresholds {
	return Thresholds{Positive: PositiveThreshold, Negative: NegativeThreshold}
}

// Validate checks that the neutral interval is well formed
func (t Thresholds) Validate() error {
	if t.Positive < t.Negative {
		return fmt.Errorf("positive threshold %v below negative threshold %v", t.Positive, t.Negative)
	}
	if t.Positive > 1 || t.Negative < -1 {
		return fmt.Errorf("thresholds must lie within [-1, 1]")
	}
	return nil
}

// Classify labels a score. Scores on either boundary are neutral.
func (t Thresholds) Classify(score float64) Label {
	switch {
	case score > t.Positive:
		return LabelPositive
	case score < t.Negative:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Classify labels a score with the default thresholds
func Classify(score float64) Label {
	return DefaultThresholds().Classify(score)
}

// MeanLabel describes the sign of a mean score; undefined means get ""
func MeanLabel(mean *float64) string {
	if mean == nil {
		return ""
	}
	switch {
	case *mean > 0:
		return string(LabelPositive)
	case *mean < 0:
		return string(LabelNegative)
	default:
		return string(LabelNeutral)
	}
}
