package aggregate

import (
	"fmt"
	"strings"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// Range is an inclusive sentiment interval
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// FullRange covers every possible score
func FullRange() Range {
	return Range{Low: -1, High: 1}
}

// Contains reports whether score lies in [Low, High]. An inverted range
// contains nothing.
func (r Range) Contains(score float64) bool {
	return score >= r.Low && score <= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[%.2f, %.2f]", r.Low, r.High)
}

// Filter keeps articles inside r whose title contains keyword. Input order is
// preserved and the input slice is never modified.
func Filter(scored []models.ScoredArticle, r Range, keyword string) []models.ScoredArticle {
	// the keyword is matched as given, surrounding whitespace included
	needle := strings.ToLower(keyword)

	out := make([]models.ScoredArticle, 0, len(scored))
	for _, a := range scored {
		if !r.Contains(a.Sentiment) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(a.Title), needle) {
			continue
		}
		out = append(out, a)
	}

	return out
}

// FilterByRange keeps articles whose score lies in r
func FilterByRange(scored []models.ScoredArticle, r Range) []models.ScoredArticle {
	return Filter(scored, r, "")
}

// FilterByKeyword keeps articles whose title contains keyword, ignoring case.
// An empty keyword keeps everything.
func FilterByKeyword(scored []models.ScoredArticle, keyword string) []models.ScoredArticle {
	return Filter(scored, Range{Low: -1, High: 1}, keyword)
}
