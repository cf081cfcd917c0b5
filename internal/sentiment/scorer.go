package sentiment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// Scorer attaches compound scores to fetched records
type Scorer struct {
	analyzer *Analyzer
}

// NewScorer creates scorer sharing the given analyzer. A nil analyzer gets
// the embedded lexicon.
func NewScorer(analyzer *Analyzer) *Scorer {
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}
	return &Scorer{analyzer: analyzer}
}

// Analyzer returns the analyzer used for scoring
func (s *Scorer) Analyzer() *Analyzer {
	return s.analyzer
}

// Score scores the selected field of every record. Records whose text is
// empty are skipped rather than scored as neutral. Output keeps input order.
func (s *Scorer) Score(records []models.ArticleRecord, field FieldSelector) ([]models.ScoredArticle, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}

	scored := make([]models.ScoredArticle, 0, len(records))
	skipped := 0

	for _, r := range records {
		text, _ := field.text(r)
		if strings.TrimSpace(text) == "" {
			skipped++
			continue
		}

		scored = append(scored, models.ScoredArticle{
			ArticleRecord: r,
			Sentiment:     s.analyzer.PolarityScore(text),
		})
	}

	if skipped > 0 {
		logger.Debug("skipped records without text",
			zap.String("field", string(field)),
			zap.Int("skipped", skipped),
		)
	}

	return scored, nil
}
