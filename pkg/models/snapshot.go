package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the result of one fetch -> score -> summarize run
type Snapshot struct {
	FetchedAt      time.Time        `json:"fetched_at"`
	Section        string           `json:"section"`
	Field          string           `json:"field"`
	LexiconVersion string           `json:"lexicon_version"`
	Articles       []ScoredArticle  `json:"articles"`
	Summary        AggregateSummary `json:"summary"`
	ID             uuid.UUID        `json:"id"`
}

// SnapshotRecord is the stored header of a snapshot, without its articles
type SnapshotRecord struct {
	FetchedAt      time.Time `json:"fetched_at" db:"fetched_at"`
	MeanSentiment  *float64  `json:"mean_sentiment" db:"mean_sentiment"`
	Section        string    `json:"section" db:"section"`
	Field          string    `json:"field" db:"field"`
	LexiconVersion string    `json:"lexicon_version" db:"lexicon_version"`
	ArticleCount   int       `json:"article_count" db:"article_count"`
	PositiveCount  int       `json:"positive_count" db:"positive_count"`
	NegativeCount  int       `json:"negative_count" db:"negative_count"`
	NeutralCount   int       `json:"neutral_count" db:"neutral_count"`
	ID             uuid.UUID `json:"id" db:"id"`
}

// Record returns the storable header of the snapshot
func (s *Snapshot) Record() SnapshotRecord {
	return SnapshotRecord{
		ID:             s.ID,
		Section:        s.Section,
		Field:          s.Field,
		LexiconVersion: s.LexiconVersion,
		FetchedAt:      s.FetchedAt,
		ArticleCount:   len(s.Articles),
		MeanSentiment:  s.Summary.MeanSentiment,
		PositiveCount:  s.Summary.PositiveCount,
		NegativeCount:  s.Summary.NegativeCount,
		NeutralCount:   s.Summary.NeutralCount,
	}
}
