package news

import (
	"context"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// Provider represents a news source
type Provider interface {
	// Name returns provider name used in logs and errors
	Name() string

	// Fetch performs one retrieval and returns normalized records. An empty
	// result is returned as an empty slice with a nil error.
	Fetch(ctx context.Context) ([]models.ArticleRecord, error)
}
