package models

// MediaItem references one image asset attached to an article
type MediaItem struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// ArticleRecord is one normalized news item. Title and URL are always set on
// records produced by a fetcher; the other fields may be empty.
type ArticleRecord struct {
	Title         string      `json:"title" db:"title"`
	Abstract      string      `json:"abstract" db:"abstract"`
	URL           string      `json:"url" db:"url"`
	Author        string      `json:"author" db:"author"`
	PublishedDate string      `json:"published_date" db:"published_date"`
	Media         []MediaItem `json:"media" db:"-"`
}

// ScoredArticle is an ArticleRecord with its compound sentiment attached
type ScoredArticle struct {
	ArticleRecord
	Sentiment float64 `json:"sentiment" db:"sentiment"`
}
