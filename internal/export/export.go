package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const (
	CSVFileName  = "news_sentiment_filtered.csv"
	XLSXFileName = "news_sentiment_filtered.xlsx"

	scorePlaces = 4
)

// Columns is the export header, in dashboard table order
var Columns = []string{"Title", "Abstract", "Sentiment", "URL", "Author", "Published Date"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatScore renders a score with four fixed decimals
func FormatScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(scorePlaces)
}

func row(a models.ScoredArticle) []string {
	return []string{a.Title, a.Abstract, FormatScore(a.Sentiment), a.URL, a.Author, a.PublishedDate}
}

// WriteCSV writes articles as CSV prefixed with a UTF-8 BOM so spreadsheet
// tools detect the encoding
func WriteCSV(w io.Writer, articles []models.ScoredArticle) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, a := range articles {
		if err := writer.Write(row(a)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
