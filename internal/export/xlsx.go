package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

const (
	articlesSheet = "Articles"
	summarySheet  = "Summary"
)

// WriteXLSX writes articles and their summary as a two sheet workbook
func WriteXLSX(w io.Writer, articles []models.ScoredArticle, summary models.AggregateSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", articlesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	scoreFormat := "0.0000"
	scoreStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &scoreFormat})
	if err != nil {
		return fmt.Errorf("failed to create score style: %w", err)
	}

	if err := writeArticles(f, articles, headerStyle, scoreStyle); err != nil {
		return err
	}
	if err := writeSummary(f, summary, headerStyle, scoreStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeArticles(f *excelize.File, articles []models.ScoredArticle, headerStyle, scoreStyle int) error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(articlesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(articlesSheet, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, a := range articles {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{a.Title, a.Abstract, a.Sentiment, a.URL, a.Author, a.PublishedDate}
		if err := f.SetSheetRow(articlesSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if len(articles) > 0 {
		last := fmt.Sprintf("C%d", len(articles)+1)
		if err := f.SetCellStyle(articlesSheet, "C2", last, scoreStyle); err != nil {
			return fmt.Errorf("failed to style scores: %w", err)
		}
	}

	if err := f.SetColWidth(articlesSheet, "A", "B", 60); err != nil {
		return err
	}
	return f.SetColWidth(articlesSheet, "D", "D", 50)
}

func writeSummary(f *excelize.File, s models.AggregateSummary, headerStyle, scoreStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Articles", s.Total},
		{"Average Sentiment", optional(s.MeanSentiment)},
		{"Label", s.Label},
		{"Max Sentiment", optional(s.MaxSentiment)},
		{"Min Sentiment", optional(s.MinSentiment)},
		{"Positive", s.PositiveCount},
		{"Neutral", s.NeutralCount},
		{"Negative", s.NegativeCount},
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}

	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "B3", "B3", scoreStyle); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 20)
}

// optional renders an undefined statistic as an empty cell
func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
