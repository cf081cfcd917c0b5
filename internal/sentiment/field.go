package sentiment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"
)

// ErrScore is the sentinel matched by every scoring failure
var ErrScore = errors.New("sentiment: scoring failed")

// FieldSelector names the textual attribute of a record to score
type FieldSelector string

const (
	FieldTitle         FieldSelector = "title"
	FieldAbstract      FieldSelector = "abstract"
	FieldAuthor        FieldSelector = "author"
	FieldURL           FieldSelector = "url"
	FieldPublishedDate FieldSelector = "published_date"
)

// DefaultField is the attribute scored when none is configured
const DefaultField = FieldTitle

// FieldNotFoundError is returned when a selector does not name a record attribute
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("sentiment: unknown field %q", e.Field)
}

func (e *FieldNotFoundError) Is(target error) bool {
	return target == ErrScore
}

// ParseField validates a selector name
func ParseField(name string) (FieldSelector, error) {
	f := FieldSelector(strings.ToLower(strings.TrimSpace(name)))
	if err := f.Validate(); err != nil {
		return "", &FieldNotFoundError{Field: name}
	}
	return f, nil
}

func (f FieldSelector) text(r models.ArticleRecord) (string, error) {
	switch f {
	case FieldTitle:
		return r.Title, nil
	case FieldAbstract:
		return r.Abstract, nil
	case FieldAuthor:
		return r.Author, nil
	case FieldURL:
		return r.URL, nil
	case FieldPublishedDate:
		return r.PublishedDate, nil
	default:
		return "", &FieldNotFoundError{Field: string(f)}
	}
}

// Validate reports a *FieldNotFoundError for unknown selectors
func (f FieldSelector) Validate() error {
	_, err := f.text(models.ArticleRecord{})
	return err
}
