package http

import (
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/aggregate"
)

// articleQuery holds the dashboard filter parameters shared by the read endpoints
type articleQuery struct {
	Min      *float64 `json:"min" validate:"omitempty,gte=-1,lte=1"`
	Max      *float64 `json:"max" validate:"omitempty,gte=-1,lte=1"`
	Keyword  string   `json:"keyword" validate:"max=200"`
	Field    string   `json:"field" validate:"max=32"`
	Page     int      `json:"page" validate:"gte=0"`
	PageSize int      `json:"page_size" validate:"gte=0,lte=100"`
	Bins     int      `json:"bins" validate:"gte=0,lte=200"`
}

// Range returns the requested interval with open ends defaulting to [-1, 1]
func (q articleQuery) Range() aggregate.Range {
	r := aggregate.FullRange()
	if q.Min != nil {
		r.Low = *q.Min
	}
	if q.Max != nil {
		r.High = *q.Max
	}
	return r
}

// historyQuery holds the parameters of the stored-data endpoints
type historyQuery struct {
	Limit   int       `json:"limit" validate:"gte=0,lte=1000"`
	Offset  int       `json:"offset" validate:"gte=0"`
	Period  int       `json:"period" validate:"gte=0,lte=50"`
	Min     *float64  `json:"min" validate:"omitempty,gte=-1,lte=1"`
	Max     *float64  `json:"max" validate:"omitempty,gte=-1,lte=1"`
	Keyword string    `json:"keyword" validate:"max=200"`
	Section string    `json:"section" validate:"max=64"`
	Since   time.Time `json:"since"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// report json names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// queryParser collects conversion failures so they are reported together
type queryParser struct {
	values url.Values
	errs   []FieldError
}

func (p *queryParser) floatParam(name string) *float64 {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, FieldError{Field: name, Message: "must be a number"})
		return nil
	}
	return &v
}

func (p *queryParser) intParam(name string) int {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, FieldError{Field: name, Message: "must be an integer"})
		return 0
	}
	return v
}

func (p *queryParser) timeParam(name string) time.Time {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return time.Time{}
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		p.errs = append(p.errs, FieldError{Field: name, Message: "must be an RFC 3339 timestamp"})
		return time.Time{}
	}
	return v
}

func (p *queryParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "INVALID_PARAMETER",
		Message:    "invalid query parameter",
		Details:    p.errs,
	}
}

func (h *Handler) parseArticleQuery(r *http.Request) (articleQuery, error) {
	p := &queryParser{values: r.URL.Query()}

	q := articleQuery{
		Min:      p.floatParam("min"),
		Max:      p.floatParam("max"),
		Keyword:  p.values.Get("keyword"),
		Field:    p.values.Get("field"),
		Page:     p.intParam("page"),
		PageSize: p.intParam("page_size"),
		Bins:     p.intParam("bins"),
	}
	if err := p.err(); err != nil {
		return q, err
	}

	return q, h.validate.Struct(q)
}

func (h *Handler) parseHistoryQuery(r *http.Request) (historyQuery, error) {
	p := &queryParser{values: r.URL.Query()}

	q := historyQuery{
		Limit:   p.intParam("limit"),
		Offset:  p.intParam("offset"),
		Period:  p.intParam("period"),
		Min:     p.floatParam("min"),
		Max:     p.floatParam("max"),
		Keyword: p.values.Get("keyword"),
		Section: p.values.Get("section"),
		Since:   p.timeParam("since"),
	}
	if err := p.err(); err != nil {
		return q, err
	}

	return q, h.validate.Struct(q)
}
