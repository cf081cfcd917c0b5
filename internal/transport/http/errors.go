package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/news"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/pipeline"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/sentiment"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
)

// APIError is the JSON body of every failed request
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// FieldError describes one rejected query parameter
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

var (
	errStoreDisabled = newAPIError(http.StatusServiceUnavailable, "HISTORY_DISABLED", "snapshot history is not configured")
	errInternal      = newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
)

// toAPIError maps domain errors onto HTTP statuses
func toAPIError(err error) *APIError {
	var (
		apiErr   *APIError
		cfgErr   *news.ConfigError
		fetchErr *news.FetchError
		parseErr *news.ParseError
		fieldErr *sentiment.FieldNotFoundError
		valErrs  validator.ValidationErrors
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &valErrs):
		details := make([]FieldError, 0, len(valErrs))
		for _, fe := range valErrs {
			details = append(details, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return &APIError{
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_FAILED",
			Message:    "request validation failed",
			Details:    details,
		}
	case errors.As(err, &fieldErr):
		return &APIError{
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "UNKNOWN_FIELD",
			Message:    fieldErr.Error(),
			Details:    FieldError{Field: "field", Message: "must name a record attribute"},
		}
	case errors.As(err, &cfgErr):
		return newAPIError(http.StatusBadRequest, "SOURCE_CONFIG", cfgErr.Error())
	case errors.As(err, &parseErr):
		return newAPIError(http.StatusBadGateway, "UPSTREAM_SCHEMA", parseErr.Error())
	case errors.As(err, &fetchErr):
		return newAPIError(http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", fetchErr.Error())
	case errors.Is(err, pipeline.ErrNoSnapshot):
		return newAPIError(http.StatusServiceUnavailable, "NO_SNAPSHOT", err.Error())
	default:
		return errInternal
	}
}

// renderError logs and writes err
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)

	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", apiErr.StatusCode),
			zap.Error(err),
		)
	} else {
		logger.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", apiErr.StatusCode),
			zap.Error(err),
		)
	}

	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		logger.Error("failed to render error", zap.Error(renderErr))
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "number":
		return "must be a number"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
