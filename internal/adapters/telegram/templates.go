package telegram

import (
	"embed"
	"io/fs"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/templates"
)

const (
	digestTemplate     = "digest.tmpl"
	errorAlertTemplate = "error_alert.tmpl"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// NewTemplateManager loads the notification templates compiled into the binary
func NewTemplateManager() (*templates.Manager, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}

	return templates.NewManagerWithValidation(sub, []string{digestTemplate, errorAlertTemplate})
}
