package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager holds templates parsed from a filesystem
type Manager struct {
	templates *template.Template
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"float": func(val interface{}) float64 {
			switch v := val.(type) {
			case float64:
				return v
			case float32:
				return float64(v)
			case int:
				return float64(v)
			case *float64:
				if v == nil {
					return 0
				}
				return *v
			default:
				return 0
			}
		},
		"mul": func(a, b float64) float64 {
			return a * b
		},
		"div": func(a, b float64) float64 {
			if b == 0 {
				return 0
			}
			return a / b
		},
		"add": func(a, b int) int {
			return a + b
		},
		"score":  func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"signed": func(v float64) string { return fmt.Sprintf("%+.4f", v) },
		"pct":    func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"md":     markdownEscaper.Replace,
	}
}

// NewManager parses every *.tmpl file under fsys, one directory level deep
func NewManager(fsys fs.FS) (*Manager, error) {
	tmpl := template.New("root").Funcs(GetDefaultFuncMap())

	for _, pattern := range []string{"*.tmpl", "*/*.tmpl"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid template pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFS(fsys, pattern); err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}
	}

	templateCount := len(tmpl.Templates())
	if templateCount <= 1 { // "root" template doesn't count
		return nil, fmt.Errorf("no templates found")
	}

	logger.Debug("templates loaded", zap.Int("count", templateCount))

	return &Manager{templates: tmpl}, nil
}

// NewManagerWithValidation creates manager and validates required templates exist
func NewManagerWithValidation(fsys fs.FS, requiredTemplates []string) (*Manager, error) {
	manager, err := NewManager(fsys)
	if err != nil {
		return nil, err
	}

	for _, name := range requiredTemplates {
		if manager.templates.Lookup(name) == nil {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	return manager, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data interface{}) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
