package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

// DefaultTemplate renders a title, description and deep link.
const DefaultTemplate = "transition.html"

//go:embed templates/*.html
var templateFS embed.FS

type emailData struct {
	Title       string
	Description string
	Link        string
	Data        map[string]any
}

// TemplateRenderer renders the embedded email templates.
type TemplateRenderer struct {
	templates *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
