package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var brochureTemplate = template.Must(
	template.New("brochure.html").
		Funcs(template.FuncMap{
			"upper": strings.ToUpper,
			"formatDate": func(t time.Time, layout string) string {
				if t.IsZero() {
					return ""
				}
				return t.Format(layout)
			},
		}).
		ParseFS(templateFS, "templates/brochure.html"),
)

// TemplateData holds data for brochure template rendering
type TemplateData struct {
	Lang        string
	Dir         string
	Title       string
	Summary     string
	Category    string
	CoverURL    string
	ContentHTML template.HTML
	UpdatedAt   time.Time
}

// RenderBrochureHTML renders the standalone brochure page fed to the converters.
func RenderBrochureHTML(data TemplateData) (string, error) {
	if data.Dir == "" {
		data.Dir = "ltr"
	}
	var buf bytes.Buffer
	if err := brochureTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
