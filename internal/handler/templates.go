package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"
)

const (
	baseTemplate     = "base.html"
	partialsTemplate = "partials.html"
	tmplPath         = "templates"
)

//go:embed templates/*.html
var templateFS embed.FS

func sub(a, b int) int { return a - b }
func add(a, b int) int { return a + b }

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("invalid dict call: number of arguments must be even")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

// MustLoadTemplates parses every page template together with the base
// layout and the shared partials. Post bodies go through renderer.
func MustLoadTemplates(renderer Renderer) map[string]*template.Template {
	files, err := fs.ReadDir(templateFS, tmplPath)
	if err != nil {
		panic(err)
	}

	funcs := template.FuncMap{
		"sub":      sub,
		"add":      add,
		"dict":     dict,
		"time":     formatTime,
		"markdown": markdownFunc(renderer),
	}

	templates := make(map[string]*template.Template)
	for _, f := range files {
		if path.Ext(f.Name()) != ".html" || f.Name() == baseTemplate || f.Name() == partialsTemplate {
			continue
		}
		templates[f.Name()] = template.Must(template.New(baseTemplate).Funcs(funcs).ParseFS(
			templateFS,
			path.Join(tmplPath, baseTemplate),
			path.Join(tmplPath, f.Name()),
			path.Join(tmplPath, partialsTemplate),
		))
	}
	return templates
}
