package api

import (
	"embed"
	"html/template"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates parses the embedded HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"inputMode": func(numeric bool) string {
			if numeric {
				return "decimal"
			}
			return "text"
		},
		"checkedIf": func(b bool) template.HTMLAttr {
			if b {
				return "checked"
			}
			return ""
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
