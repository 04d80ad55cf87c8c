package site

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

//go:embed templates/index.html.tmpl
var templates embed.FS

var funcs = template.FuncMap{
	"clip": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	},
	"first": func(tags []string, n int) []string {
		return tags[:min(n, len(tags))]
	},
	"join": strings.Join,
	"hireLabel": func(h string) string {
		switch h {
		case "actively_hiring":
			return "Hiring"
		case "possibly_hiring":
			return "Possibly"
		}
		return "?"
	},
}

var indexTmpl = template.Must(template.New("index.html.tmpl").Funcs(funcs).ParseFS(templates, "templates/index.html.tmpl"))

// RenderIndex writes the board page.
func RenderIndex(w io.Writer, d Data) error {
	return eris.Wrap(indexTmpl.Execute(w, d), "site: render index")
}
