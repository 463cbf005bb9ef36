package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/filehose/filehose/pkg/core"
)

//go:embed template.html
var htmlTemplate string

var funcs = template.FuncMap{
	"rfc3339": func(t time.Time) string {
		return t.Format(time.RFC3339)
	},
	"rfc3339p": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(time.RFC3339)
	},
	"duration": func(d *time.Duration) string {
		if d == nil {
			return "-"
		}
		return d.Round(time.Millisecond).String()
	},
	"percent": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
}

func renderHTML(w io.Writer, results core.ReportResults) error {
	tmpl, err := template.New("report").Funcs(funcs).Parse(htmlTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, results)
}
