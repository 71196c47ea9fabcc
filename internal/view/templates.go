package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/estribo-center/estribo/internal/shared"
	"github.com/estribo-center/estribo/web"
)

// moneyPrinter renders amounts with es-AR digit separators.
var moneyPrinter = message.NewPrinter(language.MustParse("es-AR"))

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	asTime := func(v any) (time.Time, bool) {
		switch t := v.(type) {
		case time.Time:
			return t, !t.IsZero()
		case *time.Time:
			if t == nil || t.IsZero() {
				return time.Time{}, false
			}
			return *t, true
		}
		return time.Time{}, false
	}
	funcMap := template.FuncMap{
		"formatDate": func(v any) string {
			t, ok := asTime(v)
			if !ok {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"formatDateTime": func(v any) string {
			t, ok := asTime(v)
			if !ok {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"formatMoney": func(v float64) string {
			return moneyPrinter.Sprintf("$ %.2f", v)
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/pages/*/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
