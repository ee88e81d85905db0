package widgets

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/goliatone/go-site/widgets"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var presenterFuncs = template.FuncMap{
	"percent": func(share float64) float64 { return share * 100 },
	"ratio": func(value, maxValue float64) float64 {
		if maxValue == 0 {
			return 0
		}
		return value / maxValue * 100
	},
}

// Presenter turns outputs into HTML fragments for theme slots.
type Presenter struct {
	base *template.Template
}

// NewPresenter parses the embedded widget templates.
func NewPresenter() (*Presenter, error) {
	base, err := template.New("widgets").Funcs(presenterFuncs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("widgets: parse templates: %w", err)
	}
	return &Presenter{base: base}, nil
}

type presented struct {
	Kind   string
	Output widgets.Output
}

// Present renders one output.
func (p *Presenter) Present(out widgets.Output) (template.HTML, error) {
	kind := presentKind(out.Type)
	tmpl, err := p.base.Clone()
	if err != nil {
		return "", err
	}
	body := "{{define \"widget-body\"}}{{end}}"
	if tmpl.Lookup("widget-"+kind) != nil {
		body = fmt.Sprintf("{{define \"widget-body\"}}{{template %q .Output.Data}}{{end}}", "widget-"+kind)
	}
	if _, err := tmpl.Parse(body); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "widget", presented{Kind: kind, Output: out}); err != nil {
		return "", fmt.Errorf("widgets: present %s: %w", out.InstanceID, err)
	}
	return template.HTML(buf.String()), nil
}

// PresentAll renders outputs in order. A widget that fails to present is
// replaced by its error state.
func (p *Presenter) PresentAll(outs []widgets.Output) template.HTML {
	var b strings.Builder
	for _, out := range outs {
		html, err := p.Present(out)
		if err != nil {
			inst := widgets.Instance{ID: out.InstanceID, Type: out.Type}
			html, _ = p.Present(widgets.Failed(inst, err))
		}
		b.WriteString(string(html))
	}
	return template.HTML(b.String())
}

func presentKind(kind string) string {
	return strings.ReplaceAll(canonicalKey(kind), "+", "-")
}
