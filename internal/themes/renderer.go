package themes

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/goliatone/go-site/themes"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var baseTemplates = template.Must(template.New("themes").ParseFS(templateFS, "templates/*.tmpl"))

// templateRenderer renders one page type of a built-in theme with the
// embedded templates.
type templateRenderer struct {
	theme    themes.Name
	pageType themes.PageType
	tmpl     *template.Template
}

var _ themes.PageRenderer = (*templateRenderer)(nil)

func newTemplateRenderer(theme themes.Name, pt themes.PageType) (*templateRenderer, error) {
	tmpl, err := baseTemplates.Clone()
	if err != nil {
		return nil, fmt.Errorf("themes: clone templates: %w", err)
	}
	body := "main-listing"
	switch pt {
	case themes.PageHome:
		body = "main-home"
	case themes.PageSlug:
		body = "main-slug"
	}
	if _, err := tmpl.New("main").Parse(`{{template "` + body + `" .}}`); err != nil {
		return nil, fmt.Errorf("themes: bind %s/%s: %w", theme, pt, err)
	}
	return &templateRenderer{theme: theme, pageType: pt, tmpl: tmpl}, nil
}

func (r *templateRenderer) Theme() themes.Name        { return r.theme }
func (r *templateRenderer) PageType() themes.PageType { return r.pageType }

// Render writes the page. view must be a PageView or *PageView.
func (r *templateRenderer) Render(ctx context.Context, w io.Writer, view any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var data PageView
	switch v := view.(type) {
	case PageView:
		data = v
	case *PageView:
		if v != nil {
			data = *v
		}
	default:
		return fmt.Errorf("themes: %s renderer cannot render %T", r.theme, view)
	}
	data.Theme = r.theme
	data.PageType = r.pageType
	data.ThemeClass = themeClass(r.theme)
	return r.tmpl.ExecuteTemplate(w, "layout", data)
}

// BundleFor builds the seven template renderers of a built-in theme.
func BundleFor(name themes.Name) (themes.Renderers, error) {
	var out themes.Renderers
	for _, pt := range themes.PageTypes {
		r, err := newTemplateRenderer(name, pt)
		if err != nil {
			return themes.Renderers{}, err
		}
		switch pt {
		case themes.PageHome:
			out.Home = r
		case themes.PageSlug:
			out.Slug = r
		case themes.PageCategory:
			out.Category = r
		case themes.PageTag:
			out.Tag = r
		case themes.PageAuthor:
			out.Author = r
		case themes.PageSearch:
			out.Search = r
		case themes.PageDate:
			out.Date = r
		}
	}
	return out, nil
}

func themeClass(name themes.Name) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(name))), " ", "-")
}
