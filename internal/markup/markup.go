// Package markup turns stored content into safe HTML: markdown goes through
// goldmark and every result is sanitised with bluemonday.
package markup

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-site/content"
)

// Options configures the renderer.
type Options struct {
	// Extensions names goldmark extensions. Empty enables gfm, linkify and
	// tasklist.
	Extensions []string
	HardWraps  bool
	// AllowIframes keeps embedded iframes (video widgets, maps).
	AllowIframes bool
}

// Renderer converts content bodies to sanitised HTML. It is safe for
// concurrent use.
type Renderer struct {
	engine goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// New builds a renderer.
func New(opts Options) *Renderer {
	return &Renderer{
		engine: newEngine(opts),
		policy: newPolicy(opts),
		strict: bluemonday.StrictPolicy(),
	}
}

// Render converts body according to format.
func (r *Renderer) Render(format content.Format, body string) (template.HTML, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	raw := body
	if format == content.FormatMarkdown {
		var buf bytes.Buffer
		if err := r.engine.Convert([]byte(body), &buf); err != nil {
			return "", fmt.Errorf("markup: markdown: %w", err)
		}
		raw = buf.String()
	}
	return template.HTML(r.policy.Sanitize(raw)), nil
}

// Item renders the body of a content item.
func (r *Renderer) Item(item *content.Item) (template.HTML, error) {
	if item == nil {
		return "", nil
	}
	return r.Render(item.Format, item.Content)
}

// Sanitize cleans raw HTML.
func (r *Renderer) Sanitize(raw string) template.HTML {
	if raw == "" {
		return ""
	}
	return template.HTML(r.policy.Sanitize(raw))
}

// Excerpt returns up to limit runes of plain text, ending on a word
// boundary with an ellipsis when truncated.
func (r *Renderer) Excerpt(format content.Format, body string, limit int) string {
	rendered, err := r.Render(format, body)
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(r.strict.Sanitize(string(rendered))), " ")
	text = stdhtml.UnescapeString(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func newEngine(opts Options) goldmark.Markdown {
	rendererOptions := []renderer.Option{html.WithUnsafe()}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	}
	if exts := collectExtensions(opts.Extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}
	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}
	var out []goldmark.Extender
	seen := map[string]bool{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ext)
	}
	return out
}

func newPolicy(opts Options) *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
	policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	policy.AllowElements("u", "s", "sub", "sup", "mark", "figure", "figcaption")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("class").Globally()
	policy.AllowDataAttributes()
	if opts.AllowIframes {
		policy.AllowElements("iframe")
		policy.AllowAttrs("src", "width", "height", "allowfullscreen", "title").OnElements("iframe")
	}
	return policy
}
