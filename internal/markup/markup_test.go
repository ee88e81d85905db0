package markup

import (
	"strings"
	"testing"

	"github.com/goliatone/go-site/content"
)

func TestRenderMarkdown(t *testing.T) {
	r := New(Options{})
	out, err := r.Render(content.FormatMarkdown, "# Hello\n\nSome *text* and a [link](https://example.com).")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{`<h1 id="hello">Hello</h1>`, "<em>text</em>", `href="https://example.com"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
}

func TestRenderSanitisesHTML(t *testing.T) {
	r := New(Options{})
	out, err := r.Render(content.FormatHTML, `<p onclick="x()">ok</p><script>alert(1)</script><iframe src="https://v"></iframe>`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "script") || strings.Contains(html, "onclick") || strings.Contains(html, "iframe") {
		t.Fatalf("expected unsafe markup removed, got %s", html)
	}
	if !strings.Contains(html, "<p>ok</p>") {
		t.Fatalf("expected paragraph kept, got %s", html)
	}

	withFrames := New(Options{AllowIframes: true}).Sanitize(`<iframe src="https://v"></iframe>`)
	if !strings.Contains(string(withFrames), "<iframe") {
		t.Fatalf("expected iframe kept when allowed, got %s", withFrames)
	}
}

func TestRenderMarkdownStripsEmbeddedScript(t *testing.T) {
	out, _ := New(Options{}).Render(content.FormatMarkdown, "hi <script>bad()</script>")
	if strings.Contains(string(out), "<script") {
		t.Fatalf("expected script removed, got %s", out)
	}
}

func TestExcerpt(t *testing.T) {
	r := New(Options{})
	got := r.Excerpt(content.FormatHTML, "<p>The quick brown fox jumps over the lazy dog</p>", 20)
	if got != "The quick brown fox…" {
		t.Fatalf("unexpected excerpt %q", got)
	}
	if short := r.Excerpt(content.FormatMarkdown, "**Tom & Jerry**", 50); short != "Tom & Jerry" {
		t.Fatalf("unexpected short excerpt %q", short)
	}
}

func TestRenderEmpty(t *testing.T) {
	out, err := New(Options{}).Render(content.FormatHTML, "   ")
	if err != nil || out != "" {
		t.Fatalf("expected empty output, got %q (%v)", out, err)
	}
}
