package pages

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/logging/console"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/store/memory"
	widgetsvc "github.com/goliatone/go-site/internal/widgets"
	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/themes"
	"github.com/goliatone/go-site/widgets"
)

func put(t *testing.T, s *memory.Store, collection string, value any) {
	t.Helper()
	doc, err := store.Normalize(value)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := s.Put(context.Background(), collection, doc); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func newAssembler(s *memory.Store) *Assembler {
	renderer := widgetsvc.NewRenderer(widgetsvc.BuiltinRegistry(widgetsvc.Deps{Reader: s}))
	return NewAssembler(s, widgetsvc.NewComposer(s), renderer, nil)
}

var day = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestLookupBySlugOnlyPublished(t *testing.T) {
	s := memory.New()
	put(t, s, content.CollectionPosts, content.Item{ID: "p1", Slug: "hello-world", Status: content.StatusPublished, Title: "Hello"})
	put(t, s, content.CollectionPosts, content.Item{ID: "p2", Slug: "draft", Status: content.StatusDraft})
	put(t, s, content.CollectionPages, content.Item{ID: "g1", Slug: "about", Status: content.StatusPublished})
	l := NewLookup(s)
	ctx := context.Background()

	item, err := l.Resolve(ctx, "/hello-world/")
	if err != nil || item.ID != "p1" || !item.IsPost() {
		t.Fatalf("expected post p1, got %+v %v", item, err)
	}
	item, err = l.Resolve(ctx, "about")
	if err != nil || item.ID != "g1" || !item.IsPage() {
		t.Fatalf("expected page g1, got %+v %v", item, err)
	}
	_, err = l.Resolve(ctx, "draft")
	var nf *ItemNotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("draft should not resolve, got %v", err)
	}
	if page, err := l.Page(ctx, "g1"); err != nil || page.Kind != content.KindPage {
		t.Fatalf("page by id: %+v %v", page, err)
	}
	if _, err := l.Post(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListingArchives(t *testing.T) {
	s := memory.New()
	put(t, s, content.CollectionPosts, content.Item{ID: "a", Title: "Go tips", Status: content.StatusPublished, CreatedAt: day, CategoryIDs: []string{"dev"}, Tags: []string{"go"}, AuthorID: "u1"})
	put(t, s, content.CollectionPosts, content.Item{ID: "b", Title: "Cooking", Status: content.StatusPublished, CreatedAt: day.AddDate(0, 1, 0), Tags: []string{"food"}, AuthorID: "u2"})
	put(t, s, content.CollectionPosts, content.Item{ID: "c", Title: "Go draft", Status: content.StatusDraft, CreatedAt: day, Tags: []string{"go"}})
	l := NewLookup(s)

	cases := []struct {
		req  ListingRequest
		want []string
	}{
		{ListingRequest{PageType: themes.PageHome}, []string{"b", "a"}},
		{ListingRequest{PageType: themes.PageCategory, Value: "dev"}, []string{"a"}},
		{ListingRequest{PageType: themes.PageTag, Value: "go"}, []string{"a"}},
		{ListingRequest{PageType: themes.PageAuthor, Value: "u2"}, []string{"b"}},
		{ListingRequest{PageType: themes.PageSearch, Value: "GO"}, []string{"a"}},
		{ListingRequest{PageType: themes.PageDate, Value: "2024-04"}, []string{"b"}},
		{ListingRequest{PageType: themes.PageHome, Limit: 1}, []string{"b"}},
	}
	for _, tc := range cases {
		items, err := l.Listing(context.Background(), tc.req)
		if err != nil {
			t.Fatalf("%s: %v", tc.req.PageType, err)
		}
		var got []string
		for _, item := range items {
			got = append(got, item.ID)
		}
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Fatalf("%s %q: got %v, want %v", tc.req.PageType, tc.req.Value, got, tc.want)
		}
	}
}

func TestAssemblePostUsesMarkup(t *testing.T) {
	s := memory.New()
	post := &content.Item{Kind: content.KindPost, ID: "p", Content: "# Title\n\nbody", Format: content.FormatMarkdown}
	asm, err := newAssembler(s).Assemble(context.Background(), post, settings.Default())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if asm.Mode != ModeMarkup || !strings.Contains(string(asm.Body), "<h1") || !asm.ShowTitle {
		t.Fatalf("unexpected assembly %+v", asm)
	}
}

func TestAssembleBuilderPageIgnoresContent(t *testing.T) {
	s := memory.New()
	put(t, s, widgets.CollectionLayouts, widgets.Layout{
		ID:     "l1",
		PageID: "landing",
		Sections: []widgets.Section{{ID: "hero", Columns: []widgets.Column{
			{Span: 8, Widgets: []widgets.Instance{{ID: "h", Type: widgets.TypeHTML, Config: map[string]any{"html": "<em>hero</em>"}}}},
			{Span: 4, Widgets: []widgets.Instance{{ID: "x", Type: "unknown"}, {ID: "g", Type: widgets.TypeGallery}}},
		}}},
	})
	page := &content.Item{Kind: content.KindPage, ID: "landing", BuilderEnabled: true, Content: "RAW CONTENT"}
	asm, err := newAssembler(s).Assemble(context.Background(), page, settings.Default())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if asm.Mode != ModeBuilder || asm.Body != "" || asm.Layout == nil {
		t.Fatalf("unexpected assembly %+v", asm)
	}
	if len(asm.Sections) != 1 || len(asm.Sections[0].Columns) != 2 || len(asm.Sections[0].Columns[1].Outputs) != 2 {
		t.Fatalf("unexpected grid %+v", asm.Sections)
	}
	if got := asm.Sections[0].Columns[1].Outputs[0].State; got != widgets.StateUnsupported {
		t.Fatalf("expected unsupported widget, got %s", got)
	}
	presenter, err := widgetsvc.NewPresenter()
	if err != nil {
		t.Fatalf("presenter: %v", err)
	}
	html := string(asm.HTML(presenter))
	if strings.Contains(html, "RAW CONTENT") || !strings.Contains(html, "<em>hero</em>") || !strings.Contains(html, "span-8") {
		t.Fatalf("unexpected builder html %s", html)
	}

	missing := &content.Item{Kind: content.KindPage, ID: "empty", BuilderEnabled: true, Content: "RAW CONTENT"}
	asm, _ = newAssembler(s).Assemble(context.Background(), missing, settings.Default())
	if asm.Mode != ModeBuilder || asm.Body != "" || len(asm.Sections) != 0 {
		t.Fatalf("builder page without layout should stay empty, got %+v", asm)
	}
}

func TestAssemblePageContentArea(t *testing.T) {
	s := memory.New()
	put(t, s, widgets.CollectionAreas, widgets.Area{ID: "pc", Name: widgets.PageContentArea, PageID: "about"})
	put(t, s, widgets.CollectionInstances, widgets.Instance{ID: "w", WidgetAreaID: "pc", Type: widgets.TypeHTML, Config: map[string]any{"html": "<p>from widget</p>"}})
	a := newAssembler(s)

	about := &content.Item{Kind: content.KindPage, ID: "about", Content: "<p>raw</p>"}
	asm, err := a.Assemble(context.Background(), about, settings.Default())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if asm.Mode != ModeArea || len(asm.Outputs) != 1 || asm.Outputs[0].State != widgets.StateRendered {
		t.Fatalf("unexpected assembly %+v", asm)
	}

	contact := &content.Item{Kind: content.KindPage, ID: "contact", Content: "<p>raw</p>"}
	asm, _ = a.Assemble(context.Background(), contact, settings.Default())
	if asm.Mode != ModeMarkup || string(asm.Body) != "<p>raw</p>" {
		t.Fatalf("page without area should use markup, got %+v", asm)
	}
}

func TestAssembleBuilderLayoutDeniedGoesToDiagnostics(t *testing.T) {
	s := memory.New()
	s.Deny(widgets.CollectionLayouts)
	var logs, diag bytes.Buffer
	a := NewAssembler(s, widgetsvc.NewComposer(s), nil, nil,
		WithAssemblerLogger(console.NewProvider(console.Options{Writer: &logs}).GetLogger("pages")),
		WithAssemblerDiagnostics(console.NewProvider(console.Options{Writer: &diag}).GetLogger("diagnostics")),
	)
	page := &content.Item{Kind: content.KindPage, ID: "landing", BuilderEnabled: true}
	asm, err := a.Assemble(context.Background(), page, settings.Default())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if asm.Mode != ModeBuilder || asm.Layout != nil || len(asm.Sections) != 0 {
		t.Fatalf("denied layout should render empty, got %+v", asm)
	}
	if !strings.Contains(diag.String(), "pages.layout.permission_denied") {
		t.Fatalf("expected permission failure in diagnostics, got %q", diag.String())
	}
	if strings.Contains(logs.String(), "pages.layout.read_failed") {
		t.Fatalf("permission failure should not be logged as a read failure: %q", logs.String())
	}
}

func TestShowTitleRules(t *testing.T) {
	hidden := false
	cases := []struct {
		name string
		item *content.Item
		s    settings.SiteSettings
		want bool
	}{
		{"default", &content.Item{Kind: content.KindPage, ID: "a"}, settings.Default(), true},
		{"static homepage", &content.Item{Kind: content.KindPage, ID: "home"}, settings.SiteSettings{HomepageType: settings.HomepageStatic, HomepagePageID: "home"}, false},
		{"site flag", &content.Item{Kind: content.KindPage, ID: "a"}, settings.SiteSettings{HideAllPageTitles: true}, false},
		{"post ignores site flag", &content.Item{Kind: content.KindPost, ID: "a"}, settings.SiteSettings{HideAllPageTitles: true}, true},
		{"post ignores homepage", &content.Item{Kind: content.KindPost, ID: "home"}, settings.SiteSettings{HomepageType: settings.HomepageStatic, HomepagePageID: "home"}, true},
		{"post flag", &content.Item{Kind: content.KindPost, ID: "a", ShowTitle: &hidden}, settings.Default(), false},
		{"item flag", &content.Item{Kind: content.KindPage, ID: "a", ShowTitle: &hidden}, settings.Default(), false},
		{"nil", nil, settings.Default(), false},
	}
	for _, tc := range cases {
		if got := ShowTitle(tc.item, tc.s); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAssembleWithoutItem(t *testing.T) {
	if _, err := newAssembler(memory.New()).Assemble(context.Background(), nil, settings.Default()); !errors.Is(err, ErrNoItem) {
		t.Fatalf("expected ErrNoItem, got %v", err)
	}
}
