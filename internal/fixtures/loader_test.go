package fixtures

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/identity"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/store/memory"
	"github.com/goliatone/go-site/pkg/testsupport"
	"github.com/goliatone/go-site/settings"
)

const siteJSON = `{
  "settings": {"title": "Demo", "activeTheme": "Midnight Dark", "homepageType": "latest",
               "menuLocations": {"primary": "main"}},
  "collections": {
    "menuItems": [{"id": "m1", "menuId": "main", "label": "Home", "url": "/", "order": 0}],
    "widgetAreas": [{"name": "Sidebar"}]
  }
}`

func TestLoadDirAndSeed(t *testing.T) {
	dir := testsupport.WriteTree(t, map[string]string{
		"site.json": siteJSON,
		"posts/hello-world.md": `---
title: Hello World
date: 2024-02-01T10:00:00Z
tags: [go, web]
categories: [dev]
---
# Hello

First post.
`,
		"posts/wip.md":     "---\ndraft: true\n---\nnot yet\n",
		"pages/about.html": "---\nslug: About Us\nshowTitle: false\n---\n<p>About</p>\n",
		"pages/notes.txt":  "ignored",
	})

	site, err := LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if site.Settings.ActiveTheme != "Midnight Dark" || site.Settings.MenuLocations["primary"] != "main" {
		t.Fatalf("unexpected settings %+v", site.Settings)
	}
	if len(site.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(site.Items))
	}

	hello := site.Items[0]
	if hello.Slug != "hello-world" || hello.Kind != content.KindPost || hello.Format != content.FormatMarkdown {
		t.Fatalf("unexpected post %+v", hello)
	}
	if hello.ID != identity.FixtureID("post", "hello-world") || hello.Status != content.StatusPublished {
		t.Fatalf("unexpected identity or status %+v", hello)
	}
	if !hello.CreatedAt.Equal(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)) || len(hello.Tags) != 2 || hello.CategoryIDs[0] != "dev" {
		t.Fatalf("unexpected metadata %+v", hello)
	}
	if site.Items[1].Status != content.StatusDraft || site.Items[1].Title != "Wip" {
		t.Fatalf("draft flag not honoured: %+v", site.Items[1])
	}
	about := site.Items[2]
	if about.Kind != content.KindPage || about.Format != content.FormatHTML || about.TitleVisible() || about.Content != "<p>About</p>" {
		t.Fatalf("unexpected page %+v", about)
	}
	if len(site.Documents["widgetAreas"]) != 1 || site.Documents["widgetAreas"][0].ID() == "" {
		t.Fatalf("documents without id should get one: %+v", site.Documents)
	}

	s := memory.New()
	if err := site.Seed(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	doc, err := s.Document(context.Background(), settings.Collection, settings.DocumentID)
	if err != nil {
		t.Fatalf("settings document: %v", err)
	}
	got, err := store.Decode[settings.SiteSettings](doc)
	if err != nil || got.Title != "Demo" {
		t.Fatalf("unexpected seeded settings %+v %v", got, err)
	}
	posts, _ := s.Get(context.Background(), store.Collection(content.CollectionPosts))
	menu, _ := s.Get(context.Background(), store.Collection("menuItems"))
	if len(posts) != 2 || len(menu) != 1 {
		t.Fatalf("unexpected seeded counts posts=%d menu=%d", len(posts), len(menu))
	}
	if site.Count() != 1+3+2 {
		t.Fatalf("unexpected count %d", site.Count())
	}
}

func TestLoadRejectsDuplicateSlugs(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/a.md": {Data: []byte("---\nslug: same\n---\nA")},
		"posts/b.md": {Data: []byte("---\nslug: same\n---\nB")},
	}
	if _, err := NewLoader(fsys).Load(context.Background()); !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}
}

func TestLoadWithoutSiteFile(t *testing.T) {
	fsys := fstest.MapFS{"pages/contact.md": {Data: []byte("Reach us.")}}
	site, err := NewLoader(fsys).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if site.Settings.HomepageType != settings.HomepageLatest || len(site.Items) != 1 || site.Items[0].Title != "Contact" {
		t.Fatalf("unexpected site %+v", site)
	}
}
