// Package fixtures loads a whole site from a directory: posts/ and pages/
// hold markdown or html files with front matter, site.json holds settings
// and every other collection.
package fixtures

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/identity"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/settings"
)

// SiteFile is the name of the site description at the fixture root.
const SiteFile = "site.json"

// ErrDuplicateSlug is returned when two items of one kind share a slug.
var ErrDuplicateSlug = errors.New("fixtures: duplicate slug")

type siteFile struct {
	Settings    *settings.SiteSettings      `json:"settings"`
	Collections map[string][]map[string]any `json:"collections"`
}

// Site is a loaded fixture set.
type Site struct {
	Settings  settings.SiteSettings
	Items     []content.Item
	Documents map[string][]store.Document
}

// Loader reads fixtures from a filesystem.
type Loader struct {
	fs fs.FS
}

// NewLoader builds a loader over fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadDir loads the fixtures under dir.
func LoadDir(ctx context.Context, dir string) (*Site, error) {
	return NewLoader(os.DirFS(dir)).Load(ctx)
}

// Load reads site.json (optional) and every item file.
func (l *Loader) Load(ctx context.Context) (*Site, error) {
	site := &Site{Settings: settings.Default(), Documents: map[string][]store.Document{}}
	if err := l.loadSiteFile(site); err != nil {
		return nil, err
	}
	for _, kind := range []content.Kind{content.KindPost, content.KindPage} {
		items, err := l.loadItems(ctx, kind)
		if err != nil {
			return nil, err
		}
		site.Items = append(site.Items, items...)
	}
	return site, nil
}

func (l *Loader) loadSiteFile(site *Site) error {
	raw, err := fs.ReadFile(l.fs, SiteFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fixtures: read %s: %w", SiteFile, err)
	}
	var file siteFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("fixtures: decode %s: %w", SiteFile, err)
	}
	if file.Settings != nil {
		site.Settings = *file.Settings
	}
	for collection, docs := range file.Collections {
		for i, raw := range docs {
			doc, err := store.Normalize(raw)
			if err != nil {
				return fmt.Errorf("fixtures: %s[%d]: %w", collection, i, err)
			}
			if doc.ID() == "" {
				doc["id"] = identity.FixtureID(collection, strconv.Itoa(i))
			}
			site.Documents[collection] = append(site.Documents[collection], doc)
		}
	}
	return nil
}

func (l *Loader) loadItems(ctx context.Context, kind content.Kind) ([]content.Item, error) {
	dir := kind.Collection()
	if _, err := fs.Stat(l.fs, dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var items []content.Item
	seen := map[string]string{}
	err := fs.WalkDir(l.fs, dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !itemFile(name) {
			return nil
		}
		source, err := fs.ReadFile(l.fs, name)
		if err != nil {
			return fmt.Errorf("fixtures: read %s: %w", name, err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("fixtures: stat %s: %w", name, err)
		}
		item, err := ParseItem(kind, name, source, info.ModTime())
		if err != nil {
			return err
		}
		if prev, dup := seen[item.Slug]; dup {
			return fmt.Errorf("%w: %s %q in %s and %s", ErrDuplicateSlug, kind, item.Slug, prev, name)
		}
		seen[item.Slug] = name
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func itemFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

// Seed writes the site into w: the settings document, every item and every
// site.json collection.
func (s *Site) Seed(ctx context.Context, w store.Writer) error {
	doc, err := store.Encode(s.Settings)
	if err != nil {
		return err
	}
	doc["id"] = settings.DocumentID
	if err := w.Put(ctx, settings.Collection, doc); err != nil {
		return fmt.Errorf("fixtures: seed settings: %w", err)
	}
	for _, item := range s.Items {
		doc, err := store.Encode(item)
		if err != nil {
			return err
		}
		if err := w.Put(ctx, item.Kind.Collection(), doc); err != nil {
			return fmt.Errorf("fixtures: seed %s %s: %w", item.Kind, item.Slug, err)
		}
	}
	for collection, docs := range s.Documents {
		for _, doc := range docs {
			if err := w.Put(ctx, collection, doc); err != nil {
				return fmt.Errorf("fixtures: seed %s/%s: %w", collection, doc.ID(), err)
			}
		}
	}
	return nil
}

// Count returns the number of documents Seed writes.
func (s *Site) Count() int {
	n := 1 + len(s.Items)
	for _, docs := range s.Documents {
		n += len(docs)
	}
	return n
}
