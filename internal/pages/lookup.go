// Package pages resolves public content items and assembles their body:
// raw markup, a builder layout or a page scoped widget area.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/themes"
)

// DefaultListingLimit bounds archive listings.
const DefaultListingLimit = 10

// ItemNotFoundError is returned when no published item matches.
type ItemNotFoundError struct {
	Kind content.Kind
	Key  string
}

func (e *ItemNotFoundError) Error() string {
	kind := string(e.Kind)
	if kind == "" {
		kind = "item"
	}
	return fmt.Sprintf("%s %q not found", kind, e.Key)
}

func (e *ItemNotFoundError) Unwrap() error { return store.ErrNotFound }

// Lookup reads published posts and pages.
type Lookup struct {
	reader store.Reader
}

// NewLookup builds a lookup over reader.
func NewLookup(reader store.Reader) *Lookup {
	return &Lookup{reader: reader}
}

// Page loads a page by id regardless of status. It satisfies the theme
// resolver's page source, which checks publication itself.
func (l *Lookup) Page(ctx context.Context, id string) (*content.Item, error) {
	return l.byID(ctx, content.KindPage, id)
}

// Post loads a post by id regardless of status.
func (l *Lookup) Post(ctx context.Context, id string) (*content.Item, error) {
	return l.byID(ctx, content.KindPost, id)
}

func (l *Lookup) byID(ctx context.Context, kind content.Kind, id string) (*content.Item, error) {
	doc, err := l.reader.Document(ctx, kind.Collection(), id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, &ItemNotFoundError{Kind: kind, Key: id}
		}
		return nil, err
	}
	return decodeItem(kind, doc)
}

// BySlug finds the published item of kind with slug.
func (l *Lookup) BySlug(ctx context.Context, kind content.Kind, slug string) (*content.Item, error) {
	key := normalizeSlug(slug)
	if key == "" {
		return nil, &ItemNotFoundError{Kind: kind, Key: slug}
	}
	q := store.Collection(kind.Collection()).
		Eq("slug", key).
		Eq("status", string(content.StatusPublished)).
		Take(1)
	docs, err := l.reader.Get(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &ItemNotFoundError{Kind: kind, Key: key}
	}
	return decodeItem(kind, docs[0])
}

// Resolve finds a published post or page by slug, posts first.
func (l *Lookup) Resolve(ctx context.Context, slug string) (*content.Item, error) {
	item, err := l.BySlug(ctx, content.KindPost, slug)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return item, err
	}
	return l.BySlug(ctx, content.KindPage, slug)
}

// ListingRequest selects an archive. Value is the category id, tag, author
// id, search term or date prefix (2006 or 2006-01) depending on PageType.
type ListingRequest struct {
	PageType themes.PageType
	Value    string
	Limit    int
}

// ListingQuery returns the store query for req. Search and date archives
// are narrowed further in process by Listing.
func ListingQuery(req ListingRequest) store.Query {
	q := store.Collection(content.CollectionPosts).
		Eq("status", string(content.StatusPublished)).
		Order("createdAt", true)
	switch req.PageType {
	case themes.PageCategory:
		q = q.In("categoryIds", req.Value)
	case themes.PageTag:
		q = q.In("tags", req.Value)
	case themes.PageAuthor:
		q = q.Eq("authorId", req.Value)
	case themes.PageSearch, themes.PageDate:
		return q
	}
	return q.Take(listingLimit(req.Limit))
}

// Listing returns the published posts of an archive, newest first.
func (l *Lookup) Listing(ctx context.Context, req ListingRequest) ([]content.Item, error) {
	docs, err := l.reader.Get(ctx, ListingQuery(req))
	if err != nil {
		return nil, err
	}
	items, err := store.DecodeAll[content.Item](docs)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Kind = content.KindPost
	}
	switch req.PageType {
	case themes.PageSearch:
		items = filterItems(items, matchesSearch(req.Value))
	case themes.PageDate:
		items = filterItems(items, matchesDate(req.Value))
	default:
		return items, nil
	}
	if limit := listingLimit(req.Limit); len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func listingLimit(limit int) int {
	if limit <= 0 {
		return DefaultListingLimit
	}
	return limit
}

func filterItems(items []content.Item, keep func(content.Item) bool) []content.Item {
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func matchesSearch(term string) func(content.Item) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	return func(item content.Item) bool {
		if term == "" {
			return false
		}
		return strings.Contains(strings.ToLower(item.Title), term) ||
			strings.Contains(strings.ToLower(item.Content), term)
	}
}

func matchesDate(prefix string) func(content.Item) bool {
	prefix = strings.TrimSpace(prefix)
	return func(item content.Item) bool {
		if prefix == "" {
			return false
		}
		return strings.HasPrefix(item.CreatedAt.UTC().Format(time.DateOnly), prefix)
	}
}

func decodeItem(kind content.Kind, doc store.Document) (*content.Item, error) {
	item, err := store.Decode[content.Item](doc)
	if err != nil {
		return nil, err
	}
	item.Kind = kind
	return &item, nil
}

func normalizeSlug(raw string) string {
	raw = strings.Trim(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	if content.IsValidSlug(raw) {
		return raw
	}
	normalized, err := content.NormalizeSlug(raw)
	if err != nil {
		return raw
	}
	return normalized
}
