// Package themes defines theme definitions, custom theme overrides and the
// page renderer contract.
package themes

import (
	"context"
	"io"
	"strings"
)

// Collection holding custom theme records.
const CollectionCustom = "customThemes"

// PageType is the kind of page a request renders.
type PageType string

const (
	PageHome     PageType = "home"
	PageSlug     PageType = "slug"
	PageCategory PageType = "category"
	PageTag      PageType = "tag"
	PageAuthor   PageType = "author"
	PageSearch   PageType = "search"
	PageDate     PageType = "date"
)

// PageTypes lists every page type in declaration order.
var PageTypes = []PageType{PageHome, PageSlug, PageCategory, PageTag, PageAuthor, PageSearch, PageDate}

// ParsePageType validates raw as a page type.
func ParsePageType(raw string) (PageType, bool) {
	candidate := PageType(strings.ToLower(strings.TrimSpace(raw)))
	for _, pt := range PageTypes {
		if pt == candidate {
			return pt, true
		}
	}
	return "", false
}

// Name identifies a built-in theme.
type Name string

// Built-in theme names.
const (
	ClassicBlog  Name = "Classic Blog"
	MagazinePro  Name = "Magazine Pro"
	MidnightDark Name = "Midnight Dark"
	Vogue        Name = "Vogue"
	Minimal      Name = "Minimal"
)

// CustomTheme is a persisted override that renders through a built-in base.
type CustomTheme struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BaseTheme string `json:"baseTheme"`
}

// PageRenderer renders one page type of one theme.
type PageRenderer interface {
	Theme() Name
	PageType() PageType
	Render(ctx context.Context, w io.Writer, view any) error
}

// Renderers is the bundle of seven page renderers a theme provides.
type Renderers struct {
	Home     PageRenderer
	Slug     PageRenderer
	Category PageRenderer
	Tag      PageRenderer
	Author   PageRenderer
	Search   PageRenderer
	Date     PageRenderer
}

// For returns the renderer registered for pt.
func (r Renderers) For(pt PageType) PageRenderer {
	switch pt {
	case PageHome:
		return r.Home
	case PageSlug:
		return r.Slug
	case PageCategory:
		return r.Category
	case PageTag:
		return r.Tag
	case PageAuthor:
		return r.Author
	case PageSearch:
		return r.Search
	case PageDate:
		return r.Date
	default:
		return nil
	}
}

// Complete reports whether every page type has a renderer.
func (r Renderers) Complete() bool {
	for _, pt := range PageTypes {
		if r.For(pt) == nil {
			return false
		}
	}
	return true
}

// Definition is a built-in theme: its renderers plus the widget slots and
// menu locations its layouts expose.
type Definition struct {
	Name          Name
	Description   string
	Renderers     Renderers
	Slots         []string
	MenuLocations []string
	Variants      []string
}
