// Package content defines the publishable content records (posts and pages)
// and their comment threads.
package content

import (
	"strings"
	"time"
)

// Kind discriminates posts from pages. It is set when the record is created
// and never inferred from which fields happen to be present.
type Kind string

const (
	KindPost Kind = "post"
	KindPage Kind = "page"
)

// Status is the editorial state of an item.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusReview    Status = "review"
	StatusArchived  Status = "archived"
)

// Format selects the markup pipeline used for raw content.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Item is a post or page.
type Item struct {
	Kind             Kind      `json:"kind"`
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Excerpt          string    `json:"excerpt,omitempty"`
	Format           Format    `json:"format,omitempty"`
	Slug             string    `json:"slug"`
	Status           Status    `json:"status"`
	FeaturedImageURL string    `json:"featuredImageUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	AuthorID         string    `json:"authorId"`
	CategoryIDs      []string  `json:"categoryIds,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	BuilderEnabled   bool      `json:"builderEnabled,omitempty"`
	ShowTitle        *bool     `json:"showTitle,omitempty"`
}

// IsPost reports whether the item is a post.
func (i *Item) IsPost() bool { return i != nil && i.Kind == KindPost }

// IsPage reports whether the item is a page.
func (i *Item) IsPage() bool { return i != nil && i.Kind == KindPage }

// Published reports whether the item can be resolved publicly.
func (i *Item) Published() bool { return i != nil && i.Status == StatusPublished }

// TitleVisible returns the page's own title flag, defaulting to true.
func (i *Item) TitleVisible() bool {
	if i == nil || i.ShowTitle == nil {
		return true
	}
	return *i.ShowTitle
}

// Collection returns the store collection holding items of kind.
func (k Kind) Collection() string {
	if k == KindPage {
		return CollectionPages
	}
	return CollectionPosts
}

// Store collections.
const (
	CollectionPosts    = "posts"
	CollectionPages    = "pages"
	CollectionComments = "comments"
)

// Comment is a node of a threaded comment discussion scoped to an item.
type Comment struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ParentID  string    `json:"parentId,omitempty"`
}

// SplitTags turns a comma separated tag list into trimmed, non-empty tags.
func SplitTags(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
