package widgets

import (
	"context"
	"slices"
	"time"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/markup"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/validation"
	"github.com/goliatone/go-site/widgets"
)

// RecentPostsLimit is the fixed size of the recent posts widget.
const RecentPostsLimit = 5

const excerptLength = 160

// PostEntry is a post as shown by listing widgets.
type PostEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	Excerpt   string    `json:"excerpt,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostList is the data of the recent posts widget.
type PostList struct {
	Posts []PostEntry `json:"posts"`
}

// FeaturedList splits a listing into a lead post and the rest.
type FeaturedList struct {
	Featured PostEntry   `json:"featured"`
	List     []PostEntry `json:"list"`
}

// TagWeight is one tag of a tag cloud. Size runs from 1 to 5.
type TagWeight struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
	Size  int    `json:"size"`
}

// TagCloud is the data of the tag cloud widget.
type TagCloud struct {
	Tags []TagWeight `json:"tags"`
}

func entriesFor(md *markup.Renderer, items []content.Item) []PostEntry {
	out := make([]PostEntry, 0, len(items))
	for _, item := range items {
		excerpt := item.Excerpt
		if excerpt == "" && md != nil {
			excerpt = md.Excerpt(item.Format, item.Content, excerptLength)
		}
		out = append(out, PostEntry{
			ID:        item.ID,
			Title:     item.Title,
			Slug:      item.Slug,
			URL:       "/" + item.Slug,
			Excerpt:   excerpt,
			ImageURL:  item.FeaturedImageURL,
			CreatedAt: item.CreatedAt,
		})
	}
	return out
}

type recentPostsUnit struct {
	unitBase
	reader store.Reader
	markup *markup.Renderer
}

func newRecentPosts(deps Deps) Unit {
	return &recentPostsUnit{
		unitBase: unitBase{kind: widgets.TypeRecentPosts},
		reader:   deps.Reader,
		markup:   deps.Markup,
	}
}

func (u *recentPostsUnit) Fetch(ctx context.Context, _ Request) (any, error) {
	q := PostListingQuery(PostFilter{FilterType: FilterLatest, Limit: RecentPostsLimit})
	items, err := listPosts(ctx, u.reader, q)
	if err != nil {
		return nil, err
	}
	return PostList{Posts: entriesFor(u.markup, items)}, nil
}

func (u *recentPostsUnit) Render(inst widgets.Instance, _ map[string]any, data any) widgets.Output {
	list, _ := data.(PostList)
	if len(list.Posts) == 0 {
		return widgets.Empty(inst, "No posts yet.")
	}
	return widgets.Rendered(inst, "Recent Posts", list)
}

var featuredListSchema = validation.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":      map[string]any{"type": "string"},
		"filterType": map[string]any{"enum": []any{FilterLatest, FilterCategory, FilterTag, ""}},
		"postCount":  map[string]any{"type": "integer", "minimum": 1, "maximum": 50},
		"sourceIds":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"tags": map[string]any{"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}},
	},
})

type featuredListUnit struct {
	unitBase
	reader store.Reader
	markup *markup.Renderer
}

func newFeaturedList(deps Deps) Unit {
	return &featuredListUnit{
		unitBase: unitBase{
			kind:     widgets.TypeFeaturedList,
			schema:   featuredListSchema,
			defaults: map[string]any{"postCount": 4},
		},
		reader: deps.Reader,
		markup: deps.Markup,
	}
}

func (u *featuredListUnit) Fetch(ctx context.Context, req Request) (any, error) {
	filter := PostFilterFrom(req.Config, 4)
	if filter.Unfiltered() {
		return nil, ErrNotConfigured
	}
	items, err := listPosts(ctx, u.reader, PostListingQuery(filter))
	if err != nil {
		return nil, err
	}
	entries := entriesFor(u.markup, items)
	if len(entries) == 0 {
		return FeaturedList{}, nil
	}
	return FeaturedList{Featured: entries[0], List: entries[1:]}, nil
}

func (u *featuredListUnit) Render(inst widgets.Instance, config map[string]any, data any) widgets.Output {
	list, _ := data.(FeaturedList)
	if list.Featured.ID == "" {
		// zero results render nothing
		return widgets.Empty(inst, "")
	}
	return widgets.Rendered(inst, stringValue(config, "title"), list)
}

type tagCloudUnit struct {
	unitBase
	reader store.Reader
}

func newTagCloud(deps Deps) Unit {
	return &tagCloudUnit{unitBase: unitBase{kind: widgets.TypeTagCloud}, reader: deps.Reader}
}

func (u *tagCloudUnit) Fetch(ctx context.Context, _ Request) (any, error) {
	items, err := listPosts(ctx, u.reader, PublishedPostsQuery())
	if err != nil {
		return nil, err
	}
	return TagCloud{Tags: WeighTags(items)}, nil
}

func (u *tagCloudUnit) Render(inst widgets.Instance, _ map[string]any, data any) widgets.Output {
	cloud, _ := data.(TagCloud)
	if len(cloud.Tags) == 0 {
		return widgets.Empty(inst, "No tags yet.")
	}
	return widgets.Rendered(inst, "Tags", cloud)
}

// WeighTags counts tag frequency across items and buckets each tag by its
// share of the most frequent one. Tags are returned in lexical order.
func WeighTags(items []content.Item) []TagWeight {
	counts := map[string]int{}
	for _, item := range items {
		for _, tag := range item.Tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}
	maxCount := 0
	for _, n := range counts {
		maxCount = max(maxCount, n)
	}
	out := make([]TagWeight, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagWeight{Tag: tag, Count: n, Size: tagSize(float64(n) / float64(maxCount))})
	}
	slices.SortFunc(out, func(a, b TagWeight) int {
		switch {
		case a.Tag < b.Tag:
			return -1
		case a.Tag > b.Tag:
			return 1
		}
		return 0
	})
	return out
}

func tagSize(ratio float64) int {
	switch {
	case ratio > 0.8:
		return 5
	case ratio > 0.6:
		return 4
	case ratio > 0.4:
		return 3
	case ratio > 0.2:
		return 2
	default:
		return 1
	}
}
