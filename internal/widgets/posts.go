package widgets

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/store"
)

// Post listing filter types.
const (
	FilterLatest   = "latest"
	FilterCategory = "category"
	FilterTag      = "tag"
)

// PostFilter is the listing configuration shared by post widgets.
type PostFilter struct {
	FilterType  string
	CategoryIDs []string
	Tags        []string
	Limit       int
}

// PostFilterFrom reads a filter from widget config. sourceIds carries
// category ids, tags is a comma separated list or an array, postCount the
// limit. An unset filterType is inferred: category when sources are given,
// then tag, otherwise latest.
func PostFilterFrom(config map[string]any, defaultLimit int) PostFilter {
	f := PostFilter{
		FilterType:  strings.ToLower(stringValue(config, "filterType")),
		CategoryIDs: stringList(config, "sourceIds"),
		Tags:        stringList(config, "tags"),
		Limit:       intValue(config, "postCount", defaultLimit),
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.FilterType == "" {
		switch {
		case len(f.CategoryIDs) > 0:
			f.FilterType = FilterCategory
		case len(f.Tags) > 0:
			f.FilterType = FilterTag
		default:
			f.FilterType = FilterLatest
		}
	}
	return f
}

// Membership returns the single membership filter a listing applies. The
// store evaluates one any-of filter per query, so when both categories and
// tags are configured only the categories are used.
func (f PostFilter) Membership() (field string, values []string) {
	if f.FilterType == FilterLatest {
		return "", nil
	}
	if len(f.CategoryIDs) > 0 {
		return "categoryIds", f.CategoryIDs
	}
	if len(f.Tags) > 0 {
		return "tags", f.Tags
	}
	return "", nil
}

// Unfiltered reports a category or tag listing with nothing to filter by.
func (f PostFilter) Unfiltered() bool {
	field, _ := f.Membership()
	return field == "" && (f.FilterType == FilterCategory || f.FilterType == FilterTag)
}

// PostListingQuery builds the query for f: published posts, newest first,
// limited, with at most one membership filter.
func PostListingQuery(f PostFilter) store.Query {
	q := PublishedPostsQuery().Order("createdAt", true)
	if field, values := f.Membership(); field != "" {
		q = q.In(field, anySlice(values)...)
	}
	if f.Limit > 0 {
		q = q.Take(f.Limit)
	}
	return q
}

// PublishedPostsQuery selects every published post.
func PublishedPostsQuery() store.Query {
	return store.Collection(content.CollectionPosts).Eq("status", string(content.StatusPublished))
}

func listPosts(ctx context.Context, reader store.Reader, q store.Query) ([]content.Item, error) {
	if reader == nil {
		return nil, ErrNotConfigured
	}
	docs, err := reader.Get(ctx, q)
	if err != nil {
		return nil, err
	}
	items, err := store.DecodeAll[content.Item](docs)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = content.KindPost
		}
	}
	return items, nil
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func stringValue(config map[string]any, key string) string {
	v, _ := config[key].(string)
	return strings.TrimSpace(v)
}

func intValue(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func stringList(config map[string]any, key string) []string {
	var out []string
	switch v := config[key].(type) {
	case string:
		out = content.SplitTags(v)
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, raw := range v {
			if s, ok := raw.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
