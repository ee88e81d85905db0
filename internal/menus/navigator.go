// Package menus resolves theme menu locations into navigation trees.
package menus

import (
	"context"
	"strings"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/tree"
	"github.com/goliatone/go-site/menus"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/settings"
)

// Option customises a Navigator.
type Option func(*Navigator)

// WithURLResolver sets the resolver for typed items. The built-in path
// scheme still applies when it returns an empty URL.
func WithURLResolver(resolver URLResolver) Option {
	return func(n *Navigator) { n.resolver = resolver }
}

// WithLogger sets the navigator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(n *Navigator) { n.logger = logger }
}

// WithDiagnostics sets the logger for permission failures.
func WithDiagnostics(logger interfaces.Logger) Option {
	return func(n *Navigator) { n.diagnostics = logger }
}

// Navigator builds menus for theme locations.
type Navigator struct {
	reader      store.Reader
	resolver    URLResolver
	fallback    PathResolver
	logger      interfaces.Logger
	diagnostics interfaces.Logger
}

// NewNavigator builds a navigator over reader.
func NewNavigator(reader store.Reader, opts ...Option) *Navigator {
	n := &Navigator{reader: reader}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	n.logger = logging.Ensure(n.logger)
	n.diagnostics = logging.Ensure(n.diagnostics)
	return n
}

// ItemsQuery selects the items of a menu.
func ItemsQuery(menuID string) store.Query {
	return store.Collection(menus.Collection).Eq("menuId", menuID)
}

// Resolve returns the navigation for location. A location without a menu,
// and any failure while loading it, yields an empty navigation.
func (n *Navigator) Resolve(ctx context.Context, s settings.SiteSettings, location string) menus.Navigation {
	nav := menus.Navigation{Location: location}
	menuID, ok := s.MenuFor(location)
	if !ok {
		return nav
	}
	nav.MenuID = menuID

	docs, err := n.reader.Get(ctx, ItemsQuery(menuID))
	if err != nil {
		n.fail(location, menuID, err)
		return nav
	}
	items, err := store.DecodeAll[menus.Item](docs)
	if err != nil {
		n.fail(location, menuID, err)
		return nav
	}
	nav.Nodes = n.Build(ctx, items)
	return nav
}

// ResolveAll resolves every location, keyed by location.
func (n *Navigator) ResolveAll(ctx context.Context, s settings.SiteSettings, locations []string) map[string]menus.Navigation {
	out := make(map[string]menus.Navigation, len(locations))
	for _, location := range locations {
		out[location] = n.Resolve(ctx, s, location)
	}
	return out
}

// Build turns menu items into ordered nodes with resolved URLs.
func (n *Navigator) Build(ctx context.Context, items []menus.Item) []menus.Node {
	roots := tree.Build(items, tree.Options[string, menus.Item, int]{
		ID: func(item menus.Item) string { return item.ID },
		Parent: func(item menus.Item) (string, bool) {
			return item.ParentID, item.ParentID != ""
		},
		SortKey:   func(item menus.Item) (int, bool) { return item.Order, true },
		SameScope: func(child, parent menus.Item) bool { return child.MenuID == parent.MenuID },
	})
	slugs := n.slugs(ctx, items)
	return n.nodes(ctx, roots, slugs)
}

func (n *Navigator) nodes(ctx context.Context, roots []*tree.Node[string, menus.Item], slugs map[string]string) []menus.Node {
	if len(roots) == 0 {
		return nil
	}
	out := make([]menus.Node, 0, len(roots))
	for _, root := range roots {
		item := root.Item
		out = append(out, menus.Node{
			ID:       item.ID,
			Label:    item.Label,
			URL:      n.url(ctx, item, slugs),
			Target:   item.Target,
			Children: n.nodes(ctx, root.Children, slugs),
		})
	}
	return out
}

// url resolves an item link. An explicit url wins; typed items go through
// the resolver and then the path scheme. Unresolvable items get no link.
func (n *Navigator) url(ctx context.Context, item menus.Item, slugs map[string]string) string {
	if url := strings.TrimSpace(item.URL); url != "" {
		return url
	}
	kind := strings.ToLower(strings.TrimSpace(item.Type))
	if kind == "" || kind == menus.TypeCustom || item.ObjectID == "" {
		return ""
	}
	target := Target{Type: kind, ObjectID: item.ObjectID, Slug: slugs[kind+":"+item.ObjectID]}
	if n.resolver != nil {
		url, err := n.resolver.Resolve(ctx, target)
		if err != nil {
			n.logger.Warn("menus.url.resolve_failed", "item_id", item.ID, "type", kind, "error", err)
		} else if url != "" {
			return url
		}
	}
	url, _ := n.fallback.Resolve(ctx, target)
	return url
}

// slugs loads the slugs of published pages and posts linked by items.
func (n *Navigator) slugs(ctx context.Context, items []menus.Item) map[string]string {
	ids := map[content.Kind][]any{}
	for _, item := range items {
		if strings.TrimSpace(item.URL) != "" || item.ObjectID == "" {
			continue
		}
		switch strings.ToLower(item.Type) {
		case menus.TypePage:
			ids[content.KindPage] = append(ids[content.KindPage], item.ObjectID)
		case menus.TypePost:
			ids[content.KindPost] = append(ids[content.KindPost], item.ObjectID)
		}
	}
	out := map[string]string{}
	for kind, values := range ids {
		q := store.Collection(kind.Collection()).
			Eq("status", string(content.StatusPublished)).
			In("id", values...)
		docs, err := n.reader.Get(ctx, q)
		if err != nil {
			n.logger.Warn("menus.targets.read_failed", "kind", kind, "error", err)
			continue
		}
		for _, doc := range docs {
			if slug, ok := doc["slug"].(string); ok && slug != "" {
				out[string(kind)+":"+doc.ID()] = slug
			}
		}
	}
	return out
}

func (n *Navigator) fail(location, menuID string, err error) {
	if store.IsPermissionDenied(err) {
		n.diagnostics.Error("menus.location.permission_denied", "location", location, "menu_id", menuID, "error", err)
		return
	}
	n.logger.Warn("menus.location.failed", "location", location, "menu_id", menuID, "error", err)
}
