package menus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-site/menus"
)

// Target is what a typed menu item points at.
type Target struct {
	Type     string
	ObjectID string
	// Slug is the slug of the linked page or post, empty for categories and
	// tags.
	Slug string
}

// URLResolver turns a typed menu target into a URL. An empty URL without an
// error lets the caller fall back to the built-in scheme.
type URLResolver interface {
	Resolve(ctx context.Context, target Target) (string, error)
}

// PathResolver is the built-in scheme: pages and posts at /<slug>,
// categories at /category/<id> and tags at /tag/<id>.
type PathResolver struct{}

func (PathResolver) Resolve(_ context.Context, target Target) (string, error) {
	switch target.Type {
	case menus.TypePage, menus.TypePost:
		if target.Slug == "" {
			return "", nil
		}
		return "/" + target.Slug, nil
	case menus.TypeCategory:
		return "/category/" + target.ObjectID, nil
	case menus.TypeTag:
		return "/tag/" + target.ObjectID, nil
	}
	return "", nil
}

// URLKitResolverOptions configures the go-urlkit backed resolver.
type URLKitResolverOptions struct {
	Manager *urlkit.RouteManager
	// Group is a dotted group path such as "frontend" or "frontend.es".
	Group string
	// Routes maps item types to route names. Types without a route resolve
	// to an empty URL.
	Routes map[string]string
	// SlugParam receives the page or post slug. IDParam receives the
	// category or tag id.
	SlugParam string
	IDParam   string
}

// URLKitResolver resolves menu URLs using a go-urlkit RouteManager.
type URLKitResolver struct {
	manager   *urlkit.RouteManager
	group     string
	routes    map[string]string
	slugParam string
	idParam   string

	groupCache map[string]*urlkit.Group
	mu         sync.RWMutex
}

// NewURLKitResolver constructs a resolver backed by go-urlkit.
func NewURLKitResolver(opts URLKitResolverOptions) *URLKitResolver {
	if opts.SlugParam == "" {
		opts.SlugParam = "slug"
	}
	if opts.IDParam == "" {
		opts.IDParam = "id"
	}
	routes := make(map[string]string, len(opts.Routes))
	for kind, route := range opts.Routes {
		if route = strings.TrimSpace(route); route != "" {
			routes[strings.ToLower(strings.TrimSpace(kind))] = route
		}
	}
	return &URLKitResolver{
		manager:    opts.Manager,
		group:      strings.TrimSpace(opts.Group),
		routes:     routes,
		slugParam:  opts.SlugParam,
		idParam:    opts.IDParam,
		groupCache: make(map[string]*urlkit.Group),
	}
}

// Resolve builds a URL using the configured route manager.
func (r *URLKitResolver) Resolve(_ context.Context, target Target) (string, error) {
	if r == nil || r.manager == nil || r.group == "" {
		return "", nil
	}
	route, ok := r.routes[target.Type]
	if !ok {
		return "", nil
	}
	group, err := r.groupForPath(r.group)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}
	switch target.Type {
	case menus.TypePage, menus.TypePost:
		if target.Slug == "" {
			return "", nil
		}
		builder.WithParam(r.slugParam, target.Slug)
	default:
		builder.WithParam(r.idParam, target.ObjectID)
	}
	return builder.Build()
}

func (r *URLKitResolver) groupForPath(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	current, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		if current, err = lookupChildGroup(current, part); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

// urlkit panics on unknown groups and routes; these helpers turn that into
// errors so one bad menu entry cannot take a page down.

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("menus: route %q: %v", route, rec)
		}
	}()
	return group.Builder(route), nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("menus: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	if group == nil {
		return nil, fmt.Errorf("menus: route group %q not found", name)
	}
	return group, nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("menus: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	if group == nil {
		return nil, fmt.Errorf("menus: child group %q not found", name)
	}
	return group, nil
}
