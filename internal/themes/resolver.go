package themes

import (
	"context"
	"strings"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/themes"
)

// Source records which resolution step chose the definition.
type Source string

const (
	SourceCustom   Source = "custom"
	SourceRegistry Source = "registry"
	SourceDefault  Source = "default"
)

// Choice is the outcome of theme selection.
type Choice struct {
	Definition themes.Definition
	Source     Source
	Custom     *themes.CustomTheme
}

// Choose applies the resolution order: a custom theme named activeTheme whose
// base exists, then a registry entry named activeTheme, then the default.
// Custom themes with a dangling base are skipped.
func Choose(reg *Registry, activeTheme string, customs []themes.CustomTheme) Choice {
	active := strings.TrimSpace(activeTheme)
	if active != "" {
		for i := range customs {
			if strings.TrimSpace(customs[i].Name) != active {
				continue
			}
			if def, ok := reg.Lookup(customs[i].BaseTheme); ok {
				custom := customs[i]
				return Choice{Definition: def, Source: SourceCustom, Custom: &custom}
			}
		}
		if def, ok := reg.Lookup(active); ok {
			return Choice{Definition: def, Source: SourceRegistry}
		}
	}
	return Choice{Definition: reg.Default(), Source: SourceDefault}
}

// PageSource loads pages by id for the static homepage.
type PageSource interface {
	Page(ctx context.Context, id string) (*content.Item, error)
}

// Request is one resolution input. Settings is a snapshot.
type Request struct {
	Settings settings.SiteSettings
	PageType themes.PageType
}

// Resolution is what renders a request.
type Resolution struct {
	Choice
	// PageType is the page type actually rendered. A static homepage turns a
	// home request into a slug render.
	PageType   themes.PageType
	Renderer   themes.PageRenderer
	StaticPage *content.Item
	Appearance Appearance
}

// Theme returns the resolved definition name.
func (r Resolution) Theme() themes.Name { return r.Definition.Name }

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithPageSource enables static homepages.
func WithPageSource(src PageSource) ResolverOption {
	return func(r *Resolver) { r.pages = src }
}

// WithAppearances enables go-theme appearance selection.
func WithAppearances(a *Appearances) ResolverOption {
	return func(r *Resolver) { r.appearances = a }
}

// WithLogger sets the resolver logger.
func WithLogger(logger interfaces.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// WithDiagnostics sets the logger that receives permission failures.
func WithDiagnostics(logger interfaces.Logger) ResolverOption {
	return func(r *Resolver) { r.diagnostics = logger }
}

// Resolver resolves themes for render requests.
type Resolver struct {
	registry    *Registry
	reader      store.Reader
	pages       PageSource
	appearances *Appearances
	logger      interfaces.Logger
	diagnostics interfaces.Logger
}

// NewResolver builds a resolver over reg. reader supplies custom themes and
// may be nil.
func NewResolver(reg *Registry, reader store.Reader, opts ...ResolverOption) *Resolver {
	r := &Resolver{registry: reg, reader: reader}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.Ensure(r.logger)
	r.diagnostics = logging.Ensure(r.diagnostics)
	return r
}

// Registry returns the static theme registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve never fails: store errors degrade to the next resolution step and
// unknown page types render through the home renderer.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	customs := r.CustomThemes(ctx, req.Settings.ActiveTheme)
	choice := Choose(r.registry, req.Settings.ActiveTheme, customs)
	if choice.Source == SourceDefault && strings.TrimSpace(req.Settings.ActiveTheme) != "" {
		r.logger.Warn("themes.resolve.fallback_default",
			"active_theme", req.Settings.ActiveTheme,
			"theme", choice.Definition.Name,
		)
	}

	pt := req.PageType
	renderer := choice.Definition.Renderers.For(pt)
	if renderer == nil {
		r.logger.Warn("themes.resolve.unknown_page_type", "page_type", pt)
		pt = themes.PageHome
		renderer = choice.Definition.Renderers.Home
	}

	res := Resolution{Choice: choice, PageType: pt, Renderer: renderer}
	if pt == themes.PageHome && req.Settings.StaticHomepage() {
		if page := r.staticHomepage(ctx, req.Settings.HomepagePageID); page != nil {
			res.PageType = themes.PageSlug
			res.Renderer = choice.Definition.Renderers.Slug
			res.StaticPage = page
		}
	}

	if r.appearances != nil {
		appearance, err := r.appearances.Select(choice.Definition.Name, req.Settings)
		if err != nil {
			r.logger.Debug("themes.appearance.select_failed", "theme", choice.Definition.Name, "error", err)
		}
		res.Appearance = appearance
	} else {
		res.Appearance = Appearance{
			Theme:   string(choice.Definition.Name),
			Variant: req.Settings.ThemeVariant,
			Tokens:  map[string]string{},
			CSSVars: Overrides(DefaultCSSPrefix, req.Settings),
		}
	}
	return res
}

// CustomThemes loads custom themes named name. Failures yield none.
func (r *Resolver) CustomThemes(ctx context.Context, name string) []themes.CustomTheme {
	name = strings.TrimSpace(name)
	if r.reader == nil || name == "" {
		return nil
	}
	docs, err := r.reader.Get(ctx, store.Collection(themes.CollectionCustom).Eq("name", name))
	if err != nil {
		r.report(err, "themes.custom.load_failed", "active_theme", name)
		return nil
	}
	out, err := store.DecodeAll[themes.CustomTheme](docs)
	if err != nil {
		r.logger.Warn("themes.custom.decode_failed", "active_theme", name, "error", err)
		return nil
	}
	return out
}

func (r *Resolver) staticHomepage(ctx context.Context, id string) *content.Item {
	if r.pages == nil {
		return nil
	}
	page, err := r.pages.Page(ctx, id)
	if err != nil {
		if !store.IsNotFound(err) {
			r.report(err, "themes.homepage.load_failed", "page_id", id)
		}
		return nil
	}
	if !page.Published() {
		r.logger.Debug("themes.homepage.unpublished", "page_id", id, "status", page.Status)
		return nil
	}
	return page
}

func (r *Resolver) report(err error, event string, args ...any) {
	args = append(args, "error", err)
	if store.IsPermissionDenied(err) {
		r.diagnostics.Error(event, args...)
		return
	}
	r.logger.Warn(event, args...)
}
