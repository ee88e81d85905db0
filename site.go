package site

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/comments"
	"github.com/goliatone/go-site/internal/di"
	"github.com/goliatone/go-site/internal/fixtures"
	"github.com/goliatone/go-site/internal/live"
	"github.com/goliatone/go-site/internal/pages"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/telemetry"
	themesvc "github.com/goliatone/go-site/internal/themes"
	widgetsvc "github.com/goliatone/go-site/internal/widgets"
	"github.com/goliatone/go-site/menus"
	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/themes"
	"github.com/goliatone/go-site/widgets"
)

// AreaRequest selects a widget area.
type AreaRequest = widgetsvc.AreaRequest

// AreaResult is a composed widget area.
type AreaResult = widgetsvc.AreaResult

// Resolution is a resolved theme and page renderer.
type Resolution = themesvc.Resolution

// Assembly is the composed body of a post or page.
type Assembly = pages.Assembly

// Thread is one root comment with its replies.
type Thread = comments.Thread

// WidgetUnit is the contract for widget types.
type WidgetUnit = widgetsvc.Unit

// Option customises the runtime container.
type Option = di.Option

var (
	WithStore          = di.WithStore
	WithLoggerProvider = di.WithLoggerProvider
	WithSQLDB          = di.WithSQLDB
	WithBunDB          = di.WithBunDB
	WithMongoDatabase  = di.WithMongoDatabase
	WithCache          = di.WithCache
	WithThemes         = di.WithThemes
	WithHelpers        = di.WithHelpers
	WithHTTPClient     = di.WithHTTPClient
	WithWidgetUnits    = di.WithWidgetUnits
	WithURLResolver    = di.WithURLResolver
)

// Module is the public site runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a site module from cfg.
func New(cfg Config, opts ...Option) (*Module, error) {
	return NewWithContext(context.Background(), cfg, opts...)
}

// NewWithContext is New with a context for connecting to the store.
func NewWithContext(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Settings loads the current settings snapshot.
func (m *Module) Settings(ctx context.Context) (settings.SiteSettings, error) {
	return m.container.Settings(ctx)
}

// WatchSettings delivers a new snapshot whenever the settings document
// changes. The first call may report loading.
func (m *Module) WatchSettings(ctx context.Context, fn func(live.Update[settings.SiteSettings])) (store.Unsubscribe, error) {
	q := store.Collection(settings.Collection).Eq("id", settings.DocumentID).Take(1)
	return live.Watch(ctx, m.container.Store(), q,
		func(ctx context.Context, snap store.Snapshot) (settings.SiteSettings, error) {
			if snap.Empty() {
				return settings.Default(), nil
			}
			return m.container.DecodeSettings(ctx, snap.Documents[0])
		}, fn)
}

// ResolveTheme picks the theme and page renderer for pageType.
func (m *Module) ResolveTheme(ctx context.Context, s settings.SiteSettings, pageType themes.PageType) Resolution {
	return m.container.ThemeResolver().Resolve(ctx, themesvc.Request{Settings: s, PageType: pageType})
}

// ComposeArea returns the ordered instances of an area.
func (m *Module) ComposeArea(ctx context.Context, req AreaRequest) AreaResult {
	return m.container.Composer().Compose(ctx, req)
}

// WatchArea re-composes the area on every store change.
func (m *Module) WatchArea(ctx context.Context, req AreaRequest, fn func(AreaResult)) (store.Unsubscribe, error) {
	return m.container.Composer().Watch(ctx, req, fn)
}

// RenderArea composes the area and renders its instances concurrently.
func (m *Module) RenderArea(ctx context.Context, req AreaRequest) (AreaResult, []widgets.Output) {
	area := m.ComposeArea(ctx, req)
	if len(area.Instances) == 0 {
		return area, nil
	}
	return area, m.container.Renderer().RenderAll(ctx, area.Instances)
}

// StreamArea composes the area and streams widget updates as they settle.
func (m *Module) StreamArea(ctx context.Context, req AreaRequest) (AreaResult, <-chan widgetsvc.Update) {
	area := m.ComposeArea(ctx, req)
	return area, m.container.Renderer().Stream(ctx, area.Instances)
}

// AssemblePage composes the body of item.
func (m *Module) AssemblePage(ctx context.Context, item *content.Item, s settings.SiteSettings) (Assembly, error) {
	return m.container.Assembler().Assemble(ctx, item, s)
}

// Navigation builds the menu assigned to location.
func (m *Module) Navigation(ctx context.Context, s settings.SiteSettings, location string) menus.Navigation {
	return m.container.Navigator().Resolve(ctx, s, location)
}

// Comments loads the comment threads of an item.
func (m *Module) Comments(ctx context.Context, itemID string) ([]Thread, error) {
	return m.container.Threads().Load(ctx, itemID)
}

// MarkNotificationRead queues a notification read. It reports false when
// telemetry is disabled or the event was dropped.
func (m *Module) MarkNotificationRead(id string) bool {
	tracker := m.container.Tracker()
	if tracker == nil {
		return false
	}
	return tracker.MarkNotificationRead(telemetry.MarkNotificationRead{ID: id})
}

// LoadFixtures seeds the store from a fixture directory tree.
func (m *Module) LoadFixtures(ctx context.Context, fsys fs.FS) (int, error) {
	site, err := fixtures.NewLoader(fsys).Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := site.Seed(ctx, m.container.Store()); err != nil {
		return 0, err
	}
	m.container.Logger().Info("site.fixtures.loaded", "documents", site.Count())
	return site.Count(), nil
}

// Close releases the store and waits for queued telemetry.
func (m *Module) Close(ctx context.Context) error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close(ctx)
}
