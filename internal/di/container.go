// Package di wires the site runtime from a runtime configuration.
package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-site/internal/comments"
	"github.com/goliatone/go-site/internal/helpers"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/logging/console"
	"github.com/goliatone/go-site/internal/logging/gologger"
	"github.com/goliatone/go-site/internal/markup"
	"github.com/goliatone/go-site/internal/menus"
	"github.com/goliatone/go-site/internal/pages"
	"github.com/goliatone/go-site/internal/runtimeconfig"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/store/bunstore"
	"github.com/goliatone/go-site/internal/store/memory"
	"github.com/goliatone/go-site/internal/store/mongostore"
	"github.com/goliatone/go-site/internal/telemetry"
	themesvc "github.com/goliatone/go-site/internal/themes"
	widgetsvc "github.com/goliatone/go-site/internal/widgets"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/themes"
)

// ErrPostgresDriverRequired is returned when the bun provider targets
// postgres without a caller supplied connection.
var ErrPostgresDriverRequired = errors.New("di: postgres storage requires WithSQLDB or WithBunDB")

// Container holds every wired service of a site runtime.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	diagnostics    interfaces.Logger

	store       store.Store
	sqlDB       *sql.DB
	bunDB       *bun.DB
	mongoDB     *mongo.Database
	mongoClient *mongo.Client
	closers     []func(context.Context) error

	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	themeDefs   []themes.Definition
	registry    *themesvc.Registry
	appearances *themesvc.Appearances
	resolver    *themesvc.Resolver

	helpers     helpers.Client
	httpClient  *http.Client
	markup      *markup.Renderer
	extraUnits  []widgetsvc.Unit
	units       *widgetsvc.Registry
	composer    *widgetsvc.Composer
	renderer    *widgetsvc.Renderer
	presenter   *widgetsvc.Presenter
	lookup      *pages.Lookup
	assembler   *pages.Assembler
	urlResolver menus.URLResolver
	navigator   *menus.Navigator
	threads     *comments.Threads
	tracker     *telemetry.Tracker
}

// Option customises the container before services are wired.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) { c.loggerProvider = provider }
}

// WithStore supplies a ready document store. Config.Storage is ignored.
func WithStore(s store.Store) Option {
	return func(c *Container) { c.store = s }
}

// WithSQLDB supplies the connection used by the bun provider.
func WithSQLDB(db *sql.DB) Option {
	return func(c *Container) { c.sqlDB = db }
}

// WithBunDB supplies a bun database for the bun provider.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) { c.bunDB = db }
}

// WithMongoDatabase supplies the database used by the mongo provider.
func WithMongoDatabase(db *mongo.Database) Option {
	return func(c *Container) { c.mongoDB = db }
}

// WithCache overrides the go-repository-cache service used by the bun store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithThemes replaces the built-in theme definitions.
func WithThemes(defs ...themes.Definition) Option {
	return func(c *Container) { c.themeDefs = append([]themes.Definition(nil), defs...) }
}

// WithHelpers supplies the external content helper client.
func WithHelpers(client helpers.Client) Option {
	return func(c *Container) { c.helpers = client }
}

// WithHTTPClient sets the HTTP client used by the helper client built from
// Config.Helpers.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) { c.httpClient = client }
}

// WithWidgetUnits registers additional widget units after the built-ins.
func WithWidgetUnits(units ...widgetsvc.Unit) Option {
	return func(c *Container) { c.extraUnits = append(c.extraUnits, units...) }
}

// WithURLResolver overrides menu URL resolution.
func WithURLResolver(resolver menus.URLResolver) Option {
	return func(c *Container) { c.urlResolver = resolver }
}

// NewContainer validates cfg and wires every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureThemes(); err != nil {
		return nil, err
	}
	if err := c.Config.ValidateWith(c.registry); err != nil {
		return nil, err
	}
	if err := c.configureStore(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if err := c.configureWidgets(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.configureContent()
	c.configureNavigation()
	c.configureTelemetry()
	c.logger.Debug("site.container.ready",
		"storage", c.storageName(),
		"themes", len(c.registry.Names()),
		"widget_types", len(c.units.Types()),
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		cfg := c.Config.Logging
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case runtimeconfig.LoggingGoLogger:
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     cfg.Level,
				Format:    cfg.Format,
				AddSource: cfg.AddSource,
				Focus:     cfg.Focus,
			})
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		default:
			c.loggerProvider = console.NewProvider(console.Options{MinLevel: console.ParseLevel(cfg.Level)})
		}
	}
	c.logger = c.ModuleLogger("site")
	c.diagnostics = c.ModuleLogger("site.diagnostics")
	return nil
}

func (c *Container) configureThemes() error {
	defs := c.themeDefs
	if len(defs) == 0 {
		builtins, err := themesvc.Builtins()
		if err != nil {
			return err
		}
		defs = builtins
	}
	if name := strings.TrimSpace(c.Config.Site.DefaultTheme); name != "" {
		defs = withDefaultFirst(defs, themes.Name(name))
	}
	reg, err := themesvc.NewRegistry(defs...)
	if err != nil {
		return err
	}
	appearances, err := themesvc.NewAppearances(reg, c.Config.Site.DefaultVariant, c.Config.Site.CSSPrefix)
	if err != nil {
		return err
	}
	c.registry = reg
	c.appearances = appearances
	return nil
}

// withDefaultFirst moves the named definition to the front. Unknown names
// leave the order unchanged; ValidateWith reports them.
func withDefaultFirst(defs []themes.Definition, name themes.Name) []themes.Definition {
	idx := slices.IndexFunc(defs, func(def themes.Definition) bool { return def.Name == name })
	if idx <= 0 {
		return defs
	}
	out := make([]themes.Definition, 0, len(defs))
	out = append(out, defs[idx])
	out = append(out, defs[:idx]...)
	return append(out, defs[idx+1:]...)
}

func (c *Container) configureStore(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	storeLogger := c.ModuleLogger("site.store")
	cfg := c.Config.Storage
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", runtimeconfig.StorageMemory:
		c.store = memory.New()
	case runtimeconfig.StorageBun:
		db, err := c.openBun(cfg)
		if err != nil {
			return err
		}
		if cfg.Migrate {
			if err := bunstore.Migrate(ctx, db); err != nil {
				return err
			}
		}
		c.configureCacheDefaults()
		c.store = bunstore.New(db,
			bunstore.WithCache(c.cacheService, c.keySerializer),
			bunstore.WithLogger(storeLogger),
		)
	case runtimeconfig.StorageMongo:
		db, err := c.openMongo(ctx, cfg)
		if err != nil {
			return err
		}
		c.store = mongostore.New(db,
			mongostore.WithLogger(storeLogger),
			mongostore.WithChangeStreams(cfg.ChangeStreams),
		)
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrStorageProviderUnknown, cfg.Provider)
	}
	return nil
}

func (c *Container) openBun(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	if c.bunDB != nil {
		return c.bunDB, nil
	}
	dialect := strings.ToLower(strings.TrimSpace(cfg.Dialect))
	if c.sqlDB == nil {
		if dialect == bunstore.DialectPostgres || dialect == "pg" {
			return nil, ErrPostgresDriverRequired
		}
		db, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		c.sqlDB = db
		c.closers = append(c.closers, func(context.Context) error { return db.Close() })
	}
	db, err := bunstore.Open(c.sqlDB, dialect)
	if err != nil {
		return nil, err
	}
	c.bunDB = db
	return db, nil
}

func (c *Container) openMongo(ctx context.Context, cfg runtimeconfig.StorageConfig) (*mongo.Database, error) {
	if c.mongoDB != nil {
		return c.mongoDB, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("di: connect mongo: %w", err)
	}
	c.mongoClient = client
	c.closers = append(c.closers, client.Disconnect)
	c.mongoDB = client.Database(cfg.Database)
	return c.mongoDB, nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.DefaultTTL > 0 {
			cfg.TTL = c.Config.Cache.DefaultTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("site.cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureWidgets() error {
	c.markup = markup.New(markup.Options{
		Extensions:   c.Config.Markup.Extensions,
		HardWraps:    c.Config.Markup.HardWraps,
		AllowIframes: c.Config.Markup.AllowIframes,
	})

	if c.helpers == nil && c.Config.Helpers.Enabled {
		client, err := helpers.NewHTTPClient(helpers.HTTPConfig{
			BaseURL:       c.Config.Helpers.BaseURL,
			Token:         c.Config.Helpers.Token,
			Timeout:       c.Config.Helpers.Timeout,
			RatePerSecond: c.Config.Helpers.RatePerSecond,
			Burst:         c.Config.Helpers.Burst,
		}, c.httpClient)
		if err != nil {
			return err
		}
		c.helpers = client
	}
	if c.helpers == nil {
		c.helpers = helpers.Unavailable{}
	}

	c.units = widgetsvc.BuiltinRegistry(widgetsvc.Deps{
		Reader:          c.store,
		Helpers:         c.helpers,
		Markup:          c.markup,
		DefaultLocation: c.Config.Site.DefaultLocation,
	})
	for _, unit := range c.extraUnits {
		c.units.Register(unit)
	}

	widgetLogger := c.ModuleLogger("site.widgets")
	c.composer = widgetsvc.NewComposer(c.store,
		widgetsvc.WithComposerLogger(widgetLogger),
		widgetsvc.WithComposerDiagnostics(c.diagnostics),
	)
	c.renderer = widgetsvc.NewRenderer(c.units,
		widgetsvc.WithFetchTimeout(c.Config.Widgets.FetchTimeout),
		widgetsvc.WithRendererLogger(widgetLogger),
		widgetsvc.WithRendererDiagnostics(c.diagnostics),
	)
	presenter, err := widgetsvc.NewPresenter()
	if err != nil {
		return err
	}
	c.presenter = presenter
	return nil
}

func (c *Container) configureContent() {
	c.lookup = pages.NewLookup(c.store)
	c.assembler = pages.NewAssembler(c.store, c.composer, c.renderer, c.markup,
		pages.WithAssemblerLogger(c.ModuleLogger("site.pages")),
		pages.WithAssemblerDiagnostics(c.diagnostics),
	)
	c.resolver = themesvc.NewResolver(c.registry, c.store,
		themesvc.WithPageSource(c.lookup),
		themesvc.WithAppearances(c.appearances),
		themesvc.WithLogger(c.ModuleLogger("site.themes")),
		themesvc.WithDiagnostics(c.diagnostics),
	)
	c.threads = comments.NewThreads(c.store)
}

func (c *Container) configureNavigation() {
	resolver := c.urlResolver
	nav := c.Config.Navigation
	if resolver == nil && nav.RouteConfig != nil {
		resolver = menus.NewURLKitResolver(menus.URLKitResolverOptions{
			Manager:   urlkit.NewRouteManager(nav.RouteConfig),
			Group:     nav.Group,
			Routes:    nav.Routes,
			SlugParam: nav.SlugParam,
			IDParam:   nav.IDParam,
		})
	}
	c.navigator = menus.NewNavigator(c.store,
		menus.WithURLResolver(resolver),
		menus.WithLogger(c.ModuleLogger("site.menus")),
		menus.WithDiagnostics(c.diagnostics),
	)
}

func (c *Container) configureTelemetry() {
	if !c.Config.Telemetry.Enabled {
		return
	}
	c.tracker = telemetry.NewTracker(c.store, telemetry.Config{
		Buffer:  c.Config.Telemetry.Buffer,
		Timeout: c.Config.Telemetry.Timeout,
	}, telemetry.WithLogger(c.ModuleLogger("site.telemetry")))
}

func (c *Container) storageName() string {
	switch c.store.(type) {
	case *memory.Store:
		return runtimeconfig.StorageMemory
	case *bunstore.Store:
		return runtimeconfig.StorageBun
	case *mongostore.Store:
		return runtimeconfig.StorageMongo
	default:
		return "custom"
	}
}

// Settings loads the site settings snapshot. A missing document yields the
// defaults; an active theme that is neither built in nor custom is logged.
func (c *Container) Settings(ctx context.Context) (settings.SiteSettings, error) {
	doc, err := c.store.Document(ctx, settings.Collection, settings.DocumentID)
	if err != nil {
		if store.IsNotFound(err) {
			return settings.Default(), nil
		}
		if store.IsPermissionDenied(err) {
			c.diagnostics.Error("site.settings.load_failed", "error", err)
		}
		return settings.Default(), err
	}
	return c.DecodeSettings(ctx, doc)
}

// DecodeSettings turns a settings document into a snapshot.
func (c *Container) DecodeSettings(ctx context.Context, doc store.Document) (settings.SiteSettings, error) {
	s, err := store.Decode[settings.SiteSettings](doc)
	if err != nil {
		return settings.Default(), fmt.Errorf("di: decode settings: %w", err)
	}
	if s.HomepageType == "" {
		s.HomepageType = settings.HomepageLatest
	}
	if name := strings.TrimSpace(s.ActiveTheme); name != "" && !c.registry.Known(name) {
		if len(c.resolver.CustomThemes(ctx, name)) == 0 {
			c.logger.Warn("site.settings.unknown_theme", "active_theme", name, "default", c.registry.Default().Name)
		}
	}
	return s, nil
}

// Close stops telemetry, the store and any connection the container opened.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.tracker != nil {
		errs = append(errs, c.tracker.Close(ctx))
	}
	if c.store != nil {
		errs = append(errs, c.store.Close(ctx))
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i](ctx))
	}
	c.closers = nil
	return errors.Join(errs...)
}

// ModuleLogger returns a logger tagged with module.
func (c *Container) ModuleLogger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

func (c *Container) Logger() interfaces.Logger                 { return c.logger }
func (c *Container) Diagnostics() interfaces.Logger            { return c.diagnostics }
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }
func (c *Container) Store() store.Store                        { return c.store }
func (c *Container) ThemeRegistry() *themesvc.Registry         { return c.registry }
func (c *Container) ThemeResolver() *themesvc.Resolver         { return c.resolver }
func (c *Container) Helpers() helpers.Client                   { return c.helpers }
func (c *Container) Markup() *markup.Renderer                  { return c.markup }
func (c *Container) WidgetRegistry() *widgetsvc.Registry       { return c.units }
func (c *Container) Composer() *widgetsvc.Composer             { return c.composer }
func (c *Container) Renderer() *widgetsvc.Renderer             { return c.renderer }
func (c *Container) Presenter() *widgetsvc.Presenter           { return c.presenter }
func (c *Container) Lookup() *pages.Lookup                     { return c.lookup }
func (c *Container) Assembler() *pages.Assembler               { return c.assembler }
func (c *Container) Navigator() *menus.Navigator               { return c.navigator }
func (c *Container) Threads() *comments.Threads                { return c.threads }

// Tracker is nil when telemetry is disabled.
func (c *Container) Tracker() *telemetry.Tracker { return c.tracker }
