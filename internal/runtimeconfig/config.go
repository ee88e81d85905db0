package runtimeconfig

import (
	"errors"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-site/internal/themes"
)

// Storage providers.
const (
	StorageMemory = "memory"
	StorageBun    = "bun"
	StorageMongo  = "mongo"
)

// Logging providers.
const (
	LoggingConsole  = "console"
	LoggingGoLogger = "gologger"
)

var (
	ErrUnknownDefaultTheme     = errors.New("site config: default theme is not registered")
	ErrStorageProviderUnknown  = errors.New("site config: storage provider is invalid")
	ErrStorageDSNRequired      = errors.New("site config: storage dsn is required")
	ErrHelpersBaseURLRequired  = errors.New("site config: helpers base url is required when helpers are enabled")
	ErrNavigationGroupRequired = errors.New("site config: navigation group is required with a route config")
	ErrLoggingProviderUnknown  = errors.New("site config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("site config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("site config: logging format is invalid")
)

// Config aggregates every setting the site runtime reads at startup.
// Per-site settings (active theme, menus, homepage) live in the document
// store, not here.
type Config struct {
	Site       SiteConfig
	Storage    StorageConfig
	Cache      CacheConfig
	Widgets    WidgetConfig
	Helpers    HelpersConfig
	Navigation NavigationConfig
	Telemetry  TelemetryConfig
	Markup     MarkupConfig
	Logging    LoggingConfig
}

// SiteConfig captures theme defaults.
type SiteConfig struct {
	// DefaultTheme is moved to the front of the registry so it becomes the
	// fallback theme. Empty keeps the registry order.
	DefaultTheme    string
	DefaultVariant  string
	CSSPrefix       string
	DefaultLocation string
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	Provider string
	// Dialect is sqlite or postgres for the bun provider.
	Dialect string
	DSN     string
	// Database names the MongoDB database.
	Database      string
	ChangeStreams bool
	Migrate       bool
}

// CacheConfig toggles the go-repository-cache decorator on the bun store.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// WidgetConfig tunes widget rendering.
type WidgetConfig struct {
	FetchTimeout time.Duration
}

// HelpersConfig configures the external content helper service.
type HelpersConfig struct {
	Enabled       bool
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// NavigationConfig captures routing configuration for menu URL resolution.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
	Group       string
	Routes      map[string]string
	SlugParam   string
	IDParam     string
}

// TelemetryConfig sizes the background telemetry worker.
type TelemetryConfig struct {
	Enabled bool
	Buffer  int
	Timeout time.Duration
}

// MarkupConfig mirrors markup.Options.
type MarkupConfig struct {
	Extensions   []string
	HardWraps    bool
	AllowIframes bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns an in-memory site with console logging.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			CSSPrefix: themes.DefaultCSSPrefix,
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
			Dialect:  "sqlite",
			Migrate:  true,
		},
		Cache: CacheConfig{
			DefaultTTL: time.Minute,
		},
		Widgets: WidgetConfig{
			FetchTimeout: 3 * time.Second,
		},
		Helpers: HelpersConfig{
			Timeout:       5 * time.Second,
			RatePerSecond: 5,
			Burst:         5,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Buffer:  256,
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: LoggingConsole,
			Level:    "info",
		},
	}
}

// ThemeChecker reports whether a theme name is registered.
type ThemeChecker interface {
	Known(name string) bool
}

var builtinThemes = sync.OnceValues(func() (*themes.Registry, error) {
	return themes.BuiltinRegistry()
})

// Validate checks the configuration against the built-in themes.
func (cfg Config) Validate() error {
	reg, err := builtinThemes()
	if err != nil {
		return err
	}
	return cfg.ValidateWith(reg)
}

// ValidateWith checks the configuration against known.
func (cfg Config) ValidateWith(known ThemeChecker) error {
	if name := strings.TrimSpace(cfg.Site.DefaultTheme); name != "" && known != nil && !known.Known(name) {
		return validationError("site.default_theme", ErrUnknownDefaultTheme)
	}
	if err := cfg.Storage.validate(); err != nil {
		return err
	}
	if err := cfg.Helpers.validate(); err != nil {
		return err
	}
	if err := cfg.Navigation.validate(); err != nil {
		return err
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	return validation.Errors{
		"cache": validation.ValidateStruct(&cfg.Cache,
			validation.Field(&cfg.Cache.DefaultTTL, validation.Min(time.Duration(0))),
		),
		"widgets": validation.ValidateStruct(&cfg.Widgets,
			validation.Field(&cfg.Widgets.FetchTimeout, validation.Min(time.Duration(0))),
		),
		"telemetry": validation.ValidateStruct(&cfg.Telemetry,
			validation.Field(&cfg.Telemetry.Buffer, validation.Min(0)),
			validation.Field(&cfg.Telemetry.Timeout, validation.Min(time.Duration(0))),
		),
	}.Filter()
}

func (s StorageConfig) validate() error {
	provider := normalize(s.Provider)
	switch provider {
	case "", StorageMemory:
		return nil
	case StorageBun, StorageMongo:
	default:
		return validationError("storage.provider", ErrStorageProviderUnknown)
	}
	if strings.TrimSpace(s.DSN) == "" {
		return validationError("storage.dsn", ErrStorageDSNRequired)
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Dialect, validation.When(provider == StorageBun,
			validation.In("", "sqlite", "sqlite3", "postgres", "pg"))),
		validation.Field(&s.Database, validation.When(provider == StorageMongo, validation.Required)),
	)
}

func (h HelpersConfig) validate() error {
	if !h.Enabled {
		return nil
	}
	if strings.TrimSpace(h.BaseURL) == "" {
		return validationError("helpers.base_url", ErrHelpersBaseURLRequired)
	}
	return validation.ValidateStruct(&h,
		validation.Field(&h.RatePerSecond, validation.Min(0.0)),
		validation.Field(&h.Burst, validation.Min(0)),
	)
}

func (n NavigationConfig) validate() error {
	if n.RouteConfig != nil && strings.TrimSpace(n.Group) == "" {
		return validationError("navigation.group", ErrNavigationGroupRequired)
	}
	return nil
}

func (l LoggingConfig) validate() error {
	provider := normalize(l.Provider)
	switch provider {
	case "", LoggingConsole, LoggingGoLogger:
	default:
		return validationError("logging.provider", ErrLoggingProviderUnknown)
	}
	if level := normalize(l.Level); level != "" {
		switch level {
		case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		default:
			return validationError("logging.level", ErrLoggingLevelInvalid)
		}
	}
	if provider == LoggingGoLogger {
		switch normalize(l.Format) {
		case "", "json", "console", "pretty":
		default:
			return validationError("logging.format", ErrLoggingFormatInvalid)
		}
	}
	return nil
}

// validationError tags a sentinel with the config path that failed.
func validationError(field string, err error) error {
	return keyedError{field: field, err: err}
}

type keyedError struct {
	field string
	err   error
}

func (e keyedError) Error() string { return e.field + ": " + e.err.Error() }
func (e keyedError) Unwrap() error { return e.err }

// Field returns the config path that failed.
func (e keyedError) Field() string { return e.field }

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
