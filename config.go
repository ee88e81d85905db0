package site

import "github.com/goliatone/go-site/internal/runtimeconfig"

var (
	ErrUnknownDefaultTheme     = runtimeconfig.ErrUnknownDefaultTheme
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrHelpersBaseURLRequired  = runtimeconfig.ErrHelpersBaseURLRequired
	ErrNavigationGroupRequired = runtimeconfig.ErrNavigationGroupRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	SiteConfig       = runtimeconfig.SiteConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	WidgetConfig     = runtimeconfig.WidgetConfig
	HelpersConfig    = runtimeconfig.HelpersConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	TelemetryConfig  = runtimeconfig.TelemetryConfig
	MarkupConfig     = runtimeconfig.MarkupConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
