package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-site/internal/runtimeconfig"
	"github.com/goliatone/go-site/themes"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidateDefaultTheme(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.DefaultTheme = string(themes.Minimal)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected built-in theme to validate, got %v", err)
	}

	cfg.Site.DefaultTheme = "Brutalist"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrUnknownDefaultTheme) {
		t.Fatalf("expected ErrUnknownDefaultTheme, got %v", err)
	}
}

type knownThemes map[string]bool

func (k knownThemes) Known(name string) bool { return k[name] }

func TestConfigValidateWithCustomRegistry(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.DefaultTheme = "Brutalist"
	if err := cfg.ValidateWith(knownThemes{"Brutalist": true}); err != nil {
		t.Fatalf("expected custom theme to validate, got %v", err)
	}
}

func TestConfigValidateStorage(t *testing.T) {
	cases := []struct {
		name    string
		storage runtimeconfig.StorageConfig
		want    error
	}{
		{name: "memory", storage: runtimeconfig.StorageConfig{Provider: "memory"}},
		{name: "unknown", storage: runtimeconfig.StorageConfig{Provider: "redis"}, want: runtimeconfig.ErrStorageProviderUnknown},
		{name: "bun without dsn", storage: runtimeconfig.StorageConfig{Provider: "bun"}, want: runtimeconfig.ErrStorageDSNRequired},
		{name: "bun sqlite", storage: runtimeconfig.StorageConfig{Provider: "bun", Dialect: "sqlite", DSN: "file::memory:"}},
		{name: "mongo", storage: runtimeconfig.StorageConfig{Provider: "mongo", DSN: "mongodb://localhost", Database: "site"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			cfg.Storage = tc.storage
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateMongoRequiresDatabase(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage = runtimeconfig.StorageConfig{Provider: "mongo", DSN: "mongodb://localhost"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing database to fail")
	}
}

func TestConfigValidateHelpersRequireBaseURL(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Helpers.Enabled = true
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrHelpersBaseURLRequired) {
		t.Fatalf("expected ErrHelpersBaseURLRequired, got %v", err)
	}
}

func TestConfigValidateNavigationGroup(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Navigation.RouteConfig = &urlkit.Config{}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrNavigationGroupRequired) {
		t.Fatalf("expected ErrNavigationGroupRequired, got %v", err)
	}
}

func TestConfigValidateLogging(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidateRejectsNegativeDurations(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Widgets.FetchTimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative fetch timeout to fail")
	}
}
