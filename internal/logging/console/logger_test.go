package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-site/internal/logging"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
}

func TestLoggerWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock, MinLevel: LevelDebug})

	logger := logging.ModuleLogger(provider, logging.WidgetsModule)
	logger.Info("widgets.render.failed", "widget", "weather", "error", errors.New("boom now"))

	got := strings.TrimSpace(buf.String())
	want := `2024-03-01T09:30:00Z INFO widgets.render.failed error="boom now" logger=site.widgets module=site.widgets widget=weather`
	if got != want {
		t.Fatalf("unexpected entry\n got: %s\nwant: %s", got, want)
	}
}

func TestLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock, MinLevel: LevelWarn})
	logger := provider.GetLogger("site")

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected one entry, got %q", buf.String())
	}
}

func TestLoggerMergesContextFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"slug": "about"})
	provider.GetLogger("site").WithContext(ctx).Info("pages.assembled")

	if !strings.Contains(buf.String(), "slug=about") {
		t.Fatalf("expected context field in %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
