package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-site/pkg/interfaces"
)

type recordingLogger struct {
	noopLogger
	fields []map[string]any
}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, fields)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerWithoutProviderIsNoOp(t *testing.T) {
	logger := ModuleLogger(nil, ThemesModule)
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", logger)
	}
	logger.WithContext(context.Background()).Info("ignored")
}

func TestModuleLoggerTagsModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != RootModule {
		t.Fatalf("expected root module request, got %v", provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != RootModule {
		t.Fatalf("expected module field, got %v", rec.fields)
	}
}

func TestContextFieldsAreMergedAndCopied(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"a": 1})
	ctx = ContextWithFields(ctx, map[string]any{"b": 2})

	fields := ContextFields(ctx)
	if fields["a"] != 1 || fields["b"] != 2 {
		t.Fatalf("unexpected fields %v", fields)
	}
	fields["a"] = 99
	if ContextFields(ctx)["a"] != 1 {
		t.Fatal("expected ContextFields to return a copy")
	}
}
