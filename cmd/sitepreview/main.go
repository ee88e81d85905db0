// Command sitepreview serves a fixture site from an in-memory store.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	site "github.com/goliatone/go-site"
)

func main() {
	var (
		dir       = flag.String("dir", "cmd/sitepreview/testdata/site", "fixture site directory")
		addr      = flag.String("addr", ":8080", "listen address")
		theme     = flag.String("theme", "", "default theme")
		logLevel  = flag.String("log-level", "info", "log level")
		logFormat = flag.String("log-format", "", "go-logger format (json, console, pretty)")
		provider  = flag.String("log-provider", "console", "logging provider (console, gologger)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := site.DefaultConfig()
	cfg.Site.DefaultTheme = *theme
	cfg.Logging.Provider = *provider
	cfg.Logging.Level = *logLevel
	cfg.Logging.Format = *logFormat

	module, err := site.NewWithContext(ctx, cfg)
	if err != nil {
		log.Fatalf("sitepreview: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := module.Close(shutdownCtx); err != nil {
			log.Printf("sitepreview: close: %v", err)
		}
	}()

	if _, err := module.LoadFixtures(ctx, os.DirFS(*dir)); err != nil {
		log.Fatalf("sitepreview: load %s: %v", *dir, err)
	}

	logger := module.Container().ModuleLogger("site.preview")
	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewRouter(module, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("preview.listening", "addr", *addr, "dir", *dir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("sitepreview: %v", err)
	}
}
