package main

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	site "github.com/goliatone/go-site"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/themes"
)

// NewRouter maps public site routes onto the module.
func NewRouter(module *site.Module, logger interfaces.Logger) *chi.Mux {
	h := &handler{site: module, logger: logger}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(h.logRequests)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", h.health)
	mux.Get("/", h.page(themes.PageHome, nil))
	mux.Get("/category/{value}", h.page(themes.PageCategory, urlParam("value")))
	mux.Get("/tag/{value}", h.page(themes.PageTag, urlParam("value")))
	mux.Get("/author/{value}", h.page(themes.PageAuthor, urlParam("value")))
	mux.Get("/date/{value}", h.page(themes.PageDate, urlParam("value")))
	mux.Get("/search", h.page(themes.PageSearch, func(r *http.Request) string { return r.URL.Query().Get("q") }))
	mux.Get("/widgets/{area}", h.area)
	mux.Post("/notifications/{id}/read", h.markRead)
	mux.Get("/{slug}", h.slug)

	return mux
}

type handler struct {
	site   *site.Module
	logger interfaces.Logger
}

func urlParam(name string) func(*http.Request) string {
	return func(r *http.Request) string { return chi.URLParam(r, name) }
}

func (h *handler) page(pt themes.PageType, value func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := site.Request{PageType: pt}
		if value != nil {
			req.Value = value(r)
		}
		h.render(w, r, req)
	}
}

func (h *handler) slug(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, site.Request{PageType: themes.PageSlug, Slug: chi.URLParam(r, "slug")})
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, req site.Request) {
	view, err := h.site.Render(r.Context(), req)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Site-Theme", string(view.Resolution.Theme()))
	if view.NotFound {
		w.WriteHeader(http.StatusNotFound)
	}
	_, _ = w.Write([]byte(view.HTML))
}

func (h *handler) area(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "area")
	req := site.AreaRequest{Name: name}
	if page := strings.TrimSpace(r.URL.Query().Get("page")); page != "" {
		req.PageID = page
		req.PageSpecific = true
		req.FallbackToGlobal = r.URL.Query().Get("fallback") == "1"
	}
	area, outputs := h.site.RenderArea(r.Context(), req)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Area-Status", string(area.Status))
	var body template.HTML
	if len(outputs) > 0 {
		body = h.site.Container().Presenter().PresentAll(outputs)
	}
	_, _ = w.Write([]byte(body))
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	if !h.site.MarkNotificationRead(chi.URLParam(r, "id")) {
		http.Error(w, "telemetry unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("preview.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
