package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/comments"
	"github.com/goliatone/go-site/internal/live"
	"github.com/goliatone/go-site/internal/pages"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/telemetry"
	themesvc "github.com/goliatone/go-site/internal/themes"
	"github.com/goliatone/go-site/menus"
	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/themes"
	"github.com/goliatone/go-site/widgets"
)

// Request is one public page render.
type Request struct {
	PageType themes.PageType
	// Slug selects the post or page of a slug render.
	Slug string
	// Value is the category id, tag, author id, search term or date prefix
	// of an archive render.
	Value string
	Limit int
	// Settings skips loading the settings document when set.
	Settings *settings.SiteSettings
}

// Key identifies the page a request renders.
func (r Request) Key() string {
	return strings.Join([]string{string(r.PageType), strings.Trim(r.Slug, "/"), r.Value}, "|")
}

// Slot is a rendered theme widget slot.
type Slot struct {
	Name    string
	Area    AreaResult
	Outputs []widgets.Output
}

// View is everything resolved for a request plus the rendered page.
type View struct {
	Request    Request
	Settings   settings.SiteSettings
	Resolution Resolution
	Item       *content.Item
	NotFound   bool
	Assembly   *Assembly
	Listing    []content.Item
	Slots      map[string]Slot
	Navigation map[string]menus.Navigation
	Comments   []Thread
	HTML       template.HTML
}

// Render resolves and renders a public page. Store, widget and helper
// failures degrade to empty or fallback content; the returned error only
// reports a failing page template.
func (m *Module) Render(ctx context.Context, req Request) (View, error) {
	c := m.container
	logger := c.ModuleLogger("site").WithContext(ctx)

	view := View{Request: req}
	if req.Settings != nil {
		view.Settings = req.Settings.Clone()
	} else {
		s, err := c.Settings(ctx)
		if err != nil {
			logger.Warn("site.render.settings_failed", "error", err)
		}
		view.Settings = s
	}
	view.Resolution = m.ResolveTheme(ctx, view.Settings, req.PageType)
	def := view.Resolution.Definition
	if view.Resolution.PageType == themes.PageSlug {
		m.resolveItem(ctx, &view)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		m.renderContent(ctx, &view)
	}()
	go func() {
		defer wg.Done()
		view.Slots = m.renderSlots(ctx, def.Slots, view.Item)
	}()
	go func() {
		defer wg.Done()
		view.Navigation = c.Navigator().ResolveAll(ctx, view.Settings, def.MenuLocations)
	}()
	wg.Wait()

	if tracker := c.Tracker(); tracker != nil {
		msg := telemetry.TrackPageView{Slug: strings.Trim(req.Slug, "/"), PageType: view.Resolution.PageType}
		if view.Item != nil {
			msg.ItemID = view.Item.ID
			msg.Slug = view.Item.Slug
		}
		tracker.TrackPageView(msg)
	}

	var buf bytes.Buffer
	if err := view.Resolution.Renderer.Render(ctx, &buf, m.pageView(view)); err != nil {
		logger.Error("site.render.template_failed",
			"theme", view.Resolution.Theme(),
			"page_type", view.Resolution.PageType,
			"error", err,
		)
		return view, fmt.Errorf("site: render %s/%s: %w", view.Resolution.Theme(), view.Resolution.PageType, err)
	}
	view.HTML = template.HTML(buf.String())
	return view, nil
}

func (m *Module) renderContent(ctx context.Context, view *View) {
	c := m.container
	logger := c.ModuleLogger("site.pages")
	res := view.Resolution

	if res.PageType != themes.PageSlug {
		items, err := c.Lookup().Listing(ctx, pages.ListingRequest{
			PageType: res.PageType,
			Value:    view.Request.Value,
			Limit:    view.Request.Limit,
		})
		if err != nil {
			logger.Warn("pages.listing.failed", "page_type", res.PageType, "error", err)
		}
		view.Listing = items
		return
	}

	item := view.Item
	if item == nil {
		return
	}

	var wg sync.WaitGroup
	if item.IsPost() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			threads, err := c.Threads().Load(ctx, item.ID)
			if err != nil {
				logger.Warn("comments.load.failed", "item_id", item.ID, "error", err)
			}
			view.Comments = threads
		}()
	}
	assembly, err := c.Assembler().Assemble(ctx, item, view.Settings)
	if err != nil {
		logger.Warn("pages.assemble.failed", "item_id", item.ID, "error", err)
	} else {
		view.Assembly = &assembly
	}
	wg.Wait()
}

// resolveItem sets the item of a slug page: the static homepage when the
// theme resolved one, otherwise the published item at the request slug.
func (m *Module) resolveItem(ctx context.Context, view *View) {
	if item := view.Resolution.StaticPage; item != nil {
		view.Item = item
		return
	}
	item, err := m.container.Lookup().Resolve(ctx, view.Request.Slug)
	if err != nil {
		if !store.IsNotFound(err) {
			m.container.ModuleLogger("site.pages").Warn("pages.lookup.failed", "slug", view.Request.Slug, "error", err)
		}
		view.NotFound = true
		return
	}
	view.Item = item
}

// renderSlots composes each slot area. With an item the page scoped area is
// preferred and the global one used when the page has none.
func (m *Module) renderSlots(ctx context.Context, names []string, item *content.Item) map[string]Slot {
	out := make(map[string]Slot, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			req := AreaRequest{Name: name}
			if item != nil {
				req.PageID = item.ID
				req.PageSpecific = true
				req.FallbackToGlobal = true
			}
			area, outputs := m.RenderArea(ctx, req)
			mu.Lock()
			out[name] = Slot{Name: name, Area: area, Outputs: outputs}
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return out
}

func (m *Module) pageView(view View) themesvc.PageView {
	presenter := m.container.Presenter()
	res := view.Resolution
	pv := themesvc.PageView{
		Site:      view.Settings.Title,
		Variant:   res.Appearance.Variant,
		Title:     view.Settings.Title,
		NotFound:  view.NotFound,
		Slots:     make(map[string]template.HTML, len(view.Slots)),
		Menus:     make(map[string][]menus.Node, len(view.Navigation)),
		CSSVars:   res.Appearance.CSSVars,
		ShowTitle: true,
	}
	for name, slot := range view.Slots {
		pv.Slots[name] = presenter.PresentAll(slot.Outputs)
	}
	for location, nav := range view.Navigation {
		pv.Menus[location] = nav.Nodes
	}

	switch {
	case view.Item != nil:
		pv.Title = view.Item.Title
		pv.Heading = view.Item.Title
		pv.ShowTitle = pages.ShowTitle(view.Item, view.Settings)
		if view.Assembly != nil {
			pv.Body = view.Assembly.HTML(presenter)
		}
		pv.Comments = commentViews(view.Comments)
	case view.NotFound:
		pv.Heading = "Not found"
	default:
		pv.Heading = listingHeading(res.PageType, view.Request.Value)
		for _, item := range view.Listing {
			pv.Listing = append(pv.Listing, themesvc.Entry{
				Title:   item.Title,
				URL:     "/" + item.Slug,
				Excerpt: item.Excerpt,
			})
		}
	}
	return pv
}

func listingHeading(pt themes.PageType, value string) string {
	switch pt {
	case themes.PageCategory:
		return "Category: " + value
	case themes.PageTag:
		return "Tag: " + value
	case themes.PageAuthor:
		return "Author: " + value
	case themes.PageSearch:
		return "Search: " + value
	case themes.PageDate:
		return "Archive: " + value
	default:
		return "Latest posts"
	}
}

func commentViews(threads []comments.Thread) []themesvc.CommentView {
	if len(threads) == 0 {
		return nil
	}
	out := make([]themesvc.CommentView, 0, len(threads))
	for _, thread := range threads {
		out = append(out, themesvc.CommentView{
			Author:  thread.Comment.AuthorID,
			Date:    thread.Comment.CreatedAt.Format("Jan 2, 2006"),
			Content: thread.Comment.Content,
			Replies: commentViews(thread.Replies),
		})
	}
	return out
}

// Session renders navigations one at a time. A navigation that is
// superseded before it finishes is discarded.
type Session struct {
	module *Module
	scope  *live.Scope[string, View]
}

// NewSession starts a session whose committed views are passed to fn.
func (m *Module) NewSession(ctx context.Context, fn func(View, error)) *Session {
	return &Session{
		module: m,
		scope: live.NewScope(ctx, func(res live.Result[string, View]) {
			fn(res.Value, res.Err)
		}),
	}
}

// Navigate starts rendering req, cancelling any navigation in flight.
func (s *Session) Navigate(req Request) {
	s.scope.Run(req.Key(), func(ctx context.Context) (View, error) {
		return s.module.Render(ctx, req)
	})
}

// Wait blocks until the current navigation settled.
func (s *Session) Wait() { s.scope.Wait() }

// Close cancels the session.
func (s *Session) Close() { s.scope.Close() }
