// Package widgets defines widget areas, widget instances and the render
// output contract shared by every widget type.
package widgets

import "maps"

// Store collections.
const (
	CollectionAreas     = "widgetAreas"
	CollectionInstances = "widgetInstances"
	CollectionLayouts   = "pageLayouts"
	CollectionCharts    = "charts"
)

// PageContentArea is the page-scoped area consulted before raw page markup.
const PageContentArea = "Page Content"

// Well known slot names declared by themes.
const (
	SlotHeader  = "Header"
	SlotSidebar = "Sidebar"
	SlotFooter  = "Footer"
)

// Widget types shipped with the runtime.
const (
	TypeRecentPosts   = "recent-posts"
	TypeFeaturedList  = "featured-list"
	TypeTagCloud      = "tag-cloud"
	TypeWeather       = "weather"
	TypeLiveScore     = "live-score"
	TypeSportingTable = "sporting-table"
	TypeTicker        = "ticker"
	TypeChart         = "chart"
	TypeHTML          = "html"
	TypeGallery       = "gallery"
)

// Area is a named slot. Global areas have no PageID.
type Area struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PageID string `json:"pageId,omitempty"`
}

// Global reports whether the area is not scoped to a page.
func (a Area) Global() bool { return a.PageID == "" }

// Instance is one configured widget placed in an area.
type Instance struct {
	ID           string         `json:"id"`
	WidgetAreaID string         `json:"widgetAreaId"`
	Type         string         `json:"type"`
	Order        int            `json:"order"`
	Config       map[string]any `json:"config,omitempty"`
}

// Clone returns a copy with its own config map.
func (i Instance) Clone() Instance {
	i.Config = maps.Clone(i.Config)
	return i
}

// Layout is the builder document of a builder-enabled page.
type Layout struct {
	ID       string    `json:"id"`
	PageID   string    `json:"pageId"`
	Sections []Section `json:"sections"`
}

// Section is a horizontal band of a builder layout.
type Section struct {
	ID      string   `json:"id"`
	Columns []Column `json:"columns"`
}

// Column holds widgets rendered top to bottom. Span is a 12-grid width.
type Column struct {
	Span    int        `json:"span"`
	Widgets []Instance `json:"widgets"`
}

// ChartKind enumerates supported chart renderings.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

// Chart is a stored chart document.
type Chart struct {
	ID    string           `json:"id"`
	Title string           `json:"title,omitempty"`
	Type  ChartKind        `json:"type"`
	Data  []map[string]any `json:"data"`
}
