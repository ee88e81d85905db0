// Package settings holds the site-wide configuration snapshot that every
// renderer reads.
package settings

import "maps"

// HomepageMode selects what the home route shows.
type HomepageMode string

const (
	HomepageLatest HomepageMode = "latest"
	HomepageStatic HomepageMode = "static"
)

// Store location of the singleton settings document.
const (
	Collection = "settings"
	DocumentID = "site"
)

// Typography carries font overrides applied on top of the theme.
type Typography struct {
	BodyFont    string `json:"bodyFont,omitempty"`
	HeadingFont string `json:"headingFont,omitempty"`
	BaseSize    string `json:"baseSize,omitempty"`
}

// SiteSettings is an immutable snapshot of the site configuration. Updates
// arrive as new snapshots; values are never mutated in place.
type SiteSettings struct {
	Title             string            `json:"title,omitempty"`
	ActiveTheme       string            `json:"activeTheme"`
	ThemeVariant      string            `json:"themeVariant,omitempty"`
	HomepageType      HomepageMode      `json:"homepageType"`
	HomepagePageID    string            `json:"homepagePageId,omitempty"`
	MenuLocations     map[string]string `json:"menuLocations,omitempty"`
	HideAllPageTitles bool              `json:"hideAllPageTitles,omitempty"`
	Typography        Typography        `json:"typography,omitzero"`
	Colors            map[string]string `json:"colors,omitempty"`
}

// StaticHomepage reports whether a static page is configured as home.
func (s SiteSettings) StaticHomepage() bool {
	return s.HomepageType == HomepageStatic && s.HomepagePageID != ""
}

// IsHomepage reports whether pageID is the configured static homepage.
func (s SiteSettings) IsHomepage(pageID string) bool {
	return s.StaticHomepage() && pageID != "" && s.HomepagePageID == pageID
}

// MenuFor returns the menu assigned to location.
func (s SiteSettings) MenuFor(location string) (string, bool) {
	id, ok := s.MenuLocations[location]
	return id, ok && id != ""
}

// Clone returns a deep copy so callers can derive new snapshots safely.
func (s SiteSettings) Clone() SiteSettings {
	s.MenuLocations = maps.Clone(s.MenuLocations)
	s.Colors = maps.Clone(s.Colors)
	return s
}

// Default returns the settings used before the first snapshot arrives.
func Default() SiteSettings {
	return SiteSettings{HomepageType: HomepageLatest}
}
