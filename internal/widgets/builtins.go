package widgets

import "github.com/goliatone/go-site/widgets"

// Builtins returns the units shipped with the runtime.
func Builtins(deps Deps) []Unit {
	deps = deps.withDefaults()
	return []Unit{
		newRecentPosts(deps),
		newFeaturedList(deps),
		newTagCloud(deps),
		newWeather(deps),
		newLiveScore(deps),
		newSportingTable(deps),
		newTicker(deps),
		newChart(deps),
		newHTML(deps),
		newGallery(deps),
	}
}

// BuiltinRegistry returns a registry holding the built-in units and the
// legacy "featured+list" alias.
func BuiltinRegistry(deps Deps) *Registry {
	reg := NewRegistry(Builtins(deps)...)
	reg.Alias("featured+list", widgets.TypeFeaturedList)
	return reg
}
