package widgets

import (
	"context"
	"errors"

	"github.com/goliatone/go-site/internal/helpers"
	"github.com/goliatone/go-site/internal/validation"
	"github.com/goliatone/go-site/widgets"
)

// WeatherData is the data of the weather widget.
type WeatherData struct {
	Forecast helpers.Forecast `json:"forecast"`
	// Located is true when the forecast is for the visitor's position
	// rather than the configured default location.
	Located bool `json:"located"`

	err error
}

var weatherSchema = validation.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"defaultLocation": map[string]any{"type": "string"},
	},
})

type weatherUnit struct {
	unitBase
	client          helpers.Client
	defaultLocation string
}

func newWeather(deps Deps) Unit {
	return &weatherUnit{
		unitBase:        unitBase{kind: widgets.TypeWeather, schema: weatherSchema},
		client:          deps.Helpers,
		defaultLocation: deps.DefaultLocation,
	}
}

// Fetch tries the visitor's location first. Any failure on that path falls
// back to the configured default location. When the fallback fails too the
// widget renders its empty state.
func (u *weatherUnit) Fetch(ctx context.Context, req Request) (any, error) {
	forecast, locateErr := u.locate(ctx)
	if locateErr == nil {
		return WeatherData{Forecast: forecast, Located: true}, nil
	}
	location := stringValue(req.Config, "defaultLocation")
	if location == "" {
		location = u.defaultLocation
	}
	if location == "" {
		if errors.Is(locateErr, helpers.ErrPermissionDenied) || errors.Is(locateErr, helpers.ErrUnavailable) {
			return nil, ErrNotConfigured
		}
		return nil, locateErr
	}
	forecast, err := u.client.Weather(ctx, location)
	if err != nil {
		return WeatherData{err: errors.Join(err, locateErr)}, nil
	}
	return WeatherData{Forecast: forecast}, nil
}

func (u *weatherUnit) locate(ctx context.Context) (helpers.Forecast, error) {
	at, err := u.client.Geolocate(ctx)
	if err != nil {
		return helpers.Forecast{}, err
	}
	place, err := u.client.ReverseGeocode(ctx, at)
	if err != nil {
		return helpers.Forecast{}, err
	}
	return u.client.Weather(ctx, place)
}

func (u *weatherUnit) Render(inst widgets.Instance, _ map[string]any, data any) widgets.Output {
	weather, ok := data.(WeatherData)
	if !ok || weather.Forecast.Location == "" {
		out := widgets.Empty(inst, "Weather is unavailable.")
		out.Err = weather.err
		return out
	}
	return widgets.Rendered(inst, weather.Forecast.Location, weather)
}

// feedUnit serves the single-fetch helper widgets: live scores, league
// tables and tickers.
type feedUnit[T any] struct {
	unitBase
	key   string
	title string
	limit int
	load  func(ctx context.Context, id string) ([]T, error)
}

// Feed is the data of a feed widget.
type Feed[T any] struct {
	Items []T `json:"items"`
}

func feedSchema(key string) *validation.Schema {
	return validation.MustCompile(map[string]any{
		"type": "object",
		"properties": map[string]any{
			key:     map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer", "minimum": 1},
		},
	})
}

func newLiveScore(deps Deps) Unit {
	return &feedUnit[helpers.Score]{
		unitBase: unitBase{kind: widgets.TypeLiveScore, schema: feedSchema("sport"), defaults: map[string]any{"limit": 1}},
		key:      "sport",
		title:    "Live Score",
		limit:    1,
		load:     deps.Helpers.LiveScores,
	}
}

func newSportingTable(deps Deps) Unit {
	return &feedUnit[helpers.Standing]{
		unitBase: unitBase{kind: widgets.TypeSportingTable, schema: feedSchema("league"), defaults: map[string]any{"limit": 10}},
		key:      "league",
		title:    "Table",
		limit:    10,
		load:     deps.Helpers.SportingTable,
	}
}

func newTicker(deps Deps) Unit {
	return &feedUnit[helpers.Quote]{
		unitBase: unitBase{kind: widgets.TypeTicker, schema: feedSchema("market"), defaults: map[string]any{"limit": 5}},
		key:      "market",
		title:    "Markets",
		limit:    5,
		load:     deps.Helpers.Ticker,
	}
}

func (u *feedUnit[T]) Fetch(ctx context.Context, req Request) (any, error) {
	id := stringValue(req.Config, u.key)
	if id == "" {
		return nil, ErrNotConfigured
	}
	items, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit := intValue(req.Config, "limit", u.limit); limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return Feed[T]{Items: items}, nil
}

func (u *feedUnit[T]) Render(inst widgets.Instance, config map[string]any, data any) widgets.Output {
	feed, _ := data.(Feed[T])
	if len(feed.Items) == 0 {
		return widgets.Empty(inst, "Nothing to show right now.")
	}
	title := stringValue(config, "title")
	if title == "" {
		title = u.title
	}
	return widgets.Rendered(inst, title, feed)
}
