// Package helpers is the contract for external content helpers (location,
// weather, sports and market data) used by data driven widgets.
package helpers

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("helpers: permission denied")
	ErrUnavailable      = errors.New("helpers: unavailable")
	ErrNotFound         = errors.New("helpers: not found")
)

// Coordinates is a point on the map.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Forecast is current weather for a place.
type Forecast struct {
	Location     string  `json:"location"`
	TemperatureC float64 `json:"temperatureC"`
	Condition    string  `json:"condition"`
	Icon         string  `json:"icon,omitempty"`
}

// Score is one live or finished match.
type Score struct {
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
	Status    string `json:"status"`
}

// Standing is one row of a league table.
type Standing struct {
	Position int    `json:"position"`
	Team     string `json:"team"`
	Played   int    `json:"played"`
	Points   int    `json:"points"`
}

// Quote is one market ticker entry.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

// Client fetches external data. Implementations return errors as values and
// never panic; widgets turn failures into an unavailable state.
type Client interface {
	Geolocate(ctx context.Context) (Coordinates, error)
	ReverseGeocode(ctx context.Context, at Coordinates) (string, error)
	Weather(ctx context.Context, location string) (Forecast, error)
	LiveScores(ctx context.Context, sport string) ([]Score, error)
	SportingTable(ctx context.Context, league string) ([]Standing, error)
	Ticker(ctx context.Context, market string) ([]Quote, error)
}

type coordinatesKey struct{}

// WithCoordinates attaches visitor supplied coordinates to ctx. Geolocate
// implementations return them instead of looking the visitor up.
func WithCoordinates(ctx context.Context, at Coordinates) context.Context {
	return context.WithValue(ctx, coordinatesKey{}, at)
}

// CoordinatesFrom returns coordinates attached with WithCoordinates.
func CoordinatesFrom(ctx context.Context) (Coordinates, bool) {
	at, ok := ctx.Value(coordinatesKey{}).(Coordinates)
	return at, ok
}

// Unavailable is a Client whose every call fails with ErrUnavailable. It is
// the default when no helper endpoint is configured.
type Unavailable struct{}

var _ Client = Unavailable{}

func (Unavailable) Geolocate(ctx context.Context) (Coordinates, error) {
	if at, ok := CoordinatesFrom(ctx); ok {
		return at, nil
	}
	return Coordinates{}, ErrUnavailable
}

func (Unavailable) ReverseGeocode(context.Context, Coordinates) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Weather(context.Context, string) (Forecast, error) {
	return Forecast{}, ErrUnavailable
}

func (Unavailable) LiveScores(context.Context, string) ([]Score, error) {
	return nil, ErrUnavailable
}

func (Unavailable) SportingTable(context.Context, string) ([]Standing, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Ticker(context.Context, string) ([]Quote, error) {
	return nil, ErrUnavailable
}
