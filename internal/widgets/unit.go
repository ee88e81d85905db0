package widgets

import (
	"context"
	"errors"
	"maps"

	"github.com/goliatone/go-site/internal/helpers"
	"github.com/goliatone/go-site/internal/markup"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/validation"
	"github.com/goliatone/go-site/widgets"
)

var (
	// ErrNotConfigured is returned by Fetch when the instance lacks the
	// configuration it needs to load anything.
	ErrNotConfigured = errors.New("widgets: not configured")
	// ErrNoData marks a configured fetch that found nothing to show.
	ErrNoData = errors.New("widgets: no data")
)

// Request is the input of a unit fetch.
type Request struct {
	Instance widgets.Instance
	// Config is the instance configuration merged over the unit defaults.
	Config map[string]any
}

// Unit renders one widget type. Fetch may block on external reads; Render is
// a pure function of its arguments.
type Unit interface {
	Type() string
	Schema() *validation.Schema
	Defaults() map[string]any
	Fetch(ctx context.Context, req Request) (any, error)
	Render(inst widgets.Instance, config map[string]any, data any) widgets.Output
}

// Deps are the collaborators shared by the built-in units.
type Deps struct {
	Reader  store.Reader
	Helpers helpers.Client
	Markup  *markup.Renderer
	// DefaultLocation is used by the weather widget when the instance has
	// none configured.
	DefaultLocation string
}

func (d Deps) withDefaults() Deps {
	if d.Helpers == nil {
		d.Helpers = helpers.Unavailable{}
	}
	if d.Markup == nil {
		d.Markup = markup.New(markup.Options{})
	}
	return d
}

// MergeConfig overlays config on defaults without mutating either.
func MergeConfig(defaults, config map[string]any) map[string]any {
	out := maps.Clone(defaults)
	if out == nil {
		out = make(map[string]any, len(config))
	}
	maps.Copy(out, config)
	return out
}

// unitBase carries the static parts of a built-in unit.
type unitBase struct {
	kind     string
	schema   *validation.Schema
	defaults map[string]any
}

func (b unitBase) Type() string               { return b.kind }
func (b unitBase) Schema() *validation.Schema { return b.schema }
func (b unitBase) Defaults() map[string]any   { return maps.Clone(b.defaults) }
