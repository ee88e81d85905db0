package themes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-site/themes"
	"github.com/goliatone/go-site/widgets"
)

var (
	ErrDuplicateTheme    = errors.New("themes: duplicate theme")
	ErrIncompleteTheme   = errors.New("themes: theme is missing page renderers")
	ErrEmptyRegistry     = errors.New("themes: registry requires at least one theme")
	ErrThemeNameRequired = errors.New("themes: theme name required")
)

// Registry is the static map of theme definitions. The first definition is
// the default. It is built once at startup and never mutated.
type Registry struct {
	order []themes.Name
	defs  map[themes.Name]themes.Definition
}

// NewRegistry validates defs and returns a registry. Every definition needs
// a unique name and all seven renderers.
func NewRegistry(defs ...themes.Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyRegistry
	}
	r := &Registry{defs: make(map[themes.Name]themes.Definition, len(defs))}
	for _, def := range defs {
		name := themes.Name(strings.TrimSpace(string(def.Name)))
		if name == "" {
			return nil, ErrThemeNameRequired
		}
		if _, exists := r.defs[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTheme, name)
		}
		if !def.Renderers.Complete() {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteTheme, name)
		}
		def.Name = name
		r.defs[name] = def
		r.order = append(r.order, name)
	}
	return r, nil
}

// Default returns the first registered definition.
func (r *Registry) Default() themes.Definition {
	return r.defs[r.order[0]]
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (themes.Definition, bool) {
	def, ok := r.defs[themes.Name(strings.TrimSpace(name))]
	return def, ok
}

// Known reports whether name is registered.
func (r *Registry) Known(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names lists definitions in registration order.
func (r *Registry) Names() []themes.Name {
	return append([]themes.Name(nil), r.order...)
}

// Builtins returns the five bundled themes, Classic Blog first.
func Builtins() ([]themes.Definition, error) {
	specs := []struct {
		name        themes.Name
		description string
		variants    []string
	}{
		{themes.ClassicBlog, "Single column blog with a right sidebar.", []string{"light", "sepia"}},
		{themes.MagazinePro, "Grid front page with featured stories.", []string{"light", "dark"}},
		{themes.MidnightDark, "Dark palette for long form reading.", []string{"dark"}},
		{themes.Vogue, "Editorial layout with large imagery.", []string{"light"}},
		{themes.Minimal, "Typography first, no sidebar chrome.", []string{"light", "dark"}},
	}
	out := make([]themes.Definition, 0, len(specs))
	for _, spec := range specs {
		renderers, err := BundleFor(spec.name)
		if err != nil {
			return nil, err
		}
		out = append(out, themes.Definition{
			Name:          spec.name,
			Description:   spec.description,
			Renderers:     renderers,
			Slots:         []string{widgets.SlotHeader, widgets.SlotSidebar, widgets.SlotFooter},
			MenuLocations: []string{"primary", "footer"},
			Variants:      spec.variants,
		})
	}
	return out, nil
}

// BuiltinRegistry returns a registry of the bundled themes.
func BuiltinRegistry() (*Registry, error) {
	defs, err := Builtins()
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs...)
}
