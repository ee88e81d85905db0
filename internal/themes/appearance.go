package themes

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-site/settings"
	"github.com/goliatone/go-site/themes"
)

// DefaultCSSPrefix prefixes CSS variables emitted for themes.
const DefaultCSSPrefix = "site"

// Appearance is the visual configuration handed to renderers: the go-theme
// selection for the active variant plus site level overrides.
type Appearance struct {
	Theme   string
	Variant string
	Tokens  map[string]string
	CSSVars map[string]string
}

// Appearances selects go-theme manifests for resolved themes.
type Appearances struct {
	registry       *gotheme.MemoryRegistry
	defaultTheme   string
	defaultVariant string
	prefix         string

	mu         sync.Mutex
	registered map[themes.Name]bool
}

// NewAppearances registers a manifest for every definition in reg.
func NewAppearances(reg *Registry, defaultVariant, cssPrefix string) (*Appearances, error) {
	if strings.TrimSpace(cssPrefix) == "" {
		cssPrefix = DefaultCSSPrefix
	}
	a := &Appearances{
		registry:       gotheme.NewRegistry(),
		defaultTheme:   string(reg.Default().Name),
		defaultVariant: strings.TrimSpace(defaultVariant),
		prefix:         strings.TrimSpace(cssPrefix),
		registered:     map[themes.Name]bool{},
	}
	for _, name := range reg.Names() {
		if err := a.register(name); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Appearances) register(name themes.Name) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registered[name] {
		return nil
	}
	if err := a.registry.Register(&gotheme.Manifest{Name: string(name), Version: "1.0.0"}); err != nil {
		return fmt.Errorf("themes: register manifest %s: %w", name, err)
	}
	a.registered[name] = true
	return nil
}

// Select returns the appearance of name for the settings' variant with the
// site colour and typography overrides merged over the theme's variables.
// A failed selection still yields the overrides.
func (a *Appearances) Select(name themes.Name, s settings.SiteSettings) (Appearance, error) {
	out := Appearance{
		Theme:   string(name),
		Variant: strings.TrimSpace(s.ThemeVariant),
		Tokens:  map[string]string{},
		CSSVars: map[string]string{},
	}
	if out.Variant == "" {
		out.Variant = a.defaultVariant
	}

	var selectErr error
	if a.registry != nil {
		selector := gotheme.Selector{
			Registry:       a.registry,
			DefaultTheme:   a.defaultTheme,
			DefaultVariant: a.defaultVariant,
		}
		selection, err := selector.Select(string(name), out.Variant)
		if err != nil && out.Variant != "" {
			selection, err = selector.Select(string(name), "")
		}
		if err != nil {
			selectErr = fmt.Errorf("themes: select appearance %s: %w", name, err)
		} else if selection != nil {
			out.Theme = selection.Theme
			if selection.Variant != "" {
				out.Variant = selection.Variant
			}
			maps.Copy(out.Tokens, selection.Tokens())
			maps.Copy(out.CSSVars, selection.CSSVariables(a.prefix))
		}
	}
	maps.Copy(out.CSSVars, Overrides(a.cssPrefix(), s))
	return out, selectErr
}

func (a *Appearances) cssPrefix() string {
	if a == nil || a.prefix == "" {
		return DefaultCSSPrefix
	}
	return a.prefix
}

// Overrides turns site colour and typography settings into CSS variables.
func Overrides(prefix string, s settings.SiteSettings) map[string]string {
	out := map[string]string{}
	keys := make([]string, 0, len(s.Colors))
	for k := range s.Colors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.TrimSpace(s.Colors[k])
		if v == "" {
			continue
		}
		out[cssVar(prefix, "color", k)] = v
	}
	if v := strings.TrimSpace(s.Typography.BodyFont); v != "" {
		out[cssVar(prefix, "font", "body")] = v
	}
	if v := strings.TrimSpace(s.Typography.HeadingFont); v != "" {
		out[cssVar(prefix, "font", "heading")] = v
	}
	if v := strings.TrimSpace(s.Typography.BaseSize); v != "" {
		out[cssVar(prefix, "font", "size")] = v
	}
	return out
}

func cssVar(prefix, group, key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.NewReplacer(" ", "-", "_", "-", ".", "-").Replace(key)
	return "--" + prefix + "-" + group + "-" + key
}
