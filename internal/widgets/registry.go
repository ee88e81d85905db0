package widgets

import (
	"slices"
	"strings"
	"sync"
)

// Registry maps widget types to units. Built-in and host defined units share
// it; registering an existing type replaces the unit.
type Registry struct {
	mu      sync.RWMutex
	units   map[string]Unit
	aliases map[string]string
}

// NewRegistry constructs a registry holding units.
func NewRegistry(units ...Unit) *Registry {
	r := &Registry{
		units:   make(map[string]Unit),
		aliases: make(map[string]string),
	}
	for _, unit := range units {
		r.Register(unit)
	}
	return r
}

// Register adds unit under its type.
func (r *Registry) Register(unit Unit) {
	if unit == nil {
		return
	}
	name := canonicalKey(unit.Type())
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[name] = unit
}

// Alias makes alias resolve to the unit registered as target.
func (r *Registry) Alias(alias, target string) {
	alias, target = canonicalKey(alias), canonicalKey(target)
	if alias == "" || target == "" || alias == target {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
}

// Lookup resolves a widget type, following aliases.
func (r *Registry) Lookup(kind string) (Unit, bool) {
	name := canonicalKey(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	unit, ok := r.units[name]
	return unit, ok
}

// Types lists registered widget types in lexical order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.units))
	for name := range r.units {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func canonicalKey(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
