package widgets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-site/internal/helpers"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/validation"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/widgets"
)

// DefaultFetchTimeout bounds a single widget fetch in RenderAll and Stream.
const DefaultFetchTimeout = 3 * time.Second

// Update is one settled widget delivered by Stream.
type Update struct {
	Index  int
	Output widgets.Output
}

// RendererOption customises a Renderer.
type RendererOption func(*Renderer)

// WithFetchTimeout sets the per-widget deadline. Non-positive values keep
// the default.
func WithFetchTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRendererLogger sets the renderer logger.
func WithRendererLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) { r.logger = logger }
}

// WithRendererDiagnostics sets the logger for permission failures.
func WithRendererDiagnostics(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) { r.diagnostics = logger }
}

// Renderer turns widget instances into outputs through the registry.
type Renderer struct {
	registry    *Registry
	timeout     time.Duration
	logger      interfaces.Logger
	diagnostics interfaces.Logger
}

// NewRenderer builds a renderer over registry.
func NewRenderer(registry *Registry, opts ...RendererOption) *Renderer {
	r := &Renderer{registry: registry, timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.registry == nil {
		r.registry = NewRegistry()
	}
	r.logger = logging.Ensure(r.logger)
	r.diagnostics = logging.Ensure(r.diagnostics)
	return r
}

// Registry exposes the unit registry.
func (r *Renderer) Registry() *Registry { return r.registry }

// RenderOne fetches and renders inst, bounded only by ctx.
func (r *Renderer) RenderOne(ctx context.Context, inst widgets.Instance) widgets.Output {
	unit, config, out, ok := r.prepare(inst)
	if !ok {
		return out
	}
	data, err := r.fetch(ctx, unit, inst, config)
	return r.settle(unit, inst, config, data, err)
}

// RenderAll renders instances concurrently. A widget still fetching when its
// deadline passes renders as loading; the others are unaffected.
func (r *Renderer) RenderAll(ctx context.Context, instances []widgets.Instance) []widgets.Output {
	outputs := make([]widgets.Output, len(instances))
	var wg sync.WaitGroup
	for i, inst := range instances {
		wg.Add(1)
		go func(i int, inst widgets.Instance) {
			defer wg.Done()
			outputs[i] = r.renderWithDeadline(ctx, inst)
		}(i, inst)
	}
	wg.Wait()
	return outputs
}

// Stream delivers a loading update for every instance, then one update per
// widget as it settles. The channel is closed once every widget settled.
func (r *Renderer) Stream(ctx context.Context, instances []widgets.Instance) <-chan Update {
	ch := make(chan Update, 2*len(instances))
	for i, inst := range instances {
		ch <- Update{Index: i, Output: widgets.Loading(inst)}
	}
	var wg sync.WaitGroup
	for i, inst := range instances {
		wg.Add(1)
		go func(i int, inst widgets.Instance) {
			defer wg.Done()
			ch <- Update{Index: i, Output: r.renderWithDeadline(ctx, inst)}
		}(i, inst)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch
}

func (r *Renderer) renderWithDeadline(ctx context.Context, inst widgets.Instance) widgets.Output {
	unit, config, out, ok := r.prepare(inst)
	if !ok {
		return out
	}
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		data any
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := r.fetch(fetchCtx, unit, inst, config)
		done <- result{data: data, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && fetchCtx.Err() != nil {
			r.logger.Debug("widgets.render.deadline", "instance_id", inst.ID, "type", inst.Type)
			return widgets.Loading(inst)
		}
		return r.settle(unit, inst, config, res.data, res.err)
	case <-fetchCtx.Done():
		r.logger.Debug("widgets.render.deadline", "instance_id", inst.ID, "type", inst.Type)
		return widgets.Loading(inst)
	}
}

func (r *Renderer) prepare(inst widgets.Instance) (Unit, map[string]any, widgets.Output, bool) {
	unit, ok := r.registry.Lookup(inst.Type)
	if !ok {
		r.logger.Warn("widgets.render.unsupported", "instance_id", inst.ID, "type", inst.Type)
		return nil, nil, widgets.Unsupported(inst), false
	}
	config := MergeConfig(unit.Defaults(), inst.Config)
	if schema := unit.Schema(); schema != nil {
		if err := schema.Validate(config); err != nil {
			r.logger.Warn("widgets.render.invalid_config", "instance_id", inst.ID, "type", inst.Type, "error", err)
			out := widgets.Unconfigured(inst, "")
			out.Err = err
			return nil, nil, out, false
		}
	}
	return unit, config, widgets.Output{}, true
}

func (r *Renderer) fetch(ctx context.Context, unit Unit, inst widgets.Instance, config map[string]any) (data any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("widgets: %s fetch panicked: %v", inst.Type, rec)
		}
	}()
	return unit.Fetch(ctx, Request{Instance: inst.Clone(), Config: config})
}

func (r *Renderer) settle(unit Unit, inst widgets.Instance, config map[string]any, data any, err error) widgets.Output {
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		out := widgets.Unconfigured(inst, "")
		out.Err = err
		return out
	case errors.Is(err, ErrNoData):
		return widgets.Empty(inst, "")
	default:
		if store.IsPermissionDenied(err) || errors.Is(err, helpers.ErrPermissionDenied) {
			r.diagnostics.Error("widgets.render.permission_denied", "instance_id", inst.ID, "type", inst.Type, "error", err)
		} else {
			r.logger.Warn("widgets.render.failed", "instance_id", inst.ID, "type", inst.Type, "error", err)
		}
		return widgets.Failed(inst, err)
	}
	return unit.Render(inst, config, data)
}

// ConfigIssues returns the schema issues behind an unconfigured output.
func ConfigIssues(out widgets.Output) []validation.ValidationIssue {
	if out.State != widgets.StateUnconfigured || out.Err == nil {
		return nil
	}
	return validation.Issues(out.Err)
}
