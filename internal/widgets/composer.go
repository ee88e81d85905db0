// Package widgets resolves widget areas into ordered instances and renders
// instances through registered widget units.
package widgets

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/pkg/interfaces"
	"github.com/goliatone/go-site/widgets"
)

// AreaStatus distinguishes a pending lookup from a confirmed empty area.
type AreaStatus string

const (
	AreaLoading AreaStatus = "loading"
	AreaEmpty   AreaStatus = "empty"
	AreaReady   AreaStatus = "ready"
)

// AreaRequest names the slot to compose.
type AreaRequest struct {
	Name   string
	PageID string
	// PageSpecific selects the (Name, PageID) areas instead of the global
	// ones.
	PageSpecific bool
	// FallbackToGlobal uses the global areas when a page specific lookup
	// finds no area records.
	FallbackToGlobal bool
}

// Key identifies the request for scope keyed resolution.
func (r AreaRequest) Key() string {
	if !r.PageSpecific {
		return r.Name
	}
	return r.Name + "@" + r.PageID
}

// AreaResult is the composed slot.
type AreaResult struct {
	Request   AreaRequest
	Status    AreaStatus
	Areas     []widgets.Area
	Instances []widgets.Instance
	// Err is set when the lookup failed. The status is empty in that case so
	// the slot degrades instead of failing the page.
	Err error
}

// Empty reports a settled result without instances.
func (r AreaResult) Empty() bool { return r.Status == AreaEmpty }

// ComposerOption customises a Composer.
type ComposerOption func(*Composer)

// WithComposerLogger sets the composer logger.
func WithComposerLogger(logger interfaces.Logger) ComposerOption {
	return func(c *Composer) { c.logger = logger }
}

// WithComposerDiagnostics sets the logger for permission failures.
func WithComposerDiagnostics(logger interfaces.Logger) ComposerOption {
	return func(c *Composer) { c.diagnostics = logger }
}

// Composer joins widget areas to their instances. It never writes.
type Composer struct {
	reader      store.Reader
	logger      interfaces.Logger
	diagnostics interfaces.Logger
}

// NewComposer builds a composer over reader.
func NewComposer(reader store.Reader, opts ...ComposerOption) *Composer {
	c := &Composer{reader: reader}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = logging.Ensure(c.logger)
	c.diagnostics = logging.Ensure(c.diagnostics)
	return c
}

// AreasQuery selects every area with the requested name. Scope filtering
// happens in SelectAreas so page specific and fallback lookups share a
// single read.
func AreasQuery(name string) store.Query {
	return store.Collection(widgets.CollectionAreas).Eq("name", strings.TrimSpace(name))
}

// InstancesQuery selects the instances of the given areas.
func InstancesQuery(areaIDs []string) store.Query {
	values := make([]any, len(areaIDs))
	for i, id := range areaIDs {
		values[i] = id
	}
	return store.Collection(widgets.CollectionInstances).In("widgetAreaId", values...)
}

// SelectAreas picks the areas a request resolves to, in encounter order.
func SelectAreas(req AreaRequest, candidates []widgets.Area) []widgets.Area {
	name := strings.TrimSpace(req.Name)
	var scoped, global []widgets.Area
	for _, area := range candidates {
		if strings.TrimSpace(area.Name) != name {
			continue
		}
		switch {
		case area.Global():
			global = append(global, area)
		case area.PageID == req.PageID:
			scoped = append(scoped, area)
		}
	}
	if !req.PageSpecific {
		return global
	}
	if len(scoped) == 0 && req.FallbackToGlobal {
		return global
	}
	return scoped
}

// JoinInstances groups instances by area in area order, sorting each area's
// instances by order. Ties keep their stored order.
func JoinInstances(areas []widgets.Area, instances []widgets.Instance) []widgets.Instance {
	byArea := make(map[string][]widgets.Instance, len(areas))
	for _, inst := range instances {
		byArea[inst.WidgetAreaID] = append(byArea[inst.WidgetAreaID], inst)
	}
	out := make([]widgets.Instance, 0, len(instances))
	seen := make(map[string]bool, len(areas))
	for _, area := range areas {
		if seen[area.ID] {
			continue
		}
		seen[area.ID] = true
		list := byArea[area.ID]
		slices.SortStableFunc(list, func(a, b widgets.Instance) int {
			return a.Order - b.Order
		})
		out = append(out, list...)
	}
	return out
}

// Compose resolves req with one read per step.
func (c *Composer) Compose(ctx context.Context, req AreaRequest) AreaResult {
	areaDocs, err := c.reader.Get(ctx, AreasQuery(req.Name))
	if err != nil {
		return c.failed(req, err)
	}
	return c.composeFromAreas(ctx, req, areaDocs)
}

func (c *Composer) composeFromAreas(ctx context.Context, req AreaRequest, areaDocs []store.Document) AreaResult {
	areas, err := c.decodeAreas(req, areaDocs)
	if err != nil {
		return c.failed(req, err)
	}
	if len(areas) == 0 {
		return AreaResult{Request: req, Status: AreaEmpty}
	}
	instDocs, err := c.reader.Get(ctx, InstancesQuery(areaIDs(areas)))
	if err != nil {
		return c.failed(req, err)
	}
	return c.result(req, areas, instDocs)
}

func (c *Composer) result(req AreaRequest, areas []widgets.Area, instDocs []store.Document) AreaResult {
	instances, err := store.DecodeAll[widgets.Instance](instDocs)
	if err != nil {
		return c.failed(req, err)
	}
	joined := JoinInstances(areas, instances)
	status := AreaReady
	if len(joined) == 0 {
		status = AreaEmpty
	}
	return AreaResult{Request: req, Status: status, Areas: areas, Instances: joined}
}

func (c *Composer) decodeAreas(req AreaRequest, docs []store.Document) ([]widgets.Area, error) {
	candidates, err := store.DecodeAll[widgets.Area](docs)
	if err != nil {
		return nil, err
	}
	return SelectAreas(req, candidates), nil
}

func (c *Composer) failed(req AreaRequest, err error) AreaResult {
	if store.IsPermissionDenied(err) {
		c.diagnostics.Error("widgets.area.permission_denied", "area", req.Name, "page_id", req.PageID, "error", err)
	} else {
		c.logger.Warn("widgets.area.compose_failed", "area", req.Name, "page_id", req.PageID, "error", err)
	}
	return AreaResult{Request: req, Status: AreaEmpty, Err: err}
}

// Watch keeps req composed as areas and instances change. fn first
// receives a loading result and is called again after every change once
// both subscriptions delivered. Calls to fn are serialised.
func (c *Composer) Watch(ctx context.Context, req AreaRequest, fn func(AreaResult)) (store.Unsubscribe, error) {
	w := &areaWatch{composer: c, req: req, fn: fn, ctx: ctx}
	unsubscribe, err := c.reader.Subscribe(ctx, AreasQuery(req.Name), w.onAreas)
	if err != nil {
		return nil, err
	}
	return func() {
		unsubscribe()
		w.stop()
	}, nil
}

type areaWatch struct {
	composer *Composer
	req      AreaRequest
	fn       func(AreaResult)
	ctx      context.Context

	mu        sync.Mutex
	gen       uint64
	areaKey   string
	areas     []widgets.Area
	unsubInst store.Unsubscribe
	stopped   bool

	emitMu sync.Mutex
}

func (w *areaWatch) emit(gen uint64, res AreaResult) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	w.mu.Lock()
	current := !w.stopped && w.gen == gen
	w.mu.Unlock()
	if current {
		w.fn(res)
	}
}

func (w *areaWatch) onAreas(snap store.Snapshot) {
	w.mu.Lock()
	gen := w.gen
	w.mu.Unlock()

	if snap.Loading {
		w.emit(gen, AreaResult{Request: w.req, Status: AreaLoading})
		return
	}
	if snap.Err != nil {
		w.replaceInstances(nil, "")
		w.emit(w.currentGen(), w.composer.failed(w.req, snap.Err))
		return
	}
	areas, err := w.composer.decodeAreas(w.req, snap.Documents)
	if err != nil {
		w.replaceInstances(nil, "")
		w.emit(w.currentGen(), w.composer.failed(w.req, err))
		return
	}
	ids := areaIDs(areas)
	key := strings.Join(ids, "\x00")

	w.mu.Lock()
	same := w.unsubInst != nil && key == w.areaKey
	w.areas = areas
	w.mu.Unlock()
	if same {
		return
	}
	if len(ids) == 0 {
		gen := w.replaceInstances(nil, key)
		w.emit(gen, AreaResult{Request: w.req, Status: AreaEmpty})
		return
	}
	gen = w.replaceInstances(nil, key)
	w.emit(gen, AreaResult{Request: w.req, Status: AreaLoading, Areas: areas})
	unsub, err := w.composer.reader.Subscribe(w.ctx, InstancesQuery(ids), func(inst store.Snapshot) {
		w.onInstances(gen, inst)
	})
	if err != nil {
		w.emit(gen, w.composer.failed(w.req, err))
		return
	}
	w.mu.Lock()
	if w.stopped || w.gen != gen {
		w.mu.Unlock()
		unsub()
		return
	}
	w.unsubInst = unsub
	w.mu.Unlock()
}

func (w *areaWatch) onInstances(gen uint64, snap store.Snapshot) {
	if snap.Loading {
		return
	}
	w.mu.Lock()
	areas := w.areas
	w.mu.Unlock()
	if snap.Err != nil {
		w.emit(gen, w.composer.failed(w.req, snap.Err))
		return
	}
	w.emit(gen, w.composer.result(w.req, areas, snap.Documents))
}

// replaceInstances drops the current instance subscription and starts a new
// generation. The old unsubscribe runs without holding the lock so an
// in-flight instance callback can finish.
func (w *areaWatch) replaceInstances(next store.Unsubscribe, key string) uint64 {
	w.mu.Lock()
	old := w.unsubInst
	w.unsubInst = next
	w.areaKey = key
	w.gen++
	gen := w.gen
	w.mu.Unlock()
	if old != nil {
		old()
	}
	return gen
}

func (w *areaWatch) currentGen() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}

func (w *areaWatch) stop() {
	w.mu.Lock()
	w.stopped = true
	old := w.unsubInst
	w.unsubInst = nil
	w.mu.Unlock()
	if old != nil {
		old()
	}
}

func areaIDs(areas []widgets.Area) []string {
	ids := make([]string, 0, len(areas))
	for _, area := range areas {
		ids = append(ids, area.ID)
	}
	return ids
}
