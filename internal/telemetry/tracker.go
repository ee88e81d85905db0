// Package telemetry records page views and notification reads off the
// render path. Tracking never blocks: when the buffer is full the event is
// dropped and counted.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-site/internal/commands"
	"github.com/goliatone/go-site/internal/identity"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/pkg/interfaces"
)

// DefaultBuffer is the queue size used when Config.Buffer is not set.
const DefaultBuffer = 256

// Backend is the store telemetry reads and writes.
type Backend interface {
	store.Reader
	store.Writer
}

// Config sizes the tracker.
type Config struct {
	Buffer  int
	Timeout time.Duration
}

// Stats are cumulative counters.
type Stats struct {
	Processed uint64
	Failed    uint64
	Dropped   uint64
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithNow overrides the clock used for events without a timestamp.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

type job func(ctx context.Context) error

// Tracker queues telemetry commands for a background worker.
type Tracker struct {
	backend   Backend
	pageViews *commands.Handler[TrackPageView]
	reads     *commands.Handler[MarkNotificationRead]
	logger    interfaces.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}

	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewTracker starts a tracker writing to backend.
func NewTracker(backend Backend, cfg Config, opts ...Option) *Tracker {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	t := &Tracker{
		backend: backend,
		now:     time.Now,
		jobs:    make(chan job, cfg.Buffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.logger = logging.Ensure(t.logger)

	t.pageViews = commands.NewHandler[TrackPageView](t.recordPageView,
		commands.WithTimeout[TrackPageView](cfg.Timeout),
		commands.WithLogger[TrackPageView](t.logger),
		commands.WithOperation[TrackPageView]("track_page_view"),
		commands.WithTelemetry(commands.DefaultTelemetry[TrackPageView](t.logger)),
	)
	t.reads = commands.NewHandler[MarkNotificationRead](t.markRead,
		commands.WithTimeout[MarkNotificationRead](cfg.Timeout),
		commands.WithLogger[MarkNotificationRead](t.logger),
		commands.WithOperation[MarkNotificationRead]("mark_notification_read"),
		commands.WithTelemetry(commands.DefaultTelemetry[MarkNotificationRead](t.logger)),
	)

	go t.run()
	return t
}

// TrackPageView queues msg. It reports false when the event was dropped.
func (t *Tracker) TrackPageView(msg TrackPageView) bool {
	if msg.At.IsZero() {
		msg.At = t.now()
	}
	return t.enqueue(func(ctx context.Context) error { return t.pageViews.Execute(ctx, msg) })
}

// MarkNotificationRead queues msg. It reports false when the event was
// dropped.
func (t *Tracker) MarkNotificationRead(msg MarkNotificationRead) bool {
	if msg.At.IsZero() {
		msg.At = t.now()
	}
	return t.enqueue(func(ctx context.Context) error { return t.reads.Execute(ctx, msg) })
}

func (t *Tracker) enqueue(j job) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return false
	}
	select {
	case t.jobs <- j:
		return true
	default:
		t.dropped.Add(1)
		t.logger.Warn("telemetry.queue.full")
		return false
	}
}

func (t *Tracker) run() {
	defer close(t.done)
	for j := range t.jobs {
		if err := j(context.Background()); err != nil {
			t.failed.Add(1)
			continue
		}
		t.processed.Add(1)
	}
}

// Stats returns the current counters.
func (t *Tracker) Stats() Stats {
	return Stats{
		Processed: t.processed.Load(),
		Failed:    t.failed.Load(),
		Dropped:   t.dropped.Load(),
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to
// end.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.jobs)
	}
	t.mu.Unlock()
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) recordPageView(ctx context.Context, msg TrackPageView) error {
	key := msg.ItemID
	if key == "" {
		key = msg.Slug
	}
	at := msg.At.UTC()
	doc := store.Document{
		"id":       identity.EventID("page_view", fmt.Sprintf("%s:%s:%d", msg.PageType, key, at.UnixNano())),
		"itemId":   msg.ItemID,
		"slug":     msg.Slug,
		"pageType": string(msg.PageType),
		"at":       at.Format(time.RFC3339Nano),
	}
	return t.backend.Put(ctx, CollectionPageViews, doc)
}

func (t *Tracker) markRead(ctx context.Context, msg MarkNotificationRead) error {
	doc, err := t.backend.Document(ctx, CollectionNotifications, msg.ID)
	if err != nil {
		return err
	}
	doc["read"] = true
	doc["readAt"] = msg.At.UTC().Format(time.RFC3339Nano)
	return t.backend.Put(ctx, CollectionNotifications, doc)
}
