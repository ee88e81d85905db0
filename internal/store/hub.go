package store

import (
	"context"
	"sync"
)

// Fetcher evaluates a query against the backend's current state.
type Fetcher func(ctx context.Context, q Query) ([]Document, error)

// Hub fans change notifications out to subscriptions. Each subscription owns
// a single slot mailbox, so bursts of changes coalesce into the latest
// snapshot and a slow consumer never blocks writers.
type Hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]*subscription
	closed bool
}

type subscription struct {
	collection string
	query      Query
	fetch      Fetcher
	notify     chan struct{}
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[int]*subscription{}}
}

// Subscribe registers fn for q. fn first receives a loading snapshot and then
// the initial result.
func (h *Hub) Subscribe(ctx context.Context, q Query, fetch Fetcher, fn func(Snapshot)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return func() {}, nil
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		collection: q.Collection,
		query:      q,
		fetch:      fetch,
		notify:     make(chan struct{}, 1),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	sub.notify <- struct{}{}
	go sub.run(subCtx, fn)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			cancel()
			<-sub.done
		})
	}, nil
}

// Notify marks every subscription on collection as stale.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.collection != collection {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// Close cancels all subscriptions and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.subs))
	for id, sub := range h.subs {
		subs = append(subs, sub)
		delete(h.subs, id)
	}
	h.closed = true
	h.mu.Unlock()
	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *subscription) run(ctx context.Context, fn func(Snapshot)) {
	defer close(s.done)
	fn(Snapshot{Loading: true})
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		}
		docs, err := s.fetch(ctx, s.query)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			fn(Snapshot{Err: err})
			continue
		}
		fn(Snapshot{Documents: docs})
	}
}
