package live

import (
	"context"
	"sync"

	"github.com/goliatone/go-site/internal/store"
)

// Resolver derives a value from a settled snapshot.
type Resolver[V any] func(ctx context.Context, snap store.Snapshot) (V, error)

// Update is delivered by Watch.
type Update[V any] struct {
	// Loading is true until the first snapshot settled.
	Loading bool
	Value   V
	Err     error
}

// Watch subscribes to q and re-runs resolve on every snapshot. Only the
// resolution of the latest snapshot is delivered; loading snapshots are
// forwarded directly so consumers can tell pending from empty.
func Watch[V any](ctx context.Context, r store.Reader, q store.Query, resolve Resolver[V], fn func(Update[V])) (store.Unsubscribe, error) {
	var mu sync.Mutex
	emit := func(u Update[V]) {
		mu.Lock()
		defer mu.Unlock()
		fn(u)
	}
	scope := NewScope(ctx, func(res Result[uint64, V]) {
		emit(Update[V]{Value: res.Value, Err: res.Err})
	})
	var seq uint64
	unsubscribe, err := r.Subscribe(ctx, q, func(snap store.Snapshot) {
		seq++
		if snap.Loading {
			emit(Update[V]{Loading: true})
			return
		}
		scope.Run(seq, func(runCtx context.Context) (V, error) {
			if snap.Err != nil {
				var zero V
				return zero, snap.Err
			}
			return resolve(runCtx, snap)
		})
	})
	if err != nil {
		scope.Close()
		return nil, err
	}
	return func() {
		unsubscribe()
		scope.Close()
	}, nil
}
