// Package live runs keyed effects whose results only commit while their key
// is still current, so a slow resolution for an old slug or area can never
// overwrite the newer one.
package live

import (
	"context"
	"sync"
)

// Result is the outcome of one run.
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// Scope runs at most one effect per key change. Starting a run cancels the
// previous run's context; results of superseded runs are discarded.
type Scope[K comparable, V any] struct {
	parent context.Context
	commit func(Result[K, V])

	mu       sync.Mutex
	gen      uint64
	key      K
	hasKey   bool
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
	commitMu sync.Mutex
}

// NewScope returns a scope whose runs derive from parent. commit receives
// every result that is still current when it settles. Commits are
// serialised.
func NewScope[K comparable, V any](parent context.Context, commit func(Result[K, V])) *Scope[K, V] {
	if parent == nil {
		parent = context.Background()
	}
	return &Scope[K, V]{parent: parent, commit: commit}
}

// Run starts fn for key, superseding any in-flight run.
func (s *Scope[K, V]) Run(key K, fn func(ctx context.Context) (V, error)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.key, s.hasKey = key, true
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer cancel()
		value, err := fn(ctx)
		s.commitMu.Lock()
		defer s.commitMu.Unlock()
		if !s.current(gen) || ctx.Err() != nil {
			return
		}
		if s.commit != nil {
			s.commit(Result[K, V]{Key: key, Value: value, Err: err})
		}
	}()
}

// Key returns the current key.
func (s *Scope[K, V]) Key() (K, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.hasKey
}

// Wait blocks until every started run returned.
func (s *Scope[K, V]) Wait() {
	s.wg.Wait()
}

// Close cancels the in-flight run and ignores later Run calls.
func (s *Scope[K, V]) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scope[K, V]) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.gen == gen
}
