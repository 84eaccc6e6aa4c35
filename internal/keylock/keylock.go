// Package keylock provides a per-key mutual-exclusion registry scoped to one
// process. It serializes concurrent work on the same key while letting work
// on different keys proceed fully in parallel.
//
// Entries are reference-counted: an entry exists only while at least one
// holder or waiter references its key, so the registry cannot grow beyond
// the number of in-flight keys. This is not a distributed lock.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{} // capacity 1
	refs int
}

// Registry is a concurrent key-to-mutex map. The zero value is not usable;
// construct with New.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Registry {
	return &Registry{locks: make(map[string]*entry)}
}

// Acquire blocks until the caller holds the key's lock or ctx is done.
// On success it returns a release function that must be called exactly once.
func (r *Registry) Acquire(ctx context.Context, key string) (release func(), err error) {
	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		r.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			r.unref(key, e)
		})
	}, nil
}

func (r *Registry) unref(key string, e *entry) {
	r.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(r.locks, key)
	}
	r.mu.Unlock()
}

// Len reports the number of keys currently locked or contended.
func (r *Registry) Len() int {
	r.mu.Lock()
	n := len(r.locks)
	r.mu.Unlock()
	return n
}
