// Package asynchook decouples hook consumers from the cache's hot paths.
//
// usage:
//
//	hooks := asynchook.New(myHooks, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := tiercache.New(tiercache.Options{
//	    Name:   "app:prod:user:",
//	    Local:  l1,
//	    Remote: l2,
//	    Bus:    b,
//	    Hooks:  hooks, // or myHooks directly if you don't want async
//	})
//
// Events are dropped when the queue is full; hooks are diagnostics, not a
// delivery channel.
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/tiercache"
)

type Hooks struct {
	inner tiercache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(inner tiercache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) MetadataReadRecovered(k string, err error) {
	h.try(func() { h.inner.MetadataReadRecovered(k, err) })
}

func (h *Hooks) InvalidationDropped(n int, err error) {
	h.try(func() { h.inner.InvalidationDropped(n, err) })
}

func (h *Hooks) PublishError(k string, err error) { h.try(func() { h.inner.PublishError(k, err) }) }
func (h *Hooks) PeerEviction(k string)            { h.try(func() { h.inner.PeerEviction(k) }) }
func (h *Hooks) RemoteVanished(k string)          { h.try(func() { h.inner.RemoteVanished(k) }) }
func (h *Hooks) LocalSetRejected(k string)        { h.try(func() { h.inner.LocalSetRejected(k) }) }
