package tiercache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/bus"
	"github.com/unkn0wn-root/tiercache/local"
	"github.com/unkn0wn-root/tiercache/remote"
)

// Cache is the coherent two-tier cache surface. Values are opaque byte
// sequences; absence is a normal result (ok=false), never an error.
//
// Each method comes in a synchronous and a context-taking pair with
// identical outcomes modulo cancellation. Cancellation is honored at
// suspension points before a remote mutation took effect; once L2 has been
// written there is no rollback and coherence is restored by the remaining
// steps, a later operation, or invalidation delivery.
type Cache interface {
	// Get returns the cached value. An L1 hit involves no network I/O.
	Get(key string) ([]byte, bool, error)
	GetContext(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites the entry in both tiers (last writer wins) and
	// broadcasts an invalidation so peers drop their stale copies.
	Set(key string, value []byte, policy ExpirationPolicy) error
	SetContext(ctx context.Context, key string, value []byte, policy ExpirationPolicy) error

	// Remove deletes the entry from both tiers and broadcasts.
	Remove(key string) error
	RemoveContext(ctx context.Context, key string) error

	// Refresh extends the remote entry's TTL per its stored sliding
	// metadata. L1 copies (here and on peers) are left alone; their
	// effective TTL may diverge until the next Get/Set/Remove.
	Refresh(key string) error
	RefreshContext(ctx context.Context, key string) error

	// Close unsubscribes from the invalidation channel and stops the
	// subscriber loop. With Options.CloseStores it also closes the
	// collaborators.
	Close(ctx context.Context) error
}

// Options wire a cache instance. Name, Local, Remote and Bus are required;
// the rest have sensible defaults.
type Options struct {
	// Name is the instance prefix. Every L1/L2 access uses Name + key,
	// and the invalidation channel is derived from it, so instances
	// sharing a Name (and backends) coordinate while differently named
	// instances are isolated.
	Name   string
	Local  local.Store
	Remote remote.Store
	Bus    bus.Bus

	Codec  bus.Codec // wire codec for invalidation messages; nil => msgpack
	Logger Logger    // if nil, NopLogger is used
	Hooks  Hooks     // if nil, NopHooks is used

	// LocalTTL bounds the lifetime of L1 entries whose policy pins no
	// absolute deadline. Without it, a peer's natural L2 expiry (which
	// broadcasts nothing) could leave such copies stale forever.
	// 0 => 10m.
	LocalTTL time.Duration

	// CloseStores makes Close also close Local, Remote and Bus. Leave
	// false when those share clients with other components.
	CloseStores bool
}

// New validates opts, generates the instance's publisher identity and
// subscribes to the invalidation channel. The returned Cache must be
// Closed to release the subscription.
func New(opts Options) (Cache, error) {
	return newCache(opts)
}
