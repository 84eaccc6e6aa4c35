// Package remote defines the L2 (shared, authoritative) storage abstraction
// used by tiercache.
//
// The remote tier is the single source of truth for both existence and the
// expiration policy of an entry. Alongside each value it keeps two small
// metadata fields (absolute and sliding expiration) so that any process can
// reconstruct the policy an entry was written with.
package remote

import (
	"context"
	"time"
)

// NoExpiry is the sentinel for an unset metadata field. It is distinct from
// zero so that "expires at the epoch" and "never expires" cannot collide.
const NoExpiry int64 = -1

// Metadata is the expiration metadata persisted next to a value.
// Both fields use milliseconds; unset fields hold NoExpiry.
type Metadata struct {
	// AbsoluteUnixMilli is the absolute deadline as Unix milliseconds.
	AbsoluteUnixMilli int64
	// SlidingMillis is the sliding window duration in milliseconds.
	SlidingMillis int64
}

// None returns Metadata with both fields unset.
func None() Metadata {
	return Metadata{AbsoluteUnixMilli: NoExpiry, SlidingMillis: NoExpiry}
}

// HasAbsolute reports whether an absolute deadline is set.
func (m Metadata) HasAbsolute() bool { return m.AbsoluteUnixMilli != NoExpiry }

// HasSliding reports whether a sliding window is set.
func (m Metadata) HasSliding() bool { return m.SlidingMillis != NoExpiry }

// Absolute returns the absolute deadline. Only valid when HasAbsolute.
func (m Metadata) Absolute() time.Time { return time.UnixMilli(m.AbsoluteUnixMilli) }

// Sliding returns the sliding window. Only valid when HasSliding.
func (m Metadata) Sliding() time.Duration {
	return time.Duration(m.SlidingMillis) * time.Millisecond
}

// Store is the shared key/value tier. Must be safe for concurrent use and
// byte-for-byte transparent for values, like the local tier.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// Implementations with sliding expiration support renew the entry's
	// TTL as part of the read.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value together with its expiration metadata, replacing
	// any previous entry (last writer wins).
	Set(ctx context.Context, key string, value []byte, meta Metadata) error

	// Del removes a key.
	Del(ctx context.Context, key string) error

	// Exists reports whether key currently holds an entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Metadata reads the expiration metadata stored next to key.
	// Returns (None(), false, nil) when the key is absent.
	Metadata(ctx context.Context, key string) (Metadata, bool, error)

	// Refresh re-derives and re-applies the entry's TTL from its stored
	// metadata without reading the value. Absent keys are a no-op.
	Refresh(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
