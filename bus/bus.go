// Package bus defines the broadcast invalidation transport used by
// tiercache.
//
// The transport is fire-and-forget fan-out: no ordering, no delivery
// acknowledgment, and no replay. Subscribers typically receive published
// messages; coherence does not depend on it because every local entry also
// carries its own TTL.
package bus

import "context"

// Message is the invalidation notice broadcast after a write or removal.
// Key is the raw (unprefixed) cache key; each receiver re-applies its own
// prefix. Publisher is the opaque per-instance identity used to filter out
// self-originated messages.
type Message struct {
	Key       string `msgpack:"k" cbor:"k" json:"k"`
	Publisher string `msgpack:"p" cbor:"p" json:"p"`
}

// Codec (de)serializes a Message for the wire. Any format preserving the
// two fields works; implementations live in the codec package.
type Codec interface {
	Encode(Message) ([]byte, error)
	Decode([]byte) (Message, error)
}

// Subscription is a live feed of raw message payloads for one channel.
type Subscription interface {
	// Messages returns the payload feed. The channel is closed when the
	// subscription ends.
	Messages() <-chan []byte

	// Close unsubscribes and releases the feed.
	Close(ctx context.Context) error
}

// Bus is a publish/subscribe transport. Must be safe for concurrent use.
type Bus interface {
	// Publish broadcasts payload on channel. It must not block on
	// subscriber processing.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe opens a feed for channel. The feed stays open until the
	// returned Subscription (or the Bus) is closed.
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
