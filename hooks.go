package tiercache

// Hooks lightweight callbacks for high-signal coherence events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// Metadata read against the remote tier faulted; the entry was
	// treated as having no known policy and the operation proceeded.
	MetadataReadRecovered(storageKey string, err error)

	// A received invalidation payload could not be decoded and was
	// skipped.
	InvalidationDropped(payloadLen int, err error)

	// Broadcasting an invalidation failed after the remote write
	// already succeeded.
	PublishError(key string, err error)

	// A peer's invalidation evicted key from the local tier.
	PeerEviction(key string)

	// The entry vanished from the remote tier between the existence
	// check and the fetch (race with removal or expiry).
	RemoteVanished(storageKey string)

	// Local tier returned ok=false on Set (backpressure/eviction).
	LocalSetRejected(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) MetadataReadRecovered(string, error) {}
func (NopHooks) InvalidationDropped(int, error)      {}
func (NopHooks) PublishError(string, error)          {}
func (NopHooks) PeerEviction(string)                 {}
func (NopHooks) RemoteVanished(string)               {}
func (NopHooks) LocalSetRejected(string)             {}
