// Package codec provides wire codecs for the invalidation bus message.
//
// Any format that round-trips the two message fields is valid on the wire;
// all instances sharing a bus must agree on one. Msgpack is the default
// used by tiercache when Options.Codec is nil.
package codec

import "github.com/unkn0wn-root/tiercache/bus"

// Codec is re-exported so implementations and consumers can share one name.
type Codec = bus.Codec
