package codec

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/tiercache/bus"
)

// Msgpack serializes messages with vmihailenco/msgpack/v5.
// The zero value is ready to use. Compact and fast; this is the default.
type Msgpack struct{}

var _ Codec = Msgpack{}

func (Msgpack) Encode(m bus.Message) ([]byte, error) {
	return msgpack.Marshal(m)
}

func (Msgpack) Decode(b []byte) (bus.Message, error) {
	var m bus.Message
	err := msgpack.Unmarshal(b, &m)
	return m, err
}
