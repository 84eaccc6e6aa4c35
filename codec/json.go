package codec

import (
	"encoding/json"

	"github.com/unkn0wn-root/tiercache/bus"
)

// JSON serializes messages with encoding/json. Interoperable and easy to
// inspect on the wire at the cost of size.
type JSON struct{}

var _ Codec = JSON{}

func (JSON) Encode(m bus.Message) ([]byte, error) { return json.Marshal(m) }

func (JSON) Decode(b []byte) (bus.Message, error) {
	var m bus.Message
	err := json.Unmarshal(b, &m)
	return m, err
}
