package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/tiercache/bus"
)

func TestCodecsRoundTripMessage(t *testing.T) {
	msg := bus.Message{Key: "user:42", Publisher: "5f1c3e9a"}

	codecs := map[string]Codec{
		"msgpack":  Msgpack{},
		"cbor":     MustCBOR(false),
		"cbor-det": MustCBOR(true),
		"json":     JSON{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(msg)
			require.NoError(t, err)
			got, err := c.Decode(b)
			require.NoError(t, err)
			require.Equal(t, msg, got)
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for name, c := range map[string]Codec{"msgpack": Msgpack{}, "cbor": MustCBOR(false), "json": JSON{}} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode([]byte("\x00\x01not-a-message"))
			require.Error(t, err)
		})
	}
}

func TestDeterministicCBORIsStable(t *testing.T) {
	c := MustCBOR(true)
	msg := bus.Message{Key: "k", Publisher: "p"}
	a, err := c.Encode(msg)
	require.NoError(t, err)
	b, err := c.Encode(msg)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
