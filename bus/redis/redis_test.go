package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/tiercache/bus"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	b, err := New(Config{Client: client, CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func recv(t *testing.T, sub bus.Subscription) []byte {
	t.Helper()
	select {
	case p, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed early")
		return p
	case <-time.After(2 * time.Second):
		t.Fatalf("no message within deadline")
		return nil
	}
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilClient)
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "invalidation")
	require.NoError(t, err)
	defer sub.Close(ctx)

	require.NoError(t, b.Publish(ctx, "invalidation", []byte("payload")))
	require.Equal(t, []byte("payload"), recv(t, sub))
}

func TestChannelsAreIsolated(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	subA, err := b.Subscribe(ctx, "aChannel")
	require.NoError(t, err)
	defer subA.Close(ctx)
	subB, err := b.Subscribe(ctx, "bChannel")
	require.NoError(t, err)
	defer subB.Close(ctx)

	require.NoError(t, b.Publish(ctx, "aChannel", []byte("for-a")))
	require.Equal(t, []byte("for-a"), recv(t, subA))

	select {
	case p := <-subB.Messages():
		t.Fatalf("bChannel received foreign payload %q", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEverySubscriberReceivesFanOut(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub1, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	defer sub1.Close(ctx)
	sub2, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	defer sub2.Close(ctx)

	require.NoError(t, b.Publish(ctx, "c", []byte("x")))
	require.Equal(t, []byte("x"), recv(t, sub1))
	require.Equal(t, []byte("x"), recv(t, sub2))
}

func TestCloseEndsMessageFeed(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, sub.Close(ctx))
	require.NoError(t, sub.Close(ctx)) // idempotent

	select {
	case _, ok := <-sub.Messages():
		require.False(t, ok, "feed should be closed")
	case <-time.After(2 * time.Second):
		t.Fatalf("feed not closed after unsubscribe")
	}
}
