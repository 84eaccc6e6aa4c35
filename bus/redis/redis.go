// Package redis implements the tiercache invalidation bus on Redis pub/sub.
package redis

import (
	"context"
	"errors"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tiercache/bus"
)

var ErrNilClient = errors.New("redis bus: nil client")

type Bus struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ bus.Bus = (*Bus)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this bus exclusively owns the client
}

func New(cfg Config) (*Bus, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Bus{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

func (b *Bus) Subscribe(ctx context.Context, channel string) (bus.Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel)
	// wait for the subscription to be confirmed so messages published
	// after Subscribe returns are not lost
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	s := &subscription{
		ps:   ps,
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go s.forward()
	return s, nil
}

// Close releases the underlying redis client only when this bus owns it.
func (b *Bus) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

type subscription struct {
	ps        *goredis.PubSub
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscription) Messages() <-chan []byte { return s.out }

func (s *subscription) Close(context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *subscription) forward() {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}
