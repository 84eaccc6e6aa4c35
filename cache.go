package tiercache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/tiercache/bus"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/internal/keylock"
	"github.com/unkn0wn-root/tiercache/local"
	"github.com/unkn0wn-root/tiercache/remote"
)

const defaultLocalTTL = 10 * time.Minute

type cache struct {
	name   string
	local  local.Store
	remote remote.Store
	bus    bus.Bus
	codec  bus.Codec
	log    Logger
	hooks  Hooks

	id          string // publisher identity; generated once, never changes
	channel     string
	localTTL    time.Duration
	closeStores bool

	locks *keylock.Registry
	sub   bus.Subscription

	done      chan struct{}
	closeWg   sync.WaitGroup
	closeOnce sync.Once
}

func newCache(opts Options) (*cache, error) {
	if opts.Name == "" {
		return nil, ErrNoName
	}
	if opts.Local == nil {
		return nil, ErrNoLocalStore
	}
	if opts.Remote == nil {
		return nil, ErrNoRemoteStore
	}
	if opts.Bus == nil {
		return nil, ErrNoBus
	}

	c := &cache{
		name:        opts.Name,
		local:       opts.Local,
		remote:      opts.Remote,
		bus:         opts.Bus,
		id:          uuid.NewString(),
		channel:     opts.Name + "Channel",
		closeStores: opts.CloseStores,
		locks:       keylock.New(),
		done:        make(chan struct{}),
	}

	c.codec = coalesce[bus.Codec](opts.Codec, codec.Msgpack{})
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.localTTL = coalesce[time.Duration](opts.LocalTTL, defaultLocalTTL)

	sub, err := c.bus.Subscribe(context.Background(), c.channel)
	if err != nil {
		return nil, fmt.Errorf("tiercache: subscribe %q: %w", c.channel, err)
	}
	c.sub = sub

	c.closeWg.Add(1)
	go c.invalidationLoop()

	c.log.Debug("cache instance up", Fields{"name": c.name, "publisher": c.id})
	return c, nil
}

func (c *cache) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		err = c.sub.Close(ctx)
		close(c.done)
		c.closeWg.Wait()
		if c.closeStores {
			if e := c.local.Close(ctx); e != nil && err == nil {
				err = e
			}
			if e := c.remote.Close(ctx); e != nil && err == nil {
				err = e
			}
			if e := c.bus.Close(ctx); e != nil && err == nil {
				err = e
			}
		}
	})
	return err
}

func (c *cache) Get(key string) ([]byte, bool, error) {
	return c.GetContext(context.Background(), key)
}

func (c *cache) GetContext(ctx context.Context, key string) ([]byte, bool, error) {
	k := c.storageKey(key)
	if b, ok, err := c.local.Get(ctx, k); err == nil && ok {
		return b, true, nil
	}

	// L2 is authoritative for existence; a miss here needs no lock
	exists, err := c.remote.Exists(ctx, k)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	// Serialize local population per key. This bounds concurrent L2
	// fetches for one key to a single in-flight call; queued waiters
	// still fetch in turn once they hold the lock.
	release, err := c.locks.Acquire(ctx, key)
	if err != nil {
		return nil, false, err
	}
	defer release()

	val, found, err := c.remote.Get(ctx, k)
	if err != nil {
		return nil, false, err
	}
	if !found {
		// vanished between the existence check and the fetch
		c.hooks.RemoteVanished(k)
		c.log.Debug("entry vanished before fetch", Fields{"key": key})
		return nil, false, nil
	}

	c.populateLocal(ctx, k, val, c.resolvePolicy(ctx, k))
	return val, true, nil
}

func (c *cache) Set(key string, value []byte, policy ExpirationPolicy) error {
	return c.SetContext(context.Background(), key, value, policy)
}

func (c *cache) SetContext(ctx context.Context, key string, value []byte, policy ExpirationPolicy) error {
	release, err := c.locks.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	k := c.storageKey(key)
	if err := c.remote.Set(ctx, k, value, policy.metadata(time.Now())); err != nil {
		return err
	}
	c.populateLocal(ctx, k, value, policy)

	// L2 already holds the new value; a lost broadcast only delays
	// peers until their own L1 TTLs lapse
	_ = c.publish(ctx, key)
	return nil
}

func (c *cache) Remove(key string) error {
	return c.RemoveContext(context.Background(), key)
}

func (c *cache) RemoveContext(ctx context.Context, key string) error {
	release, err := c.locks.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	k := c.storageKey(key)
	remoteErr := c.remote.Del(ctx, k)
	if err := c.local.Del(ctx, k); err != nil {
		c.log.Debug("local delete failed", Fields{"key": key, "err": err})
	}
	pubErr := c.publish(ctx, key)

	if remoteErr != nil {
		return &RemoveError{Key: key, RemoteErr: remoteErr, PublishErr: pubErr}
	}
	return nil
}

func (c *cache) Refresh(key string) error {
	return c.RefreshContext(context.Background(), key)
}

func (c *cache) RefreshContext(ctx context.Context, key string) error {
	return c.remote.Refresh(ctx, c.storageKey(key))
}

// resolvePolicy reconstructs the expiration policy from L2 metadata.
// Server-side faults are recovered locally as "no policy known"; they are
// never surfaced to the caller.
func (c *cache) resolvePolicy(ctx context.Context, storageKey string) ExpirationPolicy {
	meta, found, err := c.remote.Metadata(ctx, storageKey)
	if err != nil {
		c.hooks.MetadataReadRecovered(storageKey, err)
		c.log.Warn("metadata read recovered", Fields{"key": storageKey, "err": err})
		return ExpirationPolicy{}
	}
	if !found {
		return ExpirationPolicy{}
	}
	return policyFromMetadata(meta)
}

// populateLocal writes the entry into L1 unless the policy carries a
// sliding window: sliding renewal happens against L2 on each read, and a
// local copy would let the tiers' effective lifetimes diverge.
func (c *cache) populateLocal(ctx context.Context, storageKey string, value []byte, policy ExpirationPolicy) {
	if policy.HasSliding() {
		return
	}
	ttl, pinned := policy.localTTL(time.Now())
	if !pinned {
		ttl = c.localTTL
	}
	if ttl <= 0 {
		return // deadline already passed
	}
	ok, err := c.local.Set(ctx, storageKey, value, ttl)
	if err != nil {
		c.log.Warn("local set failed", Fields{"key": storageKey, "err": err})
		return
	}
	if !ok {
		c.hooks.LocalSetRejected(storageKey)
		c.log.Debug("local set rejected (pressure)", Fields{"key": storageKey})
	}
}

func (c *cache) publish(ctx context.Context, key string) error {
	payload, err := c.codec.Encode(bus.Message{Key: key, Publisher: c.id})
	if err == nil {
		err = c.bus.Publish(ctx, c.channel, payload)
	}
	if err != nil {
		c.hooks.PublishError(key, err)
		c.log.Warn("invalidation publish failed", Fields{"key": key, "err": err})
	}
	return err
}

// invalidationLoop consumes bus payloads on a goroutine owned by this
// instance, so transport callbacks never run cache code while a per-key
// lock may be held elsewhere.
func (c *cache) invalidationLoop() {
	defer c.closeWg.Done()
	for {
		select {
		case payload, ok := <-c.sub.Messages():
			if !ok {
				return
			}
			c.handleInvalidation(payload)
		case <-c.done:
			return
		}
	}
}

func (c *cache) handleInvalidation(payload []byte) {
	msg, err := c.codec.Decode(payload)
	if err != nil {
		// a malformed message must not kill the loop; skip it
		c.hooks.InvalidationDropped(len(payload), err)
		c.log.Debug("dropped undecodable invalidation payload", Fields{"len": len(payload), "err": err})
		return
	}
	if msg.Publisher == c.id {
		return // self-originated; already applied locally
	}
	k := c.storageKey(msg.Key)
	if err := c.local.Del(context.Background(), k); err != nil {
		c.log.Debug("peer eviction delete failed", Fields{"key": msg.Key, "err": err})
		return
	}
	c.hooks.PeerEviction(msg.Key)
	c.log.Debug("evicted local copy on peer invalidation", Fields{"key": msg.Key, "publisher": msg.Publisher})
}

func (c *cache) storageKey(key string) string {
	// isolate by instance name
	return c.name + key
}
