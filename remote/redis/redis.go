// Package redis implements the tiercache remote tier on a Redis hash per
// entry.
//
// Layout per key:
//
//	data   - opaque value bytes
//	absexp - absolute expiration, Unix milliseconds, -1 when unset
//	sldexp - sliding window, milliseconds, -1 when unset
//
// The key TTL is derived from the two metadata fields: the sliding window
// when one is set (clamped to the absolute deadline when both are set),
// otherwise the time remaining to the absolute deadline, otherwise no
// expiry. Reads renew a sliding TTL so sliding semantics stay authoritative
// in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tiercache/remote"
)

var ErrNilClient = errors.New("redis remote store: nil client")

const (
	fieldData   = "data"
	fieldAbsExp = "absexp"
	fieldSldExp = "sldexp"
)

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ remote.Store = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Store{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	vals, err := s.rdb.HMGet(ctx, key, fieldAbsExp, fieldSldExp, fieldData).Result()
	if err != nil {
		return nil, false, err
	}
	if len(vals) != 3 || vals[2] == nil {
		return nil, false, nil // miss
	}
	data, ok := asBytes(vals[2])
	if !ok {
		return nil, false, fmt.Errorf("redis remote store: unexpected data type %T at %q", vals[2], key)
	}

	// renew sliding TTL on read, best-effort
	if meta, err := parseMeta(vals[0], vals[1]); err == nil && meta.HasSliding() {
		if ttl, bounded := keyTTL(meta, time.Now()); bounded {
			_ = s.rdb.PExpire(ctx, key, ttl).Err()
		}
	}
	return data, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, meta Metadata) error {
	ttl, bounded := keyTTL(meta, time.Now())
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key,
			fieldData, value,
			fieldAbsExp, meta.AbsoluteUnixMilli,
			fieldSldExp, meta.SlidingMillis,
		)
		if bounded {
			p.PExpire(ctx, key, ttl)
		} else {
			// HSET keeps a previous TTL; clear it for unbounded entries
			p.Persist(ctx, key)
		}
		return nil
	})
	return err
}

func (s *Store) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Metadata(ctx context.Context, key string) (Metadata, bool, error) {
	vals, err := s.rdb.HMGet(ctx, key, fieldAbsExp, fieldSldExp).Result()
	if err != nil {
		return remote.None(), false, err
	}
	if len(vals) != 2 || (vals[0] == nil && vals[1] == nil) {
		return remote.None(), false, nil
	}
	meta, err := parseMeta(vals[0], vals[1])
	if err != nil {
		return remote.None(), false, err
	}
	return meta, true, nil
}

func (s *Store) Refresh(ctx context.Context, key string) error {
	vals, err := s.rdb.HMGet(ctx, key, fieldAbsExp, fieldSldExp).Result()
	if err != nil {
		return err
	}
	if len(vals) != 2 || (vals[0] == nil && vals[1] == nil) {
		return nil // absent; nothing to refresh
	}
	meta, err := parseMeta(vals[0], vals[1])
	if err != nil {
		return err
	}
	if ttl, bounded := keyTTL(meta, time.Now()); bounded {
		return s.rdb.PExpire(ctx, key, ttl).Err()
	}
	return nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// Metadata is re-exported for call-site brevity.
type Metadata = remote.Metadata

// keyTTL derives the key-level TTL from metadata. bounded=false means the
// entry must not expire on its own.
func keyTTL(meta Metadata, now time.Time) (ttl time.Duration, bounded bool) {
	switch {
	case meta.HasSliding() && meta.HasAbsolute():
		ttl = meta.Sliding()
		if until := meta.Absolute().Sub(now); until < ttl {
			ttl = until
		}
		return ttl, true
	case meta.HasSliding():
		return meta.Sliding(), true
	case meta.HasAbsolute():
		return meta.Absolute().Sub(now), true
	default:
		return 0, false
	}
}

func parseMeta(abs, sld any) (Metadata, error) {
	a, err := parseField(abs)
	if err != nil {
		return remote.None(), fmt.Errorf("redis remote store: absexp: %w", err)
	}
	s, err := parseField(sld)
	if err != nil {
		return remote.None(), fmt.Errorf("redis remote store: sldexp: %w", err)
	}
	return Metadata{AbsoluteUnixMilli: a, SlidingMillis: s}, nil
}

func parseField(v any) (int64, error) {
	switch vv := v.(type) {
	case nil:
		return remote.NoExpiry, nil
	case string:
		return strconv.ParseInt(vv, 10, 64)
	case []byte:
		return strconv.ParseInt(string(vv), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected stored type %T", v)
	}
}

func asBytes(v any) ([]byte, bool) {
	switch vv := v.(type) {
	case string:
		return []byte(vv), true
	case []byte:
		return vv, true
	default:
		return nil, false
	}
}
