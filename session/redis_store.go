package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultUpdateRetries = 8

// RedisStore is a Redis-backed [Store].
//
// Records are stored under "<prefix>:<sessionID>" with the TTL given at
// construction. Updates run as WATCH/MULTI transactions, keep the remaining
// TTL of the key, and retry when a concurrent writer wins the race.
type RedisStore struct {
	redis      redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxRetries int
	now        func() time.Time
}

// NewRedisStore creates a [RedisStore]. A ttl of zero stores sessions without expiry.
func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gs"
	}
	return &RedisStore{
		redis:      rdb,
		prefix:     prefix,
		ttl:        ttl,
		maxRetries: defaultUpdateRetries,
		now:        time.Now,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Create persists a new session with SET NX.
//
//	Performance: 1 Redis command.
func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	if err := validateNew(sess); err != nil {
		return err
	}

	stored := sess.Clone()
	if stored.CreatedAt == 0 {
		stored.CreatedAt = s.now().Unix()
	}
	stored.UpdatedAt = stored.CreatedAt

	data, err := Encode(stored)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, s.key(sess.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

// Read loads a session.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Read(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.ID = id
	return sess, nil
}

// Update applies p inside an optimistic transaction.
//
//	Performance: WATCH + GET + PTTL + MULTI/SET/EXEC per attempt.
func (s *RedisStore) Update(ctx context.Context, id string, p Patch) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := s.key(id)
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var committed *Session
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			sess, err := Decode(data)
			if err != nil {
				return err
			}
			sess.ID = id

			pttl, err := tx.PTTL(ctx, key).Result()
			if err != nil {
				return err
			}
			ttl, err := keptTTL(pttl)
			if err != nil {
				return err
			}

			p.apply(sess, s.now())
			next, err := Encode(sess)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				// XX: a key that expired since GET stays gone.
				pipe.SetArgs(ctx, key, next, redis.SetArgs{Mode: "XX", TTL: ttl})
				return nil
			})
			if err != nil {
				return err
			}
			committed = sess
			return nil
		}, key)

		switch {
		case err == nil:
			return committed, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return nil, ErrNotFound
		case errors.Is(err, ErrCorrupt):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return nil, ErrUpdateConflict
}

// Clear deletes a session. Deleting a missing key succeeds.
//
//	Performance: 1 Redis DEL.
func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping measures Redis round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}

// keptTTL converts a PTTL reply into the expiry to write back. go-redis
// reports a missing key as -2 and a key without expiry as -1 (raw, not
// milliseconds). A live key with under a millisecond left keeps 1ms so it
// is never rewritten as persistent.
func keptTTL(pttl time.Duration) (time.Duration, error) {
	switch {
	case pttl == -2:
		return 0, redis.Nil
	case pttl < 0:
		return 0, nil
	case pttl < time.Millisecond:
		return time.Millisecond, nil
	default:
		return pttl, nil
	}
}
