package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure reported by RedisStore.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultRedisPrefix = "auth"

// persistScript upserts the record and moves its jti to the subject index of the
// new subject, so an upsert that changes the subject leaves no stale index entry.
// KEYS[1] record key, KEYS[2] subject index key, ARGV[1] subject index prefix,
// ARGV[2] jti, ARGV[3] subject, ARGV[4] expiry in unix ms.
const persistScript = `
local prev = redis.call("HGET", KEYS[1], "sub")
if prev and prev ~= ARGV[3] then
  redis.call("SREM", ARGV[1] .. prev, ARGV[2])
end
redis.call("HSET", KEYS[1], "sub", ARGV[3], "exp", ARGV[4])
redis.call("PEXPIREAT", KEYS[1], ARGV[4])
redis.call("SADD", KEYS[2], ARGV[2])
redis.call("PEXPIREAT", KEYS[2], ARGV[4])
return 1
`

// consumeScript deletes the record and unlinks it from its subject index.
// KEYS[1] record key, ARGV[1] subject index prefix, ARGV[2] jti.
const consumeScript = `
local sub = redis.call("HGET", KEYS[1], "sub")
local deleted = redis.call("DEL", KEYS[1])
if deleted == 1 and sub then
  redis.call("SREM", ARGV[1] .. sub, ARGV[2])
end
return deleted
`

// revokeSubjectScript deletes every record listed in the subject index.
// KEYS[1] subject index key, ARGV[1] record key prefix.
const revokeSubjectScript = `
local members = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, jti in ipairs(members) do
  removed = removed + redis.call("DEL", ARGV[1] .. jti)
end
redis.call("DEL", KEYS[1])
return removed
`

var (
	persistLua       = redis.NewScript(persistScript)
	consumeLua       = redis.NewScript(consumeScript)
	revokeSubjectLua = redis.NewScript(revokeSubjectScript)
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps each refresh record in a hash that Redis expires at the record's
// expiry, plus a per-subject set of jtis used for cascade revocation.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) recordKeyPrefix() string  { return s.prefix + ":rt:" }
func (s *RedisStore) subjectKeyPrefix() string { return s.prefix + ":rts:" }
func (s *RedisStore) recordKey(jti string) string {
	return s.recordKeyPrefix() + jti
}
func (s *RedisStore) subjectKey(subject string) string {
	return s.subjectKeyPrefix() + subject
}

func (s *RedisStore) Persist(ctx context.Context, rec *Record) error {
	if !rec.Live(NowTimeFunc()) {
		// Redis would drop the key immediately; nothing to keep.
		return nil
	}
	keys := []string{s.recordKey(rec.JTI), s.subjectKey(rec.Subject)}
	err := persistLua.Run(ctx, s.rdb, keys, s.subjectKeyPrefix(), rec.JTI, rec.Subject, rec.ExpiresAt.UnixMilli()).Err()
	if err != nil {
		return redisError("refresh persist", err)
	}
	return nil
}

// Consume runs a single script so DEL is the only point of contention between
// concurrent rotations of one jti. Redis never returns an expired key, so DEL
// reporting a deletion means the record was live.
func (s *RedisStore) Consume(ctx context.Context, jti string) (bool, error) {
	deleted, err := consumeLua.Run(ctx, s.rdb, []string{s.recordKey(jti)}, s.subjectKeyPrefix(), jti).Int64()
	if err != nil {
		return false, redisError("refresh consume", err)
	}
	return deleted == 1, nil
}

func (s *RedisStore) RevokeSubject(ctx context.Context, subject string) (int64, error) {
	removed, err := revokeSubjectLua.Run(ctx, s.rdb, []string{s.subjectKey(subject)}, s.recordKeyPrefix()).Int64()
	if err != nil {
		return 0, redisError("refresh revoke subject", err)
	}
	return removed, nil
}

// PurgeExpired is a no-op: Redis expires records on its own.
func (s *RedisStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func redisError(op string, err error) error {
	return autherrors.E(autherrors.KindStoreUnavailable, op, fmt.Errorf("%w: %v", ErrRedisUnavailable, err))
}
