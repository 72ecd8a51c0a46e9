package store

import (
	"context"
	"strings"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Manpreetjohar10/chat-application/internal/engine"
)

// releaseScript deletes the identity key only when it is still held by
// the releasing connection, so a late cleanup cannot free a name that
// was already taken over.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisIdentity backs the identity registry with redis conditional
// writes, keeping name uniqueness global across instances. SetNX is the
// compare-and-set: the first committed writer wins, every other claimer
// observes the existing holder.
type RedisIdentity struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisIdentity(rdb *redis.Client, log *slog.Logger) *RedisIdentity {
	return &RedisIdentity{rdb: rdb, log: log}
}

func identityKey(name string) string { return "identity:" + strings.ToLower(name) }

func (r *RedisIdentity) Claim(ctx context.Context, name, connID string) error {
	ok, err := r.rdb.SetNX(ctx, identityKey(name), connID, 0).Result()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	cur, err := r.rdb.Get(ctx, identityKey(name)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	if cur == connID {
		return nil
	}
	return engine.ErrNameTaken
}

func (r *RedisIdentity) Take(ctx context.Context, name, connID string) error {
	return r.rdb.Set(ctx, identityKey(name), connID, 0).Err()
}

func (r *RedisIdentity) Release(ctx context.Context, name, connID string) {
	if err := releaseScript.Run(ctx, r.rdb, []string{identityKey(name)}, connID).Err(); err != nil && err != redis.Nil {
		r.log.Error("identity.release", "name", name, "err", err)
	}
}

func (r *RedisIdentity) HolderOf(ctx context.Context, name string) (string, bool) {
	cur, err := r.rdb.Get(ctx, identityKey(name)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.log.Error("identity.holder", "name", name, "err", err)
		return "", false
	}
	return cur, true
}
