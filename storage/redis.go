package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// nextMoveScript increments the per-game counter and never hands out an id
// at or below the floor already present in the moves table.
var nextMoveScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
local floor = tonumber(ARGV[1])
if v <= floor then
  v = floor + 1
  redis.call('SET', KEYS[1], v)
end
redis.call('EXPIRE', KEYS[1], ARGV[2])
return v
`)

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisSequencer holds the single-slot active game reference and the move
// id counters.
type RedisSequencer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSequencer(client *redis.Client, ttl time.Duration) *RedisSequencer {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	return &RedisSequencer{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSequencer) ActiveGameID(ctx context.Context) (uint, bool, error) {
	data, err := r.client.Get(ctx, activeGameKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get active game: %w", err)
	}
	id, err := strconv.ParseUint(data, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse active game %q: %w", data, err)
	}
	return uint(id), true, nil
}

// ClaimActiveGame sets the slot only when it is empty.
func (r *RedisSequencer) ClaimActiveGame(ctx context.Context, gameID uint) (bool, error) {
	ok, err := r.client.SetNX(ctx, activeGameKey(), strconv.FormatUint(uint64(gameID), 10), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim active game: %w", err)
	}
	return ok, nil
}

// ReleaseActiveGame clears the slot if it still points at gameID.
func (r *RedisSequencer) ReleaseActiveGame(ctx context.Context, gameID uint) error {
	err := releaseScript.Run(ctx, r.client, []string{activeGameKey()}, strconv.FormatUint(uint64(gameID), 10)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release active game: %w", err)
	}
	return nil
}

func (r *RedisSequencer) NextMoveID(ctx context.Context, gameID uint, floor uint) (uint, error) {
	v, err := nextMoveScript.Run(ctx, r.client, []string{moveSeqKey(gameID)}, floor, int64(r.ttl/time.Second)).Int64()
	if err != nil {
		return 0, fmt.Errorf("next move id: %w", err)
	}
	return uint(v), nil
}
