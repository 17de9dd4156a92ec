package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps timestamp lists in Redis sorted sets so several engine
// instances can share one budget. Scores are unix milliseconds; members are
// unique per request so simultaneous arrivals never collapse into one
// entry.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a RedisStore writing keys under the given prefix
// ("rl" when empty).
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Take implements [Store] with an optimistic WATCH loop: prune and count
// under watch, then record inside the transaction. A concurrent writer on
// the same key fails the transaction and the read-decide-write cycle
// retries.
func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Result, error) {
	const maxRetries = 4
	redisKey := s.key(key)

	for i := 0; i < maxRetries; i++ {
		var res Result

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			cutoff := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)
			if err := tx.ZRemRangeByScore(ctx, redisKey, "0", cutoff).Err(); err != nil {
				return err
			}

			entries, err := tx.ZRangeWithScores(ctx, redisKey, 0, -1).Result()
			if err != nil {
				return err
			}

			if len(entries) >= max {
				oldest := time.UnixMilli(int64(entries[0].Score))
				res = Result{
					Allowed:    false,
					Remaining:  0,
					RetryAfter: oldest.Add(window).Sub(now),
				}
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZAdd(ctx, redisKey, redis.Z{
					Score:  float64(now.UnixMilli()),
					Member: uuid.NewString(),
				})
				pipe.PExpire(ctx, redisKey, window)
				return nil
			})
			if err != nil {
				return err
			}

			res = Result{Allowed: true, Remaining: max - len(entries) - 1}
			return nil
		}, redisKey)

		if err == nil {
			return res, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return Result{}, fmt.Errorf("%w: optimistic retries exhausted", ErrUnavailable)
}
