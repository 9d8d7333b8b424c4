package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyedLock provides per-key mutual exclusion across worker processes via
// Redis SET NX. Vectorization tasks for the same (note, recording) key must
// never run concurrently: two concurrent runs could each delete the other's
// freshly inserted points.
type KeyedLock struct {
	rdb *redis.Client
}

func NewKeyedLock(rdb *redis.Client) *KeyedLock {
	return &KeyedLock{rdb: rdb}
}

// Acquire attempts to take the lock for key. On success it returns a release
// function; ok=false means another holder owns the key.
func (l *KeyedLock) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error) {
	token := uuid.NewString()
	lockKey := "vectorize:lock:" + key

	acquired, err := l.rdb.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release = func() {
		// Delete only our own token so an expired-and-reacquired lock is not
		// released by the previous holder.
		script := redis.NewScript(`
			if redis.call("GET", KEYS[1]) == ARGV[1] then
				return redis.call("DEL", KEYS[1])
			end
			return 0
		`)
		script.Run(context.Background(), l.rdb, []string{lockKey}, token)
	}
	return release, true, nil
}
