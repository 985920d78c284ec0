package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	bookingserrors "quickcourt/internal/bookings/errors"
)

// releaseScript deletes the key only when it still holds the caller's token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type redisSlotLocker struct {
	client   redis.Cmdable
	newToken func() string
}

func NewRedisSlotLocker(client redis.Cmdable) SlotLocker {
	return &redisSlotLocker{
		client:   client,
		newToken: uuid.NewString,
	}
}

func (l *redisSlotLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to set slot lock: %w", err)
	}
	if !ok {
		return "", bookingserrors.ErrLockHeld
	}
	return token, nil
}

func (l *redisSlotLocker) Release(ctx context.Context, key, token string) error {
	deleted, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	if deleted == 0 {
		return bookingserrors.ErrLockLost
	}
	return nil
}
